package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/masmgr/diffseries/internal/history"
)

// MarkdownWriter writes reports as Markdown.
type MarkdownWriter struct{}

func (w *MarkdownWriter) open(options OutputOptions, fn func(out io.Writer) error) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	return fn(out)
}

// WriteSeriesList outputs the stored series as Markdown.
func (w *MarkdownWriter) WriteSeriesList(report *SeriesListReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		fmt.Fprintln(out, "# Diff Series")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "**Store:** `%s`\n\n", report.StorePath)
		fmt.Fprintf(out, "**Total Series:** %d\n\n", len(report.Series))

		fmt.Fprintln(out, "| # | Name | Commits | Finalized | Created |")
		fmt.Fprintln(out, "|---|------|---------|-----------|---------|")
		for i, info := range limitTop(report.Series, options.Top) {
			fmt.Fprintf(out, "| %d | %s | %d | %t | %s |\n",
				i+1, escapeMarkdown(info.Name), info.Commits, info.Finalized,
				info.Created.Format(reportDateTimeLayout))
		}
		return nil
	})
}

// WriteSeries outputs a series as Markdown.
func (w *MarkdownWriter) WriteSeries(report *SeriesReport, options OutputOptions) error {
	s := report.Series
	return w.open(options, func(out io.Writer) error {
		fmt.Fprintf(out, "# Series %s\n\n", escapeMarkdown(s.Name))
		fmt.Fprintf(out, "**Commits:** %d, **Finalized:** %t\n\n", s.Len(), s.Finalized())

		for _, c := range limitTop(s.Commits(), options.Top) {
			fmt.Fprintf(out, "## %d. `%s` %s\n\n", c.Position, shortSHA(c.CommitID), escapeMarkdown(c.Message))
			fmt.Fprintln(out, "| Status | File | Inserts | Deletes |")
			fmt.Fprintln(out, "|--------|------|---------|---------|")
			for _, fd := range s.CommitFileDiffs(c.Position) {
				fmt.Fprintf(out, "| %s | `%s` | %d | %d |\n",
					fd.Status, fileLabel(fd), fd.Counts.Inserts, fd.Counts.Deletes)
			}
			fmt.Fprintln(out)
		}
		return nil
	})
}

// WriteAncestors outputs ancestors as Markdown.
func (w *MarkdownWriter) WriteAncestors(report *AncestorsReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		fmt.Fprintf(out, "# Ancestors (%s)\n\n", report.Flavor)
		fmt.Fprintf(out, "**Series:** %s\n\n", escapeMarkdown(report.Series))

		fmt.Fprintln(out, "| Pos | File | Ancestors |")
		fmt.Fprintln(out, "|-----|------|-----------|")
		for _, item := range limitTop(report.Items, options.Top) {
			fmt.Fprintf(out, "| %d | `%s` | %s |\n",
				item.FileDiff.CommitPosition, fileLabel(item.FileDiff), escapeMarkdown(ancestorList(item.Ancestors)))
		}
		return nil
	})
}

// WriteFiles outputs resolved files as Markdown.
func (w *MarkdownWriter) WriteFiles(report *FilesReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		fmt.Fprintln(out, "# Files")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "**Series:** %s\n\n", escapeMarkdown(report.Series))
		fmt.Fprintf(out, "**Base:** `%s`, **Tip:** `%s`\n\n", commitLabel(report.Base), commitLabel(report.Tip))
		fmt.Fprintf(out, "**Total Files:** %d\n\n", len(report.Items))

		fmt.Fprintln(out, "| # | Pos | Status | File | Base |")
		fmt.Fprintln(out, "|---|-----|--------|------|------|")
		for i, item := range limitTop(report.Items, options.Top) {
			base := "-"
			if item.Base != nil {
				base = fmt.Sprintf("%d:`%s`", item.Base.CommitPosition, item.Base.DestPath)
			}
			fmt.Fprintf(out, "| %d | %d | %s | `%s` | %s |\n",
				i+1, item.FileDiff.CommitPosition, item.FileDiff.Status, fileLabel(item.FileDiff), base)
		}
		return nil
	})
}

// WriteHistory outputs a history diff as Markdown.
func (w *MarkdownWriter) WriteHistory(report *HistoryReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		fmt.Fprintln(out, "# Commit History Diff")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "**Old:** %s, **New:** %s\n\n", escapeMarkdown(report.Old), escapeMarkdown(report.New))

		fmt.Fprintln(out, "| Change | Old | New |")
		fmt.Fprintln(out, "|--------|-----|-----|")
		for _, e := range limitTop(report.Entries, options.Top) {
			fmt.Fprintf(out, "| %s %s | %s | %s |\n", getEntryEmoji(e.Type), e.Type, commitLabel(e.Old), commitLabel(e.New))
		}
		return nil
	})
}

// WriteValidation outputs validation results as Markdown.
func (w *MarkdownWriter) WriteValidation(report *ValidationReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		fmt.Fprintln(out, "# Commit Validation")
		fmt.Fprintln(out)
		if report.Range != "" {
			fmt.Fprintf(out, "**Range:** `%s`\n\n", report.Range)
		}
		if report.Tip != "" {
			fmt.Fprintf(out, "**Commits:** %d, **Tip:** `%s`\n\n", report.Commits, shortSHA(report.Tip))
		}
		if report.Token != "" {
			fmt.Fprintf(out, "```\n%s\n```\n\n", report.Token)
		}
		if len(report.Checks) > 0 {
			fmt.Fprintln(out, "| Path | Revision | Exists |")
			fmt.Fprintln(out, "|------|----------|--------|")
			for _, c := range report.Checks {
				fmt.Fprintf(out, "| `%s` | `%s` | %t |\n", c.Path, c.Revision, c.Exists)
			}
		}
		return nil
	})
}

func getEntryEmoji(t history.EntryType) string {
	switch t {
	case history.Added:
		return "🟢"
	case history.Removed:
		return "🔴"
	case history.Modified:
		return "🟡"
	default:
		return "⚪"
	}
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
