package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/masmgr/diffseries/internal/history"
	"github.com/masmgr/diffseries/internal/series"
)

// ConsoleWriter writes reports to the console.
type ConsoleWriter struct{}

func (w *ConsoleWriter) open(options OutputOptions, fn func(out io.Writer) error) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	return fn(out)
}

func title(out io.Writer, s string) {
	color.New(color.FgGreen).Fprintln(out, s)
}

// WriteSeriesList outputs the stored series.
func (w *ConsoleWriter) WriteSeriesList(report *SeriesListReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		title(out, "Diff Series")
		fmt.Fprintf(out, "Store: %s\n", report.StorePath)
		fmt.Fprintf(out, "Total series: %d\n\n", len(report.Series))

		if len(report.Series) == 0 {
			fmt.Fprintln(out, "No series stored.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tName\tCommits\tFinalized\tCreated")
		for i, info := range limitTop(report.Series, options.Top) {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%t\t%s\n",
				i+1,
				info.Name,
				info.Commits,
				info.Finalized,
				info.Created.Format(reportDateTimeLayout),
			)
		}
		return tw.Flush()
	})
}

// WriteSeries outputs the commits of a series with their file diffs.
func (w *ConsoleWriter) WriteSeries(report *SeriesReport, options OutputOptions) error {
	s := report.Series
	return w.open(options, func(out io.Writer) error {
		title(out, "Series "+s.Name)
		fmt.Fprintf(out, "Commits: %d, Finalized: %t\n\n", s.Len(), s.Finalized())

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Pos\tCommit\tParent\tStatus\tFile\t+/-")
		for _, c := range limitTop(s.Commits(), options.Top) {
			fmt.Fprintf(tw, "%d\t%s\t%s\t\t%s\t\n",
				c.Position, shortSHA(c.CommitID), shortSHA(c.ParentID), truncateMessage(c.Message, 50))
			for _, fd := range s.CommitFileDiffs(c.Position) {
				fmt.Fprintf(tw, "\t\t\t%s\t%s\t+%d -%d\n",
					statusColor(fd.Status)(fd.Status.String()),
					fileLabel(fd),
					fd.Counts.Inserts,
					fd.Counts.Deletes,
				)
			}
		}
		return tw.Flush()
	})
}

// WriteAncestors outputs each FileDiff with its ancestors.
func (w *ConsoleWriter) WriteAncestors(report *AncestorsReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		title(out, fmt.Sprintf("Ancestors (%s)", report.Flavor))
		fmt.Fprintf(out, "Series: %s\n\n", report.Series)

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Pos\tFile\tAncestors")
		for _, item := range limitTop(report.Items, options.Top) {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", item.FileDiff.CommitPosition, fileLabel(item.FileDiff), ancestorList(item.Ancestors))
		}
		return tw.Flush()
	})
}

// WriteFiles outputs the files of a base/tip range.
func (w *ConsoleWriter) WriteFiles(report *FilesReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		title(out, "Files")
		fmt.Fprintf(out, "Series: %s\n", report.Series)
		fmt.Fprintf(out, "Base: %s, Tip: %s\n", commitLabel(report.Base), commitLabel(report.Tip))
		fmt.Fprintf(out, "Total files: %d\n\n", len(report.Items))

		if len(report.Items) == 0 {
			fmt.Fprintln(out, "No files in range.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tPos\tStatus\tFile\tBase")
		for i, item := range limitTop(report.Items, options.Top) {
			base := "-"
			if item.Base != nil {
				base = fmt.Sprintf("%d:%s", item.Base.CommitPosition, item.Base.DestPath)
			}
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
				i+1,
				item.FileDiff.CommitPosition,
				statusColor(item.FileDiff.Status)(item.FileDiff.Status.String()),
				fileLabel(item.FileDiff),
				base,
			)
		}
		return tw.Flush()
	})
}

// WriteHistory outputs a commit history diff.
func (w *ConsoleWriter) WriteHistory(report *HistoryReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		title(out, "Commit History Diff")
		fmt.Fprintf(out, "Old: %s, New: %s\n", report.Old, report.New)
		fmt.Fprintf(out, "Added: %d, Removed: %d, Modified: %d, Unmodified: %d\n\n",
			report.Summary.Added, report.Summary.Removed, report.Summary.Modified, report.Summary.Unmodified)

		for _, e := range limitTop(report.Entries, options.Top) {
			fmt.Fprintln(out, entryColor(e.Type)(e.String()))
		}
		return nil
	})
}

// WriteValidation outputs a validation token and existence checks.
func (w *ConsoleWriter) WriteValidation(report *ValidationReport, options OutputOptions) error {
	return w.open(options, func(out io.Writer) error {
		title(out, "Commit Validation")
		if report.Range != "" {
			fmt.Fprintf(out, "Range: %s\n", report.Range)
		}
		if report.Tip != "" {
			fmt.Fprintf(out, "Commits: %d, Tip: %s\n", report.Commits, shortSHA(report.Tip))
		}
		if report.Token != "" {
			fmt.Fprintf(out, "Token: %s\n", report.Token)
		}

		if len(report.Checks) > 0 {
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Path\tRevision\tExists")
			for _, c := range report.Checks {
				exists := color.RedString("no")
				if c.Exists {
					exists = color.GreenString("yes")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Path, c.Revision, exists)
			}
			return tw.Flush()
		}
		return nil
	})
}

// Helper functions

func ancestorList(ancestors []*series.FileDiff) string {
	if len(ancestors) == 0 {
		return "-"
	}
	parts := make([]string, len(ancestors))
	for i, a := range ancestors {
		parts[i] = fmt.Sprintf("%d:%s", a.CommitPosition, a.SourcePath)
	}
	return strings.Join(parts, ", ")
}

func statusColor(status series.Status) func(string, ...interface{}) string {
	switch status {
	case series.StatusAdded:
		return color.GreenString
	case series.StatusDeleted:
		return color.RedString
	case series.StatusMoved, series.StatusCopied:
		return color.YellowString
	default:
		return fmt.Sprintf
	}
}

func entryColor(t history.EntryType) func(string, ...interface{}) string {
	switch t {
	case history.Added:
		return color.GreenString
	case history.Removed:
		return color.RedString
	case history.Modified:
		return color.YellowString
	default:
		return fmt.Sprintf
	}
}
