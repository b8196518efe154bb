package output

import (
	"time"

	"github.com/masmgr/diffseries/internal/ancestry"
	"github.com/masmgr/diffseries/internal/basetip"
	"github.com/masmgr/diffseries/internal/history"
	"github.com/masmgr/diffseries/internal/series"
	"github.com/masmgr/diffseries/internal/store"
)

// Compile-time interface conformance checks.
var (
	_ ReportWriter = (*ConsoleWriter)(nil)
	_ ReportWriter = (*JSONWriter)(nil)
	_ ReportWriter = (*MarkdownWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatMarkdown OutputFormat = "markdown"
)

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
}

// SeriesListReport lists the series in a store.
type SeriesListReport struct {
	StorePath   string
	GeneratedAt time.Time
	Series      []store.Info
}

// SeriesReport shows the commits and file diffs of one series.
type SeriesReport struct {
	Series *series.Series
}

// AncestorItem pairs a FileDiff with its ancestors, newest first.
type AncestorItem struct {
	FileDiff  *series.FileDiff
	Ancestors []*series.FileDiff
}

// AncestorsReport holds the ancestors of each FileDiff in a series.
type AncestorsReport struct {
	Series string
	Flavor ancestry.Flavor
	Items  []AncestorItem
}

// FilesReport holds the files resolved for a base/tip range.
type FilesReport struct {
	Series string
	Base   *series.Commit
	Tip    *series.Commit
	Items  []basetip.FileWithBase
}

// HistoryReport holds the commit history diff between two series.
type HistoryReport struct {
	Old     string
	New     string
	Entries []history.Entry
	Summary history.Summary
}

// ExistsCheck is the answer to one file existence query.
type ExistsCheck struct {
	Path     string
	Revision string
	Exists   bool
}

// ValidationReport holds a validation token and optional existence checks.
type ValidationReport struct {
	Range   string
	Commits int
	Tip     string
	Token   string
	Checks  []ExistsCheck
}

// ReportWriter writes every report kind in one format.
type ReportWriter interface {
	WriteSeriesList(report *SeriesListReport, options OutputOptions) error
	WriteSeries(report *SeriesReport, options OutputOptions) error
	WriteAncestors(report *AncestorsReport, options OutputOptions) error
	WriteFiles(report *FilesReport, options OutputOptions) error
	WriteHistory(report *HistoryReport, options OutputOptions) error
	WriteValidation(report *ValidationReport, options OutputOptions) error
}

// NewReportWriter creates a report writer for the specified format.
func NewReportWriter(format OutputFormat) ReportWriter {
	switch format {
	case FormatJSON:
		return &JSONWriter{}
	case FormatMarkdown:
		return &MarkdownWriter{}
	default:
		return &ConsoleWriter{}
	}
}
