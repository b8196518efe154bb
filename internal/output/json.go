package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/masmgr/diffseries/internal/history"
	"github.com/masmgr/diffseries/internal/series"
	"github.com/masmgr/diffseries/internal/store"
)

// JSONWriter writes reports as JSON.
type JSONWriter struct{}

// JSONSeriesListReport is the JSON output structure for the series list.
type JSONSeriesListReport struct {
	Store       string       `json:"store"`
	GeneratedAt string       `json:"generatedAt"`
	TotalSeries int          `json:"totalSeries"`
	Items       []store.Info `json:"items"`
}

// JSONCommit is the JSON output structure for a commit and its files.
type JSONCommit struct {
	*series.Commit
	Files []*series.FileDiff `json:"files"`
}

// JSONSeriesReport is the JSON output structure for a single series.
type JSONSeriesReport struct {
	Name      string       `json:"name"`
	Finalized bool         `json:"finalized"`
	Commits   []JSONCommit `json:"commits"`
}

// JSONAncestorItem is the JSON output structure for one FileDiff's ancestors.
type JSONAncestorItem struct {
	FileDiff  *series.FileDiff   `json:"filediff"`
	Ancestors []*series.FileDiff `json:"ancestors"`
}

// JSONAncestorsReport is the JSON output structure for ancestors.
type JSONAncestorsReport struct {
	Series string             `json:"series"`
	Flavor string             `json:"flavor"`
	Items  []JSONAncestorItem `json:"items"`
}

// JSONFileItem is the JSON output structure for a resolved file.
type JSONFileItem struct {
	FileDiff *series.FileDiff `json:"filediff"`
	Base     *series.FileDiff `json:"base"`
}

// JSONFilesReport is the JSON output structure for a base/tip range.
type JSONFilesReport struct {
	Series     string         `json:"series"`
	Base       *series.Commit `json:"base"`
	Tip        *series.Commit `json:"tip"`
	TotalFiles int            `json:"totalFiles"`
	Items      []JSONFileItem `json:"items"`
}

// JSONHistoryReport is the JSON output structure for a history diff.
type JSONHistoryReport struct {
	Old     string               `json:"old"`
	New     string               `json:"new"`
	Summary history.Summary      `json:"summary"`
	Entries []history.Serialized `json:"entries"`
}

// JSONExistsCheck is the JSON output structure for an existence check.
type JSONExistsCheck struct {
	Path     string `json:"path"`
	Revision string `json:"revision"`
	Exists   bool   `json:"exists"`
}

// JSONValidationReport is the JSON output structure for validation.
type JSONValidationReport struct {
	Range   string            `json:"range,omitempty"`
	Commits int               `json:"commits"`
	Tip     string            `json:"tip,omitempty"`
	Token   string            `json:"token,omitempty"`
	Checks  []JSONExistsCheck `json:"checks,omitempty"`
}

// WriteSeriesList outputs the stored series as JSON.
func (w *JSONWriter) WriteSeriesList(report *SeriesListReport, options OutputOptions) error {
	items := limitTop(report.Series, options.Top)
	if items == nil {
		items = []store.Info{}
	}
	return writeJSON(JSONSeriesListReport{
		Store:       report.StorePath,
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		TotalSeries: len(report.Series),
		Items:       items,
	}, options.OutputPath)
}

// WriteSeries outputs a series as JSON.
func (w *JSONWriter) WriteSeries(report *SeriesReport, options OutputOptions) error {
	s := report.Series
	commits := limitTop(s.Commits(), options.Top)
	jsonCommits := make([]JSONCommit, len(commits))
	for i, c := range commits {
		files := s.CommitFileDiffs(c.Position)
		if files == nil {
			files = []*series.FileDiff{}
		}
		jsonCommits[i] = JSONCommit{Commit: c, Files: files}
	}
	return writeJSON(JSONSeriesReport{
		Name:      s.Name,
		Finalized: s.Finalized(),
		Commits:   jsonCommits,
	}, options.OutputPath)
}

// WriteAncestors outputs ancestors as JSON.
func (w *JSONWriter) WriteAncestors(report *AncestorsReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)
	jsonItems := make([]JSONAncestorItem, len(items))
	for i, item := range items {
		ancestors := item.Ancestors
		if ancestors == nil {
			ancestors = []*series.FileDiff{}
		}
		jsonItems[i] = JSONAncestorItem{FileDiff: item.FileDiff, Ancestors: ancestors}
	}
	return writeJSON(JSONAncestorsReport{
		Series: report.Series,
		Flavor: report.Flavor.String(),
		Items:  jsonItems,
	}, options.OutputPath)
}

// WriteFiles outputs resolved files as JSON.
func (w *JSONWriter) WriteFiles(report *FilesReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)
	jsonItems := make([]JSONFileItem, len(items))
	for i, item := range items {
		jsonItems[i] = JSONFileItem{FileDiff: item.FileDiff, Base: item.Base}
	}
	return writeJSON(JSONFilesReport{
		Series:     report.Series,
		Base:       report.Base,
		Tip:        report.Tip,
		TotalFiles: len(report.Items),
		Items:      jsonItems,
	}, options.OutputPath)
}

// WriteHistory outputs a history diff as JSON.
func (w *JSONWriter) WriteHistory(report *HistoryReport, options OutputOptions) error {
	entries := limitTop(report.Entries, options.Top)
	serialized := make([]history.Serialized, len(entries))
	for i, e := range entries {
		serialized[i] = e.Serialize()
	}
	return writeJSON(JSONHistoryReport{
		Old:     report.Old,
		New:     report.New,
		Summary: report.Summary,
		Entries: serialized,
	}, options.OutputPath)
}

// WriteValidation outputs validation results as JSON.
func (w *JSONWriter) WriteValidation(report *ValidationReport, options OutputOptions) error {
	checks := make([]JSONExistsCheck, len(report.Checks))
	for i, c := range report.Checks {
		checks[i] = JSONExistsCheck{Path: c.Path, Revision: c.Revision, Exists: c.Exists}
	}
	return writeJSON(JSONValidationReport{
		Range:   report.Range,
		Commits: report.Commits,
		Tip:     report.Tip,
		Token:   report.Token,
		Checks:  checks,
	}, options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) error {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	return encodeJSON(out, data)
}

func encodeJSON(out io.Writer, data interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
