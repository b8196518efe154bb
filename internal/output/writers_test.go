package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masmgr/diffseries/internal/ancestry"
	"github.com/masmgr/diffseries/internal/basetip"
	"github.com/masmgr/diffseries/internal/history"
	"github.com/masmgr/diffseries/internal/series/seriestest"
	"github.com/masmgr/diffseries/internal/store"
)

type reports struct {
	list       *SeriesListReport
	series     *SeriesReport
	ancestors  *AncestorsReport
	files      *FilesReport
	history    *HistoryReport
	validation *ValidationReport
}

func buildReports(t *testing.T) reports {
	t.Helper()
	fx := seriestest.Review()
	r, err := ancestry.NewResolver(fx.Series)
	require.NoError(t, err)

	var items []AncestorItem
	for _, fd := range fx.Series.FileDiffs() {
		anc, err := r.Ancestors(fd, ancestry.Compliment)
		require.NoError(t, err)
		items = append(items, AncestorItem{FileDiff: fd, Ancestors: anc})
	}

	commits := fx.Series.Commits()
	base, tip := basetip.SelectRange(commits, "r2", "")
	files, err := basetip.ResolveFiles(r, fx.Series.FileDiffs(), base, tip)
	require.NoError(t, err)

	entries, summary := history.Summarize(history.Diff(commits[:2], commits))

	return reports{
		list: &SeriesListReport{
			StorePath:   "test.db",
			GeneratedAt: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
			Series:      []store.Info{{Name: "review", Commits: 4, Finalized: true}},
		},
		series:    &SeriesReport{Series: fx.Series},
		ancestors: &AncestorsReport{Series: "review", Flavor: ancestry.Compliment, Items: items},
		files:     &FilesReport{Series: "review", Base: base, Tip: tip, Items: files},
		history:   &HistoryReport{Old: "v1", New: "v2", Entries: entries, Summary: summary},
		validation: &ValidationReport{
			Range: "r0..r4", Commits: 4, Tip: "r4", Token: "e30=",
			Checks: []ExistsCheck{{Path: "qux", Revision: "03b37a0", Exists: true}},
		},
	}
}

func writeAll(t *testing.T, w ReportWriter, rep reports) map[string]string {
	t.Helper()
	dir := t.TempDir()
	out := make(map[string]string)
	run := func(name string, fn func(OutputOptions) error) {
		path := filepath.Join(dir, name)
		require.NoError(t, fn(OutputOptions{OutputPath: path}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		out[name] = string(data)
	}

	run("list", func(o OutputOptions) error { return w.WriteSeriesList(rep.list, o) })
	run("series", func(o OutputOptions) error { return w.WriteSeries(rep.series, o) })
	run("ancestors", func(o OutputOptions) error { return w.WriteAncestors(rep.ancestors, o) })
	run("files", func(o OutputOptions) error { return w.WriteFiles(rep.files, o) })
	run("history", func(o OutputOptions) error { return w.WriteHistory(rep.history, o) })
	run("validation", func(o OutputOptions) error { return w.WriteValidation(rep.validation, o) })
	return out
}

func TestConsoleWriter(t *testing.T) {
	color.NoColor = true
	out := writeAll(t, &ConsoleWriter{}, buildReports(t))

	assert.Contains(t, out["list"], "review")
	assert.Contains(t, out["series"], "Series review")
	assert.Contains(t, out["series"], "foo -> qux")
	assert.Contains(t, out["ancestors"], "Ancestors (compliment)")
	assert.Contains(t, out["ancestors"], "2:foo, 1:foo")
	assert.Contains(t, out["files"], "Total files: 3")
	assert.Contains(t, out["files"], "2:foo")
	assert.Contains(t, out["history"], "Added: 2, Removed: 0, Modified: 0, Unmodified: 2")
	assert.Contains(t, out["history"], "+ r3")
	assert.Contains(t, out["validation"], "Token: e30=")
	assert.Contains(t, out["validation"], "yes")
}

func TestMarkdownWriter(t *testing.T) {
	out := writeAll(t, &MarkdownWriter{}, buildReports(t))

	assert.Contains(t, out["list"], "# Diff Series")
	assert.Contains(t, out["series"], "## 3. `r3`")
	assert.Contains(t, out["ancestors"], "| 3 | `foo -> qux` |")
	assert.Contains(t, out["files"], "**Total Files:** 3")
	assert.Contains(t, out["history"], "added | - | r3")
	assert.Contains(t, out["validation"], "| `qux` | `03b37a0` | true |")
}

func TestJSONWriter(t *testing.T) {
	out := writeAll(t, &JSONWriter{}, buildReports(t))

	var list JSONSeriesListReport
	require.NoError(t, json.Unmarshal([]byte(out["list"]), &list))
	assert.Equal(t, 1, list.TotalSeries)
	assert.Equal(t, "2026-02-10T00:00:00Z", list.GeneratedAt)

	var s struct {
		Name    string `json:"name"`
		Commits []struct {
			CommitID string            `json:"commitId"`
			Files    []json.RawMessage `json:"files"`
		} `json:"commits"`
	}
	require.NoError(t, json.Unmarshal([]byte(out["series"]), &s))
	require.Len(t, s.Commits, 4)
	assert.Equal(t, "r1", s.Commits[0].CommitID)
	assert.Len(t, s.Commits[1].Files, 3)

	var anc struct {
		Flavor string `json:"flavor"`
		Items  []struct {
			Ancestors []json.RawMessage `json:"ancestors"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out["ancestors"]), &anc))
	assert.Equal(t, "compliment", anc.Flavor)
	for _, item := range anc.Items {
		assert.NotNil(t, item.Ancestors)
	}

	var files struct {
		TotalFiles int `json:"totalFiles"`
	}
	require.NoError(t, json.Unmarshal([]byte(out["files"]), &files))
	assert.Equal(t, 3, files.TotalFiles)

	var hist JSONHistoryReport
	require.NoError(t, json.Unmarshal([]byte(out["history"]), &hist))
	assert.Equal(t, 2, hist.Summary.Added)
	require.Len(t, hist.Entries, 4)
	assert.Equal(t, history.Added, hist.Entries[2].EntryType)
	assert.Nil(t, hist.Entries[2].OldCommitID)
	require.NotNil(t, hist.Entries[2].NewCommitID)
	assert.Equal(t, int64(3), *hist.Entries[2].NewCommitID)

	var val JSONValidationReport
	require.NoError(t, json.Unmarshal([]byte(out["validation"]), &val))
	assert.Equal(t, "e30=", val.Token)
	require.Len(t, val.Checks, 1)
	assert.True(t, val.Checks[0].Exists)
}
