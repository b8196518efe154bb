package seriestest

import (
	"fmt"

	"pgregory.net/rapid"

	"github.com/masmgr/diffseries/internal/series"
)

var randomPaths = []string{"a", "b", "c", "d"}

// Random generates finalized series over a small set of paths so that
// renames, deletions and re-creations collide often.
func Random() *rapid.Generator[*series.Series] {
	return rapid.Custom(func(t *rapid.T) *series.Series {
		s := series.New("rapid")
		n := rapid.IntRange(1, 8).Draw(t, "commits")
		for i := 1; i <= n; i++ {
			var diffs []*series.FileDiff
			for _, dest := range randomPaths {
				if !rapid.Bool().Draw(t, "touch") {
					continue
				}
				source := rapid.SampledFrom(randomPaths).Draw(t, "source")
				fd := &series.FileDiff{
					SourcePath:     source,
					SourceRevision: fmt.Sprintf("%s%d", source, i-1),
					DestPath:       dest,
					DestRevision:   fmt.Sprintf("%s%d", dest, i),
					Status: rapid.SampledFrom([]series.Status{
						series.StatusModified,
						series.StatusDeleted,
						series.StatusMoved,
					}).Draw(t, "status"),
				}
				if rapid.IntRange(0, 3).Draw(t, "new") == 0 {
					fd.SourceRevision = series.PreCreation
					fd.Status = series.StatusAdded
				}
				diffs = append(diffs, fd)
			}

			c := &series.Commit{
				ID:       int64(i),
				CommitID: fmt.Sprintf("c%d", i),
				ParentID: fmt.Sprintf("c%d", i-1),
			}
			if err := s.Append(c, diffs); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}
		s.Finalize()
		return s
	})
}
