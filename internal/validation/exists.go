package validation

import (
	"context"
	"fmt"

	"github.com/masmgr/diffseries/internal/series"
)

// ExistenceChecker answers file existence from the repository.
type ExistenceChecker interface {
	FileExists(ctx context.Context, path, revision, baseCommitID string) (bool, error)
}

// Query asks whether a file exists at a revision in the commit ParentID
// (or any of its ancestors in the tree).
type Query struct {
	ParentID     string
	Path         string
	Revision     string
	BaseCommitID string
}

// FileExists walks tree from q.ParentID towards the root looking for the
// file. When the walk leaves the tree the question is delegated to the
// repository.
//
// For an UNKNOWN revision only the path is compared, and a removal hides
// any earlier addition or modification. Otherwise both path and revision
// must match.
func FileExists(ctx context.Context, tree Tree, q Query, repo ExistenceChecker) (bool, error) {
	unknown := q.Revision == series.Unknown
	seen := make(map[string]struct{})
	commitID := q.ParentID

	for {
		entry, ok := tree[commitID]
		if !ok {
			break
		}
		if _, loop := seen[commitID]; loop {
			return false, fmt.Errorf("validation tree has a cycle at commit %q", commitID)
		}
		seen[commitID] = struct{}{}

		if unknown {
			if containsPath(entry.Tree.Removed, q.Path) {
				return false, nil
			}
			if containsPath(entry.Tree.Added, q.Path) || containsPath(entry.Tree.Modified, q.Path) {
				return true, nil
			}
		} else {
			want := FileInfo{Filename: q.Path, Revision: q.Revision}
			if contains(entry.Tree.Added, want) || contains(entry.Tree.Modified, want) {
				return true, nil
			}
		}

		commitID = entry.ParentID
	}

	if repo == nil {
		return false, nil
	}
	return repo.FileExists(ctx, q.Path, q.Revision, q.BaseCommitID)
}

func containsPath(files []FileInfo, path string) bool {
	for _, f := range files {
		if f.Filename == path {
			return true
		}
	}
	return false
}

func contains(files []FileInfo, want FileInfo) bool {
	for _, f := range files {
		if f == want {
			return true
		}
	}
	return false
}
