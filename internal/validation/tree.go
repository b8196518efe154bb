// Package validation tracks which files a commit series adds, modifies and
// removes, so that file existence can be answered for commits a client is
// still uploading without querying the repository.
package validation

import (
	"errors"
	"fmt"

	"github.com/masmgr/diffseries/internal/series"
)

// ErrInvalidState is wrapped by every InvalidStateError.
var ErrInvalidState = errors.New("invalid validation state")

// InvalidStateError reports a merge that violates the commit ordering of a
// validation tree. It is a programming error on the caller's side.
type InvalidStateError struct {
	CommitID string
	ParentID string
	Reason   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot merge commit %q (parent %q): %s", e.CommitID, e.ParentID, e.Reason)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// FileInfo is a file name and revision.
type FileInfo struct {
	Filename string `json:"filename"`
	Revision string `json:"revision"`
}

// Changes lists the files a commit added, modified and removed.
type Changes struct {
	Added    []FileInfo `json:"added"`
	Modified []FileInfo `json:"modified"`
	Removed  []FileInfo `json:"removed"`
}

// Entry is the validation information for one commit.
type Entry struct {
	ParentID string  `json:"parent_id"`
	Tree     Changes `json:"tree"`
}

// Tree maps commit IDs to their validation entries.
type Tree map[string]Entry

// Merge folds the FileDiffs of a commit into tree and returns it.
//
// The tree is modified in place; a nil tree is allocated. commitID must not
// already be present, and parentID must be present unless tree is empty.
func Merge(tree Tree, commitID, parentID string, diffs []*series.FileDiff) (Tree, error) {
	if len(tree) > 0 {
		if _, ok := tree[parentID]; !ok {
			return tree, &InvalidStateError{CommitID: commitID, ParentID: parentID, Reason: "parent has not been merged"}
		}
	}
	if _, ok := tree[commitID]; ok {
		return tree, &InvalidStateError{CommitID: commitID, ParentID: parentID, Reason: "commit already merged"}
	}
	if tree == nil {
		tree = make(Tree)
	}

	changes := Changes{
		Added:    make([]FileInfo, 0),
		Modified: make([]FileInfo, 0),
		Removed:  make([]FileInfo, 0),
	}

	for _, fd := range diffs {
		if fd.Status == series.StatusDeleted || fd.Status == series.StatusMoved {
			changes.Removed = append(changes.Removed, FileInfo{
				Filename: fd.SourcePath,
				Revision: fd.SourceRevision,
			})
		}

		dest := FileInfo{Filename: fd.DestPath, Revision: fd.DestRevision}
		switch {
		case fd.Status == series.StatusCopied || fd.Status == series.StatusMoved:
			changes.Added = append(changes.Added, dest)
		case isModification(fd.Status) && fd.SourceRevision == series.PreCreation:
			changes.Added = append(changes.Added, dest)
		case isModification(fd.Status):
			changes.Modified = append(changes.Modified, dest)
		}
	}

	tree[commitID] = Entry{ParentID: parentID, Tree: changes}
	return tree, nil
}

// isModification reports whether status is a content change in place. A
// newly added file is a modification of a PRE-CREATION source.
func isModification(status series.Status) bool {
	return status == series.StatusModified || status == series.StatusAdded
}

// Builder accumulates a validation tree for one upload request. It is not
// safe for concurrent use and must not be shared across requests.
type Builder struct {
	tree Tree
	tip  string
}

// NewBuilder creates a builder with an empty tree.
func NewBuilder() *Builder {
	return &Builder{tree: make(Tree)}
}

// BuilderFrom continues building on a tree, typically one deserialized from
// a client token. tip is the last commit merged into tree.
func BuilderFrom(tree Tree, tip string) *Builder {
	if tree == nil {
		tree = make(Tree)
	}
	return &Builder{tree: tree, tip: tip}
}

// Add merges a commit into the builder's tree.
func (b *Builder) Add(commitID, parentID string, diffs []*series.FileDiff) error {
	tree, err := Merge(b.tree, commitID, parentID, diffs)
	if err != nil {
		return err
	}
	b.tree = tree
	b.tip = commitID
	return nil
}

// Tree returns the accumulated tree.
func (b *Builder) Tree() Tree {
	return b.tree
}

// Tip returns the last commit added, or "".
func (b *Builder) Tip() string {
	return b.tip
}

// Token serializes the accumulated tree.
func (b *Builder) Token() (string, error) {
	return Serialize(b.tree)
}
