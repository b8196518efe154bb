package git

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/masmgr/diffseries/internal/patch"
	"github.com/masmgr/diffseries/internal/pathfilter"
)

// ErrDiffTooLarge is returned when a file's diff exceeds the configured
// maximum size.
var ErrDiffTooLarge = errors.New("diff exceeds the maximum size")

// HistoryReader reads a range of commit history from a Git repository.
type HistoryReader struct {
	repo   *git.Repository
	opts   ReadOptions
	filter *pathfilter.Filter
}

// NewHistoryReader creates a new history reader for the given repository.
func NewHistoryReader(opts ReadOptions) (*HistoryReader, error) {
	repo, err := git.PlainOpen(opts.RepoPath)
	if err != nil {
		return nil, err
	}
	filter, err := pathfilter.New(opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}
	return &HistoryReader{repo: repo, opts: opts, filter: filter}, nil
}

// ReadChanges reads the commits of the configured range, oldest first,
// following first parents. Commits whose changes are all filtered out are
// kept so that the parent chain stays intact.
func (r *HistoryReader) ReadChanges(ctx context.Context) ([]CommitChangeSet, error) {
	commits, err := r.commitsInRange()
	if err != nil {
		return nil, err
	}

	results := make([]CommitChangeSet, 0, len(commits))
	for _, c := range commits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changes, err := r.getCommitChanges(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", c.Hash, err)
		}

		// Extract first line of commit message
		message := c.Message
		if idx := strings.IndexByte(message, '\n'); idx != -1 {
			message = message[:idx]
		}

		results = append(results, CommitChangeSet{
			Commit: CommitInfo{
				SHA:       c.Hash.String(),
				ParentSHA: c.ParentHashes[0].String(),
				When:      c.Committer.When,
				Author:    AuthorInfo{Name: c.Author.Name, Email: c.Author.Email},
				Message:   message,
			},
			Changes: changes,
		})
	}

	return results, nil
}

// commitsInRange walks first parents from head back to base. Without a
// base the walk stops before the root commit, which has no parent to diff
// against.
func (r *HistoryReader) commitsInRange() ([]*object.Commit, error) {
	baseRev, headRev := "", "HEAD"
	if r.opts.Range != "" {
		var err error
		if baseRev, headRev, err = ParseDiffSpec(r.opts.Range); err != nil {
			return nil, err
		}
	}

	headHash, err := r.repo.ResolveRevision(plumbing.Revision(headRev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", headRev, err)
	}
	var baseHash *plumbing.Hash
	if baseRev != "" {
		if baseHash, err = r.repo.ResolveRevision(plumbing.Revision(baseRev)); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", baseRev, err)
		}
	}

	c, err := r.repo.CommitObject(*headHash)
	if err != nil {
		return nil, err
	}

	var chain []*object.Commit
	for {
		if baseHash != nil && c.Hash == *baseHash {
			break
		}
		if c.NumParents() == 0 {
			if baseHash != nil {
				return nil, fmt.Errorf("%s is not a first-parent ancestor of %s", baseRev, headRev)
			}
			break
		}
		chain = append(chain, c)
		if c, err = c.Parent(0); err != nil {
			return nil, err
		}
	}

	slices.Reverse(chain)
	return chain, nil
}

// getCommitChanges extracts file changes from a commit.
func (r *HistoryReader) getCommitChanges(ctx context.Context, c *object.Commit) ([]FileChange, error) {
	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	treeChanges, err := object.DiffTreeWithOptions(ctx, parentTree, tree, r.diffTreeOptions())
	if err != nil {
		return nil, err
	}

	var changes []FileChange
	for _, change := range treeChanges {
		action, err := change.Action()
		if err != nil {
			return nil, err
		}

		var fc FileChange
		switch action {
		case merkletrie.Insert:
			fc.Path = change.To.Name
			fc.NewRevision = change.To.TreeEntry.Hash.String()
			fc.Kind = ChangeKindAdded
		case merkletrie.Delete:
			fc.Path = change.From.Name
			fc.OldRevision = change.From.TreeEntry.Hash.String()
			fc.Kind = ChangeKindDeleted
		case merkletrie.Modify:
			fc.Path = change.To.Name
			fc.OldRevision = change.From.TreeEntry.Hash.String()
			fc.NewRevision = change.To.TreeEntry.Hash.String()
			fc.Kind = ChangeKindModified
			if change.From.Name != change.To.Name {
				fc.OldPath = change.From.Name
				fc.Kind = ChangeKindRenamed
			}
		}

		// Apply filters
		if !r.filter.Match(fc.Path) && (fc.OldPath == "" || !r.filter.Match(fc.OldPath)) {
			continue
		}

		from, to, err := change.Files()
		if err != nil {
			return nil, err
		}
		// Submodules and other non-file entries have no blobs.
		if from == nil && to == nil {
			continue
		}

		if err := r.fillPatch(&fc, from, to); err != nil {
			return nil, fmt.Errorf("%s: %w", fc.Path, err)
		}
		changes = append(changes, fc)
	}

	return changes, nil
}

func (r *HistoryReader) fillPatch(fc *FileChange, from, to *object.File) error {
	for _, f := range []*object.File{from, to} {
		if f == nil {
			continue
		}
		binary, err := f.IsBinary()
		if err != nil {
			return err
		}
		if binary {
			fc.Binary = true
			return nil
		}
	}

	var src, dst *patch.Source
	if from != nil {
		content, err := from.Contents()
		if err != nil {
			return err
		}
		src = &patch.Source{Path: from.Name, Content: []byte(content), Mode: from.Mode}
	}
	if to != nil {
		content, err := to.Contents()
		if err != nil {
			return err
		}
		dst = &patch.Source{Path: to.Name, Content: []byte(content), Mode: to.Mode}
	}

	fc.Patch, fc.Counts = patch.MakeFilePatch(src, dst)
	if r.opts.MaxDiffSize > 0 && int64(len(fc.Patch)) > r.opts.MaxDiffSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrDiffTooLarge, len(fc.Patch), r.opts.MaxDiffSize)
	}
	return nil
}

func (r *HistoryReader) diffTreeOptions() *object.DiffTreeOptions {
	switch r.opts.RenameDetect {
	case RenameDetectOff:
		return &object.DiffTreeOptions{}
	case RenameDetectSimple:
		return &object.DiffTreeOptions{DetectRenames: true, OnlyExactRenames: true}
	default:
		return object.DefaultDiffTreeOptions
	}
}
