// Package original reconstructs the content a FileDiff applies to.
package original

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/masmgr/diffseries/internal/ancestry"
	"github.com/masmgr/diffseries/internal/patch"
	"github.com/masmgr/diffseries/internal/series"
)

// ErrFileNotFound is returned by fetchers for a path and revision the
// repository does not have.
var ErrFileNotFound = errors.New("file not found in repository")

// FileFetcher reads file content from the repository.
type FileFetcher interface {
	FetchFile(ctx context.Context, path, revision, baseCommitID string) ([]byte, error)
}

// Options configures a Reconstructor.
type Options struct {
	// Encodings are tried in order when decoding repository content to
	// UTF-8. A FileDiff's own encoding is tried first.
	Encodings []string
	// BaseCommitID is passed to the fetcher for repositories that need a
	// commit to resolve paths.
	BaseCommitID string
	Logger       *slog.Logger
}

// Reconstructor computes original file content for the FileDiffs of one
// series. Results are memoized by FileDiff ID and may be shared by
// concurrent callers.
type Reconstructor struct {
	resolver *ancestry.Resolver
	fetcher  FileFetcher
	patcher  patch.Patcher
	opts     Options
	logger   *slog.Logger

	cache        sync.Map // int64 -> []byte
	emptyParents sync.Map // int64 -> struct{}
}

// New creates a reconstructor.
func New(resolver *ancestry.Resolver, fetcher FileFetcher, patcher patch.Patcher, opts Options) *Reconstructor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconstructor{
		resolver: resolver,
		fetcher:  fetcher,
		patcher:  patcher,
		opts:     opts,
		logger:   logger,
	}
}

// Original returns the content fd's diff applies to.
//
// When fd has minimal ancestors in the series, the content is the original
// of the oldest ancestor with every ancestor's diff applied in order.
// Otherwise it is read from the repository, unless the file is new, and
// the parent diff is applied on top.
func (r *Reconstructor) Original(ctx context.Context, fd *series.FileDiff) ([]byte, error) {
	if cached, ok := r.cache.Load(fd.ID); ok {
		return cached.([]byte), nil
	}

	minimal, err := r.resolver.Ancestors(fd, ancestry.Minimal)
	if err != nil {
		return nil, err
	}

	var data []byte
	if len(minimal) > 0 {
		data, err = r.Original(ctx, minimal[0])
		if err != nil {
			return nil, err
		}
		for _, anc := range minimal {
			if data, err = r.apply(ctx, anc.Diff, data, anc.DestPath); err != nil {
				return nil, fmt.Errorf("apply diff of %s: %w", anc, err)
			}
		}
	} else {
		data, err = r.fromRepository(ctx, fd)
		if err != nil {
			return nil, err
		}
	}

	actual, _ := r.cache.LoadOrStore(fd.ID, data)
	return actual.([]byte), nil
}

// Patched returns the content after fd's diff is applied to its original.
func (r *Reconstructor) Patched(ctx context.Context, fd *series.FileDiff) ([]byte, error) {
	orig, err := r.Original(ctx, fd)
	if err != nil {
		return nil, err
	}
	if fd.IsDeleted() {
		return []byte{}, nil
	}
	return r.apply(ctx, fd.Diff, orig, fd.DestPath)
}

func (r *Reconstructor) fromRepository(ctx context.Context, fd *series.FileDiff) ([]byte, error) {
	data := []byte{}
	if !fd.IsNew() {
		fetched, err := r.fetcher.FetchFile(ctx, fd.SourcePath, fd.SourceRevision, r.opts.BaseCommitID)
		if err != nil {
			return nil, fmt.Errorf("fetch %s@%s: %w", fd.SourcePath, fd.SourceRevision, err)
		}
		data, err = Normalize(fetched, r.encodings(fd))
		if err != nil {
			return nil, fmt.Errorf("decode %s@%s: %w", fd.SourcePath, fd.SourceRevision, err)
		}
	}

	if !fd.HasParentDiff() {
		return data, nil
	}

	if r.parentKnownEmpty(fd) {
		r.logger.Debug("skipping empty parent diff", "filediff", fd.String())
		return data, nil
	}

	patched, err := r.patcher.Patch(ctx, fd.ParentDiff, data, fd.SourcePath)
	if errors.Is(err, patch.ErrEmptyPatch) {
		r.logger.Debug("patcher rejected empty parent diff", "filediff", fd.String())
		r.emptyParents.Store(fd.ID, struct{}{})
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("apply parent diff of %s: %w", fd, err)
	}
	return patched, nil
}

func (r *Reconstructor) apply(ctx context.Context, diff, data []byte, filename string) ([]byte, error) {
	if len(diff) == 0 {
		return data, nil
	}
	return r.patcher.Patch(ctx, diff, data, filename)
}

func (r *Reconstructor) parentKnownEmpty(fd *series.FileDiff) bool {
	if fd.ParentDiffKnownEmpty() {
		return true
	}
	_, ok := r.emptyParents.Load(fd.ID)
	return ok
}

// ParentDiffEmpty reports whether fd's parent diff is known to change
// nothing, either from its line counts or because a patcher rejected it.
func (r *Reconstructor) ParentDiffEmpty(fd *series.FileDiff) bool {
	return fd.HasParentDiff() && r.parentKnownEmpty(fd)
}

func (r *Reconstructor) encodings(fd *series.FileDiff) []string {
	if fd.Encoding == "" {
		return r.opts.Encodings
	}
	return append([]string{fd.Encoding}, r.opts.Encodings...)
}
