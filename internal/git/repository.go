package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/masmgr/diffseries/internal/original"
	"github.com/masmgr/diffseries/internal/series"
)

// Repository reads file content from a Git repository with go-git.
type Repository struct {
	repo *git.Repository
}

// OpenRepository opens the repository at path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}
	return &Repository{repo: repo}, nil
}

// FetchFile returns the content of path at revision, a full or abbreviated
// blob hash. UNKNOWN and abbreviated revisions are resolved through the
// tree of baseCommitID when one is given.
func (r *Repository) FetchFile(ctx context.Context, path, revision, baseCommitID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := r.resolveBlob(path, revision, baseCommitID)
	if err != nil {
		return nil, err
	}

	rd, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	return io.ReadAll(rd)
}

// FileExists reports whether path exists at revision.
func (r *Repository) FileExists(ctx context.Context, path, revision, baseCommitID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := r.resolveBlob(path, revision, baseCommitID)
	if errors.Is(err, original.ErrFileNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *Repository) resolveBlob(path, revision, baseCommitID string) (*object.Blob, error) {
	notFound := fmt.Errorf("%w: %s@%s", original.ErrFileNotFound, path, revision)

	if revision == "" || revision == series.PreCreation {
		return nil, notFound
	}

	if baseCommitID != "" && (revision == series.Unknown || len(revision) < 40) {
		return r.blobInCommit(path, revision, baseCommitID, notFound)
	}

	if revision == series.Unknown {
		head, err := r.repo.Head()
		if err != nil {
			return nil, notFound
		}
		return r.blobInCommit(path, revision, head.Hash().String(), notFound)
	}

	if len(revision) == 40 {
		blob, err := r.repo.BlobObject(plumbing.NewHash(revision))
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, notFound
		}
		return blob, err
	}

	return r.blobByPrefix(revision, notFound)
}

func (r *Repository) blobInCommit(path, revision, commitID string, notFound error) (*object.Blob, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(commitID))
	if err != nil {
		return nil, notFound
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, notFound
	}
	file, err := commit.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	if revision != series.Unknown && !strings.HasPrefix(file.Hash.String(), revision) {
		return nil, notFound
	}
	return &file.Blob, nil
}

// blobByPrefix scans blob objects for an abbreviated hash.
func (r *Repository) blobByPrefix(prefix string, notFound error) (*object.Blob, error) {
	iter, err := r.repo.BlobObjects()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var found *object.Blob
	err = iter.ForEach(func(b *object.Blob) error {
		if !strings.HasPrefix(b.Hash.String(), prefix) {
			return nil
		}
		if found != nil && found.Hash != b.Hash {
			return fmt.Errorf("ambiguous revision %s", prefix)
		}
		found = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, notFound
	}
	return found, nil
}
