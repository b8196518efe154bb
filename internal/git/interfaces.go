package git

import (
	"context"

	"github.com/masmgr/diffseries/internal/original"
	"github.com/masmgr/diffseries/internal/validation"
)

// RepositoryReader defines the interface for reading Git repository history.
// This abstraction allows for easier testing and potential alternative implementations.
type RepositoryReader interface {
	// ReadChanges reads the commit history and returns a slice of CommitChangeSet.
	ReadChanges(ctx context.Context) ([]CommitChangeSet, error)
}

// FileRepository serves file content and existence checks.
type FileRepository interface {
	original.FileFetcher
	validation.ExistenceChecker
}

// Compile-time interface conformance checks.
var (
	_ RepositoryReader = (*HistoryReader)(nil)
	_ RepositoryReader = (*MockHistoryReader)(nil)
	_ FileRepository   = (*Repository)(nil)
	_ FileRepository   = (*CLIRepository)(nil)
)
