package git

import (
	"strings"
	"time"

	"github.com/masmgr/diffseries/internal/series"
)

// NullRevision is the dest revision of a deleted file.
const NullRevision = "0000000000000000000000000000000000000000"

// CommitInfo represents minimal information about a Git commit.
type CommitInfo struct {
	SHA       string
	ParentSHA string
	When      time.Time
	Author    AuthorInfo
	Message   string
}

// AuthorInfo represents commit author information.
type AuthorInfo struct {
	Name  string
	Email string
}

// String returns "Name <email>".
func (a AuthorInfo) String() string {
	if a.Email == "" {
		return a.Name
	}
	return a.Name + " <" + strings.ToLower(a.Email) + ">"
}

// FileChange represents a file change within a commit.
type FileChange struct {
	Path        string
	OldPath     string // For renames and copies
	OldRevision string // blob hash before the change
	NewRevision string // blob hash after the change
	Kind        ChangeKind
	Binary      bool
	Patch       []byte
	Counts      series.LineCounts
}

// Churn returns total lines changed (added + deleted).
func (f FileChange) Churn() int {
	return f.Counts.Inserts + f.Counts.Deletes
}

// SourcePath returns the path the change reads from.
func (f FileChange) SourcePath() string {
	if f.OldPath != "" {
		return f.OldPath
	}
	return f.Path
}

// ToFileDiff converts the change into a series FileDiff.
func (f FileChange) ToFileDiff() *series.FileDiff {
	fd := &series.FileDiff{
		SourcePath:     f.SourcePath(),
		SourceRevision: f.OldRevision,
		DestPath:       f.Path,
		DestRevision:   f.NewRevision,
		Status:         f.Kind.Status(),
		Diff:           f.Patch,
		Counts:         f.Counts,
	}
	switch f.Kind {
	case ChangeKindAdded:
		fd.SourceRevision = series.PreCreation
	case ChangeKindDeleted:
		fd.DestRevision = NullRevision
	}
	return fd
}

// ChangeKind represents the type of change.
type ChangeKind int

const (
	ChangeKindAdded ChangeKind = iota
	ChangeKindModified
	ChangeKindDeleted
	ChangeKindRenamed
	ChangeKindCopied
)

// String returns a string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeKindAdded:
		return "added"
	case ChangeKindModified:
		return "modified"
	case ChangeKindDeleted:
		return "deleted"
	case ChangeKindRenamed:
		return "renamed"
	case ChangeKindCopied:
		return "copied"
	default:
		return "unknown"
	}
}

// Status maps the change kind to a FileDiff status.
func (k ChangeKind) Status() series.Status {
	switch k {
	case ChangeKindAdded:
		return series.StatusAdded
	case ChangeKindDeleted:
		return series.StatusDeleted
	case ChangeKindRenamed:
		return series.StatusMoved
	case ChangeKindCopied:
		return series.StatusCopied
	default:
		return series.StatusModified
	}
}

// CommitChangeSet bundles a commit with its file changes.
type CommitChangeSet struct {
	Commit  CommitInfo
	Changes []FileChange
}

// SeriesCommit converts the change set's commit into a series commit.
func (c CommitChangeSet) SeriesCommit() *series.Commit {
	return &series.Commit{
		CommitID: c.Commit.SHA,
		ParentID: c.Commit.ParentSHA,
		Author:   c.Commit.Author.String(),
		Message:  c.Commit.Message,
		When:     c.Commit.When,
	}
}

// FileDiffs converts the change set's changes into FileDiffs.
func (c CommitChangeSet) FileDiffs() []*series.FileDiff {
	out := make([]*series.FileDiff, len(c.Changes))
	for i, fc := range c.Changes {
		out[i] = fc.ToFileDiff()
	}
	return out
}

// RenameDetectMode controls how file renames are detected.
type RenameDetectMode int

const (
	RenameDetectOff RenameDetectMode = iota
	RenameDetectSimple
	RenameDetectAggressive
)

// ReadOptions configures the history reader.
type ReadOptions struct {
	RepoPath     string
	Range        string   // "base..head"; commits after base up to head
	Include      []string // Glob patterns to include
	Exclude      []string // Glob patterns to exclude
	RenameDetect RenameDetectMode
	MaxDiffSize  int64 // bytes; 0 disables the limit
}
