package series

import (
	"fmt"
	"strings"
	"time"
)

// Revision sentinels used in FileDiff source and dest revisions.
const (
	// PreCreation means the file did not exist before this change.
	PreCreation = "PRE-CREATION"
	// Unknown means the revision cannot be resolved without a history lookup.
	Unknown = "UNKNOWN"
)

// Status is the kind of change a FileDiff makes to a file.
type Status int

const (
	StatusModified Status = iota
	StatusAdded
	StatusDeleted
	StatusCopied
	StatusMoved
	StatusUnchanged
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusCopied:
		return "copied"
	case StatusMoved:
		return "moved"
	case StatusUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// ParseStatus parses the string form produced by Status.String.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "modified", "m":
		return StatusModified, nil
	case "added", "a":
		return StatusAdded, nil
	case "deleted", "d":
		return StatusDeleted, nil
	case "copied", "c":
		return StatusCopied, nil
	case "moved", "renamed", "r":
		return StatusMoved, nil
	case "unchanged", "u":
		return StatusUnchanged, nil
	default:
		return StatusModified, fmt.Errorf("unknown file status %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// LineCounts holds the inserted and deleted line counts of a diff.
type LineCounts struct {
	Inserts int `json:"inserts"`
	Deletes int `json:"deletes"`
}

// Empty reports whether the diff changes no lines.
func (c LineCounts) Empty() bool {
	return c.Inserts == 0 && c.Deletes == 0
}

// Commit is one commit in a series.
type Commit struct {
	ID       int64     `json:"id"`
	Position int       `json:"position"` // 1-based, strictly increasing
	CommitID string    `json:"commitId"`
	ParentID string    `json:"parentId"`
	Author   string    `json:"author,omitempty"`
	Message  string    `json:"message,omitempty"`
	When     time.Time `json:"when"`
}

// String returns a short representation of the commit.
func (c *Commit) String() string {
	return fmt.Sprintf("%d:%s", c.Position, c.CommitID)
}

// FileDiff is the change a single commit makes to a single file.
type FileDiff struct {
	ID             int64  `json:"id"`
	CommitPosition int    `json:"commitPosition"`
	SourcePath     string `json:"sourcePath"`
	SourceRevision string `json:"sourceRevision"`
	DestPath       string `json:"destPath"`
	DestRevision   string `json:"destRevision"`
	Status         Status `json:"status"`
	Encoding       string `json:"encoding,omitempty"`

	Diff         []byte      `json:"-"`
	ParentDiff   []byte      `json:"-"`
	Counts       LineCounts  `json:"counts"`
	ParentCounts *LineCounts `json:"parentCounts,omitempty"` // nil until computed
}

// IsNew reports whether the file did not exist before this change.
func (f *FileDiff) IsNew() bool {
	return f.SourceRevision == PreCreation
}

// IsDeleted reports whether this change removes the file.
func (f *FileDiff) IsDeleted() bool {
	return f.Status == StatusDeleted
}

// HasParentDiff reports whether the FileDiff carries a parent diff.
func (f *FileDiff) HasParentDiff() bool {
	return len(f.ParentDiff) > 0
}

// ParentDiffKnownEmpty reports whether the parent diff has been counted and
// changes no lines.
func (f *FileDiff) ParentDiffKnownEmpty() bool {
	return f.HasParentDiff() && f.ParentCounts != nil && f.ParentCounts.Empty()
}

// String returns a short representation of the FileDiff.
func (f *FileDiff) String() string {
	return fmt.Sprintf("%d:%s@%s -> %s@%s", f.CommitPosition,
		f.SourcePath, f.SourceRevision, f.DestPath, f.DestRevision)
}
