// Package history compares the commit lists of two revisions of a series.
package history

import (
	"errors"
	"fmt"
	"iter"

	"github.com/masmgr/diffseries/internal/series"
)

// ErrInvalidEntry is returned by NewEntry for an entry missing a commit its
// type requires.
var ErrInvalidEntry = errors.New("invalid history diff entry")

// EntryType is the kind of change between two commit histories.
type EntryType string

const (
	Added      EntryType = "added"
	Removed    EntryType = "removed"
	Modified   EntryType = "modified"
	Unmodified EntryType = "unmodified"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case Added, Removed, Modified, Unmodified:
		return true
	}
	return false
}

// Entry is one step of a history diff. Old is nil only for Added entries
// and New is nil only for Removed entries.
type Entry struct {
	Type EntryType
	Old  *series.Commit
	New  *series.Commit
}

// NewEntry creates a validated entry.
func NewEntry(typ EntryType, old, new *series.Commit) (Entry, error) {
	if !typ.Valid() {
		return Entry{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEntry, typ)
	}
	if typ != Added && old == nil {
		return Entry{}, fmt.Errorf("%w: %s entry requires an old commit", ErrInvalidEntry, typ)
	}
	if typ != Removed && new == nil {
		return Entry{}, fmt.Errorf("%w: %s entry requires a new commit", ErrInvalidEntry, typ)
	}
	return Entry{Type: typ, Old: old, New: new}, nil
}

// Serialized is the wire form of an Entry.
type Serialized struct {
	EntryType   EntryType `json:"entry_type"`
	OldCommitID *int64    `json:"old_commit_id,omitempty"`
	NewCommitID *int64    `json:"new_commit_id,omitempty"`
}

// Serialize returns the wire form of e, identifying commits by their
// storage IDs.
func (e Entry) Serialize() Serialized {
	s := Serialized{EntryType: e.Type}
	if e.Old != nil {
		id := e.Old.ID
		s.OldCommitID = &id
	}
	if e.New != nil {
		id := e.New.ID
		s.NewCommitID = &id
	}
	return s
}

// String returns a short representation of the entry.
func (e Entry) String() string {
	switch e.Type {
	case Added:
		return fmt.Sprintf("+ %s", e.New.CommitID)
	case Removed:
		return fmt.Sprintf("- %s", e.Old.CommitID)
	case Modified:
		return fmt.Sprintf("~ %s -> %s", e.Old.CommitID, e.New.CommitID)
	default:
		return fmt.Sprintf("  %s", e.New.CommitID)
	}
}

// Diff yields the entries turning the old commit list into the new one.
//
// Commits are paired by position while their commit IDs match and reported
// unmodified. From the first mismatch on, every remaining old commit is
// reported removed, then every remaining new commit added. Relocated
// commits are not realigned.
func Diff(old, new []*series.Commit) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		i := 0
		for ; i < len(old) && i < len(new); i++ {
			if old[i].CommitID != new[i].CommitID {
				break
			}
			if !yield(Entry{Type: Unmodified, Old: old[i], New: new[i]}) {
				return
			}
		}

		for _, c := range old[i:] {
			if !yield(Entry{Type: Removed, Old: c}) {
				return
			}
		}
		for _, c := range new[i:] {
			if !yield(Entry{Type: Added, New: c}) {
				return
			}
		}
	}
}

// Summary counts entries by type.
type Summary struct {
	Added      int `json:"added"`
	Removed    int `json:"removed"`
	Modified   int `json:"modified"`
	Unmodified int `json:"unmodified"`
}

// Summarize collects a diff into a slice and counts it.
func Summarize(seq iter.Seq[Entry]) ([]Entry, Summary) {
	var entries []Entry
	var sum Summary
	for e := range seq {
		entries = append(entries, e)
		switch e.Type {
		case Added:
			sum.Added++
		case Removed:
			sum.Removed++
		case Modified:
			sum.Modified++
		case Unmodified:
			sum.Unmodified++
		}
	}
	return entries, sum
}
