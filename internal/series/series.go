package series

import (
	"errors"
	"fmt"
	"path"
	"sort"
)

var (
	// ErrInvalidSeries is returned when appending would break the series
	// invariants.
	ErrInvalidSeries = errors.New("invalid commit series")
	// ErrFinalized is returned when appending to a finalized series.
	ErrFinalized = errors.New("commit series is finalized")
)

type indexKey struct {
	position int
	destPath string
}

// Series is an ordered, append-only list of commits and their FileDiffs.
//
// A series is built by a single owner. Once Finalize is called it is
// immutable and may be shared by concurrent readers.
type Series struct {
	Name string

	commits    []*Commit
	byCommitID map[string]*Commit
	byPosition map[int]*Commit
	diffs      map[int][]*FileDiff
	index      map[indexKey]*FileDiff
	ids        map[int64]*FileDiff
	nextID     int64
	finalized  bool
}

// New creates an empty series.
func New(name string) *Series {
	return &Series{
		Name:       name,
		byCommitID: make(map[string]*Commit),
		byPosition: make(map[int]*Commit),
		diffs:      make(map[int][]*FileDiff),
		index:      make(map[indexKey]*FileDiff),
		ids:        make(map[int64]*FileDiff),
	}
}

// Append adds a commit and its FileDiffs to the end of the series.
//
// A zero Position is assigned the next position. A zero FileDiff ID is
// assigned a series-unique ID. Every commit after the first must name a
// parent that is already in the series.
func (s *Series) Append(c *Commit, diffs []*FileDiff) error {
	if s.finalized {
		return ErrFinalized
	}
	if c == nil || c.CommitID == "" {
		return fmt.Errorf("%w: commit ID is required", ErrInvalidSeries)
	}
	if _, exists := s.byCommitID[c.CommitID]; exists {
		return fmt.Errorf("%w: duplicate commit %q", ErrInvalidSeries, c.CommitID)
	}

	last := 0
	if n := len(s.commits); n > 0 {
		last = s.commits[n-1].Position
		if _, ok := s.byCommitID[c.ParentID]; !ok {
			return fmt.Errorf("%w: parent %q of commit %q is not in the series",
				ErrInvalidSeries, c.ParentID, c.CommitID)
		}
	}
	position := c.Position
	if position == 0 {
		position = last + 1
	} else if position <= last {
		return fmt.Errorf("%w: position %d does not follow %d", ErrInvalidSeries, position, last)
	}

	seen := make(map[string]struct{}, len(diffs))
	seenIDs := make(map[int64]struct{}, len(diffs))
	for _, fd := range diffs {
		if _, dup := seen[fd.DestPath]; dup {
			return fmt.Errorf("%w: commit %q touches %q twice", ErrInvalidSeries, c.CommitID, fd.DestPath)
		}
		seen[fd.DestPath] = struct{}{}
		if fd.ID == 0 {
			continue
		}
		_, dupInCommit := seenIDs[fd.ID]
		if _, dup := s.ids[fd.ID]; dup || dupInCommit {
			return fmt.Errorf("%w: duplicate FileDiff ID %d", ErrInvalidSeries, fd.ID)
		}
		seenIDs[fd.ID] = struct{}{}
	}

	// Accepted. Only now write to the caller's values.
	c.Position = position
	s.commits = append(s.commits, c)
	s.byCommitID[c.CommitID] = c
	s.byPosition[c.Position] = c

	stored := make([]*FileDiff, 0, len(diffs))
	for _, fd := range diffs {
		if fd.ID == 0 {
			fd.ID = s.allocateID(seenIDs)
		} else if fd.ID > s.nextID {
			s.nextID = fd.ID
		}
		fd.CommitPosition = c.Position
		s.ids[fd.ID] = fd
		s.index[indexKey{position: c.Position, destPath: fd.DestPath}] = fd
		stored = append(stored, fd)
	}
	s.diffs[c.Position] = stored

	return nil
}

// allocateID returns the next ID not used by the series or reserved by
// explicit IDs of the commit being appended.
func (s *Series) allocateID(reserved map[int64]struct{}) int64 {
	for {
		s.nextID++
		if _, used := s.ids[s.nextID]; used {
			continue
		}
		if _, taken := reserved[s.nextID]; taken {
			continue
		}
		return s.nextID
	}
}

// Finalize freezes the series.
func (s *Series) Finalize() {
	s.finalized = true
}

// Finalized reports whether the series has been frozen.
func (s *Series) Finalized() bool {
	return s.finalized
}

// Len returns the number of commits.
func (s *Series) Len() int {
	return len(s.commits)
}

// Commits returns the commits in position order.
func (s *Series) Commits() []*Commit {
	out := make([]*Commit, len(s.commits))
	copy(out, s.commits)
	return out
}

// Commit returns the commit at the given position, or nil.
func (s *Series) Commit(position int) *Commit {
	return s.byPosition[position]
}

// CommitByID returns the commit with the given commit ID, or nil.
func (s *Series) CommitByID(commitID string) *Commit {
	return s.byCommitID[commitID]
}

// Tip returns the last commit, or nil for an empty series.
func (s *Series) Tip() *Commit {
	if len(s.commits) == 0 {
		return nil
	}
	return s.commits[len(s.commits)-1]
}

// CommitFileDiffs returns the FileDiffs of the commit at position.
func (s *Series) CommitFileDiffs(position int) []*FileDiff {
	out := make([]*FileDiff, len(s.diffs[position]))
	copy(out, s.diffs[position])
	return out
}

// FileDiffs returns every FileDiff in commit position order.
func (s *Series) FileDiffs() []*FileDiff {
	var out []*FileDiff
	for _, c := range s.commits {
		out = append(out, s.diffs[c.Position]...)
	}
	return out
}

// FileDiff returns the FileDiff with the given ID, or nil.
func (s *Series) FileDiff(id int64) *FileDiff {
	return s.ids[id]
}

// Lookup returns the FileDiff in the commit at position whose dest path is
// destPath, or nil.
func (s *Series) Lookup(position int, destPath string) *FileDiff {
	return s.index[indexKey{position: position, destPath: destPath}]
}

// Contains reports whether fd is a member of the series.
func (s *Series) Contains(fd *FileDiff) bool {
	return fd != nil && s.ids[fd.ID] == fd
}

// SortFileDiffs sorts FileDiffs into the canonical display order: by
// directory, then file name, then commit position.
func SortFileDiffs(diffs []*FileDiff) {
	sort.SliceStable(diffs, func(i, j int) bool {
		a, b := diffs[i], diffs[j]
		if da, db := path.Dir(a.DestPath), path.Dir(b.DestPath); da != db {
			return da < db
		}
		if ba, bb := path.Base(a.DestPath), path.Base(b.DestPath); ba != bb {
			return ba < bb
		}
		if a.CommitPosition != b.CommitPosition {
			return a.CommitPosition < b.CommitPosition
		}
		return a.ID < b.ID
	})
}
