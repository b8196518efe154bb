// Package basetip selects the FileDiffs visible between a base and a tip
// commit of a series, and the FileDiff each one should be compared against.
package basetip

import (
	"fmt"

	"github.com/masmgr/diffseries/internal/ancestry"
	"github.com/masmgr/diffseries/internal/series"
)

// FileWithBase is a FileDiff together with the FileDiff at or before the
// base commit that it should be diffed against. Base is nil when the file
// has no counterpart at the base and should be shown as newly added.
type FileWithBase struct {
	FileDiff *series.FileDiff
	Base     *series.FileDiff
}

// SelectRange looks up the base and tip commits by commit ID. An empty ID
// means the bound was not requested. A requested ID that is not in commits
// yields nil for that bound.
func SelectRange(commits []*series.Commit, baseID, tipID string) (base, tip *series.Commit) {
	if baseID == "" && tipID == "" {
		return nil, nil
	}
	for _, c := range commits {
		if baseID != "" && c.CommitID == baseID {
			base = c
		}
		if tipID != "" && c.CommitID == tipID {
			tip = c
		}
	}
	return base, tip
}

// InRange reports whether fd belongs to a commit after base and no later
// than tip. A nil bound is open.
func InRange(fd *series.FileDiff, base, tip *series.Commit) bool {
	if base != nil && fd.CommitPosition <= base.Position {
		return false
	}
	if tip != nil && fd.CommitPosition > tip.Position {
		return false
	}
	return true
}

// ResolveFiles returns the FileDiffs in diffs that are visible between base
// and tip, in canonical order.
//
// A FileDiff is visible when its commit is in range and it is not an
// ancestor of another in-range FileDiff. When base is given, each visible
// FileDiff is paired with its nearest ancestor at or before the base
// commit.
func ResolveFiles(r *ancestry.Resolver, diffs []*series.FileDiff, base, tip *series.Commit) ([]FileWithBase, error) {
	if base != nil && tip != nil && tip.Position < base.Position {
		return nil, fmt.Errorf("tip %s precedes base %s", tip, base)
	}

	inRange := make([]*series.FileDiff, 0, len(diffs))
	for _, fd := range diffs {
		if InRange(fd, base, tip) {
			inRange = append(inRange, fd)
		}
	}

	visible, err := r.ExcludeAncestors(inRange)
	if err != nil {
		return nil, err
	}
	series.SortFileDiffs(visible)

	out := make([]FileWithBase, 0, len(visible))
	for _, fd := range visible {
		f := FileWithBase{FileDiff: fd}
		if base != nil {
			if f.Base, err = baseOf(r, fd, base); err != nil {
				return nil, err
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// ResolveFile resolves a single FileDiff against the resolver's whole
// series. It returns nil when fd is not visible between base and tip.
func ResolveFile(r *ancestry.Resolver, fd *series.FileDiff, base, tip *series.Commit) (*FileWithBase, error) {
	files, err := ResolveFiles(r, r.Series().FileDiffs(), base, tip)
	if err != nil {
		return nil, err
	}
	for i := range files {
		if files[i].FileDiff == fd {
			return &files[i], nil
		}
	}
	return nil, nil
}

// baseOf returns the nearest full-history ancestor of fd in a commit at or
// before base. The full history is used because the minimal chain stops at
// a re-creation, and the deleted predecessor is still the file at the base.
func baseOf(r *ancestry.Resolver, fd *series.FileDiff, base *series.Commit) (*series.FileDiff, error) {
	full, err := r.Ancestors(fd, ancestry.Compliment)
	if err != nil {
		return nil, err
	}
	for i := len(full) - 1; i >= 0; i-- {
		if full[i].CommitPosition <= base.Position {
			return full[i], nil
		}
	}
	return nil, nil
}
