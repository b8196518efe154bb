// Package ancestry resolves the earlier FileDiffs in a commit series that a
// FileDiff builds on.
package ancestry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/masmgr/diffseries/internal/series"
)

var (
	// ErrNotFinalized is returned when resolving over a series that can
	// still change.
	ErrNotFinalized = errors.New("series is not finalized")
	// ErrNotInSeries is returned for a FileDiff that does not belong to the
	// resolver's series.
	ErrNotInSeries = errors.New("FileDiff is not part of the series")
)

// Flavor selects which ancestors are returned.
type Flavor int

const (
	// Minimal returns only the ancestors needed to reconstruct the
	// FileDiff's original content. The walk stops at a re-creation and
	// never crosses a deletion.
	Minimal Flavor = iota
	// Compliment returns the full provable history of the file, including
	// the ancestors beyond the minimal boundary.
	Compliment
)

// String returns a string representation of the flavor.
func (f Flavor) String() string {
	switch f {
	case Minimal:
		return "minimal"
	case Compliment:
		return "compliment"
	default:
		return "unknown"
	}
}

// ParseFlavor parses "minimal" or "compliment".
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal", "":
		return Minimal, nil
	case "compliment", "complement", "full":
		return Compliment, nil
	default:
		return Minimal, fmt.Errorf("unknown ancestor flavor %q", s)
	}
}

// Ancestry partitions a FileDiff's ancestors. Both lists are oldest first
// and every Beyond ancestor precedes every Minimal ancestor.
type Ancestry struct {
	Minimal []*series.FileDiff
	Beyond  []*series.FileDiff
}

// Full returns the complete history, oldest first.
func (a *Ancestry) Full() []*series.FileDiff {
	out := make([]*series.FileDiff, 0, len(a.Beyond)+len(a.Minimal))
	out = append(out, a.Beyond...)
	return append(out, a.Minimal...)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver computes and caches ancestors over one finalized series.
//
// Results are cached by FileDiff ID. Population is idempotent, so a
// Resolver may be shared by concurrent callers.
type Resolver struct {
	series   *series.Series
	cache    sync.Map // int64 -> *Ancestry
	computed atomic.Int64
	logger   *slog.Logger
}

// NewResolver creates a resolver for s, which must be finalized.
func NewResolver(s *series.Series, opts ...Option) (*Resolver, error) {
	if s == nil || !s.Finalized() {
		return nil, ErrNotFinalized
	}
	r := &Resolver{
		series: s,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Series returns the series the resolver walks.
func (r *Resolver) Series() *series.Series {
	return r.series
}

// Ancestors returns fd's ancestors of the given flavor, oldest first.
func (r *Resolver) Ancestors(fd *series.FileDiff, flavor Flavor) ([]*series.FileDiff, error) {
	a, err := r.Ancestry(fd)
	if err != nil {
		return nil, err
	}
	switch flavor {
	case Minimal:
		return slices.Clone(a.Minimal), nil
	case Compliment:
		return a.Full(), nil
	default:
		return nil, fmt.Errorf("unknown ancestor flavor %d", flavor)
	}
}

// Ancestry returns the cached partition of fd's ancestors, computing it on
// first use. The returned value must not be modified.
func (r *Resolver) Ancestry(fd *series.FileDiff) (*Ancestry, error) {
	if !r.series.Contains(fd) {
		return nil, fmt.Errorf("%w: %s", ErrNotInSeries, fd)
	}
	if cached, ok := r.cache.Load(fd.ID); ok {
		return cached.(*Ancestry), nil
	}

	a := r.compute(fd)
	actual, loaded := r.cache.LoadOrStore(fd.ID, a)
	if !loaded {
		r.computed.Add(1)
		r.logger.Debug("computed ancestors",
			"filediff", fd.String(),
			"minimal", len(a.Minimal),
			"beyond", len(a.Beyond))
	}
	return actual.(*Ancestry), nil
}

// compute walks the series backward from fd's commit following the chain of
// source paths. An ancestor whose ancestry is already cached ends the walk.
func (r *Resolver) compute(fd *series.FileDiff) *Ancestry {
	inMinimal := !fd.IsNew()
	wanted := fd.SourcePath

	// Collected nearest first.
	var minimal, beyond []*series.FileDiff
	// Spliced from a cached ancestor, oldest first.
	var tailMinimal, tailBeyond []*series.FileDiff

	commits := r.series.Commits()
	for i := len(commits) - 1; i >= 0; i-- {
		pos := commits[i].Position
		if pos >= fd.CommitPosition {
			continue
		}

		prev := r.series.Lookup(pos, wanted)
		if prev == nil {
			continue
		}

		if cached, ok := r.cache.Load(prev.ID); ok {
			a := cached.(*Ancestry)
			if inMinimal && !prev.IsDeleted() {
				minimal = append(minimal, prev)
				tailMinimal = a.Minimal
				tailBeyond = a.Beyond
			} else {
				beyond = append(beyond, prev)
				tailBeyond = a.Full()
			}
			break
		}

		switch {
		case inMinimal && prev.IsDeleted():
			inMinimal = false
			beyond = append(beyond, prev)
		case inMinimal:
			minimal = append(minimal, prev)
			if prev.IsNew() {
				inMinimal = false
			}
		default:
			beyond = append(beyond, prev)
		}

		wanted = prev.SourcePath
	}

	slices.Reverse(minimal)
	slices.Reverse(beyond)

	return &Ancestry{
		Minimal: append(slices.Clone(tailMinimal), minimal...),
		Beyond:  append(slices.Clone(tailBeyond), beyond...),
	}
}

// Invalidate drops the cached ancestry of fd.
func (r *Resolver) Invalidate(fd *series.FileDiff) {
	r.cache.Delete(fd.ID)
}

// Reset drops every cached ancestry.
func (r *Resolver) Reset() {
	r.cache.Clear()
}

// Computed returns how many ancestries have been computed and stored.
func (r *Resolver) Computed() int64 {
	return r.computed.Load()
}

// IsAncestor reports whether candidate is a compliment ancestor of fd.
func (r *Resolver) IsAncestor(candidate, fd *series.FileDiff) (bool, error) {
	a, err := r.Ancestry(fd)
	if err != nil {
		return false, err
	}
	return slices.Contains(a.Beyond, candidate) || slices.Contains(a.Minimal, candidate), nil
}

// ExcludeAncestors returns the FileDiffs in toFilter that are not a
// compliment ancestor of any other FileDiff in toFilter. Order is kept.
func (r *Resolver) ExcludeAncestors(toFilter []*series.FileDiff) ([]*series.FileDiff, error) {
	hidden := make(map[int64]struct{})
	for _, fd := range toFilter {
		a, err := r.Ancestry(fd)
		if err != nil {
			return nil, err
		}
		for _, anc := range a.Beyond {
			hidden[anc.ID] = struct{}{}
		}
		for _, anc := range a.Minimal {
			hidden[anc.ID] = struct{}{}
		}
	}

	out := make([]*series.FileDiff, 0, len(toFilter))
	for _, fd := range toFilter {
		if _, ok := hidden[fd.ID]; !ok {
			out = append(out, fd)
		}
	}
	return out, nil
}
