// Package pathfilter matches repository paths against include and exclude
// glob patterns.
package pathfilter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects paths by doublestar globs. Exclude patterns win over
// include patterns; with no include patterns every path not excluded
// matches.
type Filter struct {
	include []string
	exclude []string

	mu    sync.Mutex
	cache map[string]bool
}

// New validates the patterns and creates a filter.
func New(include, exclude []string) (*Filter, error) {
	for _, p := range include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &Filter{
		include: include,
		exclude: exclude,
		cache:   make(map[string]bool),
	}, nil
}

// Empty reports whether the filter accepts every path.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.include) == 0 && len(f.exclude) == 0)
}

// Match reports whether path passes the filter. A nil filter matches
// everything.
func (f *Filter) Match(path string) bool {
	if f.Empty() {
		return true
	}

	// Normalize path separators
	path = strings.ReplaceAll(path, "\\", "/")

	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.cache[path]; ok {
		return v
	}
	v := f.match(path)
	f.cache[path] = v
	return v
}

func (f *Filter) match(path string) bool {
	for _, pattern := range f.exclude {
		if doublestar.MatchUnvalidated(pattern, path) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}

	for _, pattern := range f.include {
		if doublestar.MatchUnvalidated(pattern, path) {
			return true
		}
	}
	return false
}
