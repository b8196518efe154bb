package git

import (
	"fmt"
	"strings"
)

// ParseDiffSpec splits a range spec into base and head refs.
// Supports both "..." (three-dot) and ".." (two-dot) syntax; both select the
// first-parent commits after base up to head.
func ParseDiffSpec(spec string) (base, head string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", fmt.Errorf("empty diff spec")
	}

	// Try three-dot first
	if idx := strings.Index(spec, "..."); idx != -1 {
		base = spec[:idx]
		head = spec[idx+3:]
	} else if idx := strings.Index(spec, ".."); idx != -1 {
		base = spec[:idx]
		head = spec[idx+2:]
	} else {
		return "", "", fmt.Errorf("invalid diff spec %q: expected 'base..head' or 'base...head'", spec)
	}

	if base == "" {
		return "", "", fmt.Errorf("invalid diff spec %q: missing base ref", spec)
	}
	if head == "" {
		head = "HEAD"
	}

	return base, head, nil
}
