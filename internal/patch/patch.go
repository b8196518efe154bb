// Package patch builds and applies the unified diffs stored as FileDiff
// payloads.
package patch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPatch is reported by patchers that reject a diff containing
	// no hunks.
	ErrEmptyPatch = errors.New("only garbage was found in the patch input")
	// ErrHunkFailed is reported when a hunk does not apply.
	ErrHunkFailed = errors.New("hunk failed to apply")
)

// Error describes a failed patch application.
type Error struct {
	Filename string
	Output   string
	Err      error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("patch %s: %v: %s", e.Filename, e.Err, e.Output)
	}
	return fmt.Sprintf("patch %s: %v", e.Filename, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Patcher applies a diff to original content.
type Patcher interface {
	Patch(ctx context.Context, diff, original []byte, filename string) ([]byte, error)
}

// Compile-time interface conformance checks.
var (
	_ Patcher = (*Builtin)(nil)
	_ Patcher = (*Command)(nil)
)

// Builtin applies unified diffs in process. Hunks must match exactly but
// may be found at an offset from their stated line, as with patch(1).
type Builtin struct{}

// NewBuiltin creates an in-process unified diff patcher.
func NewBuiltin() *Builtin {
	return &Builtin{}
}

// Patch applies diff to original. An empty diff yields original unchanged;
// text with no hunk is rejected with ErrEmptyPatch.
func (p *Builtin) Patch(ctx context.Context, diff, original []byte, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := string(diff)
	if strings.TrimSpace(text) == "" {
		return original, nil
	}

	hunks, err := parseHunks(text)
	if err != nil {
		return nil, &Error{Filename: filename, Err: err}
	}
	if len(hunks) == 0 {
		return nil, &Error{Filename: filename, Err: ErrEmptyPatch}
	}

	out, err := applyHunks(string(original), hunks)
	if err != nil {
		return nil, &Error{Filename: filename, Output: err.Error(), Err: ErrHunkFailed}
	}
	return []byte(out), nil
}
