package patch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// garbageInput is what patch(1) prints when a diff contains no hunks.
// Older versions exit non-zero on it, newer ones accept the empty diff.
const garbageInput = "Only garbage was found in the patch input."

// Command applies unified diffs with an external patch(1) binary.
type Command struct {
	Path string // defaults to "patch"
}

// NewCommand creates a patch(1) patcher using the binary at path.
func NewCommand(path string) *Command {
	return &Command{Path: path}
}

// Patch writes original to a temporary file and runs patch(1) over it.
func (c *Command) Patch(ctx context.Context, diff, original []byte, filename string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "diffseries-patch-")
	if err != nil {
		return nil, fmt.Errorf("create patch workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	origPath := filepath.Join(dir, "orig")
	newPath := filepath.Join(dir, "new")
	if err := os.WriteFile(origPath, original, 0o600); err != nil {
		return nil, fmt.Errorf("write original file: %w", err)
	}

	bin := c.Path
	if bin == "" {
		bin = "patch"
	}

	cmd := exec.CommandContext(ctx, bin, "-o", newPath, origPath)
	cmd.Stdin = bytes.NewReader(diff)
	out, err := cmd.CombinedOutput()
	if err != nil {
		output := strings.TrimSpace(string(out))
		if strings.Contains(output, garbageInput) {
			return nil, &Error{Filename: filename, Output: output, Err: ErrEmptyPatch}
		}
		return nil, &Error{Filename: filename, Output: output, Err: err}
	}

	data, err := os.ReadFile(newPath)
	if err != nil {
		if os.IsNotExist(err) {
			// patch(1) removes the output of a git-style deletion and
			// newer versions write nothing for an empty diff.
			if bytes.Contains(diff, []byte("\n+++ /dev/null")) {
				return []byte{}, nil
			}
			return original, nil
		}
		return nil, fmt.Errorf("read patched file: %w", err)
	}
	return data, nil
}
