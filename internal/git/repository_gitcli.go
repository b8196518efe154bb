package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/masmgr/diffseries/internal/original"
	"github.com/masmgr/diffseries/internal/series"
)

// CLIRepository reads file content by running the git binary. It resolves
// abbreviated hashes the same way git itself does.
type CLIRepository struct {
	RepoPath string
	GitPath  string // defaults to "git"
}

// NewCLIRepository creates a git CLI backed repository.
func NewCLIRepository(repoPath string) *CLIRepository {
	return &CLIRepository{RepoPath: repoPath}
}

// FetchFile returns the content of path at revision.
func (r *CLIRepository) FetchFile(ctx context.Context, path, revision, baseCommitID string) ([]byte, error) {
	spec, err := objectSpec(path, revision, baseCommitID)
	if err != nil {
		return nil, err
	}

	out, err := r.run(ctx, "cat-file", "blob", spec)
	if err != nil {
		if isMissingObject(err) {
			return nil, fmt.Errorf("%w: %s@%s", original.ErrFileNotFound, path, revision)
		}
		return nil, err
	}
	return out, nil
}

// FileExists reports whether path exists at revision.
func (r *CLIRepository) FileExists(ctx context.Context, path, revision, baseCommitID string) (bool, error) {
	spec, err := objectSpec(path, revision, baseCommitID)
	if errors.Is(err, original.ErrFileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := r.run(ctx, "cat-file", "-e", spec); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || isMissingObject(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// objectSpec builds the git object name for a path at a revision. UNKNOWN
// revisions are looked up by path in the base commit, or HEAD.
func objectSpec(path, revision, baseCommitID string) (string, error) {
	switch revision {
	case "", series.PreCreation:
		return "", fmt.Errorf("%w: %s@%s", original.ErrFileNotFound, path, revision)
	case series.Unknown:
		commit := baseCommitID
		if commit == "" {
			commit = "HEAD"
		}
		return commit + ":" + path, nil
	default:
		return revision, nil
	}
}

type gitError struct {
	args   []string
	stderr string
	err    error
}

func (e *gitError) Error() string {
	return fmt.Sprintf("git %s failed: %v: %s", strings.Join(e.args, " "), e.err, e.stderr)
}

func (e *gitError) Unwrap() error { return e.err }

func (r *CLIRepository) run(ctx context.Context, args ...string) ([]byte, error) {
	bin := r.GitPath
	if bin == "" {
		bin = "git"
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"-C", r.RepoPath}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &gitError{args: args, stderr: strings.TrimSpace(stderr.String()), err: err}
	}
	return stdout.Bytes(), nil
}

func isMissingObject(err error) bool {
	var gerr *gitError
	if !errors.As(err, &gerr) {
		return false
	}
	msg := gerr.stderr
	return strings.Contains(msg, "Not a valid object name") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "bad file")
}
