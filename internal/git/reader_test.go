package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/masmgr/diffseries/internal/original"
	"github.com/masmgr/diffseries/internal/series"
)

type testRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
	wt   *gogit.Worktree
	now  time.Time
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt, now: time.Now().Add(-time.Hour)}
}

func (r *testRepo) write(rel, content string) {
	r.t.Helper()
	full := filepath.Join(r.dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		r.t.Fatalf("WriteFile: %v", err)
	}
	if _, err := r.wt.Add(rel); err != nil {
		r.t.Fatalf("Add: %v", err)
	}
}

func (r *testRepo) remove(rel string) {
	r.t.Helper()
	if _, err := r.wt.Remove(rel); err != nil {
		r.t.Fatalf("Remove: %v", err)
	}
}

func (r *testRepo) move(from, to string) {
	r.t.Helper()
	if _, err := r.wt.Move(from, to); err != nil {
		r.t.Fatalf("Move: %v", err)
	}
}

func (r *testRepo) commit(msg string) plumbing.Hash {
	r.t.Helper()
	r.now = r.now.Add(time.Minute)
	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: r.now}
	hash, err := r.wt.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		r.t.Fatalf("Commit: %v", err)
	}
	return hash
}

// buildHistory creates three commits:
//
//	c1: a.txt, b.txt
//	c2: modify a.txt, add c.txt
//	c3: delete b.txt, rename c.txt to d.txt
func buildHistory(t *testing.T) (*testRepo, []plumbing.Hash) {
	r := newTestRepo(t)

	r.write("a.txt", "one\n")
	r.write("b.txt", "bee\n")
	c1 := r.commit("initial")

	r.write("a.txt", "one\ntwo\n")
	r.write("c.txt", "a fairly long line of content so rename detection has something to match\n")
	c2 := r.commit("second\n\nbody text")

	r.remove("b.txt")
	r.move("c.txt", "d.txt")
	c3 := r.commit("third")

	return r, []plumbing.Hash{c1, c2, c3}
}

func findChange(changes []FileChange, path string) *FileChange {
	for i := range changes {
		if changes[i].Path == path {
			return &changes[i]
		}
	}
	return nil
}

func TestHistoryReader_ReadChanges(t *testing.T) {
	r, hashes := buildHistory(t)

	reader, err := NewHistoryReader(ReadOptions{RepoPath: r.dir})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}

	sets, err := reader.ReadChanges(context.Background())
	if err != nil {
		t.Fatalf("ReadChanges: %v", err)
	}

	// The root commit has no parent and is skipped.
	if len(sets) != 2 {
		t.Fatalf("len(sets) = %d, expected 2", len(sets))
	}
	if sets[0].Commit.SHA != hashes[1].String() || sets[1].Commit.SHA != hashes[2].String() {
		t.Fatalf("commits not oldest first: %s, %s", sets[0].Commit.SHA, sets[1].Commit.SHA)
	}
	if sets[0].Commit.ParentSHA != hashes[0].String() {
		t.Errorf("ParentSHA = %s, expected %s", sets[0].Commit.ParentSHA, hashes[0])
	}
	if sets[0].Commit.Message != "second" {
		t.Errorf("Message = %q, expected first line only", sets[0].Commit.Message)
	}

	a := findChange(sets[0].Changes, "a.txt")
	if a == nil {
		t.Fatal("a.txt change missing")
	}
	if a.Kind != ChangeKindModified {
		t.Errorf("a.txt kind = %v, expected modified", a.Kind)
	}
	if a.Counts.Inserts != 1 || a.Counts.Deletes != 0 {
		t.Errorf("a.txt counts = %+v, expected 1 insert", a.Counts)
	}
	if len(a.Patch) == 0 {
		t.Error("a.txt patch is empty")
	}

	c := findChange(sets[0].Changes, "c.txt")
	if c == nil || c.Kind != ChangeKindAdded {
		t.Fatalf("c.txt change = %+v, expected added", c)
	}
	if fd := c.ToFileDiff(); !fd.IsNew() {
		t.Error("added change should convert to a new FileDiff")
	}

	b := findChange(sets[1].Changes, "b.txt")
	if b == nil || b.Kind != ChangeKindDeleted {
		t.Fatalf("b.txt change = %+v, expected deleted", b)
	}

	d := findChange(sets[1].Changes, "d.txt")
	if d == nil || d.Kind != ChangeKindRenamed || d.OldPath != "c.txt" {
		t.Fatalf("d.txt change = %+v, expected rename from c.txt", d)
	}
}

func TestHistoryReader_ReadChanges_Range(t *testing.T) {
	r, hashes := buildHistory(t)

	reader, err := NewHistoryReader(ReadOptions{RepoPath: r.dir, Range: hashes[1].String() + "..HEAD"})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}

	sets, err := reader.ReadChanges(context.Background())
	if err != nil {
		t.Fatalf("ReadChanges: %v", err)
	}
	if len(sets) != 1 || sets[0].Commit.SHA != hashes[2].String() {
		t.Fatalf("expected only the third commit, got %d sets", len(sets))
	}
}

func TestHistoryReader_ReadChanges_Filters(t *testing.T) {
	r, _ := buildHistory(t)

	reader, err := NewHistoryReader(ReadOptions{RepoPath: r.dir, Include: []string{"a.txt"}})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}

	sets, err := reader.ReadChanges(context.Background())
	if err != nil {
		t.Fatalf("ReadChanges: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("filtered commits must be kept, got %d sets", len(sets))
	}
	if len(sets[0].Changes) != 1 || sets[0].Changes[0].Path != "a.txt" {
		t.Errorf("first commit changes = %+v, expected only a.txt", sets[0].Changes)
	}
	if len(sets[1].Changes) != 0 {
		t.Errorf("second commit changes = %+v, expected none", sets[1].Changes)
	}
}

func TestHistoryReader_InvalidPattern(t *testing.T) {
	r, _ := buildHistory(t)

	if _, err := NewHistoryReader(ReadOptions{RepoPath: r.dir, Include: []string{"[abc"}}); err == nil {
		t.Fatal("expected error for invalid include pattern")
	}
}

func TestHistoryReader_MaxDiffSize(t *testing.T) {
	r, _ := buildHistory(t)

	reader, err := NewHistoryReader(ReadOptions{RepoPath: r.dir, MaxDiffSize: 1})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}
	if _, err := reader.ReadChanges(context.Background()); !errors.Is(err, ErrDiffTooLarge) {
		t.Fatalf("ReadChanges error = %v, expected ErrDiffTooLarge", err)
	}
}

func TestHistoryReader_RenameDetectOff(t *testing.T) {
	r, _ := buildHistory(t)

	reader, err := NewHistoryReader(ReadOptions{RepoPath: r.dir, RenameDetect: RenameDetectOff})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}
	sets, err := reader.ReadChanges(context.Background())
	if err != nil {
		t.Fatalf("ReadChanges: %v", err)
	}

	if c := findChange(sets[1].Changes, "c.txt"); c == nil || c.Kind != ChangeKindDeleted {
		t.Errorf("c.txt change = %+v, expected deleted", c)
	}
	if d := findChange(sets[1].Changes, "d.txt"); d == nil || d.Kind != ChangeKindAdded {
		t.Errorf("d.txt change = %+v, expected added", d)
	}
}

func TestRepository_FetchFile(t *testing.T) {
	r, hashes := buildHistory(t)

	reader, err := NewHistoryReader(ReadOptions{RepoPath: r.dir})
	if err != nil {
		t.Fatalf("NewHistoryReader: %v", err)
	}
	sets, err := reader.ReadChanges(context.Background())
	if err != nil {
		t.Fatalf("ReadChanges: %v", err)
	}
	a := findChange(sets[0].Changes, "a.txt")

	repo, err := OpenRepository(r.dir)
	if err != nil {
		t.Fatalf("OpenRepository: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name     string
		path     string
		revision string
		base     string
		want     string
		notFound bool
	}{
		{name: "full hash", path: "a.txt", revision: a.OldRevision, want: "one\n"},
		{name: "abbreviated hash", path: "a.txt", revision: a.NewRevision[:7], want: "one\ntwo\n"},
		{name: "abbreviated hash in base", path: "a.txt", revision: a.OldRevision[:7], base: hashes[0].String(), want: "one\n"},
		{name: "unknown in base", path: "b.txt", revision: series.Unknown, base: hashes[0].String(), want: "bee\n"},
		{name: "unknown at head", path: "d.txt", revision: series.Unknown, want: "a fairly long line of content so rename detection has something to match\n"},
		{name: "deleted at head", path: "b.txt", revision: series.Unknown, notFound: true},
		{name: "pre-creation", path: "c.txt", revision: series.PreCreation, notFound: true},
		{name: "missing hash", path: "a.txt", revision: "ffffffffffffffffffffffffffffffffffffffff", notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FetchFile(ctx, tt.path, tt.revision, tt.base)
			if tt.notFound {
				if !errors.Is(err, original.ErrFileNotFound) {
					t.Fatalf("FetchFile error = %v, expected ErrFileNotFound", err)
				}
				exists, err := repo.FileExists(ctx, tt.path, tt.revision, tt.base)
				if err != nil || exists {
					t.Fatalf("FileExists = %v, %v; expected false", exists, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchFile: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("FetchFile = %q, expected %q", got, tt.want)
			}
			exists, err := repo.FileExists(ctx, tt.path, tt.revision, tt.base)
			if err != nil || !exists {
				t.Fatalf("FileExists = %v, %v; expected true", exists, err)
			}
		})
	}
}

func TestObjectSpec(t *testing.T) {
	tests := []struct {
		revision, base, want string
		wantErr              bool
	}{
		{revision: "abc123", want: "abc123"},
		{revision: series.Unknown, want: "HEAD:a.txt"},
		{revision: series.Unknown, base: "deadbeef", want: "deadbeef:a.txt"},
		{revision: series.PreCreation, wantErr: true},
		{revision: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := objectSpec("a.txt", tt.revision, tt.base)
		if tt.wantErr {
			if !errors.Is(err, original.ErrFileNotFound) {
				t.Errorf("objectSpec(%q) error = %v, expected ErrFileNotFound", tt.revision, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("objectSpec(%q, %q) = %q, %v; expected %q", tt.revision, tt.base, got, err, tt.want)
		}
	}
}
