package cmd

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masmgr/diffseries/config"
	"github.com/masmgr/diffseries/internal/ancestry"
	"github.com/masmgr/diffseries/internal/git"
	"github.com/masmgr/diffseries/internal/series"
	"github.com/masmgr/diffseries/internal/store"
	"github.com/masmgr/diffseries/internal/validation"
)

func newTestCommandContext(t *testing.T) *CommandContext {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "series.db"), store.Options{Compress: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return &CommandContext{
		Config: config.DefaultConfig(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:  st,
	}
}

// recreateHistory adds a.go and b.go, renames a.go to c.go while deleting
// b.go, then creates b.go again.
func recreateHistory() []git.CommitChangeSet {
	return []git.CommitChangeSet{
		{
			Commit: git.CommitInfo{SHA: "c1", ParentSHA: "base", Message: "add"},
			Changes: []git.FileChange{
				{Path: "a.go", NewRevision: "a1", Kind: git.ChangeKindAdded},
				{Path: "b.go", NewRevision: "b1", Kind: git.ChangeKindAdded},
			},
		},
		{
			Commit: git.CommitInfo{SHA: "c2", ParentSHA: "c1", Message: "move"},
			Changes: []git.FileChange{
				{Path: "c.go", OldPath: "a.go", OldRevision: "a1", NewRevision: "a2", Kind: git.ChangeKindRenamed},
				{Path: "b.go", OldRevision: "b1", Kind: git.ChangeKindDeleted},
			},
		},
		{
			Commit: git.CommitInfo{SHA: "c3", ParentSHA: "c2", Message: "recreate"},
			Changes: []git.FileChange{
				{Path: "b.go", NewRevision: "b3", Kind: git.ChangeKindAdded},
			},
		},
	}
}

func TestStoreSeries_FromChangeSets(t *testing.T) {
	ctx := newTestCommandContext(t)
	reader := git.NewMockHistoryReader(recreateHistory(), nil)

	changeSets, err := readWith(context.Background(), reader)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.Calls)

	builder, err := storeSeries(ctx, "recreate", changeSets, true)
	require.NoError(t, err)
	assert.Equal(t, "c3", builder.Tip())

	tree := builder.Tree()
	require.Len(t, tree, 3)
	assert.ElementsMatch(t, []validation.FileInfo{{Filename: "a.go", Revision: "a1"}, {Filename: "b.go", Revision: "b1"}}, tree["c1"].Tree.Added)
	assert.Equal(t, []validation.FileInfo{{Filename: "c.go", Revision: "a2"}}, tree["c2"].Tree.Added)
	assert.ElementsMatch(t, []validation.FileInfo{{Filename: "a.go", Revision: "a1"}, {Filename: "b.go", Revision: "b1"}}, tree["c2"].Tree.Removed)
	assert.Equal(t, []validation.FileInfo{{Filename: "b.go", Revision: "b3"}}, tree["c3"].Tree.Added)
	assert.Equal(t, "c2", tree["c3"].ParentID)

	exists := func(parent, path, revision string) bool {
		t.Helper()
		ok, err := validation.FileExists(context.Background(), tree, validation.Query{ParentID: parent, Path: path, Revision: revision}, nil)
		require.NoError(t, err)
		return ok
	}
	assert.False(t, exists("c2", "b.go", series.Unknown), "deleted in c2")
	assert.True(t, exists("c3", "b.go", series.Unknown), "re-created in c3")
	assert.False(t, exists("c2", "a.go", series.Unknown), "renamed away in c2")
	assert.True(t, exists("c3", "c.go", "a2"))

	s, err := ctx.Store.Load("recreate")
	require.NoError(t, err)
	assert.True(t, s.Finalized())
	require.Equal(t, 3, s.Len())

	r, err := ancestry.NewResolver(s)
	require.NoError(t, err)

	moved := s.Lookup(2, "c.go")
	require.NotNil(t, moved)
	assert.Equal(t, series.StatusMoved, moved.Status)
	minimal, err := r.Ancestors(moved, ancestry.Minimal)
	require.NoError(t, err)
	require.Len(t, minimal, 1)
	assert.Equal(t, "a.go", minimal[0].DestPath)

	recreated := s.Lookup(3, "b.go")
	require.NotNil(t, recreated)
	assert.Equal(t, series.PreCreation, recreated.SourceRevision)
	minimal, err = r.Ancestors(recreated, ancestry.Minimal)
	require.NoError(t, err)
	assert.Empty(t, minimal)
	full, err := r.Ancestors(recreated, ancestry.Compliment)
	require.NoError(t, err)
	require.Len(t, full, 2)
	assert.Equal(t, 1, full[0].CommitPosition)
	assert.Equal(t, 2, full[1].CommitPosition)
	assert.True(t, full[1].IsDeleted())
}

func TestStoreSeries_RemovesPartialSeries(t *testing.T) {
	ctx := newTestCommandContext(t)

	broken := recreateHistory()
	broken[2].Commit.ParentSHA = "unknown"

	_, err := storeSeries(ctx, "partial", broken, true)
	require.Error(t, err)

	_, err = ctx.Store.Load("partial")
	assert.ErrorIs(t, err, store.ErrNotFound)
	infos, err := ctx.Store.List()
	require.NoError(t, err)
	assert.Empty(t, infos)

	_, err = storeSeries(ctx, "partial", recreateHistory(), false)
	require.NoError(t, err, "a failed ingest must not block the next one")

	s, err := ctx.Store.Load("partial")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Finalized())
}

func TestStoreSeries_KeepsExistingSeries(t *testing.T) {
	ctx := newTestCommandContext(t)
	_, err := storeSeries(ctx, "dup", recreateHistory(), true)
	require.NoError(t, err)

	_, err = storeSeries(ctx, "dup", recreateHistory(), true)
	require.ErrorIs(t, err, store.ErrExists)

	s, err := ctx.Store.Load("dup")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
}

func TestReadWith_Error(t *testing.T) {
	_, err := readWith(context.Background(), git.NewMockHistoryReader(nil, assert.AnError))
	assert.ErrorIs(t, err, assert.AnError)
}
