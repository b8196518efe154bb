package series

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries_Append(t *testing.T) {
	s := New("test")

	require.NoError(t, s.Append(&Commit{CommitID: "a", ParentID: "base"}, []*FileDiff{
		{SourcePath: "x", SourceRevision: PreCreation, DestPath: "x", DestRevision: "1"},
		{SourcePath: "y", SourceRevision: "0", DestPath: "y", DestRevision: "1"},
	}))
	require.NoError(t, s.Append(&Commit{CommitID: "b", ParentID: "a"}, []*FileDiff{
		{SourcePath: "x", SourceRevision: "1", DestPath: "x", DestRevision: "2"},
	}))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.Commit(1).Position)
	assert.Equal(t, 2, s.CommitByID("b").Position)
	assert.Equal(t, "b", s.Tip().CommitID)

	diffs := s.FileDiffs()
	require.Len(t, diffs, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{diffs[0].ID, diffs[1].ID, diffs[2].ID})
	assert.Equal(t, 2, diffs[2].CommitPosition)

	assert.Same(t, diffs[2], s.Lookup(2, "x"))
	assert.Nil(t, s.Lookup(2, "y"))
	assert.True(t, s.Contains(diffs[0]))
	assert.False(t, s.Contains(&FileDiff{ID: diffs[0].ID}))
}

func TestSeries_AppendRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		commit *Commit
		diffs  []*FileDiff
	}{
		{name: "Missing parent", commit: &Commit{CommitID: "c", ParentID: "nope"}},
		{name: "Duplicate commit", commit: &Commit{CommitID: "a", ParentID: "a"}},
		{name: "Empty commit ID", commit: &Commit{ParentID: "a"}},
		{name: "Position goes backwards", commit: &Commit{CommitID: "c", ParentID: "a", Position: 1}},
		{
			name:   "Duplicate dest path",
			commit: &Commit{CommitID: "c", ParentID: "a"},
			diffs: []*FileDiff{
				{SourcePath: "x", DestPath: "z"},
				{SourcePath: "y", DestPath: "z"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("test")
			require.NoError(t, s.Append(&Commit{CommitID: "a", ParentID: "root"}, nil))
			position := tt.commit.Position

			err := s.Append(tt.commit, tt.diffs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSeries))
			assert.Equal(t, 1, s.Len())

			assert.Equal(t, position, tt.commit.Position, "rejected commit keeps its position")
			for _, fd := range tt.diffs {
				assert.Zero(t, fd.ID, "rejected FileDiff keeps its ID")
				assert.Zero(t, fd.CommitPosition)
			}
		})
	}
}

func TestSeries_AppendMixedIDs(t *testing.T) {
	s := New("test")
	a := &FileDiff{DestPath: "a"}
	b := &FileDiff{ID: 1, DestPath: "b"}
	c := &FileDiff{ID: 3, DestPath: "c"}
	d := &FileDiff{DestPath: "d"}
	require.NoError(t, s.Append(&Commit{CommitID: "c1"}, []*FileDiff{a, b, c, d}))

	e := &FileDiff{DestPath: "e"}
	require.NoError(t, s.Append(&Commit{CommitID: "c2", ParentID: "c1"}, []*FileDiff{e}))

	ids := map[int64]bool{}
	for _, fd := range []*FileDiff{a, b, c, d, e} {
		assert.False(t, ids[fd.ID], "ID %d assigned twice", fd.ID)
		ids[fd.ID] = true
		assert.True(t, s.Contains(fd), "%s not found by ID", fd.DestPath)
		assert.Same(t, fd, s.FileDiff(fd.ID))
	}
	assert.Equal(t, int64(1), b.ID)
	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, int64(2), a.ID)
	assert.Equal(t, int64(4), d.ID)
	assert.Equal(t, int64(5), e.ID)
}

func TestSeries_Finalize(t *testing.T) {
	s := New("test")
	s.Finalize()

	assert.True(t, s.Finalized())
	assert.ErrorIs(t, s.Append(&Commit{CommitID: "a"}, nil), ErrFinalized)
}

func TestSortFileDiffs(t *testing.T) {
	diffs := []*FileDiff{
		{ID: 1, DestPath: "src/b.go", CommitPosition: 1},
		{ID: 2, DestPath: "README", CommitPosition: 2},
		{ID: 3, DestPath: "src/a.go", CommitPosition: 3},
		{ID: 4, DestPath: "src/a.go", CommitPosition: 1},
		{ID: 5, DestPath: "docs/x.md", CommitPosition: 1},
	}

	SortFileDiffs(diffs)

	var ids []int64
	for _, fd := range diffs {
		ids = append(ids, fd.ID)
	}
	assert.Equal(t, []int64{2, 5, 4, 3, 1}, ids)
}

func TestStatus_RoundTrip(t *testing.T) {
	for _, s := range []Status{StatusModified, StatusAdded, StatusDeleted, StatusCopied, StatusMoved, StatusUnchanged} {
		t.Run(s.String(), func(t *testing.T) {
			data, err := json.Marshal(s)
			require.NoError(t, err)

			var got Status
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, s, got)
		})
	}

	_, err := ParseStatus("bogus")
	assert.Error(t, err)
	assert.Equal(t, "unknown", Status(99).String())
}

func TestFileDiff_ParentDiffKnownEmpty(t *testing.T) {
	fd := &FileDiff{ParentDiff: []byte("index 0000000..e69de29\n")}
	assert.True(t, fd.HasParentDiff())
	assert.False(t, fd.ParentDiffKnownEmpty())

	fd.ParentCounts = &LineCounts{}
	assert.True(t, fd.ParentDiffKnownEmpty())

	fd.ParentCounts = &LineCounts{Inserts: 1}
	assert.False(t, fd.ParentDiffKnownEmpty())
}
