package git

import (
	"context"
	"errors"
	"testing"
)

func TestMockHistoryReader_ReadChanges(t *testing.T) {
	changeSets := []CommitChangeSet{
		{
			Commit:  CommitInfo{SHA: "c1", ParentSHA: "base"},
			Changes: []FileChange{{Path: "a.go", NewRevision: "a1", Kind: ChangeKindAdded}},
		},
	}

	t.Run("returns change sets", func(t *testing.T) {
		reader := NewMockHistoryReader(changeSets, nil)
		got, err := reader.ReadChanges(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Commit.SHA != "c1" {
			t.Errorf("got %+v", got)
		}
		if reader.Calls != 1 {
			t.Errorf("Calls = %d, want 1", reader.Calls)
		}
	})

	t.Run("returns error", func(t *testing.T) {
		want := errors.New("read failed")
		_, err := NewMockHistoryReader(changeSets, want).ReadChanges(context.Background())
		if !errors.Is(err, want) {
			t.Errorf("err = %v, want %v", err, want)
		}
	})

	t.Run("honors cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewMockHistoryReader(changeSets, nil).ReadChanges(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}
