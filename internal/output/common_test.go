package output

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLimitTop(t *testing.T) {
	items := []int{1, 2, 3}

	tests := []struct {
		name string
		top  int
		want []int
	}{
		{name: "NoLimitWhenZero", top: 0, want: []int{1, 2, 3}},
		{name: "NoLimitWhenNegative", top: -1, want: []int{1, 2, 3}},
		{name: "Limited", top: 2, want: []int{1, 2}},
		{name: "NoLimitWhenTopExceedsLength", top: 5, want: []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := limitTop(items, tt.top)
			if len(got) != len(tt.want) {
				t.Fatalf("len(limitTop(..., %d)) = %d, want %d", tt.top, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("limitTop(..., %d)[%d] = %d, want %d", tt.top, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOpenOutputWriter(t *testing.T) {
	t.Run("Stdout", func(t *testing.T) {
		w, file, err := openOutputWriter("")
		if err != nil {
			t.Fatalf("openOutputWriter: %v", err)
		}
		if file != nil || w != os.Stdout {
			t.Fatal("expected stdout without a file")
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		_, file, err := openOutputWriter(path)
		if err != nil {
			t.Fatalf("openOutputWriter: %v", err)
		}
		if file == nil {
			t.Fatal("expected a file")
		}
		file.Close()
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("output file not created: %v", err)
		}
	})
}
