package cmd

import (
	"testing"

	"github.com/masmgr/diffseries/internal/git"
	"github.com/masmgr/diffseries/internal/output"
	"github.com/masmgr/diffseries/internal/series"
)

func TestParseRenameDetectFlag(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    git.RenameDetectMode
		wantErr bool
	}{
		{name: "DefaultAuto", input: "", want: git.RenameDetectAggressive},
		{name: "OffAlias", input: "false", want: git.RenameDetectOff},
		{name: "SimpleAlias", input: "exact", want: git.RenameDetectSimple},
		{name: "AggressiveAlias", input: "similarity", want: git.RenameDetectAggressive},
		{name: "Invalid", input: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRenameDetectFlag(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("parseRenameDetectFlag(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetOutputFormat(t *testing.T) {
	tests := []struct {
		input string
		want  output.OutputFormat
	}{
		{input: "json", want: output.FormatJSON},
		{input: "markdown", want: output.FormatMarkdown},
		{input: "md", want: output.FormatMarkdown},
		{input: "console", want: output.FormatConsole},
		{input: "unknown", want: output.FormatConsole},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := getOutputFormat(tt.input); got != tt.want {
				t.Fatalf("getOutputFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCheck(t *testing.T) {
	tests := []struct {
		input        string
		wantPath     string
		wantRevision string
	}{
		{input: "src/a.go@abc123", wantPath: "src/a.go", wantRevision: "abc123"},
		{input: "src/a.go", wantPath: "src/a.go", wantRevision: series.Unknown},
		{input: "src/a.go@", wantPath: "src/a.go", wantRevision: series.Unknown},
		{input: "dir@v2/a.go@abc", wantPath: "dir@v2/a.go", wantRevision: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			path, rev := parseCheck(tt.input)
			if path != tt.wantPath || rev != tt.wantRevision {
				t.Fatalf("parseCheck(%q) = %q, %q; want %q, %q", tt.input, path, rev, tt.wantPath, tt.wantRevision)
			}
		})
	}
}

func TestResolveCommit(t *testing.T) {
	s := series.New("test")
	for i, id := range []string{"abc111", "abc222", "def333"} {
		parent := ""
		if i > 0 {
			parent = s.Tip().CommitID
		}
		if err := s.Append(&series.Commit{CommitID: id, ParentID: parent}, nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	s.Finalize()

	tests := []struct {
		id      string
		want    string
		wantErr bool
	}{
		{id: "", want: ""},
		{id: "abc222", want: "abc222"},
		{id: "def", want: "def333"},
		{id: "abc", wantErr: true},
		{id: "zzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c, err := resolveCommit(s, tt.id)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := ""
			if c != nil {
				got = c.CommitID
			}
			if got != tt.want {
				t.Fatalf("resolveCommit(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}
