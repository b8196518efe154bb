package patch

import (
	"bytes"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/masmgr/diffseries/internal/series"
)

// Source is one side of a diff. A nil *Source is a file that does not
// exist on that side.
type Source struct {
	Path    string
	Content []byte
	Mode    filemode.FileMode // defaults to filemode.Regular
}

// MakePatch builds a unified diff of path changing from old to new.
func MakePatch(path string, old, new []byte) ([]byte, series.LineCounts) {
	return MakeFilePatch(&Source{Path: path, Content: old}, &Source{Path: path, Content: new})
}

// MakeFilePatch builds a git-style unified diff turning from into to,
// along with line-based insert and delete counts. Identical content
// yields an empty diff.
func MakeFilePatch(from, to *Source) ([]byte, series.LineCounts) {
	var oldText, newText string
	if from != nil {
		oldText = string(from.Content)
	}
	if to != nil {
		newText = string(to.Content)
	}

	var counts series.LineCounts
	if oldText == newText {
		return []byte{}, counts
	}

	diffs := diff.Do(oldText, newText)
	chunks := make([]fdiff.Chunk, 0, len(diffs))
	for _, d := range diffs {
		op := fdiff.Equal
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = fdiff.Add
			counts.Inserts += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			op = fdiff.Delete
			counts.Deletes += countLines(d.Text)
		}
		chunks = append(chunks, textChunk{content: d.Text, op: op})
	}

	fp := filePatch{chunks: chunks}
	if from != nil {
		fp.from = newFile(from)
	}
	if to != nil {
		fp.to = newFile(to)
	}

	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines).Encode(patchSet{fp})
	return buf.Bytes(), counts
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

type file struct {
	path string
	hash plumbing.Hash
	mode filemode.FileMode
}

func newFile(s *Source) file {
	mode := s.Mode
	if mode == filemode.Empty {
		mode = filemode.Regular
	}
	return file{
		path: s.Path,
		hash: plumbing.ComputeHash(plumbing.BlobObject, s.Content),
		mode: mode,
	}
}

func (f file) Hash() plumbing.Hash     { return f.hash }
func (f file) Mode() filemode.FileMode { return f.mode }
func (f file) Path() string            { return f.path }

type textChunk struct {
	content string
	op      fdiff.Operation
}

func (c textChunk) Content() string       { return c.content }
func (c textChunk) Type() fdiff.Operation { return c.op }

type filePatch struct {
	from, to fdiff.File
	chunks   []fdiff.Chunk
}

func (p filePatch) IsBinary() bool               { return false }
func (p filePatch) Files() (from, to fdiff.File) { return p.from, p.to }
func (p filePatch) Chunks() []fdiff.Chunk        { return p.chunks }

type patchSet []fdiff.FilePatch

func (s patchSet) FilePatches() []fdiff.FilePatch { return s }
func (s patchSet) Message() string                { return "" }
