// Package seriestest provides commit series fixtures for tests.
package seriestest

import (
	"fmt"

	"github.com/masmgr/diffseries/internal/patch"
	"github.com/masmgr/diffseries/internal/series"
)

// Details identifies a FileDiff in a fixture by commit position, source
// path, source revision, dest path and dest revision.
type Details struct {
	Commit         int
	SourcePath     string
	SourceRevision string
	DestPath       string
	DestRevision   string
}

// String returns the details as a tuple.
func (d Details) String() string {
	return fmt.Sprintf("(%d, %s, %s, %s, %s)", d.Commit, d.SourcePath, d.SourceRevision, d.DestPath, d.DestRevision)
}

// Of returns the details of fd.
func Of(fd *series.FileDiff) Details {
	return Details{
		Commit:         fd.CommitPosition,
		SourcePath:     fd.SourcePath,
		SourceRevision: fd.SourceRevision,
		DestPath:       fd.DestPath,
		DestRevision:   fd.DestRevision,
	}
}

// DetailsOf maps FileDiffs to their details.
func DetailsOf(diffs []*series.FileDiff) []Details {
	out := make([]Details, len(diffs))
	for i, fd := range diffs {
		out[i] = Of(fd)
	}
	return out
}

// Fixture is a finalized series together with a lookup by details.
type Fixture struct {
	Series    *series.Series
	ByDetails map[Details]*series.FileDiff
}

// Get returns the FileDiff with the given details, panicking if missing.
func (f *Fixture) Get(d Details) *series.FileDiff {
	fd, ok := f.ByDetails[d]
	if !ok {
		panic(fmt.Sprintf("seriestest: no FileDiff %s", d))
	}
	return fd
}

// FileDiffs in the Review fixture.
var (
	Foo1   = Details{1, "foo", series.PreCreation, "foo", "e69de29"}
	Bar1   = Details{1, "bar", "e69de29", "bar", "8e739cc"}
	Foo2   = Details{2, "foo", "e69de29", "foo", "257cc56"}
	Bar2   = Details{2, "bar", "8e739cc", "bar", "0000000"}
	Baz2   = Details{2, "baz", series.PreCreation, "baz", "280beb2"}
	Qux3   = Details{3, "foo", "257cc56", "qux", "03b37a0"}
	Bar3   = Details{3, "bar", series.PreCreation, "bar", "5716ca5"}
	Corge3 = Details{3, "corge", series.PreCreation, "corge", "f248ba3"}
	Quux4  = Details{4, "bar", "5716ca5", "quux", "e69de29"}
)

// Files holds the repository content the Review fixture expects a fetcher
// to serve, keyed by path and revision.
var Files = map[[2]string][]byte{
	{"bar", "e69de29"}: {},
}

func change(d Details, status series.Status, old, new string) *series.FileDiff {
	diff, counts := patch.MakePatch(d.DestPath, []byte(old), []byte(new))
	return &series.FileDiff{
		SourcePath:     d.SourcePath,
		SourceRevision: d.SourceRevision,
		DestPath:       d.DestPath,
		DestRevision:   d.DestRevision,
		Status:         status,
		Diff:           diff,
		Counts:         counts,
	}
}

func withParent(fd *series.FileDiff, old, new string) *series.FileDiff {
	diff, counts := patch.MakePatch(fd.SourcePath, []byte(old), []byte(new))
	fd.ParentDiff = diff
	fd.ParentCounts = &counts
	return fd
}

// Review returns the four-commit series used throughout the tests:
//
//	r1: foo created empty; bar modified on top of a parent diff
//	r2: foo modified; bar deleted; baz modified on top of a parent diff
//	    that creates it
//	r3: foo renamed to qux; bar re-created; corge modified on top of a
//	    parent diff that creates it empty
//	r4: bar renamed to quux
func Review() *Fixture {
	corge := change(Corge3, series.StatusModified, "", "corge\n")
	corge.ParentDiff = []byte("diff --git a/corge b/corge\nnew file mode 100644\nindex 0000000..e69de29\n")
	corge.ParentCounts = &series.LineCounts{}

	commits := [][]*series.FileDiff{
		{
			change(Foo1, series.StatusAdded, "", ""),
			withParent(change(Bar1, series.StatusModified, "bar\n", "bar bar bar\n"), "", "bar\n"),
		},
		{
			change(Foo2, series.StatusModified, "", "foo\n"),
			change(Bar2, series.StatusDeleted, "bar bar bar\n", ""),
			withParent(change(Baz2, series.StatusModified, "baz\n", "baz baz baz\n"), "", "baz\n"),
		},
		{
			change(Qux3, series.StatusMoved, "foo\n", "foo bar baz qux\n"),
			change(Bar3, series.StatusAdded, "", "bar\n"),
			corge,
		},
		{
			change(Quux4, series.StatusMoved, "bar\n", ""),
		},
	}

	s := series.New("review")
	for i, diffs := range commits {
		c := &series.Commit{
			ID:       int64(i + 1),
			CommitID: fmt.Sprintf("r%d", i+1),
			ParentID: fmt.Sprintf("r%d", i),
		}
		if err := s.Append(c, diffs); err != nil {
			panic(err)
		}
	}
	s.Finalize()

	f := &Fixture{Series: s, ByDetails: make(map[Details]*series.FileDiff)}
	for _, fd := range s.FileDiffs() {
		f.ByDetails[Of(fd)] = fd
	}
	return f
}
