// Package store persists commit series in a bbolt database.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.etcd.io/bbolt"

	"github.com/masmgr/diffseries/internal/series"
)

var (
	// ErrNotFound is returned for a series that is not stored.
	ErrNotFound = errors.New("series not found")
	// ErrExists is returned when creating a series whose name is taken.
	ErrExists = errors.New("series already exists")
)

// Buckets
var (
	bucketSeries    = []byte("series")    // name -> nested series bucket
	bucketIDs       = []byte("ids")       // sequences for commit and FileDiff IDs
	keyMeta         = []byte("meta")      // series metadata
	bucketCommits   = []byte("commits")   // position -> commit
	bucketFileDiffs = []byte("filediffs") // position+id -> FileDiff record
	bucketPayloads  = []byte("payloads")  // id+kind -> diff bytes
)

const (
	payloadDiff   byte = 'd'
	payloadParent byte = 'p'

	encodingRaw  byte = 0
	encodingZstd byte = 1
)

// Info summarizes a stored series.
type Info struct {
	Name      string    `json:"name"`
	Commits   int       `json:"commits"`
	Finalized bool      `json:"finalized"`
	Created   time.Time `json:"created"`
}

// Options configures a Store.
type Options struct {
	// Compress stores diff payloads zstd-compressed.
	Compress bool
	// Timeout bounds waiting for the database file lock.
	Timeout time.Duration
}

// Store is a bbolt-backed series store.
type Store struct {
	db       *bbolt.DB
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*Store, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	// Ensure buckets exist
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(bucketSeries); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(bucketIDs); e != nil {
			return e
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}

	return &Store{db: db, compress: opts.Compress, enc: enc, dec: dec}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.dec.Close()
	if err := s.enc.Close(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

type meta struct {
	Name      string    `json:"name"`
	Finalized bool      `json:"finalized"`
	Created   time.Time `json:"created"`
	Commits   int       `json:"commits"`
}

// fileDiffRecord is the stored form of a FileDiff without its payloads.
type fileDiffRecord struct {
	series.FileDiff
	HasDiff       bool `json:"hasDiff"`
	HasParentDiff bool `json:"hasParentDiff"`
}

// CreateSeries creates an empty series.
func (s *Store) CreateSeries(name string) error {
	if name == "" {
		return errors.New("series name is required")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketSeries)
		if root.Bucket([]byte(name)) != nil {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
		b, err := root.CreateBucket([]byte(name))
		if err != nil {
			return err
		}
		for _, sub := range [][]byte{bucketCommits, bucketFileDiffs, bucketPayloads} {
			if _, err := b.CreateBucket(sub); err != nil {
				return err
			}
		}
		return putJSON(b, keyMeta, meta{Name: name, Created: time.Now().UTC()})
	})
}

// AppendCommit validates and appends a commit with its FileDiffs. Storage
// IDs and positions are assigned on the passed values once the commit is
// accepted; a rejected commit leaves them untouched.
func (s *Store) AppendCommit(name string, c *series.Commit, diffs []*series.FileDiff) error {
	commit := *c
	staged := make([]*series.FileDiff, len(diffs))
	for i, fd := range diffs {
		cp := *fd
		staged[i] = &cp
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := seriesBucket(tx, name)
		if err != nil {
			return err
		}

		loaded, m, err := s.load(b)
		if err != nil {
			return err
		}

		ids := tx.Bucket(bucketIDs)
		if commit.ID == 0 {
			if commit.ID, err = nextID(ids, "commit"); err != nil {
				return err
			}
		}
		for _, fd := range staged {
			if fd.ID == 0 {
				if fd.ID, err = nextID(ids, "filediff"); err != nil {
					return err
				}
			}
		}

		// Series.Append enforces ordering, parents and unique dest paths.
		if err := loaded.Append(&commit, staged); err != nil {
			return err
		}

		if err := putJSON(b.Bucket(bucketCommits), positionKey(commit.Position), &commit); err != nil {
			return err
		}
		for _, fd := range staged {
			if err := s.putFileDiff(b, fd); err != nil {
				return err
			}
		}

		m.Commits++
		return putJSON(b, keyMeta, m)
	})
	if err != nil {
		return err
	}

	c.ID, c.Position = commit.ID, commit.Position
	for i, fd := range diffs {
		fd.ID, fd.CommitPosition = staged[i].ID, staged[i].CommitPosition
	}
	return nil
}

// Finalize marks a series as complete. Further appends fail.
func (s *Store) Finalize(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := seriesBucket(tx, name)
		if err != nil {
			return err
		}
		var m meta
		if err := getJSON(b, keyMeta, &m); err != nil {
			return err
		}
		m.Finalized = true
		return putJSON(b, keyMeta, m)
	})
}

// Load reads a series with its commits and FileDiffs in position order.
func (s *Store) Load(name string) (*series.Series, error) {
	var out *series.Series
	err := s.db.View(func(tx *bbolt.Tx) error {
		b, err := seriesBucket(tx, name)
		if err != nil {
			return err
		}
		out, _, err = s.load(b)
		return err
	})
	return out, err
}

// List returns every stored series, ordered by name.
func (s *Store) List() ([]Info, error) {
	var out []Info
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSeries).ForEachBucket(func(k []byte) error {
			var m meta
			if err := getJSON(tx.Bucket(bucketSeries).Bucket(k), keyMeta, &m); err != nil {
				return err
			}
			out = append(out, Info{Name: m.Name, Commits: m.Commits, Finalized: m.Finalized, Created: m.Created})
			return nil
		})
	})
	return out, err
}

// Delete removes a series.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSeries).DeleteBucket([]byte(name)); err != nil {
			if errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return err
		}
		return nil
	})
}

func (s *Store) load(b *bbolt.Bucket) (*series.Series, meta, error) {
	var m meta
	if err := getJSON(b, keyMeta, &m); err != nil {
		return nil, m, err
	}
	out := series.New(m.Name)

	fdCursor := b.Bucket(bucketFileDiffs).Cursor()
	err := b.Bucket(bucketCommits).ForEach(func(k, v []byte) error {
		var c series.Commit
		if err := json.Unmarshal(v, &c); err != nil {
			return fmt.Errorf("decode commit: %w", err)
		}

		var diffs []*series.FileDiff
		for fk, fv := fdCursor.Seek(k); fk != nil && bytes.HasPrefix(fk, k); fk, fv = fdCursor.Next() {
			fd, err := s.decodeFileDiff(b, fv)
			if err != nil {
				return err
			}
			diffs = append(diffs, fd)
		}

		return out.Append(&c, diffs)
	})
	if err != nil {
		return nil, m, err
	}

	if m.Finalized {
		out.Finalize()
	}
	return out, m, nil
}

func (s *Store) putFileDiff(b *bbolt.Bucket, fd *series.FileDiff) error {
	rec := fileDiffRecord{
		FileDiff:      *fd,
		HasDiff:       len(fd.Diff) > 0,
		HasParentDiff: len(fd.ParentDiff) > 0,
	}
	key := append(positionKey(fd.CommitPosition), idKey(fd.ID)...)
	if err := putJSON(b.Bucket(bucketFileDiffs), key, rec); err != nil {
		return err
	}

	payloads := b.Bucket(bucketPayloads)
	if rec.HasDiff {
		if err := payloads.Put(payloadKey(fd.ID, payloadDiff), s.encode(fd.Diff)); err != nil {
			return err
		}
	}
	if rec.HasParentDiff {
		if err := payloads.Put(payloadKey(fd.ID, payloadParent), s.encode(fd.ParentDiff)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) decodeFileDiff(b *bbolt.Bucket, v []byte) (*series.FileDiff, error) {
	var rec fileDiffRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, fmt.Errorf("decode FileDiff: %w", err)
	}
	fd := rec.FileDiff

	payloads := b.Bucket(bucketPayloads)
	var err error
	if rec.HasDiff {
		if fd.Diff, err = s.decode(payloads.Get(payloadKey(fd.ID, payloadDiff))); err != nil {
			return nil, fmt.Errorf("decode diff of FileDiff %d: %w", fd.ID, err)
		}
	}
	if rec.HasParentDiff {
		if fd.ParentDiff, err = s.decode(payloads.Get(payloadKey(fd.ID, payloadParent))); err != nil {
			return nil, fmt.Errorf("decode parent diff of FileDiff %d: %w", fd.ID, err)
		}
	}
	return &fd, nil
}

// encode prefixes data with an encoding byte, compressing when enabled.
func (s *Store) encode(data []byte) []byte {
	if !s.compress {
		return append([]byte{encodingRaw}, data...)
	}
	return s.enc.EncodeAll(data, []byte{encodingZstd})
}

func (s *Store) decode(v []byte) ([]byte, error) {
	if len(v) == 0 {
		return nil, errors.New("missing payload")
	}
	switch v[0] {
	case encodingRaw:
		return append([]byte(nil), v[1:]...), nil
	case encodingZstd:
		out, err := s.dec.DecodeAll(v[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown payload encoding %d", v[0])
	}
}

func seriesBucket(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	b := tx.Bucket(bucketSeries).Bucket([]byte(name))
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return b, nil
}

func nextID(ids *bbolt.Bucket, kind string) (int64, error) {
	b, err := ids.CreateBucketIfNotExists([]byte(kind))
	if err != nil {
		return 0, err
	}
	seq, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	return int64(seq), nil
}

func positionKey(pos int) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, uint32(pos))
	return k
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func payloadKey(id int64, kind byte) []byte {
	return append(idKey(id), kind)
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getJSON(b *bbolt.Bucket, key []byte, v any) error {
	data := b.Get(key)
	if data == nil {
		return fmt.Errorf("missing %s record", key)
	}
	return json.Unmarshal(data, v)
}
