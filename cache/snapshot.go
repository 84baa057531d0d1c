// Package cache implements the local warm-cache snapshot (C11): a
// goleveldb-backed side store that the notifyable factory writes
// notifyable znode snapshots into opportunistically, so a reconnecting
// process can serve last-known-good reads before synchronize() catches the
// repository session back up. It is never a substitute for repository
// truth; reads carry no staleness mark, so telling a live session from a
// stale snapshot is left to the caller. Grounded on the teacher's leveldb
// storage driver generalized from arbitrary byte keys/values to
// sub-document-path -> JSON-body snapshots.
package cache

import (
	"encoding/json"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
)

// Snapshot is one cached sub-document read: the body as last observed,
// its store version, and when it was written into the warm cache.
type Snapshot struct {
	Path       string                 `json:"path"`
	Body       map[string]interface{} `json:"body"`
	Version    int32                  `json:"version"`
	CachedAt   int64                  `json:"cachedAtEpochMsecs"`
}

// Store is the local warm-cache: a thin, crash-only leveldb wrapper.
// It never blocks a read/write on repository availability and never
// returns an error that should abort a caller's read path — a warm
// cache miss just means "nothing cached yet".
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) the leveldb database at dir.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes a sub-document's current body and version into the warm
// cache under its repository path, stamped with the given epoch millis
// (supplied by the caller so the store stays free of wall-clock calls).
func (s *Store) Put(path string, body map[string]interface{}, version int32, nowEpochMsecs int64) error {
	snap := Snapshot{Path: path, Body: body, Version: version, CachedAt: nowEpochMsecs}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Put([]byte(path), raw, nil)
}

// Get returns the last snapshot cached for path, and whether one exists.
// A caller MUST treat this data as potentially stale and should prefer
// a repository read once the session is connected.
func (s *Store) Get(path string) (Snapshot, bool, error) {
	raw, err := s.db.Get([]byte(path), nil)
	if err == leveldb.ErrNotFound {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Delete removes any cached snapshot for path, e.g. once the
// corresponding notifyable transitions to Removed.
func (s *Store) Delete(path string) error {
	return s.db.Delete([]byte(path), nil)
}

// Age reports how long ago a snapshot was cached, given the caller's
// current epoch millis.
func (snap Snapshot) Age(nowEpochMsecs int64) time.Duration {
	return time.Duration(nowEpochMsecs-snap.CachedAt) * time.Millisecond
}
