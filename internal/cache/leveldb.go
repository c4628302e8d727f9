package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const levelDBEntryPrefix = "e:"

// LevelDBStore keeps entries in an embedded LevelDB database
type LevelDBStore struct {
	db *leveldb.DB
}

var _ Store = (*LevelDBStore)(nil)

// NewLevelDBStore opens or creates the database at path
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	if path == "" {
		return nil, fmt.Errorf("leveldb path is required")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

func levelDBKey(key string) []byte {
	return []byte(levelDBEntryPrefix + key)
}

// Get reads the entry for key
func (s *LevelDBStore) Get(_ context.Context, key string) (*Entry, error) {
	data, err := s.db.Get(levelDBKey(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return decodeEntry(data)
}

// Set writes the entry for key
func (s *LevelDBStore) Set(_ context.Context, key string, entry *Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	if err := s.db.Put(levelDBKey(key), data, nil); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes key
func (s *LevelDBStore) Delete(_ context.Context, key string) error {
	if err := s.db.Delete(levelDBKey(key), nil); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Prune removes stale and undecodable entries in one batch
func (s *LevelDBStore) Prune(ctx context.Context) error {
	now := time.Now()
	batch := new(leveldb.Batch)

	it := s.db.NewIterator(util.BytesPrefix([]byte(levelDBEntryPrefix)), nil)
	for it.Next() {
		if ctx.Err() != nil {
			break
		}
		entry, err := decodeEntry(it.Value())
		if err != nil || entry.Stale(now) {
			// The iterator reuses its key buffer
			batch.Delete(append([]byte(nil), it.Key()...))
		}
	}
	it.Release()
	if err := it.Error(); err != nil {
		return fmt.Errorf("failed to scan cache entries: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if batch.Len() == 0 {
		return nil
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to prune cache entries: %w", err)
	}
	return nil
}

// Ping fails once the database has been closed
func (s *LevelDBStore) Ping(context.Context) error {
	if _, err := s.db.Has(levelDBKey(""), nil); err != nil {
		return fmt.Errorf("leveldb is not available: %w", err)
	}
	return nil
}

// Close closes the database
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
