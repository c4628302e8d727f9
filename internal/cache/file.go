package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	fileExtension = ".cache"
	lockFileName  = ".lock"
	lockRetry     = 50 * time.Millisecond
)

// FileStore keeps one JSON file per key in a directory. A lock file in the
// same directory serializes access across processes, so the CLI and a
// running server can share one cache directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file store rooted at dir, creating it if necessary
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileExtension)
}

// withLock runs fn while holding the directory lock. Each call uses its own
// file descriptor so goroutines of one process exclude each other as well.
func (s *FileStore) withLock(ctx context.Context, exclusive bool, fn func() error) error {
	fl := flock.New(filepath.Join(s.dir, lockFileName))

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetry)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to lock cache directory: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock cache directory %s", s.dir)
	}
	defer func() {
		_ = fl.Unlock()
	}()

	return fn()
}

// Get reads the entry file for key
func (s *FileStore) Get(ctx context.Context, key string) (*Entry, error) {
	var entry *Entry
	err := s.withLock(ctx, false, func() error {
		// #nosec G304 -- the file name is derived from an escaped key inside the cache directory
		data, err := os.ReadFile(s.path(key))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to read cache file: %w", err)
		}

		entry, err = decodeEntry(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Set writes the entry for key atomically
func (s *FileStore) Set(ctx context.Context, key string, entry *Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	return s.withLock(ctx, true, func() error {
		filePath := s.path(key)

		// Write to temporary file first for atomic operation
		tempPath := filePath + ".tmp"
		if err := os.WriteFile(tempPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write temporary cache file: %w", err)
		}

		if err := os.Rename(tempPath, filePath); err != nil {
			_ = os.Remove(tempPath)
			return fmt.Errorf("failed to rename cache file: %w", err)
		}
		return nil
	})
}

// Delete removes the entry file for key
func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.withLock(ctx, true, func() error {
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove cache file: %w", err)
		}
		return nil
	})
}

// Prune removes stale and unreadable entry files as well as leftover
// temporary files.
func (s *FileStore) Prune(ctx context.Context) error {
	return s.withLock(ctx, true, func() error {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			return fmt.Errorf("failed to read cache directory: %w", err)
		}

		now := time.Now()
		var errs []error
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			filePath := filepath.Join(s.dir, name)

			switch {
			case strings.HasSuffix(name, fileExtension+".tmp"):
			case strings.HasSuffix(name, fileExtension):
				if !s.staleFile(filePath, now) {
					continue
				}
			default:
				continue
			}

			if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("failed to remove %s: %w", name, err))
				continue
			}
			slog.Debug("Pruned cache file", "file", name)
		}
		return errors.Join(errs...)
	})
}

func (*FileStore) staleFile(filePath string, now time.Time) bool {
	// #nosec G304 -- filePath comes from listing the cache directory
	data, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}
	entry, err := decodeEntry(data)
	if err != nil {
		return true
	}
	return entry.Stale(now)
}

// Ping checks that the cache directory is still accessible
func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("cache directory is not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cache path %s is not a directory", s.dir)
	}
	return nil
}

// Close is a no-op
func (*FileStore) Close() error {
	return nil
}
