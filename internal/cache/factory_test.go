package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcosimbuerger/monitoring-station/internal/config"
)

func intPtr(i int) *int {
	return &i
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cache   func(dir string) *config.CacheConfig
		check   func(t *testing.T, store Store)
		wantErr error
	}{
		{
			name: "memory",
			cache: func(string) *config.CacheConfig {
				return &config.CacheConfig{Backend: config.BackendMemory}
			},
			check: func(t *testing.T, store Store) {
				t.Helper()
				assert.IsType(t, &MemoryStore{}, store)
			},
		},
		{
			name: "file",
			cache: func(dir string) *config.CacheConfig {
				return &config.CacheConfig{
					Backend: config.BackendFile,
					File:    &config.FileCacheConfig{Path: filepath.Join(dir, "files")},
				}
			},
			check: func(t *testing.T, store Store) {
				t.Helper()
				assert.IsType(t, &FileStore{}, store)
			},
		},
		{
			name: "leveldb",
			cache: func(dir string) *config.CacheConfig {
				return &config.CacheConfig{
					Backend: config.BackendLevelDB,
					LevelDB: &config.FileCacheConfig{Path: filepath.Join(dir, "leveldb")},
				}
			},
			check: func(t *testing.T, store Store) {
				t.Helper()
				assert.IsType(t, &LevelDBStore{}, store)
			},
		},
		{
			name: "unknown",
			cache: func(string) *config.CacheConfig {
				return &config.CacheConfig{Backend: "memcached"}
			},
			wantErr: ErrUnknownBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{Cache: tt.cache(t.TempDir())}
			cfg.Cache.Lifetime = intPtr(60)

			store, err := NewStore(context.Background(), cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })

			require.NoError(t, store.Ping(context.Background()))
			tt.check(t, store)
		})
	}
}

func TestNewStore_UnreachableRedis(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &config.Config{Cache: &config.CacheConfig{
		Backend: config.BackendRedis,
		Redis:   &config.RedisCacheConfig{URL: "redis://127.0.0.1:1/0"},
	}}

	_, err := NewStore(ctx, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")
}
