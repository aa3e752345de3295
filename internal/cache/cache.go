// Package cache provides caching for preview images and JSON responses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config contains cache configuration.
type Config struct {
	PreviewCacheSizeMB int
	PreviewTTL         time.Duration
	QueryCacheSize     int
}

// Manager manages preview and query caches.
type Manager struct {
	previewCache *bigcache.BigCache
	queryCache   *lru.Cache[string, []byte]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.PreviewTTL <= 0 {
		cfg.PreviewTTL = 10 * time.Minute
	}
	if cfg.PreviewCacheSizeMB <= 0 {
		cfg.PreviewCacheSizeMB = 64
	}
	if cfg.QueryCacheSize <= 0 {
		cfg.QueryCacheSize = 1024
	}
	previewCacheConfig := bigcache.Config{
		Shards:             64,
		LifeWindow:         cfg.PreviewTTL,
		CleanWindow:        cfg.PreviewTTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       64 * 1024,
		HardMaxCacheSize:   cfg.PreviewCacheSizeMB,
		Verbose:            false,
	}

	previewCache, err := bigcache.New(context.Background(), previewCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview cache: %w", err)
	}

	queryCache, err := lru.New[string, []byte](cfg.QueryCacheSize)
	if err != nil {
		previewCache.Close()
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}

	return &Manager{
		previewCache: previewCache,
		queryCache:   queryCache,
	}, nil
}

// GetPreview retrieves a PNG preview from cache.
func (m *Manager) GetPreview(key string) ([]byte, bool) {
	data, err := m.previewCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetPreview stores a PNG preview in cache.
func (m *Manager) SetPreview(key string, data []byte) error {
	return m.previewCache.Set(key, data)
}

// GetQuery retrieves a JSON response from cache.
func (m *Manager) GetQuery(key string) ([]byte, bool) {
	return m.queryCache.Get(key)
}

// SetQuery stores a JSON response in cache.
func (m *Manager) SetQuery(key string, data []byte) {
	m.queryCache.Add(key, data)
}

// PreviewKey generates a cache key for a preview image. gen is the
// generation of the registry the image was drawn from.
func PreviewKey(kind, name string, gen uint64, width, height int) string {
	return fmt.Sprintf("preview:%s:%s@%d:%dx%d", kind, name, gen, width, height)
}

// QueryKey generates a cache key for a JSON response. Parameters are
// hashed in key order so the key does not depend on map iteration.
func QueryKey(path string, gen uint64, params map[string]string) string {
	base := fmt.Sprintf("query:%s@%d", path, gen)
	if len(params) == 0 {
		return base
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, params[k])
	}
	return base + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]any {
	return map[string]any{
		"preview_cache_len": m.previewCache.Len(),
		"preview_cache_cap": m.previewCache.Capacity(),
		"query_cache_len":   m.queryCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.previewCache.Close()
}
