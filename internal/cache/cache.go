// Package cache provides a single-slot TTL cache for the latest usage
// snapshot, backed by a JSON file.
package cache

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/j-veylop/claude-watch/internal/fsutil"
	"github.com/j-veylop/claude-watch/internal/logger"
	"github.com/j-veylop/claude-watch/internal/models"
)

// DefaultTTL is the default freshness window for cached snapshots.
const DefaultTTL = 60 * time.Second

// record is the on-disk shape of the cache slot.
type record struct {
	CachedAt time.Time             `json:"cached_at"`
	Data     *models.UsageSnapshot `json:"data"`
}

// Cache is a single-slot snapshot cache bound to a file path. The TTL for a
// read is always passed explicitly so concurrent callers with different
// freshness needs never race on shared state.
type Cache struct {
	path string
}

// New creates a cache for the given file path.
func New(path string) *Cache {
	return &Cache{path: path}
}

// FetchFunc fetches a fresh snapshot from the network.
type FetchFunc func(ctx context.Context) (*models.UsageSnapshot, error)

// Read returns the cached snapshot if it is younger than ttl, nil otherwise.
func (c *Cache) Read(ttl time.Duration) *models.UsageSnapshot {
	rec := c.load()
	if rec == nil || rec.Data == nil || rec.CachedAt.IsZero() {
		return nil
	}
	if time.Since(rec.CachedAt) > ttl {
		return nil
	}
	return rec.Data
}

// ReadStale returns whatever is cached regardless of age, or nil if nothing
// was ever cached. Last-resort fallback when the network is down.
func (c *Cache) ReadStale() *models.UsageSnapshot {
	rec := c.load()
	if rec == nil {
		return nil
	}
	return rec.Data
}

// Write overwrites the cache slot. Caching is best-effort: persistence
// failures are logged and swallowed so they never block a caller that
// already holds the data.
func (c *Cache) Write(snapshot *models.UsageSnapshot) {
	rec := record{
		CachedAt: time.Now().UTC(),
		Data:     snapshot,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		logger.Debug("failed to encode cache record", "error", err)
		return
	}
	if err := fsutil.WriteFileAtomic(c.path, data, 0o600); err != nil {
		logger.Debug("failed to persist cache", "path", c.path, "error", err)
	}
}

// Fetch returns a fresh-enough snapshot, consulting the cache first.
//
// On a cache hit the cached snapshot is returned without a network call. On
// a miss the fetch runs; success populates the cache. When the fetch fails:
// with silent=false the error propagates, with silent=true a stale cache
// entry is returned if one exists and the result is (nil, nil) otherwise.
// Silent mode is the one sanctioned place errors are swallowed in favor of
// stale data.
func (c *Cache) Fetch(ctx context.Context, fetch FetchFunc, ttl time.Duration, silent bool) (*models.UsageSnapshot, error) {
	if snapshot := c.Read(ttl); snapshot != nil {
		return snapshot, nil
	}

	snapshot, err := fetch(ctx)
	if err != nil {
		if !silent {
			return nil, err
		}
		logger.Debug("fetch failed, falling back to stale cache", "error", err)
		return c.ReadStale(), nil
	}

	c.Write(snapshot)
	return snapshot, nil
}

func (c *Cache) load() *record {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Debug("cache file unreadable, treating as empty", "path", c.path, "error", err)
		return nil
	}
	return &rec
}
