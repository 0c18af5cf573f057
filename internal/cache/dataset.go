package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"g2-yoyodex/internal/diff"
	"g2-yoyodex/internal/logger"
	"g2-yoyodex/internal/model"
)

// DefaultMaxAge is how long a dataset entry is served before it counts as expired.
const DefaultMaxAge = 24 * time.Hour

// DatasetConfig configures a DatasetCache.
type DatasetConfig struct {
	App           string
	SchemaVersion string
	MaxAge        time.Duration

	// FastPathLength treats an equal-length payload as unchanged without diffing.
	FastPathLength bool
}

// SetResult reports what Set did.
type SetResult struct {
	Written bool
	Diff    diff.Result
}

// EntryInfo describes one stored dataset entry.
type EntryInfo struct {
	Key       string    `json:"key"`
	Resource  string    `json:"resource"`
	Version   string    `json:"version"`
	Current   bool      `json:"current"`
	Valid     bool      `json:"valid"`
	Records   int       `json:"records"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
	Age       string    `json:"age,omitempty"`
}

// DatasetCache stores the last good copy of each resource, stamped with the
// fetch time and the schema version.
type DatasetCache struct {
	store          Store
	app            string
	version        string
	maxAge         time.Duration
	fastPathLength bool
	now            func() time.Time
	log            *logger.Logger
}

// NewDatasetCache wraps store.
func NewDatasetCache(store Store, cfg DatasetConfig, log *logger.Logger) *DatasetCache {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &DatasetCache{
		store:          store,
		app:            cfg.App,
		version:        cfg.SchemaVersion,
		maxAge:         cfg.MaxAge,
		fastPathLength: cfg.FastPathLength,
		now:            time.Now,
		log:            logger.OrNop(log).Component("dataset_cache"),
	}
}

// WithClock replaces the clock. Intended for tests.
func (c *DatasetCache) WithClock(now func() time.Time) *DatasetCache {
	c.now = now
	return c
}

// Key returns the storage key of resource under the current schema version.
func (c *DatasetCache) Key(resource model.Resource) string {
	return fmt.Sprintf("%s:%s:v%s", c.app, resource, c.version)
}

func (c *DatasetCache) resourcePrefix(resource model.Resource) string {
	return fmt.Sprintf("%s:%s:v", c.app, resource)
}

// Get returns the cached entry for resource. Absent, expired, version
// mismatched and corrupt entries are all misses; the last three are removed.
// Storage failures are logged and reported as a miss.
func (c *DatasetCache) Get(ctx context.Context, resource model.Resource) (*model.CacheEntry, bool) {
	key := c.Key(resource)
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	entry, reason := c.check(raw)
	if reason != "" {
		c.log.Info("discarding cache entry", "key", key, "reason", reason)
		c.remove(ctx, key)
		return nil, false
	}

	c.log.Debug("cache hit", "key", key, "records", len(entry.Data), "age", entry.Age(c.now()).Round(time.Second))
	return entry, true
}

// check decodes raw and returns a non-empty reason when the entry is unusable.
func (c *DatasetCache) check(raw []byte) (*model.CacheEntry, string) {
	var entry model.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, "corrupt"
	}
	if entry.Data == nil || entry.FetchedAt.IsZero() {
		return nil, "corrupt"
	}
	if entry.SchemaVersion != c.version {
		return nil, "version mismatch"
	}
	if entry.Age(c.now()) > c.maxAge {
		return nil, "expired"
	}
	return &entry, ""
}

// Set stores data for resource when nothing is cached yet or when it differs
// from the cached copy. An unchanged payload leaves storage untouched.
func (c *DatasetCache) Set(ctx context.Context, resource model.Resource, data []model.Record) (SetResult, error) {
	if data == nil {
		data = []model.Record{}
	}

	prev, hit := c.Get(ctx, resource)
	if hit {
		if c.fastPathLength && len(prev.Data) == len(data) {
			return SetResult{}, nil
		}
		res := diff.Diff(prev.Data, data)
		if !res.Changed() {
			return SetResult{Diff: res}, nil
		}
		if err := c.write(ctx, resource, data); err != nil {
			return SetResult{Diff: res}, err
		}
		c.log.Info("dataset updated", "resource", resource, "changes", res.Summary())
		return SetResult{Written: true, Diff: res}, nil
	}

	res := diff.Diff(nil, data)
	if err := c.write(ctx, resource, data); err != nil {
		return SetResult{Diff: res}, err
	}
	c.log.Info("dataset stored", "resource", resource, "records", len(data))
	return SetResult{Written: true, Diff: res}, nil
}

func (c *DatasetCache) write(ctx context.Context, resource model.Resource, data []model.Record) error {
	raw, err := json.Marshal(model.CacheEntry{
		Data:          data,
		FetchedAt:     c.now().UTC(),
		SchemaVersion: c.version,
	})
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", resource, err)
	}
	// Expiry is judged on read against fetchedAt; the store keeps the entry.
	if err := c.store.Set(ctx, c.Key(resource), raw, 0); err != nil {
		return fmt.Errorf("store %s entry: %w", resource, err)
	}
	return nil
}

// Delete removes the current entry for resource.
func (c *DatasetCache) Delete(ctx context.Context, resource model.Resource) error {
	return c.store.Delete(ctx, c.Key(resource))
}

// Purge removes every dataset entry of this app, whatever its version.
// Annotations and sessions are left alone.
func (c *DatasetCache) Purge(ctx context.Context) (int, error) {
	keys, err := c.datasetKeys(ctx)
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return 0, fmt.Errorf("purge %s: %w", k, err)
		}
	}
	c.log.Info("purged dataset entries", "count", len(keys))
	return len(keys), nil
}

// Sweep removes expired, corrupt and old-version entries.
func (c *DatasetCache) Sweep(ctx context.Context) (int64, error) {
	keys, err := c.datasetKeys(ctx)
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, k := range keys {
		raw, err := c.store.Get(ctx, k)
		if errors.Is(err, ErrCacheMiss) {
			continue
		}
		if err != nil {
			return removed, err
		}
		if _, reason := c.check(raw); reason != "" {
			if err := c.store.Delete(ctx, k); err != nil {
				return removed, err
			}
			removed++
		}
	}
	if removed > 0 {
		c.log.Info("swept dataset entries", "removed", removed)
	}
	return removed, nil
}

// Entries describes every stored dataset entry for diagnostics.
func (c *DatasetCache) Entries(ctx context.Context) ([]EntryInfo, error) {
	keys, err := c.datasetKeys(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now()
	out := make([]EntryInfo, 0, len(keys))
	for _, k := range keys {
		info := EntryInfo{Key: k}
		rest := strings.TrimPrefix(k, c.app+":")
		if i := strings.LastIndex(rest, ":v"); i >= 0 {
			info.Resource, info.Version = rest[:i], rest[i+2:]
		}
		info.Current = info.Version == c.version

		raw, err := c.store.Get(ctx, k)
		if err != nil {
			if errors.Is(err, ErrCacheMiss) {
				continue
			}
			return nil, err
		}
		var entry model.CacheEntry
		if json.Unmarshal(raw, &entry) == nil {
			info.Records = len(entry.Data)
			info.FetchedAt = entry.FetchedAt
			if !entry.FetchedAt.IsZero() {
				info.Age = entry.Age(now).Round(time.Second).String()
			}
		}
		_, reason := c.check(raw)
		info.Valid = reason == ""
		out = append(out, info)
	}
	return out, nil
}

func (c *DatasetCache) datasetKeys(ctx context.Context) ([]string, error) {
	var keys []string
	for _, r := range model.Resources {
		ks, err := c.store.Keys(ctx, c.resourcePrefix(r))
		if err != nil {
			return nil, fmt.Errorf("list %s keys: %w", r, err)
		}
		keys = append(keys, ks...)
	}
	return keys, nil
}

func (c *DatasetCache) remove(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.log.Warn("failed to remove cache entry", "key", key, "error", err)
	}
}
