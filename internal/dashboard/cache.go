package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/enrich"
)

// DefaultTTL is how long a loaded snapshot is served before reloading
const DefaultTTL = time.Hour

// Snapshot is the enriched table and the time it was loaded. The table is
// shared by every reader and must not be modified.
type Snapshot struct {
	Table    *contracts.EnrichedTable
	LoadedAt time.Time
}

// Age returns how long ago the snapshot was loaded
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.LoadedAt)
}

// SnapshotCache holds the single time-boxed copy of the enriched table.
// It is created empty, filled on first access and refilled once the copy
// is older than ttl.
type SnapshotCache struct {
	mu       sync.RWMutex
	data     *contracts.EnrichedTable
	loadedAt time.Time
	ttl      time.Duration

	group singleflight.Group
}

// NewSnapshotCache creates an empty cache
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SnapshotCache{ttl: ttl}
}

// TTL returns the snapshot lifetime
func (c *SnapshotCache) TTL() time.Duration {
	return c.ttl
}

// GetOrRefresh returns the cached snapshot, loading and enriching the raw
// tables first when the cache is empty or now-loadedAt exceeds the TTL.
// Concurrent callers share one load. A failed load keeps the previous
// state and is returned as is; nothing is retried.
func (c *SnapshotCache) GetOrRefresh(ctx context.Context, loader contracts.RawLoader, now time.Time) (*Snapshot, error) {
	if s, ok := c.fresh(now); ok {
		return s, nil
	}
	return c.load(ctx, loader, now, false)
}

// Reload loads a new snapshot regardless of age. The current snapshot
// stays in place until the new one is ready, and is kept if loading fails.
func (c *SnapshotCache) Reload(ctx context.Context, loader contracts.RawLoader, now time.Time) (*Snapshot, error) {
	return c.load(ctx, loader, now, true)
}

func (c *SnapshotCache) load(ctx context.Context, loader contracts.RawLoader, now time.Time, force bool) (*Snapshot, error) {
	v, err, _ := c.group.Do("snapshot", func() (interface{}, error) {
		if !force {
			if s, ok := c.fresh(now); ok {
				return s, nil
			}
		}

		raw, err := loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		table, err := enrich.Enrich(raw)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.data = table
		c.loadedAt = now
		c.mu.Unlock()

		return &Snapshot{Table: table, LoadedAt: now}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Peek returns the cached snapshot without loading, even when expired
func (c *SnapshotCache) Peek() (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil {
		return nil, false
	}
	return &Snapshot{Table: c.data, LoadedAt: c.loadedAt}, true
}

// Invalidate drops the cached snapshot so the next access reloads
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = nil
	c.loadedAt = time.Time{}
}

func (c *SnapshotCache) fresh(now time.Time) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || now.Sub(c.loadedAt) > c.ttl {
		return nil, false
	}
	return &Snapshot{Table: c.data, LoadedAt: c.loadedAt}, true
}
