package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gateway/backend/internal/domain/access"
)

const defaultCleanupInterval = 30 * time.Second

// MemoryEntitlementCache keeps plan endpoints in process memory.
// Entries are not shared between gateway instances.
type MemoryEntitlementCache struct {
	entries sync.Map // map[int64]*cacheEntry
	ttl     time.Duration

	// mu orders Set against Invalidate for the generation check
	mu          sync.Mutex
	generations map[int64]uint64

	stopCh  chan struct{}
	stopped atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	refs      []access.EndpointRef
	expiresAt time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// StatsProvider is implemented by caches that can report their own counters
type StatsProvider interface {
	Stats() CacheStats
}

// CacheStats reports hit and miss counts
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// NewMemoryEntitlementCache creates the cache and starts its cleanup loop.
// A non-positive ttl uses DefaultEntitlementTTL.
func NewMemoryEntitlementCache(ttl time.Duration) *MemoryEntitlementCache {
	if ttl <= 0 {
		ttl = DefaultEntitlementTTL
	}
	c := &MemoryEntitlementCache{
		ttl:         ttl,
		stopCh:      make(chan struct{}),
		generations: make(map[int64]uint64),
	}
	go c.cleanupExpired()
	return c
}

func (c *MemoryEntitlementCache) Get(_ context.Context, planID int64) ([]access.EndpointRef, bool, error) {
	if value, ok := c.entries.Load(planID); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired(time.Now()) {
			c.hits.Add(1)
			return cloneRefs(entry.refs), true, nil
		}
		c.entries.Delete(planID)
	}
	c.misses.Add(1)
	return nil, false, nil
}

func (c *MemoryEntitlementCache) Generation(_ context.Context, planID int64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[planID], nil
}

// Set stores refs unless the plan was invalidated after generation was read
func (c *MemoryEntitlementCache) Set(_ context.Context, planID int64, generation uint64, refs []access.EndpointRef) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[planID] != generation {
		return false, nil
	}
	c.entries.Store(planID, &cacheEntry{
		refs:      cloneRefs(refs),
		expiresAt: time.Now().Add(c.ttl),
	})
	return true, nil
}

func (c *MemoryEntitlementCache) Invalidate(_ context.Context, planIDs ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range planIDs {
		c.generations[id]++
		c.entries.Delete(id)
	}
	return nil
}

// Stats returns hit, miss and live entry counts
func (c *MemoryEntitlementCache) Stats() CacheStats {
	size := 0
	c.entries.Range(func(_, _ any) bool {
		size++
		return true
	})
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: size}
}

// Close stops the cleanup loop. Safe to call more than once.
func (c *MemoryEntitlementCache) Close() error {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

func (c *MemoryEntitlementCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*cacheEntry).isExpired(now) {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}

func cloneRefs(refs []access.EndpointRef) []access.EndpointRef {
	out := make([]access.EndpointRef, len(refs))
	copy(out, refs)
	return out
}
