package memory

import (
	"sync"
	"time"

	"github.com/kirillkom/handout-assistant/internal/core/domain"
)

type segmentEntry struct {
	segments []domain.Segment
	storedAt time.Time
}

// SegmentCache is a thread-safe in-memory segment cache with TTL eviction.
// Entries are copied on the way in and out.
type SegmentCache struct {
	mu         sync.Mutex
	entries    map[string]segmentEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewSegmentCache(ttl time.Duration, maxEntries int) *SegmentCache {
	return &SegmentCache{
		entries:    make(map[string]segmentEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *SegmentCache) Get(key string) ([]domain.Segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.expired(entry, c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return copySegments(entry.segments), true
}

func (c *SegmentCache) Put(key string, segments []domain.Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = segmentEntry{segments: copySegments(segments), storedAt: now}
}

// Cleanup drops expired entries.
func (c *SegmentCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
		}
	}
}

func (c *SegmentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *SegmentCache) expired(entry segmentEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(entry.storedAt) > c.ttl
}

// evictLocked drops expired entries, then the oldest one if still full.
func (c *SegmentCache) evictLocked(now time.Time) {
	oldestKey := ""
	var oldest time.Time
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
			continue
		}
		if oldestKey == "" || entry.storedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.storedAt
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func copySegments(in []domain.Segment) []domain.Segment {
	out := make([]domain.Segment, len(in))
	copy(out, in)
	return out
}
