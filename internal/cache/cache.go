package cache

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 20
)

type entry struct {
	value    any
	storedAt time.Time
}

// Cache is a bounded, time-limited memo for fetched payloads.
// Entries expire lazily on read; when full, the earliest-inserted key is evicted.
// Reads never change eviction order.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]*entry
	order   []string
	now     func() time.Time
}

type Option func(*Cache)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(ttl time.Duration, maxEntries int, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &Cache{
		ttl:     ttl,
		max:     maxEntries,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the composite key for a spreadsheet and its categories.
// Category order does not matter.
func Key(spreadsheetURL string, categories []string) string {
	sorted := slices.Clone(categories)
	sort.Strings(sorted)
	return spreadsheetURL + ":" + strings.Join(sorted, ",")
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.remove(key)
		log.Debug().Str("key", key).Msg("Cache entry expired")
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")
	return e.value, true
}

// Put stores value under key. Replacing an existing key keeps its position
// in the eviction order.
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = &entry{value: value, storedAt: c.now()}

	if len(c.entries) > c.max {
		oldest := c.order[0]
		c.remove(oldest)
		log.Debug().Str("key", oldest).Int("max", c.max).Msg("Evicted oldest cache entry")
	}
	log.Debug().Str("key", key).Dur("ttl", c.ttl).Msg("Added to cache")
}

// Clear removes the given keys, or everything when called without arguments.
func (c *Cache) Clear(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		c.entries = make(map[string]*entry)
		c.order = nil
		log.Debug().Msg("Cache cleared")
		return
	}
	for _, k := range keys {
		c.remove(k)
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// EntryStat describes one cached entry.
type EntryStat struct {
	Key      string        `json:"key"`
	StoredAt time.Time     `json:"stored_at"`
	Age      time.Duration `json:"age"`
	Size     int           `json:"size"`
	Expired  bool          `json:"expired"`
}

// Stats lists entries in insertion order. Size is the JSON-encoded length.
func (c *Cache) Stats() []EntryStat {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := make([]EntryStat, 0, len(c.order))
	for _, k := range c.order {
		e := c.entries[k]
		size := 0
		if data, err := json.Marshal(e.value); err == nil {
			size = len(data)
		}
		age := now.Sub(e.storedAt)
		stats = append(stats, EntryStat{
			Key:      k,
			StoredAt: e.storedAt,
			Age:      age,
			Size:     size,
			Expired:  age >= c.ttl,
		})
	}
	return stats
}

// Entry is an exported copy of a cached value with its insertion time.
type Entry struct {
	Key      string    `json:"key"`
	Value    any       `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Snapshot returns the unexpired entries in insertion order.
func (c *Cache) Snapshot() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]Entry, 0, len(c.order))
	for _, k := range c.order {
		e := c.entries[k]
		if now.Sub(e.storedAt) < c.ttl {
			out = append(out, Entry{Key: k, Value: e.value, StoredAt: e.storedAt})
		}
	}
	return out
}

// Restore inserts entries keeping their original timestamps, so they expire
// as if they had never left the cache. Expired entries are skipped and the
// size bound still applies.
func (c *Cache) Restore(entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, in := range entries {
		if now.Sub(in.StoredAt) >= c.ttl {
			continue
		}
		if _, exists := c.entries[in.Key]; !exists {
			c.order = append(c.order, in.Key)
		}
		c.entries[in.Key] = &entry{value: in.Value, storedAt: in.StoredAt}
		if len(c.entries) > c.max {
			c.remove(c.order[0])
		}
	}
	log.Debug().Int("entries", len(c.entries)).Msg("Cache restored")
}

func (c *Cache) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	if i := slices.Index(c.order, key); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
}
