package ordertype

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTTL bounds how long a populated snapshot is served before the next
// read triggers a refresh.
const DefaultTTL = 5 * time.Minute

// Entry is the cached metadata of one restaurant order type.
type Entry struct {
	ID               int64
	Name             string
	Code             string
	ServiceCharge    decimal.Decimal // percentage
	EstimatedMinutes int
	DisplayOrder     int
	IsActive         bool
}

// Catalog is the remote source of order types.
type Catalog interface {
	ListOrderTypes(ctx context.Context) ([]Entry, error)
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func(ctx context.Context) ([]Entry, error)

// ListOrderTypes calls f.
func (f CatalogFunc) ListOrderTypes(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// Logger receives refresh failures.
type Logger interface {
	Warnf(format string, args ...any)
}

// Cache is a time-bound, process-wide snapshot of the catalog. Reads never
// fail: a failed refresh leaves the previous snapshot in place.
type Cache struct {
	catalog Catalog
	ttl     time.Duration
	clock   func() time.Time
	logger  Logger

	mu      sync.RWMutex
	entries map[int64]Entry
	ordered []Entry
	expiry  time.Time
}

// Option customizes cache construction.
type Option func(*Cache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock allows tests to control expiry.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache wires a cache to its catalog. Nothing is fetched until the first read.
func NewCache(catalog Catalog, opts ...Option) *Cache {
	c := &Cache{
		catalog: catalog,
		ttl:     DefaultTTL,
		clock:   time.Now,
		logger:  nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the entry for id, refreshing first when the snapshot is empty
// or expired.
func (c *Cache) Get(ctx context.Context, id int64) (Entry, bool) {
	c.ensureFresh(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	return entry, ok
}

// ListActive returns active entries ordered by display order, then id.
func (c *Cache) ListActive(ctx context.Context) []Entry {
	c.ensureFresh(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.ordered))
	for _, entry := range c.ordered {
		if entry.IsActive {
			out = append(out, entry)
		}
	}
	return out
}

// Snapshot returns a copy of every entry keyed by id, active or not. It checks
// freshness once, so a caller pricing many orders costs at most one catalog
// round trip.
func (c *Cache) Snapshot(ctx context.Context) map[int64]Entry {
	c.ensureFresh(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]Entry, len(c.entries))
	for id, entry := range c.entries {
		out[id] = entry
	}
	return out
}

// Refresh forces a fetch from the catalog. On failure the previous snapshot
// is kept and the error is returned for the caller's information only.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.catalog == nil {
		return nil
	}
	// The catalog call runs unlocked; a concurrent refresh may overwrite this
	// one, which is fine since snapshots are replaced wholesale.
	fetched, err := c.catalog.ListOrderTypes(ctx)
	if err != nil {
		c.logger.Warnf("ordertype: refresh failed, serving %d cached entries: %v", c.size(), err)
		return err
	}
	entries := make(map[int64]Entry, len(fetched))
	for _, entry := range fetched {
		entries[entry.ID] = entry
	}
	ordered := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		ordered = append(ordered, entry)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].DisplayOrder != ordered[j].DisplayOrder {
			return ordered[i].DisplayOrder < ordered[j].DisplayOrder
		}
		return ordered[i].ID < ordered[j].ID
	})

	c.mu.Lock()
	c.entries = entries
	c.ordered = ordered
	c.expiry = c.clock().Add(c.ttl)
	c.mu.Unlock()
	return nil
}

// Clear drops the snapshot so the next read fetches again.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.ordered = nil
	c.expiry = time.Time{}
}

func (c *Cache) ensureFresh(ctx context.Context) {
	c.mu.RLock()
	stale := len(c.entries) == 0 || c.clock().After(c.expiry)
	c.mu.RUnlock()
	if stale {
		_ = c.Refresh(ctx)
	}
}

func (c *Cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}
