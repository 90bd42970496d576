// Package cache provides the shared result cache for analysis pipelines.
// Entries are memoized by operation name and arguments with a per-entry TTL;
// concurrent computations of the same key are collapsed through a
// single-flight group so expensive sweeps run once. A cron-driven sweeper
// removes expired entries in the background.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
)

// entry is one cached value. The plaintext source key is retained so
// Invalidate can substring-match on readable operation names instead of
// opaque hashes.
type entry struct {
	value     any
	sourceKey string
	cachedAt  time.Time
	expiresAt time.Time
}

// Stats reports the cache population and access counters at a point in time.
type Stats struct {
	TotalEntries   int   `json:"total_entries"`
	ValidEntries   int   `json:"valid_entries"`
	ExpiredEntries int   `json:"expired_entries"`
	Hits           int64 `json:"hits"`
	Misses         int64 `json:"misses"`
}

// Cache is a TTL result cache shared by the analysis services. The zero
// value is not usable; construct with New.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	group   singleflight.Group
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	hits   atomic.Int64
	misses atomic.Int64

	sweeper *cron.Cron
}

// New creates an empty cache. The metrics handle may be nil, in which case
// hit/miss counters are tracked internally only.
func New(logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]entry),
		logger:  logger,
		metrics: metrics,
	}
}

// Memoize returns the cached value for the operation and arguments when a
// live entry exists, otherwise it runs compute under a per-key in-flight
// guard, stores the result with the given TTL and returns it. Concurrent
// callers of the same key share one computation; callers of different keys
// never block each other. Compute errors are returned without caching.
func Memoize[V any](
	ctx context.Context,
	c *Cache,
	op string,
	ttl time.Duration,
	compute func(context.Context) (V, error),
	args []string,
	named map[string]string,
) (V, error) {
	source := sourceKey(op, args, named)
	key := hashKey(source)

	if v, ok := c.lookup(ctx, op, key); ok {
		if typed, ok := v.(V); ok {
			return typed, nil
		}
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent caller may have filled the entry between the
		// miss above and acquiring the flight.
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, source, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	typed, ok := result.(V)
	if !ok {
		var zero V
		return zero, fmt.Errorf("cache: stored value for operation %q has unexpected type %T", op, result)
	}
	return typed, nil
}

// Invalidate removes entries whose source key contains pattern. An empty
// pattern clears the whole cache. Returns the number of removed entries.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	removed := 0
	if pattern == "" {
		removed = len(c.entries)
		c.entries = make(map[string]entry)
	} else {
		for key, e := range c.entries {
			if strings.Contains(e.sourceKey, pattern) {
				delete(c.entries, key)
				removed++
			}
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.recordEvictions(removed)
	}
	c.logger.Info("cache invalidated",
		slog.String("pattern", pattern),
		slog.Int("removed", removed),
	)
	return removed
}

// Stats counts live and expired entries without evicting anything.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	valid := 0
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			valid++
		}
	}
	return Stats{
		TotalEntries:   len(c.entries),
		ValidEntries:   valid,
		ExpiredEntries: len(c.entries) - valid,
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
	}
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.recordEvictions(removed)
		c.logger.Info("cache sweep removed expired entries", slog.Int("removed", removed))
	}
	return removed
}

// StartSweeper schedules Sweep on the given cron spec (for example
// "@every 10m"). Call StopSweeper on shutdown.
func (c *Cache) StartSweeper(spec string) error {
	if c.sweeper != nil {
		return fmt.Errorf("cache: sweeper already started")
	}

	runner := cron.New()
	if _, err := runner.AddFunc(spec, func() { c.Sweep() }); err != nil {
		return fmt.Errorf("cache: schedule sweeper %q: %w", spec, err)
	}
	runner.Start()
	c.sweeper = runner

	c.logger.Info("cache sweeper started", slog.String("schedule", spec))
	return nil
}

// StopSweeper stops the background sweeper. Safe to call when no sweeper
// was started.
func (c *Cache) StopSweeper() {
	if c.sweeper == nil {
		return
	}
	ctx := c.sweeper.Stop()
	<-ctx.Done()
	c.sweeper = nil
	c.logger.Info("cache sweeper stopped")
}

// lookup returns a live entry and records the hit or miss.
func (c *Cache) lookup(ctx context.Context, op, key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		c.misses.Add(1)
		infrastructure.RecordCacheAccess(ctx, c.metrics, op, false)
		return nil, false
	}

	c.hits.Add(1)
	infrastructure.RecordCacheAccess(ctx, c.metrics, op, true)
	return e.value, true
}

// peek checks for a live entry without touching the counters.
func (c *Cache) peek(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key, source string, value any, ttl time.Duration) {
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = entry{
		value:     value,
		sourceKey: source,
		cachedAt:  now,
		expiresAt: now.Add(ttl),
	}
	c.mu.Unlock()
}

func (c *Cache) recordEvictions(n int) {
	if c.metrics == nil || c.metrics.CacheEvictions == nil {
		return
	}
	c.metrics.CacheEvictions.Add(context.Background(), int64(n))
}

// sourceKey joins the operation with its positional args and sorted named
// args: "op|a1|a2|k1=v1|k2=v2".
func sourceKey(op string, args []string, named map[string]string) string {
	parts := make([]string, 0, 1+len(args)+len(named))
	parts = append(parts, op)
	parts = append(parts, args...)

	if len(named) > 0 {
		keys := make([]string, 0, len(named))
		for k := range named {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+"="+named[k])
		}
	}
	return strings.Join(parts, "|")
}

func hashKey(source string) string {
	sum := md5.Sum([]byte(source))
	return hex.EncodeToString(sum[:])
}
