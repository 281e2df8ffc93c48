package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// Entry is one cached observation payload with its fetch timestamp.
type Entry struct {
	Payload   []byte    `json:"payload"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// ObservationCache is the interface for observation caching backends.
// Get returns entries still inside the TTL window; GetStale returns the most
// recent entry regardless of age, for degraded fallback when a fetch fails.
// TTL expiry is advisory: Set never deletes older data.
type ObservationCache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	GetStale(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// Key builds the cache key for a dataset at a location. Coordinates are
// rounded to two decimals (~1km) so nearby queries share entries.
func Key(dataset models.Dataset, lat, lon float64) string {
	return fmt.Sprintf("%s:%.2f,%.2f", dataset, lat, lon)
}

// InMemoryCache implements ObservationCache with a mutex-protected map.
// Safe for concurrent refreshes; writes are last-writer-wins.
type InMemoryCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	clock clockwork.Clock
	data  map[string]Entry
}

// NewInMemoryCache creates an in-memory cache with the given freshness TTL.
func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	return NewInMemoryCacheWithClock(ttl, clockwork.NewRealClock())
}

// NewInMemoryCacheWithClock creates an in-memory cache using the provided
// clock. Tests inject a fake clock to step through TTL expiry.
func NewInMemoryCacheWithClock(ttl time.Duration, clock clockwork.Clock) *InMemoryCache {
	return &InMemoryCache{
		ttl:   ttl,
		clock: clock,
		data:  make(map[string]Entry),
	}
}

// Get returns the entry for key if present and fetched within the TTL window.
// Expired entries are retained for GetStale.
func (c *InMemoryCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok {
		return Entry{}, false, nil
	}
	if c.clock.Since(entry.FetchedAt) > c.ttl {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// GetStale returns the most recent entry for key regardless of TTL.
func (c *InMemoryCache) GetStale(ctx context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	return entry, ok, nil
}

// Set stores payload under key with the current timestamp.
func (c *InMemoryCache) Set(ctx context.Context, key string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = Entry{
		Payload:   payload,
		FetchedAt: c.clock.Now(),
	}
	return nil
}
