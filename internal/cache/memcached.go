package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const keyPrefix = "hazard:"

// staleRetention is how long entries stay retrievable for degraded fallback
// after their freshness TTL lapses.
const staleRetention = 24 * time.Hour

// MemcachedCache implements ObservationCache using memcached. Entries are
// stored with a long retention and freshness is checked client-side, so the
// stale-fallback path survives TTL expiry.
type MemcachedCache struct {
	client *memcache.Client
	ttl    time.Duration
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and
// maxIdleConns configure the client; both use package defaults if zero.
func NewMemcachedCache(addrs string, ttl, timeout time.Duration, maxIdleConns int) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client, ttl: ttl}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (c *MemcachedCache) key(k string) string {
	return keyPrefix + k
}

func (c *MemcachedCache) fetch(ctx context.Context, key string) (Entry, bool, error) {
	if ctx.Err() != nil {
		return Entry{}, false, ctx.Err()
	}
	item, err := c.client.Get(c.key(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	var entry Entry
	if err := json.Unmarshal(item.Value, &entry); err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// Get implements ObservationCache.Get. Returns false, nil on miss or when the
// entry has aged past the freshness TTL.
func (c *MemcachedCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	entry, ok, err := c.fetch(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	if time.Since(entry.FetchedAt) > c.ttl {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// GetStale implements ObservationCache.GetStale.
func (c *MemcachedCache) GetStale(ctx context.Context, key string) (Entry, bool, error) {
	return c.fetch(ctx, key)
}

// Set implements ObservationCache.Set.
func (c *MemcachedCache) Set(ctx context.Context, key string, payload []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(Entry{Payload: payload, FetchedAt: time.Now()})
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        c.key(key),
		Value:      raw,
		Expiration: int32(staleRetention.Seconds()),
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping() error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
