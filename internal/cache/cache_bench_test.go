package cache

import (
	"context"
	"encoding/json"
	"runtime"
	"testing"
	"time"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// benchPayload builds a serialized seismic observation for benchmarks.
func benchPayload(b *testing.B) []byte {
	b.Helper()
	obs := models.SeismicObservation{
		Status: models.StatusFresh,
		Events: []models.SeismicEvent{
			{ID: "us7000abcd", Magnitude: 4.2, Place: "off the coast", DistanceKm: 312.5},
		},
	}
	raw, err := json.Marshal(obs)
	if err != nil {
		b.Fatalf("marshal payload: %v", err)
	}
	return raw
}

// BenchmarkInMemoryCache_Get_Hit benchmarks cache Get operation on cache hit.
func BenchmarkInMemoryCache_Get_Hit(b *testing.B) {
	c := NewInMemoryCache(10 * time.Minute)
	ctx := context.Background()
	key := Key(models.DatasetSeismic, 47.61, -122.33)
	c.Set(ctx, key, benchPayload(b))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Get(ctx, key)
	}
}

// BenchmarkInMemoryCache_Get_Miss benchmarks cache Get operation on cache miss.
func BenchmarkInMemoryCache_Get_Miss(b *testing.B) {
	c := NewInMemoryCache(10 * time.Minute)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Get(ctx, "nonexistent")
	}
}

// BenchmarkInMemoryCache_Set benchmarks cache Set operation.
func BenchmarkInMemoryCache_Set(b *testing.B) {
	c := NewInMemoryCache(10 * time.Minute)
	ctx := context.Background()
	key := Key(models.DatasetSeismic, 47.61, -122.33)
	payload := benchPayload(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, key, payload)
	}
}

// BenchmarkInMemoryCache_Concurrent benchmarks concurrent cache reads.
func BenchmarkInMemoryCache_Concurrent(b *testing.B) {
	c := NewInMemoryCache(10 * time.Minute)
	ctx := context.Background()
	key := Key(models.DatasetSeismic, 47.61, -122.33)
	c.Set(ctx, key, benchPayload(b))

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _, _ = c.Get(ctx, key)
		}
	})
}

// BenchmarkMemcachedCache_Get_Hit benchmarks Memcached Get on cache hit.
// Requires: Memcached running (skip if unavailable).
func BenchmarkMemcachedCache_Get_Hit(b *testing.B) {
	if testing.Short() {
		b.Skip("Skipping Memcached benchmark in short mode")
	}

	c, err := NewMemcachedCache("localhost:11211", 10*time.Minute, 500*time.Millisecond, 2)
	if err != nil {
		b.Skipf("Memcached not available: %v", err)
	}
	defer c.Close()
	if err := c.Ping(); err != nil {
		b.Skipf("Memcached not available: %v", err)
	}

	ctx := context.Background()
	key := Key(models.DatasetSeismic, 47.61, -122.33)
	c.Set(ctx, key, benchPayload(b))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.Get(ctx, key)
	}
}

// BenchmarkMemcachedCache_Set benchmarks Memcached Set operation.
func BenchmarkMemcachedCache_Set(b *testing.B) {
	if testing.Short() {
		b.Skip("Skipping Memcached benchmark in short mode")
	}

	c, err := NewMemcachedCache("localhost:11211", 10*time.Minute, 500*time.Millisecond, 2)
	if err != nil {
		b.Skipf("Memcached not available: %v", err)
	}
	defer c.Close()
	if err := c.Ping(); err != nil {
		b.Skipf("Memcached not available: %v", err)
	}

	ctx := context.Background()
	key := Key(models.DatasetSeismic, 47.61, -122.33)
	payload := benchPayload(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Set(ctx, key, payload)
	}
}

// BenchmarkInMemoryCache_MemoryPerEntry estimates memory usage per cache entry.
func BenchmarkInMemoryCache_MemoryPerEntry(b *testing.B) {
	c := NewInMemoryCache(10 * time.Minute)
	ctx := context.Background()
	payload := benchPayload(b)

	var m1, m2 runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m1)

	for i := 0; i < b.N; i++ {
		c.Set(ctx, "key"+string(rune(i)), payload)
	}

	runtime.GC()
	runtime.ReadMemStats(&m2)

	bytesPerEntry := float64(m2.Alloc-m1.Alloc) / float64(b.N)
	b.ReportMetric(bytesPerEntry, "bytes/entry")
}
