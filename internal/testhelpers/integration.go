//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/hazard-risk-service/internal/cache"
	"github.com/kjstillabower/hazard-risk-service/internal/client"
	"github.com/kjstillabower/hazard-risk-service/internal/ingest"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	SeismicAPIURL  string
	ForecastAPIURL string
	CacheBackend   string // "in_memory" or "memcached"
	MemcachedAddr  string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test unless INTEGRATION_TESTS=1.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("INTEGRATION_TESTS not set, skipping integration test")
	}

	seismicURL := os.Getenv("SEISMIC_API_URL")
	if seismicURL == "" {
		seismicURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"
	}
	forecastURL := os.Getenv("FORECAST_API_URL")
	if forecastURL == "" {
		forecastURL = "https://api.open-meteo.com/v1/forecast"
	}

	cacheBackend := os.Getenv("INTEGRATION_CACHE_BACKEND")
	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		SeismicAPIURL:  seismicURL,
		ForecastAPIURL: forecastURL,
		CacheBackend:   cacheBackend,
		MemcachedAddr:  memcachedAddr,
	}
}

// SetupIntegrationIngestor creates a fully configured ingestor against live
// upstreams for integration tests. Returns the ingestor, its cache, and a
// cleanup function.
func SetupIntegrationIngestor(t *testing.T, cfg IntegrationTestConfig) (*ingest.Ingestor, cache.ObservationCache, func()) {
	seismicClient := client.NewSeismicClient(cfg.SeismicAPIURL, 10*time.Second)
	forecastClient := client.NewForecastClient(cfg.ForecastAPIURL, 10*time.Second)

	var obsCache cache.ObservationCache
	cleanup := func() {}
	if cfg.CacheBackend == "memcached" {
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddr, 10*time.Minute, 500*time.Millisecond, 2)
		if err != nil {
			t.Fatalf("NewMemcachedCache() error = %v", err)
		}
		if err := mc.Ping(); err != nil {
			t.Skipf("memcached not reachable at %s: %v", cfg.MemcachedAddr, err)
		}
		obsCache = mc
		cleanup = func() { _ = mc.Close() }
	} else {
		obsCache = cache.NewInMemoryCache(10 * time.Minute)
	}

	ing := ingest.New(seismicClient, forecastClient, obsCache, nil, zap.NewNop(), ingest.Options{})
	return ing, obsCache, cleanup
}
