package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/hazard-risk-service/internal/cache"
	"github.com/kjstillabower/hazard-risk-service/internal/circuitbreaker"
	"github.com/kjstillabower/hazard-risk-service/internal/client"
	"github.com/kjstillabower/hazard-risk-service/internal/config"
	"github.com/kjstillabower/hazard-risk-service/internal/engine"
	httphandler "github.com/kjstillabower/hazard-risk-service/internal/http"
	"github.com/kjstillabower/hazard-risk-service/internal/ingest"
	"github.com/kjstillabower/hazard-risk-service/internal/lifecycle"
	"github.com/kjstillabower/hazard-risk-service/internal/models"
	"github.com/kjstillabower/hazard-risk-service/internal/observability"
	"github.com/kjstillabower/hazard-risk-service/internal/traffic"
)

// newBreaker builds a circuit breaker wired to the observability gauges.
func newBreaker(cfg *config.Config, component string) *circuitbreaker.CircuitBreaker {
	cb := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.CircuitBreakerFailureThreshold,
		SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
		Timeout:          cfg.CircuitBreakerTimeout,
		Component:        component,
		OnStateChange: func(from, to circuitbreaker.State) {
			observability.RecordCircuitBreakerTransition(component, from.String(), to.String())
			observability.SetCircuitBreakerStateGauge(component, float64(int(to)))
		},
	})
	observability.SetCircuitBreakerStateGauge(component, 0)
	return cb
}

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	retry := client.RetryPolicy{
		Attempts:  cfg.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay,
		MaxDelay:  cfg.RetryMaxDelay,
	}
	seismicClient := client.NewSeismicClientWithRetry(cfg.SeismicAPIURL, cfg.SeismicAPITimeout, retry)
	forecastClient := client.NewForecastClientWithRetry(cfg.ForecastAPIURL, cfg.ForecastAPITimeout, retry)

	if cfg.CircuitBreakerEnabled {
		seismicClient.SetCircuitBreaker(newBreaker(cfg, "seismic_api"))
		forecastClient.SetCircuitBreaker(newBreaker(cfg, "forecast_api"))
		logger.Info("circuit breakers enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	var obsCache cache.ObservationCache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.CacheTTL, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		obsCache = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		obsCache = cache.NewInMemoryCache(cfg.CacheTTL)
		logger.Info("cache backend: in_memory")
	}

	tracker := traffic.NewTracker()
	ingestor := ingest.New(seismicClient, forecastClient, obsCache, tracker, logger, ingest.Options{
		RadiusKm:     cfg.SeismicRadiusKm,
		MinMagnitude: cfg.SeismicMinMagnitude,
		WindowDays:   cfg.SeismicWindowDays,
		HistoryDays:  cfg.PrecipHistoryDays,
	})

	home := models.Location{Lat: cfg.HomeLat, Lon: cfg.HomeLon}
	riskEngine := engine.New(ingestor, logger, engine.Config{
		Home:            home,
		RefreshInterval: cfg.RefreshInterval,
		SeismicInterval: cfg.SeismicInterval,
		AssessTimeout:   cfg.RequestTimeout,
	})

	engineCtx, engineCancel := context.WithCancel(context.Background())
	defer engineCancel()
	go riskEngine.Run(engineCtx)
	logger.Info("engine started",
		zap.Float64("home_lat", home.Lat),
		zap.Float64("home_lon", home.Lon),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Duration("seismic_interval", cfg.SeismicInterval))

	healthConfig := &httphandler.HealthConfig{
		OverloadWindow:       cfg.OverloadWindow,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
		RateLimitRPS:         cfg.RateLimitRPS,
		RateLimitBurst:       cfg.RateLimitBurst,
		DegradedWindow:       cfg.DegradedWindow,
		DegradedErrorPct:     cfg.DegradedErrorPct,
		StartTime:            time.Now(),
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(riskEngine, tracker, healthConfig, logger)

	observability.RegisterRateLimitGauges(cfg.OverloadWindow, tracker.RequestCount, tracker.DenialCount)

	inFlight := &httphandler.InFlightTracker{}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.Use(inFlight.Middleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	riskRouter := router.PathPrefix("/risk").Subrouter()
	riskRouter.Use(httphandler.RateLimitMiddleware(limiter, tracker))
	riskRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	riskRouter.HandleFunc("", handler.GetRisk).Methods("GET")
	riskRouter.HandleFunc("/{lat}/{lon}", handler.GetRiskAt).Methods("GET")
	router.HandleFunc("/alerts", handler.GetAlerts).Methods("GET")
	router.HandleFunc("/advisory/heat", handler.PutHeatAdvisory).Methods("PUT")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	engineCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	remaining := inFlight.Count()
	logger.Info("waiting for in-flight requests", zap.Int64("count", remaining))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := inFlight.WaitForZero(waitCtx, 100*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", inFlight.Count()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
