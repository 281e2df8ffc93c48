package ingest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/hazard-risk-service/internal/cache"
	"github.com/kjstillabower/hazard-risk-service/internal/client"
	"github.com/kjstillabower/hazard-risk-service/internal/models"
	"github.com/kjstillabower/hazard-risk-service/internal/observability"
	"github.com/kjstillabower/hazard-risk-service/internal/traffic"
)

// maxSeismicEvents caps the normalized event list per observation.
const maxSeismicEvents = 10

// Options bound the upstream queries.
type Options struct {
	RadiusKm     float64
	MinMagnitude float64
	WindowDays   int
	HistoryDays  int
}

// DefaultOptions are used where fields are zero.
var DefaultOptions = Options{
	RadiusKm:     2000,
	MinMagnitude: 2.5,
	WindowDays:   7,
	HistoryDays:  7,
}

// Observations is the settled result of one concurrent collection cycle.
type Observations struct {
	Seismic models.SeismicObservation
	Storm   models.StormObservation
	Precip  models.PrecipitationObservation
}

// Ingestor fetches canonical observation records through the cache, degrading
// to stale entries or documented empty defaults on failure. Fetchers never
// return errors; degradation is carried in each observation's Status.
type Ingestor struct {
	seismic  client.SeismicAPI
	forecast client.ForecastAPI
	cache    cache.ObservationCache
	tracker  *traffic.Tracker
	logger   *zap.Logger
	clock    clockwork.Clock
	opts     Options
}

// New creates an Ingestor. tracker may be nil when no health accounting is wanted.
func New(seismic client.SeismicAPI, forecast client.ForecastAPI, c cache.ObservationCache, tracker *traffic.Tracker, logger *zap.Logger, opts Options) *Ingestor {
	return NewWithClock(seismic, forecast, c, tracker, logger, opts, clockwork.NewRealClock())
}

// NewWithClock creates an Ingestor with an injectable clock for tests.
func NewWithClock(seismic client.SeismicAPI, forecast client.ForecastAPI, c cache.ObservationCache, tracker *traffic.Tracker, logger *zap.Logger, opts Options, clock clockwork.Clock) *Ingestor {
	if opts.RadiusKm <= 0 {
		opts.RadiusKm = DefaultOptions.RadiusKm
	}
	if opts.MinMagnitude <= 0 {
		opts.MinMagnitude = DefaultOptions.MinMagnitude
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultOptions.WindowDays
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = DefaultOptions.HistoryDays
	}
	return &Ingestor{
		seismic:  seismic,
		forecast: forecast,
		cache:    c,
		tracker:  tracker,
		logger:   logger,
		clock:    clock,
		opts:     opts,
	}
}

// Collect runs the three fetches concurrently with settle-all semantics:
// each fetch is isolated and substitutes its own fallback, so one failing
// source never blocks or corrupts the others.
func (in *Ingestor) Collect(ctx context.Context, loc models.Location) Observations {
	var obs Observations
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		obs.Seismic = in.FetchSeismicEvents(ctx, loc)
	}()
	go func() {
		defer wg.Done()
		obs.Storm = in.FetchStormTelemetry(ctx, loc)
	}()
	go func() {
		defer wg.Done()
		obs.Precip = in.FetchPrecipitationHistory(ctx, loc)
	}()

	wg.Wait()
	return obs
}

// FetchSeismicEvents returns nearby catalog events filtered to the configured
// radius, sorted ascending by distance and capped at ten.
func (in *Ingestor) FetchSeismicEvents(ctx context.Context, loc models.Location) models.SeismicObservation {
	key := cache.Key(models.DatasetSeismic, loc.Lat, loc.Lon)

	var cached models.SeismicObservation
	if in.cacheGet(ctx, key, models.DatasetSeismic, &cached) {
		return cached
	}

	events, err := in.seismic.QueryEvents(ctx, loc, in.opts.RadiusKm, in.opts.MinMagnitude, in.opts.WindowDays)
	if err != nil {
		in.recordError()
		in.logger.Warn("seismic fetch failed", zap.Error(err))
		if in.cacheGetStale(ctx, key, models.DatasetSeismic, &cached) {
			return cached
		}
		observability.EmptyDefaultsTotal.WithLabelValues(string(models.DatasetSeismic)).Inc()
		return models.SeismicObservation{
			Events:    []models.SeismicEvent{},
			Status:    models.StatusUnavailable,
			FetchedAt: in.clock.Now(),
		}
	}
	in.recordSuccess()

	filtered := make([]models.SeismicEvent, 0, len(events))
	for _, ev := range events {
		if ev.DistanceKm <= in.opts.RadiusKm {
			filtered = append(filtered, ev)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].DistanceKm < filtered[j].DistanceKm
	})
	if len(filtered) > maxSeismicEvents {
		filtered = filtered[:maxSeismicEvents]
	}

	obs := models.SeismicObservation{
		Events:    filtered,
		Status:    models.StatusFresh,
		FetchedAt: in.clock.Now(),
	}
	in.cacheSet(ctx, key, models.DatasetSeismic, obs)
	return obs
}

// FetchStormTelemetry returns the weather snapshot plus storm systems and
// advisories interpreted from wind and weather-code telemetry.
func (in *Ingestor) FetchStormTelemetry(ctx context.Context, loc models.Location) models.StormObservation {
	key := cache.Key(models.DatasetStorm, loc.Lat, loc.Lon)

	var cached models.StormObservation
	if in.cacheGet(ctx, key, models.DatasetStorm, &cached) {
		return cached
	}

	forecast, err := in.forecast.GetForecast(ctx, loc)
	if err != nil {
		in.recordError()
		in.logger.Warn("storm telemetry fetch failed", zap.Error(err))
		if in.cacheGetStale(ctx, key, models.DatasetStorm, &cached) {
			return cached
		}
		observability.EmptyDefaultsTotal.WithLabelValues(string(models.DatasetStorm)).Inc()
		return models.StormObservation{
			Storms:    []models.Storm{},
			Alerts:    []models.StormAlert{},
			Status:    models.StatusUnavailable,
			FetchedAt: in.clock.Now(),
		}
	}
	in.recordSuccess()

	storms, alerts := interpretStorms(forecast)
	obs := models.StormObservation{
		Current:   forecast.Current,
		Storms:    storms,
		Alerts:    alerts,
		Status:    models.StatusFresh,
		FetchedAt: in.clock.Now(),
	}
	in.cacheSet(ctx, key, models.DatasetStorm, obs)
	return obs
}

// FetchPrecipitationHistory returns the trailing daily series with derived
// totals and the consecutive-dry-day count.
func (in *Ingestor) FetchPrecipitationHistory(ctx context.Context, loc models.Location) models.PrecipitationObservation {
	key := cache.Key(models.DatasetPrecip, loc.Lat, loc.Lon)

	var cached models.PrecipitationObservation
	if in.cacheGet(ctx, key, models.DatasetPrecip, &cached) {
		return cached
	}

	daily, err := in.forecast.GetPrecipitationHistory(ctx, loc, in.opts.HistoryDays)
	if err != nil {
		in.recordError()
		in.logger.Warn("precipitation history fetch failed", zap.Error(err))
		if in.cacheGetStale(ctx, key, models.DatasetPrecip, &cached) {
			return cached
		}
		observability.EmptyDefaultsTotal.WithLabelValues(string(models.DatasetPrecip)).Inc()
		return models.PrecipitationObservation{
			Daily:     []float64{},
			Status:    models.StatusUnavailable,
			FetchedAt: in.clock.Now(),
		}
	}
	in.recordSuccess()

	obs := models.PrecipitationObservation{
		Daily:              daily,
		Total7Day:          sumTail(daily, 7),
		Total3Day:          sumTail(daily, 3),
		ConsecutiveDryDays: consecutiveDryDays(daily),
		Status:             models.StatusFresh,
		FetchedAt:          in.clock.Now(),
	}
	in.cacheSet(ctx, key, models.DatasetPrecip, obs)
	return obs
}

// sumTail sums the most recent n entries of a daily series.
func sumTail(daily []float64, n int) float64 {
	start := len(daily) - n
	if start < 0 {
		start = 0
	}
	total := 0.0
	for _, mm := range daily[start:] {
		total += mm
	}
	return total
}

// consecutiveDryDays counts trailing days below 1mm, scanning backward from
// the most recent day until a wet day breaks the streak.
func consecutiveDryDays(daily []float64) int {
	count := 0
	for i := len(daily) - 1; i >= 0; i-- {
		if daily[i] >= 1 {
			break
		}
		count++
	}
	return count
}

// cacheGet loads a fresh cached observation into out, marking it Fresh with
// its original fetch time. Returns false on miss or decode failure.
func (in *Ingestor) cacheGet(ctx context.Context, key string, dataset models.Dataset, out any) bool {
	entry, ok, err := in.cache.Get(ctx, key)
	if err != nil {
		in.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(entry.Payload, out); err != nil {
		in.logger.Warn("cache payload corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	observability.CacheHitsTotal.WithLabelValues(string(dataset)).Inc()
	setObservationStatus(out, models.StatusFresh)
	return true
}

// cacheGetStale loads the most recent entry regardless of TTL, marking it
// Stale. Used only after a fetch failure.
func (in *Ingestor) cacheGetStale(ctx context.Context, key string, dataset models.Dataset, out any) bool {
	entry, ok, err := in.cache.GetStale(ctx, key)
	if err != nil || !ok {
		return false
	}
	if err := json.Unmarshal(entry.Payload, out); err != nil {
		return false
	}
	observability.StaleServesTotal.WithLabelValues(string(dataset)).Inc()
	in.logger.Info("serving stale observation", zap.String("key", key), zap.Time("fetchedAt", entry.FetchedAt))
	setObservationStatus(out, models.StatusStale)
	return true
}

func (in *Ingestor) cacheSet(ctx context.Context, key string, dataset models.Dataset, obs any) {
	payload, err := json.Marshal(obs)
	if err != nil {
		in.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := in.cache.Set(ctx, key, payload); err != nil {
		in.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// setObservationStatus stamps the Status field on a cached observation after
// decode, since the status reflects how it was obtained, not what was stored.
func setObservationStatus(out any, status models.DataStatus) {
	switch o := out.(type) {
	case *models.SeismicObservation:
		o.Status = status
	case *models.StormObservation:
		o.Status = status
	case *models.PrecipitationObservation:
		o.Status = status
	}
}

func (in *Ingestor) recordSuccess() {
	if in.tracker != nil {
		in.tracker.RecordSuccess()
	}
}

func (in *Ingestor) recordError() {
	if in.tracker != nil {
		in.tracker.RecordError()
	}
}
