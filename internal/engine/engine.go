package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/hazard-risk-service/internal/ingest"
	"github.com/kjstillabower/hazard-risk-service/internal/models"
	"github.com/kjstillabower/hazard-risk-service/internal/observability"
	"github.com/kjstillabower/hazard-risk-service/internal/risk"
)

// Config controls the refresh scheduling of the engine.
type Config struct {
	Home            models.Location
	RefreshInterval time.Duration // full cycle across all datasets
	SeismicInterval time.Duration // seismic-only fast lane
	AssessTimeout   time.Duration // coalesced on-demand assessment wait
}

// Engine runs the assessment loop for the home location and serves on-demand
// assessments for arbitrary locations. All refresh cycles run on a single
// goroutine, so cycles never overlap.
type Engine struct {
	ingestor  *ingest.Ingestor
	logger    *zap.Logger
	clock     clockwork.Clock
	cfg       Config
	coalescer *assessmentCoalescer

	mu           sync.RWMutex
	latest       *models.Assessment
	lastObs      ingest.Observations
	heatAdvisory models.HeatAdvisory
}

// New creates an Engine with a real clock.
func New(ingestor *ingest.Ingestor, logger *zap.Logger, cfg Config) *Engine {
	return NewWithClock(ingestor, logger, cfg, clockwork.NewRealClock())
}

// NewWithClock creates an Engine with an injectable clock for tests.
func NewWithClock(ingestor *ingest.Ingestor, logger *zap.Logger, cfg Config, clock clockwork.Clock) *Engine {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 10 * time.Minute
	}
	if cfg.SeismicInterval <= 0 {
		cfg.SeismicInterval = 5 * time.Minute
	}
	if cfg.AssessTimeout <= 0 {
		cfg.AssessTimeout = 15 * time.Second
	}
	return &Engine{
		ingestor:  ingestor,
		logger:    logger,
		clock:     clock,
		cfg:       cfg,
		coalescer: newAssessmentCoalescer(cfg.AssessTimeout),
	}
}

// Run executes an initial refresh, then alternates full refresh cycles with
// seismic-only rescores until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.Refresh(ctx)

	full := e.clock.NewTicker(e.cfg.RefreshInterval)
	defer full.Stop()
	fast := e.clock.NewTicker(e.cfg.SeismicInterval)
	defer fast.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped", zap.Error(ctx.Err()))
			return
		case <-full.Chan():
			e.Refresh(ctx)
		case <-fast.Chan():
			e.refreshSeismic(ctx)
		}
	}
}

// Refresh runs one full cycle for the home location: collect all datasets,
// score, and publish the new assessment.
func (e *Engine) Refresh(ctx context.Context) {
	start := time.Now()
	obs := e.ingestor.Collect(ctx, e.cfg.Home)
	assessment := e.assemble(e.cfg.Home, obs)

	e.mu.Lock()
	e.latest = &assessment
	e.lastObs = obs
	e.mu.Unlock()

	e.publishGauges(assessment)
	status := "ok"
	if assessment.Degraded {
		status = "degraded"
	}
	observability.RefreshCyclesTotal.WithLabelValues(status).Inc()
	observability.RefreshDuration.Observe(time.Since(start).Seconds())

	e.logger.Info("refresh cycle complete",
		zap.Int("compositeScore", assessment.Composite.Score),
		zap.String("compositeLevel", string(assessment.Composite.Level)),
		zap.String("primaryConcern", assessment.Composite.PrimaryConcern),
		zap.Int("alerts", len(assessment.Alerts)),
		zap.Bool("degraded", assessment.Degraded),
		zap.Duration("duration", time.Since(start)))
}

// refreshSeismic re-fetches only the seismic dataset and rescores using the
// last known storm and precipitation observations. Seismic conditions can
// change on much shorter timescales than the weather datasets.
func (e *Engine) refreshSeismic(ctx context.Context) {
	e.mu.RLock()
	obs := e.lastObs
	haveBaseline := e.latest != nil
	e.mu.RUnlock()
	if !haveBaseline {
		e.Refresh(ctx)
		return
	}

	obs.Seismic = e.ingestor.FetchSeismicEvents(ctx, e.cfg.Home)
	assessment := e.assemble(e.cfg.Home, obs)

	e.mu.Lock()
	e.latest = &assessment
	e.lastObs = obs
	e.mu.Unlock()

	e.publishGauges(assessment)
	e.logger.Debug("seismic rescore complete",
		zap.Int("earthquakeScore", assessment.Scores[models.HazardEarthquake].Score),
		zap.String("seismicStatus", string(obs.Seismic.Status)))
}

// Assess computes a full assessment for an arbitrary location on demand.
// Concurrent requests for the same rounded coordinates are coalesced into a
// single collection pass.
func (e *Engine) Assess(ctx context.Context, loc models.Location) (models.Assessment, error) {
	key := fmt.Sprintf("%.2f,%.2f", loc.Lat, loc.Lon)
	return e.coalescer.GetOrDo(ctx, key, func() (models.Assessment, error) {
		obs := e.ingestor.Collect(ctx, loc)
		return e.assemble(loc, obs), nil
	})
}

// Latest returns the most recent home-location assessment, or false when no
// cycle has completed yet.
func (e *Engine) Latest() (models.Assessment, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.latest == nil {
		return models.Assessment{}, false
	}
	return *e.latest, true
}

// SetHeatAdvisory replaces the externally supplied heat advisory and rescores
// immediately so the change is visible without waiting for the next cycle.
func (e *Engine) SetHeatAdvisory(adv models.HeatAdvisory) {
	adv.UpdatedAt = e.clock.Now()

	e.mu.Lock()
	e.heatAdvisory = adv
	obs := e.lastObs
	haveBaseline := e.latest != nil
	e.mu.Unlock()

	e.logger.Info("heat advisory updated", zap.String("level", string(adv.Level)))
	if !haveBaseline {
		return
	}
	assessment := e.assemble(e.cfg.Home, obs)
	e.mu.Lock()
	e.latest = &assessment
	e.mu.Unlock()
	e.publishGauges(assessment)
}

// HeatAdvisory returns the advisory currently in effect.
func (e *Engine) HeatAdvisory() models.HeatAdvisory {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.heatAdvisory
}

// assemble scores all hazards from one observation set and builds the
// assessment envelope.
func (e *Engine) assemble(loc models.Location, obs ingest.Observations) models.Assessment {
	now := e.clock.Now()
	adv := e.HeatAdvisory()

	scores := map[models.Hazard]models.RiskScore{
		models.HazardFlood:      risk.ScoreFlood(obs.Precip, obs.Storm),
		models.HazardWildfire:   risk.ScoreWildfire(obs.Storm, obs.Precip),
		models.HazardEarthquake: risk.ScoreEarthquake(obs.Seismic, now),
		models.HazardCyclone:    risk.ScoreCyclone(obs.Storm),
		models.HazardHeatwave:   risk.ScoreHeatwave(adv),
	}

	status := map[models.Dataset]models.DataStatus{
		models.DatasetSeismic: obs.Seismic.Status,
		models.DatasetStorm:   obs.Storm.Status,
		models.DatasetPrecip:  obs.Precip.Status,
	}
	degraded := false
	for _, s := range status {
		if s != models.StatusFresh {
			degraded = true
		}
	}

	return models.Assessment{
		Location:    loc,
		GeneratedAt: now,
		Scores:      scores,
		Composite:   risk.Composite(scores),
		Alerts:      risk.DeriveAlerts(scores),
		DataStatus:  status,
		Degraded:    degraded,
	}
}

func (e *Engine) publishGauges(a models.Assessment) {
	for _, h := range models.HazardOrder {
		observability.HazardRiskScore.WithLabelValues(string(h)).Set(float64(a.Scores[h].Score))
	}
	observability.CompositeRiskScore.Set(float64(a.Composite.Score))
	observability.ActiveAlerts.Set(float64(len(a.Alerts)))
}
