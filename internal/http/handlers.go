package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/hazard-risk-service/internal/engine"
	"github.com/kjstillabower/hazard-risk-service/internal/lifecycle"
	"github.com/kjstillabower/hazard-risk-service/internal/models"
	"github.com/kjstillabower/hazard-risk-service/internal/traffic"
	"github.com/kjstillabower/hazard-risk-service/internal/validation"
)

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int
	RateLimitBurst       int // 0 when rate limiter disabled
	DegradedWindow       time.Duration
	DegradedErrorPct     int
	StartTime            time.Time
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine           *engine.Engine
	tracker          *traffic.Tracker
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(engine *engine.Engine, tracker *traffic.Tracker, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		engine:       engine,
		tracker:      tracker,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetRisk handles GET /risk. Serves the latest home-location assessment.
func (h *Handler) GetRisk(w http.ResponseWriter, r *http.Request) {
	assessment, ok := h.engine.Latest()
	if !ok {
		writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", "No assessment cycle has completed yet")
		return
	}
	h.tracker.RecordSuccess()
	writeJSON(w, http.StatusOK, assessment)
}

// GetRiskAt handles GET /risk/{lat}/{lon}. Computes an on-demand assessment
// for arbitrary coordinates.
func (h *Handler) GetRiskAt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	loc, err := validation.ParseCoordinates(vars["lat"], vars["lon"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", err.Error())
		return
	}

	assessment, err := h.engine.Assess(r.Context(), loc)
	if err != nil {
		h.tracker.RecordError()
		writeServiceError(w, r, err)
		return
	}
	h.tracker.RecordSuccess()
	writeJSON(w, http.StatusOK, assessment)
}

// GetAlerts handles GET /alerts. Serves only the alert slice of the latest
// assessment.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	assessment, ok := h.engine.Latest()
	if !ok {
		writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", "No assessment cycle has completed yet")
		return
	}
	h.tracker.RecordSuccess()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":      assessment.Alerts,
		"generatedAt": assessment.GeneratedAt,
	})
}

// PutHeatAdvisory handles PUT /advisory/heat. Replaces the externally
// supplied heat advisory level.
func (h *Handler) PutHeatAdvisory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Level string `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a level field")
		return
	}
	level, err := validation.ParseHeatLevel(body.Level)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_HEAT_LEVEL", "level must be one of LOW, MODERATE, HIGH or NONE")
		return
	}

	h.engine.SetHeatAdvisory(models.HeatAdvisory{Level: level})
	writeJSON(w, http.StatusOK, h.engine.HeatAdvisory())
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if assessment, ok := h.engine.Latest(); ok && !assessment.Degraded {
		checks["upstreams"] = "healthy"
	} else {
		checks["upstreams"] = "unhealthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "hazard-risk-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus determines the current health status by evaluating
// conditions in priority order: shutting-down > overloaded > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	// Overloaded when rate limit denials exceed the configured share of capacity.
	if h.healthConfig.RateLimitRPS > 0 && h.healthConfig.OverloadWindow > 0 {
		threshold := float64(h.healthConfig.RateLimitRPS) * h.healthConfig.OverloadWindow.Seconds() * float64(h.healthConfig.OverloadThresholdPct) / 100
		if float64(h.tracker.DenialCount(h.healthConfig.OverloadWindow)) > threshold {
			return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
		}
	}
	// Degraded when the request error rate breaches the configured percentage,
	// or when the latest assessment itself ran on stale or missing data.
	if h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errorCount, total := h.tracker.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 {
			pct := float64(errorCount) * 100 / float64(total)
			if pct >= float64(h.healthConfig.DegradedErrorPct) {
				return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
			}
		}
	}
	if assessment, ok := h.engine.Latest(); ok && assessment.Degraded {
		return healthResult{"degraded", http.StatusServiceUnavailable, "stale_or_missing_data"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value(correlationIDKey); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeServiceError writes a 503 Service Unavailable response for assessment
// failures. Logs the underlying error at DEBUG level if a request logger exists.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := "ASSESSMENT_UNAVAILABLE"
	if errors.Is(err, context.DeadlineExceeded) {
		code = "ASSESSMENT_TIMEOUT"
	}
	writeError(w, r, http.StatusServiceUnavailable, code, "Unable to assess hazard risk")
	if logger, ok := r.Context().Value(loggerKey).(*zap.Logger); ok && logger != nil {
		logger.Debug("assessment error", zap.Error(err))
	}
}
