package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/hazard-risk-service/internal/cache"
	"github.com/kjstillabower/hazard-risk-service/internal/client"
	"github.com/kjstillabower/hazard-risk-service/internal/engine"
	"github.com/kjstillabower/hazard-risk-service/internal/ingest"
	"github.com/kjstillabower/hazard-risk-service/internal/lifecycle"
	"github.com/kjstillabower/hazard-risk-service/internal/models"
	"github.com/kjstillabower/hazard-risk-service/internal/traffic"
)

type stubSeismic struct{}

func (stubSeismic) QueryEvents(ctx context.Context, loc models.Location, radiusKm, minMagnitude float64, windowDays int) ([]models.SeismicEvent, error) {
	return []models.SeismicEvent{}, nil
}

type stubForecast struct{}

func (stubForecast) GetForecast(ctx context.Context, loc models.Location) (client.ForecastData, error) {
	return client.ForecastData{
		Current: models.WeatherSnapshot{Temperature: 18, Humidity: 60, WindSpeedKmh: 10},
	}, nil
}

func (stubForecast) GetPrecipitationHistory(ctx context.Context, loc models.Location, days int) ([]float64, error) {
	return []float64{2, 3, 1, 0, 2, 1, 3}, nil
}

func newTestHandler(t *testing.T) (*Handler, *engine.Engine) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	c := cache.NewInMemoryCacheWithClock(10*time.Minute, clock)
	ing := ingest.NewWithClock(stubSeismic{}, stubForecast{}, c, nil, zap.NewNop(), ingest.Options{}, clock)
	eng := engine.NewWithClock(ing, zap.NewNop(), engine.Config{Home: models.Location{Lat: 47.61, Lon: -122.33}}, clock)
	tracker := traffic.NewTrackerWithClock(clock)
	h := NewHandler(eng, tracker, &HealthConfig{
		OverloadWindow:       time.Minute,
		OverloadThresholdPct: 50,
		RateLimitRPS:         10,
		DegradedWindow:       time.Minute,
		DegradedErrorPct:     50,
		StartTime:            clock.Now(),
	}, zap.NewNop())
	return h, eng
}

func newTestRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/risk", h.GetRisk).Methods("GET")
	router.HandleFunc("/risk/{lat}/{lon}", h.GetRiskAt).Methods("GET")
	router.HandleFunc("/alerts", h.GetAlerts).Methods("GET")
	router.HandleFunc("/advisory/heat", h.PutHeatAdvisory).Methods("PUT")
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	return router
}

func TestGetRisk_NotReady(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/risk", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "NOT_READY") {
		t.Errorf("body = %s, want NOT_READY error code", rec.Body.String())
	}
}

func TestGetRisk_ServesLatestAssessment(t *testing.T) {
	h, eng := newTestHandler(t)
	eng.Refresh(context.Background())
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/risk", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.Assessment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Scores) != 5 {
		t.Errorf("scores = %d, want 5", len(got.Scores))
	}
	if got.Location.Lat != 47.61 {
		t.Errorf("location lat = %v, want 47.61", got.Location.Lat)
	}
}

func TestGetRiskAt_InvalidCoordinates(t *testing.T) {
	h, _ := newTestHandler(t)
	tests := []struct {
		name string
		path string
	}{
		{"lat not a number", "/risk/abc/0"},
		{"lat out of range", "/risk/91/0"},
		{"lon out of range", "/risk/0/-200"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", tc.path, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "INVALID_COORDINATES") {
				t.Errorf("body = %s, want INVALID_COORDINATES", rec.Body.String())
			}
		})
	}
}

func TestGetRiskAt_AssessesLocation(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/risk/35.68/139.65", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
	var got models.Assessment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Location.Lat != 35.68 || got.Location.Lon != 139.65 {
		t.Errorf("location = %+v, want 35.68/139.65", got.Location)
	}
}

func TestGetAlerts_ServesAlertSlice(t *testing.T) {
	h, eng := newTestHandler(t)
	eng.Refresh(context.Background())
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/alerts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got struct {
		Alerts []models.Alert `json:"alerts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Alerts == nil {
		t.Error("alerts should be an empty array, not null")
	}
}

func TestPutHeatAdvisory(t *testing.T) {
	h, eng := newTestHandler(t)
	eng.Refresh(context.Background())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/advisory/heat", strings.NewReader(`{"level":"HIGH"}`))

	newTestRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
	if got := eng.HeatAdvisory().Level; got != models.LevelHigh {
		t.Errorf("advisory level = %q, want HIGH", got)
	}
	a, _ := eng.Latest()
	if a.Scores[models.HazardHeatwave].Score != 75 {
		t.Errorf("heatwave score = %d, want 75 after HIGH advisory", a.Scores[models.HazardHeatwave].Score)
	}
}

func TestPutHeatAdvisory_Invalid(t *testing.T) {
	h, _ := newTestHandler(t)
	tests := []struct {
		name string
		body string
	}{
		{"unknown level", `{"level":"SCORCHING"}`},
		{"not json", `level=HIGH`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("PUT", "/advisory/heat", strings.NewReader(tc.body))
			newTestRouter(h).ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGetHealth_Healthy(t *testing.T) {
	h, eng := newTestHandler(t)
	eng.Refresh(context.Background())
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", got["status"])
	}
}

func TestGetHealth_DegradedBeforeFirstCycle(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	// No assessment yet: upstream check is unhealthy but overall status stays
	// healthy until an assessment reports degraded data.
	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	checks := got["checks"].(map[string]interface{})
	if checks["upstreams"] != "unhealthy" {
		t.Errorf("upstreams check = %v, want unhealthy", checks["upstreams"])
	}
}

func TestGetHealth_ShuttingDown(t *testing.T) {
	lifecycle.SetShuttingDown(true)
	defer lifecycle.SetShuttingDown(false)

	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "shutting-down") {
		t.Errorf("body = %s, want shutting-down status", rec.Body.String())
	}
}
