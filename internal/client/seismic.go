package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kjstillabower/hazard-risk-service/internal/circuitbreaker"
	"github.com/kjstillabower/hazard-risk-service/internal/geo"
	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// maxSeismicRadiusKm is the largest radius the catalog service accepts.
const maxSeismicRadiusKm = 20001

// SeismicAPI queries an earthquake catalog service for events near a point.
type SeismicAPI interface {
	QueryEvents(ctx context.Context, loc models.Location, radiusKm, minMagnitude float64, windowDays int) ([]models.SeismicEvent, error)
}

// SeismicClient talks to a USGS-style fdsnws event endpoint and normalizes
// the GeoJSON payload into SeismicEvent records with computed distances.
type SeismicClient struct {
	apiURL  string
	timeout time.Duration
	client  *http.Client
	retry   RetryPolicy
	cb      *circuitbreaker.CircuitBreaker
}

// NewSeismicClient creates a SeismicClient with default retry policy.
func NewSeismicClient(apiURL string, timeout time.Duration) *SeismicClient {
	return NewSeismicClientWithRetry(apiURL, timeout, DefaultRetryPolicy())
}

// NewSeismicClientWithRetry creates a SeismicClient with an explicit retry policy.
func NewSeismicClientWithRetry(apiURL string, timeout time.Duration, retry RetryPolicy) *SeismicClient {
	return &SeismicClient{
		apiURL:  apiURL,
		timeout: timeout,
		retry:   retry,
		client:  &http.Client{Timeout: timeout},
	}
}

// SetCircuitBreaker attaches a circuit breaker to catalog calls.
func (c *SeismicClient) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.cb = cb
}

type seismicResponse struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			Mag     *float64 `json:"mag"`
			MagType string   `json:"magType"`
			Place   string   `json:"place"`
			Time    int64    `json:"time"`
			Tsunami int      `json:"tsunami"`
			Alert   string   `json:"alert"`
			Sig     int      `json:"sig"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lon, lat, depth
		} `json:"geometry"`
	} `json:"features"`
}

// QueryEvents fetches catalog events within radiusKm of loc over the trailing
// windowDays, at or above minMagnitude. Events are annotated with the
// great-circle distance from loc. Filtering/sorting is left to the caller.
func (c *SeismicClient) QueryEvents(ctx context.Context, loc models.Location, radiusKm, minMagnitude float64, windowDays int) ([]models.SeismicEvent, error) {
	var events []models.SeismicEvent
	err := callThrough(ctx, c.cb, func() error {
		return doWithRetry(ctx, models.DatasetSeismic, c.retry, func() error {
			var callErr error
			events, callErr = c.callAPI(ctx, loc, radiusKm, minMagnitude, windowDays)
			return callErr
		})
	})
	return events, err
}

func (c *SeismicClient) callAPI(ctx context.Context, loc models.Location, radiusKm, minMagnitude float64, windowDays int) ([]models.SeismicEvent, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, loc, radiusKm, minMagnitude, windowDays)
	if err != nil {
		observe(models.DatasetSeismic, "error", start)
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observe(models.DatasetSeismic, "error", start)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	observe(models.DatasetSeismic, statusLabel(resp.StatusCode), start)

	if err := handleErrorResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var apiResp seismicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: parse catalog response: %v", ErrMalformedPayload, err)
	}

	return c.mapResponse(apiResp, loc), nil
}

func (c *SeismicClient) buildRequest(ctx context.Context, loc models.Location, radiusKm, minMagnitude float64, windowDays int) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	if radiusKm <= 0 || radiusKm > maxSeismicRadiusKm {
		radiusKm = maxSeismicRadiusKm
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	end := time.Now().UTC()
	begin := end.AddDate(0, 0, -windowDays)

	params := url.Values{}
	params.Set("format", "geojson")
	params.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', 4, 64))
	params.Set("maxradiuskm", strconv.FormatFloat(radiusKm, 'f', 0, 64))
	params.Set("minmagnitude", strconv.FormatFloat(minMagnitude, 'f', 1, 64))
	params.Set("starttime", begin.Format(time.RFC3339))
	params.Set("endtime", end.Format(time.RFC3339))
	params.Set("limit", "50")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// mapResponse normalizes catalog features. Features without a magnitude are
// dropped rather than guessed at.
func (c *SeismicClient) mapResponse(apiResp seismicResponse, loc models.Location) []models.SeismicEvent {
	events := make([]models.SeismicEvent, 0, len(apiResp.Features))
	for _, f := range apiResp.Features {
		if f.Properties.Mag == nil || len(f.Geometry.Coordinates) < 2 {
			continue
		}
		evLon := f.Geometry.Coordinates[0]
		evLat := f.Geometry.Coordinates[1]
		depth := 0.0
		if len(f.Geometry.Coordinates) > 2 {
			depth = f.Geometry.Coordinates[2]
		}
		place := f.Properties.Place
		if place == "" {
			place = "unknown location"
		}
		events = append(events, models.SeismicEvent{
			ID:            f.ID,
			Magnitude:     *f.Properties.Mag,
			MagnitudeType: f.Properties.MagType,
			Place:         place,
			TimeMs:        f.Properties.Time,
			DepthKm:       depth,
			Lat:           evLat,
			Lon:           evLon,
			DistanceKm:    geo.HaversineKm(loc.Lat, loc.Lon, evLat, evLon),
			Tsunami:       f.Properties.Tsunami == 1,
			AlertLevel:    f.Properties.Alert,
			Significance:  f.Properties.Sig,
		})
	}
	return events
}
