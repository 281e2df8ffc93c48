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
	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// Neutral substitutes for fields the provider omitted, so scorers never see
// an undefined value. Chosen to sit in the no-factor band of every scorer.
const (
	neutralTemperature = 15.0
	neutralHumidity    = 50.0
)

// ForecastData is the normalized meteorological payload: a current-conditions
// snapshot plus hourly series for the forecast window.
type ForecastData struct {
	Current models.WeatherSnapshot
	Hourly  HourlySeries
}

// HourlySeries holds parallel hourly arrays from the forecast service.
type HourlySeries struct {
	WindSpeedKmh  []float64
	WindGustsKmh  []float64
	Precipitation []float64
	WeatherCode   []int
}

// ForecastAPI is the meteorological service boundary.
type ForecastAPI interface {
	GetForecast(ctx context.Context, loc models.Location) (ForecastData, error)
	GetPrecipitationHistory(ctx context.Context, loc models.Location, days int) ([]float64, error)
}

// ForecastClient talks to an open-meteo-style forecast endpoint.
type ForecastClient struct {
	apiURL  string
	timeout time.Duration
	client  *http.Client
	retry   RetryPolicy
	cb      *circuitbreaker.CircuitBreaker
}

// NewForecastClient creates a ForecastClient with default retry policy.
func NewForecastClient(apiURL string, timeout time.Duration) *ForecastClient {
	return NewForecastClientWithRetry(apiURL, timeout, DefaultRetryPolicy())
}

// NewForecastClientWithRetry creates a ForecastClient with an explicit retry policy.
func NewForecastClientWithRetry(apiURL string, timeout time.Duration, retry RetryPolicy) *ForecastClient {
	return &ForecastClient{
		apiURL:  apiURL,
		timeout: timeout,
		retry:   retry,
		client:  &http.Client{Timeout: timeout},
	}
}

// SetCircuitBreaker attaches a circuit breaker to forecast calls.
func (c *ForecastClient) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.cb = cb
}

// Optional fields are pointers so missing values can be distinguished from
// zero and replaced with neutral constants.
type forecastResponse struct {
	Current struct {
		Temperature   *float64 `json:"temperature_2m"`
		Humidity      *float64 `json:"relative_humidity_2m"`
		ApparentTemp  *float64 `json:"apparent_temperature"`
		Precipitation *float64 `json:"precipitation"`
		CloudCover    *float64 `json:"cloud_cover"`
		WindSpeed     *float64 `json:"wind_speed_10m"`
		WindGusts     *float64 `json:"wind_gusts_10m"`
		WindDirection *float64 `json:"wind_direction_10m"`
		WeatherCode   *int     `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		WindSpeed     []*float64 `json:"wind_speed_10m"`
		WindGusts     []*float64 `json:"wind_gusts_10m"`
		Precipitation []*float64 `json:"precipitation"`
		WeatherCode   []*int     `json:"weather_code"`
	} `json:"hourly"`
}

type historyResponse struct {
	Daily struct {
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// GetForecast fetches current conditions and the hourly forecast window.
func (c *ForecastClient) GetForecast(ctx context.Context, loc models.Location) (ForecastData, error) {
	params := url.Values{}
	params.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,cloud_cover,wind_speed_10m,wind_gusts_10m,wind_direction_10m,weather_code")
	params.Set("hourly", "wind_speed_10m,wind_gusts_10m,precipitation,weather_code")
	params.Set("forecast_days", "2")
	params.Set("wind_speed_unit", "kmh")

	var data ForecastData
	err := callThrough(ctx, c.cb, func() error {
		return doWithRetry(ctx, models.DatasetStorm, c.retry, func() error {
			body, callErr := c.callAPI(ctx, models.DatasetStorm, loc, params)
			if callErr != nil {
				return callErr
			}
			var apiResp forecastResponse
			if err := json.Unmarshal(body, &apiResp); err != nil {
				return fmt.Errorf("%w: parse forecast response: %v", ErrMalformedPayload, err)
			}
			data = mapForecast(apiResp)
			return nil
		})
	})
	return data, err
}

// GetPrecipitationHistory fetches the trailing daily precipitation sums,
// oldest first. Null provider entries map to zero.
func (c *ForecastClient) GetPrecipitationHistory(ctx context.Context, loc models.Location, days int) ([]float64, error) {
	if days <= 0 {
		days = 7
	}
	params := url.Values{}
	params.Set("daily", "precipitation_sum")
	params.Set("past_days", strconv.Itoa(days))
	params.Set("forecast_days", "1")

	var daily []float64
	err := callThrough(ctx, c.cb, func() error {
		return doWithRetry(ctx, models.DatasetPrecip, c.retry, func() error {
			body, callErr := c.callAPI(ctx, models.DatasetPrecip, loc, params)
			if callErr != nil {
				return callErr
			}
			var apiResp historyResponse
			if err := json.Unmarshal(body, &apiResp); err != nil {
				return fmt.Errorf("%w: parse history response: %v", ErrMalformedPayload, err)
			}
			sums := apiResp.Daily.PrecipitationSum
			// Trim the forecast day; only completed history days count.
			if len(sums) > days {
				sums = sums[:days]
			}
			daily = make([]float64, 0, len(sums))
			for _, v := range sums {
				daily = append(daily, deref(v, 0))
			}
			return nil
		})
	})
	return daily, err
}

func (c *ForecastClient) callAPI(ctx context.Context, dataset models.Dataset, loc models.Location, params url.Values) ([]byte, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		observe(dataset, "error", start)
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	params.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', 4, 64))
	params.Set("timezone", "UTC")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(reqCtx, "GET", baseURL.String(), nil)
	if err != nil {
		observe(dataset, "error", start)
		return nil, fmt.Errorf("create request: %w", err)
	}
	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		observe(dataset, "error", start)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	observe(dataset, statusLabel(resp.StatusCode), start)

	if err := handleErrorResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

func mapForecast(apiResp forecastResponse) ForecastData {
	cur := apiResp.Current
	snapshot := models.WeatherSnapshot{
		Temperature:      deref(cur.Temperature, neutralTemperature),
		Humidity:         deref(cur.Humidity, neutralHumidity),
		ApparentTemp:     deref(cur.ApparentTemp, deref(cur.Temperature, neutralTemperature)),
		Precipitation:    deref(cur.Precipitation, 0),
		CloudCover:       deref(cur.CloudCover, 0),
		WindSpeedKmh:     deref(cur.WindSpeed, 0),
		WindGustsKmh:     deref(cur.WindGusts, 0),
		WindDirectionDeg: deref(cur.WindDirection, 0),
		WeatherCode:      derefInt(cur.WeatherCode, 0),
	}

	hourly := HourlySeries{
		WindSpeedKmh:  derefSlice(apiResp.Hourly.WindSpeed),
		WindGustsKmh:  derefSlice(apiResp.Hourly.WindGusts),
		Precipitation: derefSlice(apiResp.Hourly.Precipitation),
		WeatherCode:   derefIntSlice(apiResp.Hourly.WeatherCode),
	}
	return ForecastData{Current: snapshot, Hourly: hourly}
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func derefInt(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func derefSlice(vs []*float64) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		out = append(out, deref(v, 0))
	}
	return out
}

func derefIntSlice(vs []*int) []int {
	out := make([]int, 0, len(vs))
	for _, v := range vs {
		out = append(out, derefInt(v, 0))
	}
	return out
}
