package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestForecastClient_GetForecast_MapsCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"current": {
				"temperature_2m": 31.5,
				"relative_humidity_2m": 28,
				"apparent_temperature": 33.0,
				"precipitation": 0.2,
				"cloud_cover": 40,
				"wind_speed_10m": 22.4,
				"wind_gusts_10m": 48.9,
				"wind_direction_10m": 215,
				"weather_code": 3
			},
			"hourly": {
				"wind_speed_10m": [20.0, 22.0],
				"wind_gusts_10m": [40.0, null],
				"precipitation": [0.0, 0.4],
				"weather_code": [3, 61]
			}
		}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, 2*time.Second)
	data, err := c.GetForecast(context.Background(), seattle)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}

	cur := data.Current
	if cur.Temperature != 31.5 || cur.Humidity != 28 || cur.WindGustsKmh != 48.9 {
		t.Errorf("current snapshot mapped incorrectly: %+v", cur)
	}
	if cur.WeatherCode != 3 {
		t.Errorf("WeatherCode = %d, want 3", cur.WeatherCode)
	}
	if len(data.Hourly.WindGustsKmh) != 2 || data.Hourly.WindGustsKmh[1] != 0 {
		t.Errorf("null hourly gust should map to 0, got %v", data.Hourly.WindGustsKmh)
	}
}

// TestForecastClient_GetForecast_NeutralDefaults: missing current fields take
// neutral constants rather than zero values that would skew scoring.
func TestForecastClient_GetForecast_NeutralDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current": {"wind_speed_10m": 12.0}, "hourly": {}}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, 2*time.Second)
	data, err := c.GetForecast(context.Background(), seattle)
	if err != nil {
		t.Fatalf("GetForecast() error = %v", err)
	}

	cur := data.Current
	if cur.Temperature != neutralTemperature {
		t.Errorf("Temperature = %v, want neutral %v", cur.Temperature, neutralTemperature)
	}
	if cur.Humidity != neutralHumidity {
		t.Errorf("Humidity = %v, want neutral %v", cur.Humidity, neutralHumidity)
	}
	if cur.WindSpeedKmh != 12.0 {
		t.Errorf("WindSpeedKmh = %v, want 12.0", cur.WindSpeedKmh)
	}
}

func TestForecastClient_GetPrecipitationHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("past_days") != "7" {
			t.Errorf("past_days = %q, want 7", q.Get("past_days"))
		}
		// Seven history days plus the in-progress forecast day.
		_, _ = w.Write([]byte(`{"daily": {"precipitation_sum": [5.0, 3.0, null, 20.0, 15.0, 30.0, 12.0, 1.0]}}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, 2*time.Second)
	daily, err := c.GetPrecipitationHistory(context.Background(), seattle, 7)
	if err != nil {
		t.Fatalf("GetPrecipitationHistory() error = %v", err)
	}

	want := []float64{5, 3, 0, 20, 15, 30, 12}
	if len(daily) != len(want) {
		t.Fatalf("history length = %d, want %d", len(daily), len(want))
	}
	for i := range want {
		if daily[i] != want[i] {
			t.Errorf("daily[%d] = %v, want %v (nulls map to 0, forecast day trimmed)", i, daily[i], want[i])
		}
	}
}
