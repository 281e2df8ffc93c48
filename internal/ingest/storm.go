package ingest

import (
	"github.com/kjstillabower/hazard-risk-service/internal/client"
	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// Wind thresholds in km/h. Hurricane categories follow the Saffir-Simpson
// sustained-wind bands; anything organized below tropical-storm strength is
// classified as a depression.
const (
	tropicalStormWindKmh = 63
	hurricaneWindKmh     = 119
	cat2WindKmh          = 154
	cat3WindKmh          = 178
	cat4WindKmh          = 209
	cat5WindKmh          = 252

	damagingGustKmh = 120
	strongGustKmh   = 90
)

// WMO weather codes indicating thunderstorm activity.
const (
	codeThunderstorm          = 95
	codeThunderstormHail      = 96
	codeThunderstormHeavyHail = 99
)

func isStormCode(code int) bool {
	return code == codeThunderstorm || code == codeThunderstormHail || code == codeThunderstormHeavyHail
}

// interpretStorms derives storm systems and advisories from forecast
// telemetry. Classification uses the peak sustained wind across the current
// snapshot and the hourly window, so a system ramping up over the next day is
// reported at its forecast strength.
func interpretStorms(f client.ForecastData) ([]models.Storm, []models.StormAlert) {
	maxWind := f.Current.WindSpeedKmh
	for _, w := range f.Hourly.WindSpeedKmh {
		if w > maxWind {
			maxWind = w
		}
	}
	maxGusts := f.Current.WindGustsKmh
	for _, g := range f.Hourly.WindGustsKmh {
		if g > maxGusts {
			maxGusts = g
		}
	}
	stormCode := isStormCode(f.Current.WeatherCode)
	severeHail := f.Current.WeatherCode == codeThunderstormHeavyHail
	for _, code := range f.Hourly.WeatherCode {
		if isStormCode(code) {
			stormCode = true
		}
		if code == codeThunderstormHeavyHail {
			severeHail = true
		}
	}

	storms := []models.Storm{}
	switch {
	case maxWind >= hurricaneWindKmh:
		storms = append(storms, models.Storm{
			Kind:         models.StormHurricane,
			Category:     hurricaneCategory(maxWind),
			WindSpeedKmh: maxWind,
			WindGustsKmh: maxGusts,
			DirectionDeg: f.Current.WindDirectionDeg,
		})
	case maxWind >= tropicalStormWindKmh:
		storms = append(storms, models.Storm{
			Kind:         models.StormTropicalStorm,
			WindSpeedKmh: maxWind,
			WindGustsKmh: maxGusts,
			DirectionDeg: f.Current.WindDirectionDeg,
		})
	case stormCode || maxGusts >= strongGustKmh:
		storms = append(storms, models.Storm{
			Kind:         models.StormDepression,
			WindSpeedKmh: maxWind,
			WindGustsKmh: maxGusts,
			DirectionDeg: f.Current.WindDirectionDeg,
		})
	}

	alerts := []models.StormAlert{}
	switch {
	case maxGusts > damagingGustKmh || severeHail:
		alerts = append(alerts, models.StormAlert{
			Event:    "Destructive Wind Warning",
			Severity: models.LevelHigh,
			Headline: "Damaging wind gusts or severe thunderstorms expected",
		})
	case len(storms) > 0:
		alerts = append(alerts, models.StormAlert{
			Event:    "Wind Advisory",
			Severity: models.LevelModerate,
			Headline: "Organized storm activity in the area",
		})
	}
	return storms, alerts
}

func hurricaneCategory(windKmh float64) int {
	switch {
	case windKmh >= cat5WindKmh:
		return 5
	case windKmh >= cat4WindKmh:
		return 4
	case windKmh >= cat3WindKmh:
		return 3
	case windKmh >= cat2WindKmh:
		return 2
	default:
		return 1
	}
}
