package risk

import "github.com/kjstillabower/hazard-risk-service/internal/models"

var wildfireReasoning = map[models.Level]string{
	models.LevelLow:      "Fire weather conditions are benign.",
	models.LevelModerate: "Warm, dry conditions are elevating fire danger.",
	models.LevelHigh:     "Hot, dry and windy conditions support rapid fire spread.",
	models.LevelExtreme:  "Critical fire weather; any ignition may spread explosively.",
}

var wildfireRecommendations = map[models.Level][]string{
	models.LevelLow: {
		"No action needed; conditions are normal.",
	},
	models.LevelModerate: {
		"Avoid open burning and dispose of cigarettes safely.",
		"Check local fire restrictions before outdoor activity.",
	},
	models.LevelHigh: {
		"Postpone any outdoor burning or spark-producing work.",
		"Clear dry vegetation near structures.",
		"Keep informed of local fire warnings.",
	},
	models.LevelExtreme: {
		"Be ready to evacuate at short notice.",
		"Pack essential documents and medications now.",
		"Report any smoke or flames immediately.",
	},
}

// ScoreWildfire scores fire-weather risk from current temperature, humidity
// and wind, plus the 7-day precipitation total as a fuel dryness proxy.
// Pure; never raises.
func ScoreWildfire(storm models.StormObservation, precip models.PrecipitationObservation) models.RiskScore {
	if !hasData(storm.Status) {
		return insufficientData("Wildfire risk cannot be assessed: no weather data available.")
	}

	cur := storm.Current
	factors := []models.Factor{}
	total := 0
	add := func(name string, value float64, impact int) {
		factors = append(factors, models.Factor{Name: name, Value: value, Impact: impact})
		total += impact
	}

	switch {
	case cur.Temperature > 40:
		add("temperature (C)", cur.Temperature, 30)
	case cur.Temperature > 35:
		add("temperature (C)", cur.Temperature, 20)
	case cur.Temperature > 30:
		add("temperature (C)", cur.Temperature, 10)
	}

	switch {
	case cur.Humidity < 20:
		add("relative humidity (%)", cur.Humidity, 30)
	case cur.Humidity < 30:
		add("relative humidity (%)", cur.Humidity, 20)
	case cur.Humidity < 40:
		add("relative humidity (%)", cur.Humidity, 10)
	}

	switch {
	case cur.WindSpeedKmh > 40:
		add("wind speed (km/h)", cur.WindSpeedKmh, 25)
	case cur.WindSpeedKmh > 25:
		add("wind speed (km/h)", cur.WindSpeedKmh, 15)
	case cur.WindSpeedKmh > 15:
		add("wind speed (km/h)", cur.WindSpeedKmh, 5)
	}

	// Recent rain keeps fuels damp; near-zero weekly totals dry them out.
	if hasData(precip.Status) {
		switch {
		case precip.Total7Day < 2:
			add("7-day rainfall (mm)", precip.Total7Day, 20)
		case precip.Total7Day < 10:
			add("7-day rainfall (mm)", precip.Total7Day, 10)
		}
	}

	score := clampScore(total)
	level := LevelOf(score)
	return models.RiskScore{
		Score:           score,
		Level:           level,
		Factors:         factors,
		Reasoning:       wildfireReasoning[level],
		Recommendations: wildfireRecommendations[level],
	}
}
