package risk

import "github.com/kjstillabower/hazard-risk-service/internal/models"

var floodReasoning = map[models.Level]string{
	models.LevelLow:      "Precipitation levels are within normal range.",
	models.LevelModerate: "Sustained rainfall is raising flood potential in low-lying areas.",
	models.LevelHigh:     "Heavy rainfall accumulation indicates significant flood risk.",
	models.LevelExtreme:  "Extreme rainfall accumulation; severe flooding is likely or imminent.",
}

var floodRecommendations = map[models.Level][]string{
	models.LevelLow: {
		"No action needed; conditions are normal.",
	},
	models.LevelModerate: {
		"Monitor local weather updates.",
		"Avoid low-lying roads during heavy rain.",
	},
	models.LevelHigh: {
		"Prepare an emergency kit and review evacuation routes.",
		"Move valuables above expected water levels.",
		"Do not drive through flooded roadways.",
	},
	models.LevelExtreme: {
		"Severe flooding expected; evacuate if instructed by authorities.",
		"Move to higher ground immediately if water is rising.",
		"Keep away from rivers, storm drains and underpasses.",
	},
}

// ScoreFlood scores flood risk from precipitation history and the current
// hourly rainfall intensity. When only one of the two observations is usable,
// the factors of the missing one are skipped rather than zeroing the whole
// score. Pure; never raises.
func ScoreFlood(precip models.PrecipitationObservation, storm models.StormObservation) models.RiskScore {
	if !hasData(precip.Status) && !hasData(storm.Status) {
		return insufficientData("Flood risk cannot be assessed: no precipitation data available.")
	}

	factors := []models.Factor{}
	total := 0
	add := func(name string, value float64, impact int) {
		factors = append(factors, models.Factor{Name: name, Value: value, Impact: impact})
		total += impact
	}

	if hasData(precip.Status) {
		switch {
		case precip.Total7Day > 150:
			add("7-day rainfall (mm)", precip.Total7Day, 40)
		case precip.Total7Day > 100:
			add("7-day rainfall (mm)", precip.Total7Day, 25)
		case precip.Total7Day > 50:
			add("7-day rainfall (mm)", precip.Total7Day, 10)
		}

		switch {
		case precip.Total3Day > 100:
			add("3-day rainfall (mm)", precip.Total3Day, 35)
		case precip.Total3Day > 60:
			add("3-day rainfall (mm)", precip.Total3Day, 20)
		case precip.Total3Day > 30:
			add("3-day rainfall (mm)", precip.Total3Day, 8)
		}
	}

	if hasData(storm.Status) {
		switch {
		case storm.Current.Precipitation > 10:
			add("current intensity (mm/hr)", storm.Current.Precipitation, 25)
		case storm.Current.Precipitation > 5:
			add("current intensity (mm/hr)", storm.Current.Precipitation, 15)
		}
	}

	// Soil saturation proxy: days in the series with measurable rain (>1mm).
	if hasData(precip.Status) {
		wetDays := 0
		for _, mm := range precip.Daily {
			if mm > 1 {
				wetDays++
			}
		}
		switch {
		case wetDays >= 5:
			add("wet days in series", float64(wetDays), 15)
		case wetDays >= 3:
			add("wet days in series", float64(wetDays), 8)
		}
	}

	score := clampScore(total)
	level := LevelOf(score)
	return models.RiskScore{
		Score:           score,
		Level:           level,
		Factors:         factors,
		Reasoning:       floodReasoning[level],
		Recommendations: floodRecommendations[level],
	}
}
