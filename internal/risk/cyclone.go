package risk

import "github.com/kjstillabower/hazard-risk-service/internal/models"

var cycloneReasoning = map[models.Level]string{
	models.LevelLow:      "No organized storm systems affecting the area.",
	models.LevelModerate: "Storm conditions developing; strong winds possible.",
	models.LevelHigh:     "Severe storm system active; damaging winds expected.",
	models.LevelExtreme:  "Major cyclone conditions; destructive winds imminent.",
}

var cycloneRecommendations = map[models.Level][]string{
	models.LevelLow: {
		"No action needed; conditions are normal.",
	},
	models.LevelModerate: {
		"Secure loose outdoor items.",
		"Charge devices and check flashlight batteries.",
	},
	models.LevelHigh: {
		"Stay indoors away from windows during high winds.",
		"Prepare for power outages.",
		"Review your household emergency plan.",
	},
	models.LevelExtreme: {
		"Shelter in an interior room on the lowest floor.",
		"Evacuate if directed by authorities.",
		"Do not go outside during the eye of the storm.",
	},
}

// ScoreCyclone scores storm/cyclone risk from detected storm systems and
// provider advisories. Pure; never raises.
func ScoreCyclone(obs models.StormObservation) models.RiskScore {
	if !hasData(obs.Status) {
		return insufficientData("Storm risk cannot be assessed: no storm telemetry available.")
	}
	if len(obs.Storms) == 0 && len(obs.Alerts) == 0 {
		return models.RiskScore{
			Score:           0,
			Level:           models.LevelLow,
			Factors:         []models.Factor{},
			Reasoning:       cycloneReasoning[models.LevelLow],
			Recommendations: cycloneRecommendations[models.LevelLow],
		}
	}

	factors := []models.Factor{}
	total := 0
	add := func(name string, value float64, impact int) {
		factors = append(factors, models.Factor{Name: name, Value: value, Impact: impact})
		total += impact
	}

	if len(obs.Storms) > 0 {
		strongest := obs.Storms[0]
		for _, s := range obs.Storms[1:] {
			if s.WindSpeedKmh > strongest.WindSpeedKmh {
				strongest = s
			}
		}

		switch strongest.Kind {
		case models.StormHurricane:
			if strongest.Category >= 3 {
				add("hurricane category", float64(strongest.Category), 50)
			} else {
				add("hurricane category", float64(strongest.Category), 35)
			}
		case models.StormTropicalStorm:
			add("tropical storm winds (km/h)", strongest.WindSpeedKmh, 20)
		}

		switch {
		case strongest.WindGustsKmh > 120:
			add("wind gusts (km/h)", strongest.WindGustsKmh, 25)
		case strongest.WindGustsKmh > 80:
			add("wind gusts (km/h)", strongest.WindGustsKmh, 15)
		}
	}

	if len(obs.Alerts) > 0 {
		highAlert := false
		for _, a := range obs.Alerts {
			if models.SeverityRank(a.Severity) <= models.SeverityRank(models.LevelHigh) {
				highAlert = true
				break
			}
		}
		if highAlert {
			add("active severe weather alerts", float64(len(obs.Alerts)), 20)
		} else {
			add("active weather alerts", float64(len(obs.Alerts)), 10)
		}
	}

	score := clampScore(total)
	level := LevelOf(score)
	return models.RiskScore{
		Score:           score,
		Level:           level,
		Factors:         factors,
		Reasoning:       cycloneReasoning[level],
		Recommendations: cycloneRecommendations[level],
	}
}
