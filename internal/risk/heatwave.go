package risk

import "github.com/kjstillabower/hazard-risk-service/internal/models"

var heatwaveReasoning = map[models.Level]string{
	models.LevelLow:      "Temperatures are within the seasonal range.",
	models.LevelModerate: "A moderate heat advisory is in effect.",
	models.LevelHigh:     "A high heat advisory is in effect; heat illness risk is elevated.",
	models.LevelExtreme:  "Extreme heat conditions reported.",
}

var heatwaveRecommendations = map[models.Level][]string{
	models.LevelLow: {
		"No action needed; conditions are normal.",
	},
	models.LevelModerate: {
		"Stay hydrated and limit midday sun exposure.",
	},
	models.LevelHigh: {
		"Avoid strenuous activity during peak heat.",
		"Check on elderly neighbours and never leave anyone in a parked car.",
		"Use cooling centres if home cooling is unavailable.",
	},
	models.LevelExtreme: {
		"Treat heat as a life-safety emergency.",
		"Stay in air-conditioned spaces and drink water frequently.",
	},
}

// ScoreHeatwave adapts an externally supplied qualitative heat advisory onto
// the numeric scale so it participates in the composite index. Absence of an
// advisory scores zero.
func ScoreHeatwave(adv models.HeatAdvisory) models.RiskScore {
	var score int
	switch adv.Level {
	case models.LevelHigh:
		score = 75
	case models.LevelModerate:
		score = 40
	case models.LevelLow:
		score = 10
	default:
		return insufficientData("Heat risk cannot be assessed: no heat advisory supplied.")
	}

	level := LevelOf(score)
	factors := []models.Factor{
		{Name: "heat advisory level", Value: float64(score), Impact: score},
	}
	return models.RiskScore{
		Score:           score,
		Level:           level,
		Factors:         factors,
		Reasoning:       heatwaveReasoning[level],
		Recommendations: heatwaveRecommendations[level],
	}
}
