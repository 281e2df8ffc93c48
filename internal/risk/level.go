package risk

import "github.com/kjstillabower/hazard-risk-service/internal/models"

// LevelOf maps a clamped score to its risk band. Shared by every hazard
// scorer and the composite index.
//
// Boundaries: >=85 EXTREME, >=60 HIGH, >=35 MODERATE, else LOW.
func LevelOf(score int) models.Level {
	switch {
	case score >= 85:
		return models.LevelExtreme
	case score >= 60:
		return models.LevelHigh
	case score >= 35:
		return models.LevelModerate
	default:
		return models.LevelLow
	}
}

// clampScore bounds a raw additive factor sum into [0, 100].
func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// hasData reports whether an observation status carries usable data. Stale
// observations still score; degradation is surfaced on the assessment.
func hasData(status models.DataStatus) bool {
	return status == models.StatusFresh || status == models.StatusStale
}

// insufficientData is the well-formed low-risk default every scorer returns
// when its primary observation is absent. Scorers never raise.
func insufficientData(reason string) models.RiskScore {
	return models.RiskScore{
		Score:           0,
		Level:           models.LevelLow,
		Factors:         []models.Factor{},
		Reasoning:       reason,
		Recommendations: []string{},
	}
}
