package risk

import (
	"math"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// Weights are the fixed per-hazard contributions to the composite index.
// They sum to exactly 1.0.
var Weights = map[models.Hazard]float64{
	models.HazardFlood:      0.25,
	models.HazardWildfire:   0.20,
	models.HazardEarthquake: 0.20,
	models.HazardCyclone:    0.25,
	models.HazardHeatwave:   0.10,
}

const (
	highRiskThreshold = 60
	amplificationStep = 0.1
)

// Composite combines the per-hazard scores into one weighted 0-100 index.
// When two or more hazards independently reach the HIGH threshold, the index
// is amplified to reflect correlated risk. Deterministic and monotonic in
// every individual score.
func Composite(scores map[models.Hazard]models.RiskScore) models.CompositeRiskIndex {
	breakdown := make(map[models.Hazard]int, len(models.HazardOrder))
	weights := make(map[models.Hazard]float64, len(Weights))

	weighted := 0.0
	highRisk := 0
	for _, h := range models.HazardOrder {
		s := scores[h].Score
		breakdown[h] = s
		weights[h] = Weights[h]
		weighted += float64(s) * Weights[h]
		if s >= highRiskThreshold {
			highRisk++
		}
	}

	amplification := 1.0
	if highRisk > 1 {
		amplification = 1 + float64(highRisk)*amplificationStep
	}
	final := clampScore(int(math.Round(weighted * amplification)))

	primary := "None"
	best := 0
	for _, h := range models.HazardOrder {
		if breakdown[h] > best {
			best = breakdown[h]
			primary = string(h)
		}
	}

	return models.CompositeRiskIndex{
		Score:          final,
		Level:          LevelOf(final),
		PrimaryConcern: primary,
		Breakdown:      breakdown,
		Weights:        weights,
		HighRiskCount:  highRisk,
	}
}
