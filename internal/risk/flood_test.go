package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

func freshPrecip(total7, total3 float64, daily []float64) models.PrecipitationObservation {
	return models.PrecipitationObservation{
		Daily:     daily,
		Total7Day: total7,
		Total3Day: total3,
		Status:    models.StatusFresh,
	}
}

func freshSnapshot(intensity float64) models.StormObservation {
	return models.StormObservation{
		Current: models.WeatherSnapshot{Precipitation: intensity},
		Status:  models.StatusFresh,
	}
}

// TestScoreFlood_ExtremeScenario exercises the saturated case: every factor
// tier fires, the raw sum exceeds 100 and is clamped.
func TestScoreFlood_ExtremeScenario(t *testing.T) {
	precip := freshPrecip(160, 110, []float64{5, 3, 8, 20, 15, 30, 12})

	got := ScoreFlood(precip, freshSnapshot(12))

	// 40 (7-day) + 35 (3-day) + 25 (intensity) + 15 (7 wet days) = 115 -> 100
	assert.Equal(t, 100, got.Score)
	assert.Equal(t, models.LevelExtreme, got.Level)
	require.Len(t, got.Factors, 4)
	assert.NotEmpty(t, got.Reasoning)
	assert.NotEmpty(t, got.Recommendations)
}

func TestScoreFlood_FactorTiers(t *testing.T) {
	tests := []struct {
		name      string
		precip    models.PrecipitationObservation
		intensity float64
		want      int
	}{
		{"dry week", freshPrecip(0, 0, []float64{0, 0, 0, 0, 0, 0, 0}), 0, 0},
		{"mid 7-day tier only", freshPrecip(120, 0, nil), 0, 25},
		{"low 7-day tier only", freshPrecip(60, 0, nil), 0, 10},
		{"mid 3-day tier only", freshPrecip(0, 70, nil), 0, 20},
		{"low 3-day tier only", freshPrecip(0, 31, nil), 0, 8},
		{"moderate intensity only", freshPrecip(0, 0, nil), 7, 15},
		{"three wet days only", freshPrecip(0, 0, []float64{2, 0, 3, 0, 4, 0, 0}), 0, 8},
		{"boundary not crossed at exactly 50", freshPrecip(50, 0, nil), 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreFlood(tc.precip, freshSnapshot(tc.intensity))
			assert.Equal(t, tc.want, got.Score)
		})
	}
}

// TestScoreFlood_Monotonic verifies that increasing a single factor never
// decreases the score.
func TestScoreFlood_Monotonic(t *testing.T) {
	prev := -1
	for _, total7 := range []float64{0, 40, 60, 90, 110, 140, 160, 300} {
		got := ScoreFlood(freshPrecip(total7, 0, nil), freshSnapshot(0))
		assert.GreaterOrEqual(t, got.Score, prev, "total7Day=%v", total7)
		prev = got.Score
	}
}

func TestScoreFlood_NoData(t *testing.T) {
	got := ScoreFlood(
		models.PrecipitationObservation{Status: models.StatusUnavailable},
		models.StormObservation{Status: models.StatusUnavailable},
	)
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, models.LevelLow, got.Level)
	assert.Contains(t, got.Reasoning, "no precipitation data")
	assert.NotNil(t, got.Factors)
}

// A fresh snapshot still contributes the intensity factor when the
// precipitation history is unavailable; only the history factors are skipped.
func TestScoreFlood_IntensityScoresWithoutHistory(t *testing.T) {
	got := ScoreFlood(
		models.PrecipitationObservation{Status: models.StatusUnavailable},
		freshSnapshot(12),
	)
	assert.Equal(t, 25, got.Score)
	require.Len(t, got.Factors, 1)
	assert.Equal(t, "current intensity (mm/hr)", got.Factors[0].Name)
}

// Symmetrically, usable history scores on its own when the snapshot is
// unavailable.
func TestScoreFlood_HistoryScoresWithoutSnapshot(t *testing.T) {
	got := ScoreFlood(
		freshPrecip(160, 110, nil),
		models.StormObservation{Status: models.StatusUnavailable},
	)
	assert.Equal(t, 75, got.Score)
	assert.Equal(t, models.LevelHigh, got.Level)
}

// Stale observations still score; degradation is surfaced separately.
func TestScoreFlood_StaleDataStillScores(t *testing.T) {
	precip := freshPrecip(160, 110, nil)
	precip.Status = models.StatusStale
	got := ScoreFlood(precip, models.StormObservation{Status: models.StatusStale})
	assert.Equal(t, 75, got.Score)
	assert.Equal(t, models.LevelHigh, got.Level)
}
