package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// TestScoreHeatwave_Mapping pins the fixed qualitative-to-numeric mapping.
func TestScoreHeatwave_Mapping(t *testing.T) {
	tests := []struct {
		advisory  models.Level
		wantScore int
		wantLevel models.Level
	}{
		{models.LevelHigh, 75, models.LevelHigh},
		{models.LevelModerate, 40, models.LevelModerate},
		{models.LevelLow, 10, models.LevelLow},
	}
	for _, tc := range tests {
		got := ScoreHeatwave(models.HeatAdvisory{Level: tc.advisory})
		assert.Equal(t, tc.wantScore, got.Score, "advisory %s", tc.advisory)
		assert.Equal(t, tc.wantLevel, got.Level, "advisory %s", tc.advisory)
	}
}

func TestScoreHeatwave_Absent(t *testing.T) {
	got := ScoreHeatwave(models.HeatAdvisory{})
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, models.LevelLow, got.Level)
	assert.Contains(t, got.Reasoning, "no heat advisory")
}
