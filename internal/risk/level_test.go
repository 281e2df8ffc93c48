package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

// TestLevelOf_Boundaries pins the exact step-function boundaries shared by
// every scorer and the composite index.
func TestLevelOf_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  models.Level
	}{
		{0, models.LevelLow},
		{34, models.LevelLow},
		{35, models.LevelModerate},
		{59, models.LevelModerate},
		{60, models.LevelHigh},
		{84, models.LevelHigh},
		{85, models.LevelExtreme},
		{100, models.LevelExtreme},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, LevelOf(tc.score), "LevelOf(%d)", tc.score)
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-10))
	assert.Equal(t, 0, clampScore(0))
	assert.Equal(t, 57, clampScore(57))
	assert.Equal(t, 100, clampScore(100))
	assert.Equal(t, 100, clampScore(115))
}

func TestSeverityRank_Ordering(t *testing.T) {
	ranks := []models.Level{
		models.LevelExtreme, models.LevelSevere, models.LevelHigh,
		models.LevelModerate, models.LevelLow,
	}
	for i, l := range ranks {
		assert.Equal(t, i, models.SeverityRank(l), "rank of %s", l)
	}
}
