package risk

import (
	"time"

	"github.com/kjstillabower/hazard-risk-service/internal/models"
)

const (
	swarmWindow     = 24 * time.Hour
	swarmRadiusKm   = 500.0
	tsunamiMagFloor = 7.0
)

var earthquakeReasoning = map[models.Level]string{
	models.LevelLow:      "Minor seismic activity only; no elevated risk.",
	models.LevelModerate: "Notable seismic activity detected in the region.",
	models.LevelHigh:     "Strong nearby earthquake activity; aftershocks possible.",
	models.LevelExtreme:  "Major earthquake activity close by; significant hazard present.",
}

var earthquakeRecommendations = map[models.Level][]string{
	models.LevelLow: {
		"No action needed; conditions are normal.",
	},
	models.LevelModerate: {
		"Review drop-cover-hold-on procedure.",
		"Secure heavy items that could fall.",
	},
	models.LevelHigh: {
		"Expect aftershocks; stay clear of damaged structures.",
		"Keep emergency supplies and sturdy shoes accessible.",
		"Identify safe spots in each room.",
	},
	models.LevelExtreme: {
		"Follow official guidance; aftershocks may be damaging.",
		"If near the coast and tsunami warnings are issued, move inland immediately.",
		"Shut off gas if you smell a leak.",
	},
}

// ScoreEarthquake scores seismic risk from the distance-filtered event list.
// now anchors the 24h swarm window. Pure; never raises.
//
// The tsunami bonus scans the entire list for any flagged event with
// magnitude >= 7, independent of which event is strongest or nearest.
func ScoreEarthquake(obs models.SeismicObservation, now time.Time) models.RiskScore {
	if len(obs.Events) == 0 {
		return models.RiskScore{
			Score:           0,
			Level:           models.LevelLow,
			Factors:         []models.Factor{},
			Reasoning:       "No significant seismic activity in the monitored area.",
			Recommendations: earthquakeRecommendations[models.LevelLow],
		}
	}

	strongest := obs.Events[0]
	for _, ev := range obs.Events[1:] {
		if ev.Magnitude > strongest.Magnitude {
			strongest = ev
		}
	}

	factors := []models.Factor{}
	total := 0
	add := func(name string, value float64, impact int) {
		factors = append(factors, models.Factor{Name: name, Value: value, Impact: impact})
		total += impact
	}

	switch {
	case strongest.Magnitude >= 6:
		add("strongest magnitude", strongest.Magnitude, 40)
	case strongest.Magnitude >= 5:
		add("strongest magnitude", strongest.Magnitude, 25)
	case strongest.Magnitude >= 4:
		add("strongest magnitude", strongest.Magnitude, 10)
	}

	switch {
	case strongest.DistanceKm < 100:
		add("distance (km)", strongest.DistanceKm, 25)
	case strongest.DistanceKm < 300:
		add("distance (km)", strongest.DistanceKm, 15)
	case strongest.DistanceKm < 500:
		add("distance (km)", strongest.DistanceKm, 5)
	}

	// Swarm frequency: recent events close enough to be part of one sequence.
	cutoff := now.Add(-swarmWindow).UnixMilli()
	recent := 0
	for _, ev := range obs.Events {
		if ev.TimeMs >= cutoff && ev.DistanceKm <= swarmRadiusKm {
			recent++
		}
	}
	switch {
	case recent >= 5:
		add("events in last 24h within 500km", float64(recent), 20)
	case recent >= 3:
		add("events in last 24h within 500km", float64(recent), 10)
	}

	for _, ev := range obs.Events {
		if ev.Tsunami && ev.Magnitude >= tsunamiMagFloor {
			add("tsunami-flagged event magnitude", ev.Magnitude, 15)
			break
		}
	}

	score := clampScore(total)
	level := LevelOf(score)
	return models.RiskScore{
		Score:           score,
		Level:           level,
		Factors:         factors,
		Reasoning:       earthquakeReasoning[level],
		Recommendations: earthquakeRecommendations[level],
	}
}
