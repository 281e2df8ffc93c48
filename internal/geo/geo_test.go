package geo

import (
	"math"
	"testing"
)

// TestHaversineKm_IdenticalPoints verifies distance(a, a) == 0.
func TestHaversineKm_IdenticalPoints(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{47.6062, -122.3321},
		{-33.8688, 151.2093},
		{90, 0},
	}
	for _, p := range points {
		if d := HaversineKm(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("HaversineKm(%v, %v, same) = %v, want 0", p[0], p[1], d)
		}
	}
}

// TestHaversineKm_Symmetric verifies distance(a, b) == distance(b, a).
func TestHaversineKm_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{47.6062, -122.3321, 45.5152, -122.6784}, // Seattle <-> Portland
		{35.6762, 139.6503, -33.8688, 151.2093},  // Tokyo <-> Sydney
		{0, 0, 0, 180},
	}
	for _, p := range pairs {
		ab := HaversineKm(p[0], p[1], p[2], p[3])
		ba := HaversineKm(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("asymmetric distance: %v vs %v for %v", ab, ba, p)
		}
	}
}

// TestHaversineKm_KnownDistance checks a well-known city pair within tolerance.
func TestHaversineKm_KnownDistance(t *testing.T) {
	// Seattle to Portland is roughly 233 km great-circle.
	d := HaversineKm(47.6062, -122.3321, 45.5152, -122.6784)
	if d < 225 || d > 245 {
		t.Errorf("Seattle-Portland distance = %v km, want ~233 km", d)
	}
}
