package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaceMinPerKm(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		movingMin  float64
		want       Float
	}{
		{name: "10k in 50 min", distanceKm: 10, movingMin: 50, want: Some(5)},
		{name: "half marathon", distanceKm: 21.3, movingMin: 95, want: Some(95 / 21.3)},
		{name: "zero distance", distanceKm: 0, movingMin: 30, want: Missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PaceMinPerKm(tt.distanceKm, tt.movingMin))
		})
	}
}

func TestRuns_FiltersByType(t *testing.T) {
	activities := []Activity{
		{ID: 1, Type: ActivityTypeRun},
		{ID: 2, Type: "Ride"},
		{ID: 3, Type: "run"},
		{ID: 4, Type: ActivityTypeRun},
	}

	runs := Runs(activities)
	assert.Len(t, runs, 2)
	assert.Equal(t, int64(1), runs[0].ID)
	assert.Equal(t, int64(4), runs[1].ID)
	assert.Len(t, activities, 4)
}

func TestRaceDistance(t *testing.T) {
	d, ok := ParseRaceDistance("half marathon")
	assert.True(t, ok)
	assert.Equal(t, DistanceHalfMarathon, d)
	assert.Equal(t, "Half_Marathon", d.Slug())
	assert.InDelta(t, 21.0975, d.CanonicalKm(), 1e-9)

	_, ok = ParseRaceDistance("ultra")
	assert.False(t, ok)
	assert.Equal(t, "none", DistanceNone.String())
}

func TestGenerateFeatureSetID(t *testing.T) {
	a := GenerateFeatureSetID([]string{"x", "y"})
	assert.Len(t, a, 16)
	assert.Equal(t, a, GenerateFeatureSetID([]string{"x", "y"}))
	assert.NotEqual(t, a, GenerateFeatureSetID([]string{"y", "x"}))
}
