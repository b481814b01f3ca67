package race

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/stride/pkg/model"
)

var base = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func run(id int64, km, minutes float64) model.Activity {
	return model.Activity{
		ID:            id,
		Type:          model.ActivityTypeRun,
		DistanceKm:    km,
		MovingTimeMin: minutes,
		StartDate:     base.Add(time.Duration(id) * 24 * time.Hour),
	}
}

func TestClassifyDistance(t *testing.T) {
	c := NewClassifier(DefaultPolicy())

	tests := []struct {
		km   float64
		want model.RaceDistance
	}{
		{4.49, model.DistanceNone},
		{4.5, model.Distance5K},
		{5.5, model.Distance5K},
		{5.51, model.DistanceNone},
		{10.0, model.Distance10K},
		{21.3, model.DistanceHalfMarathon},
		{42.5, model.DistanceMarathon},
		{42.6, model.DistanceNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.ClassifyDistance(tt.km), "%.2f km", tt.km)
	}
}

func TestClassify_HalfMarathonByPace(t *testing.T) {
	activities := []model.Activity{
		run(1, 8, 48),
		run(2, 21.3, 95),
		run(3, 8, 48),
		run(4, 8, 48),
	}

	races := Classify(activities)
	require.Len(t, races, 1)
	assert.Equal(t, int64(2), races[0].ID)
	assert.Equal(t, model.DistanceHalfMarathon, races[0].Distance)
	assert.InDelta(t, 4.46, races[0].Pace().V, 0.01)
	assert.True(t, races[0].Candidate)
}

func TestClassify_Empty(t *testing.T) {
	assert.Empty(t, Classify(nil))

	ride := run(1, 40, 90)
	ride.Type = "Ride"
	assert.Empty(t, Classify([]model.Activity{ride}))
}

func TestClassify_MarkerBranches(t *testing.T) {
	pr := run(1, 3, 20)
	pr.PRCount = 1

	achievements := run(2, 7, 45)
	achievements.AchievementCount = 3

	twoAchievements := run(3, 7, 45)
	twoAchievements.AchievementCount = 2

	races := Classify([]model.Activity{pr, achievements, twoAchievements})
	require.Len(t, races, 2)
	assert.Equal(t, int64(1), races[0].ID)
	assert.Equal(t, model.DistanceNone, races[0].Distance)
	assert.Equal(t, int64(2), races[1].ID)
}

func TestClassify_PaceBranchNeedsMinimumDistance(t *testing.T) {
	// 4.6 km lands in the 5K bucket but under the 5.0 km floor
	short := run(1, 4.6, 18)
	activities := []model.Activity{short, run(2, 8, 48), run(3, 8, 48), run(4, 8, 48)}

	annotated := NewClassifier(DefaultPolicy()).Annotate(activities)
	require.Len(t, annotated, 4)
	assert.Equal(t, model.Distance5K, annotated[0].Distance)
	assert.False(t, annotated[0].Candidate)

	lenient := DefaultPolicy()
	lenient.MinDistanceKm = 4.5
	races := NewClassifier(lenient).Classify(activities)
	require.Len(t, races, 1)
	assert.Equal(t, int64(1), races[0].ID)
}

func TestClassify_ZeroDistanceRunHasNoPace(t *testing.T) {
	treadmill := run(1, 0, 30)
	races := Classify([]model.Activity{treadmill, run(2, 10, 40)})

	// the threshold comes from the single paced run, which meets it
	require.Len(t, races, 1)
	assert.Equal(t, int64(2), races[0].ID)
}

func TestPaceThreshold(t *testing.T) {
	c := NewClassifier(DefaultPolicy())
	assert.True(t, c.PaceThreshold(nil).IsMissing())

	threshold := c.PaceThreshold([]model.Activity{run(1, 10, 50), run(2, 10, 60)})
	assert.InDelta(t, 5.25, threshold.V, 1e-9)
}

func TestNewClassifier_DefaultsBuckets(t *testing.T) {
	c := NewClassifier(Policy{PacePercentile: 0.25})
	assert.Equal(t, DefaultBuckets(), c.Policy().Buckets)
}
