package duckdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/stride/pkg/model"
)

func openMemory(t *testing.T) *Client {
	t.Helper()
	c, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestActivityRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewActivityRepo(openMemory(t))
	t0 := time.Date(2024, 3, 2, 7, 0, 0, 0, time.UTC)

	workout := 1
	acts := []model.Activity{
		{
			ID: 2, Name: "Race", Type: model.ActivityTypeRun,
			DistanceKm: 10, MovingTimeMin: 40, ElapsedTimeMin: 41,
			ElevationGainM: 35, StartDate: t0,
			AvgHeartRate: model.Some(171.5), PRCount: 2, AchievementCount: 4,
			WorkoutType: &workout,
		},
		{
			ID: 1, Type: "Ride",
			DistanceKm: 40, MovingTimeMin: 90, StartDate: t0.Add(-24 * time.Hour),
		},
	}
	require.NoError(t, repo.InsertBatch(ctx, acts))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	loaded, err := repo.FetchActivities(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, int64(1), loaded[0].ID)
	assert.True(t, loaded[0].AvgHeartRate.IsMissing())
	assert.Nil(t, loaded[0].WorkoutType)

	race := loaded[1]
	assert.Equal(t, "Race", race.Name)
	assert.True(t, t0.Equal(race.StartDate))
	assert.InDelta(t, 171.5, race.AvgHeartRate.V, 1e-9)
	assert.True(t, race.MaxHeartRate.IsMissing())
	assert.Equal(t, 2, race.PRCount)
	assert.Equal(t, 4, race.AchievementCount)
	require.NotNil(t, race.WorkoutType)
	assert.Equal(t, 1, *race.WorkoutType)
}

func raceDataset(ids ...int64) *model.RaceDataset {
	t0 := time.Date(2024, 4, 7, 9, 0, 0, 0, time.UTC)
	ds := &model.RaceDataset{FeatureNames: []string{"past_7d_num_runs", "past_7d_avg_heartrate"}}
	for i, id := range ids {
		ds.Rows = append(ds.Rows, model.RaceFeatureRow{
			RaceID:       id,
			Date:         t0.Add(time.Duration(i) * 7 * 24 * time.Hour),
			Name:         "10K",
			Distance:     model.Distance10K,
			DistanceKm:   10,
			TimeMin:      40 + float64(i),
			PaceMinPerKm: model.Some(4 + float64(i)/10),
			Features: model.FeatureMap{
				"past_7d_num_runs":      model.Some(float64(3 + i)),
				"past_7d_avg_heartrate": model.Missing,
			},
		})
	}
	return ds
}

func TestRaceRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRaceRepo(openMemory(t))

	ds := raceDataset(11, 12)
	require.NoError(t, repo.ReplaceDataset(ctx, ds))

	loaded, err := repo.LoadDataset(ctx)
	require.NoError(t, err)
	assert.Equal(t, ds.FeatureNames, loaded.FeatureNames)
	require.Len(t, loaded.Rows, 2)

	for i, want := range ds.Rows {
		got := loaded.Rows[i]
		assert.Equal(t, want.RaceID, got.RaceID)
		assert.True(t, want.Date.Equal(got.Date))
		assert.Equal(t, model.Distance10K, got.Distance)
		assert.InDelta(t, want.TimeMin, got.TimeMin, 1e-9)
		assert.InDelta(t, want.PaceMinPerKm.V, got.PaceMinPerKm.V, 1e-9)
		assert.True(t, got.AvgHeartRate.IsMissing())
		assert.Equal(t, want.Features, got.Features)
	}
}

func TestRaceRepo_Replace(t *testing.T) {
	ctx := context.Background()
	repo := NewRaceRepo(openMemory(t))

	require.NoError(t, repo.ReplaceDataset(ctx, raceDataset(1, 2, 3)))
	require.NoError(t, repo.ReplaceDataset(ctx, raceDataset(2, 4)))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.InsertDataset(ctx, raceDataset(5)))
	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, repo.ReplaceDataset(ctx, &model.RaceDataset{}))
	loaded, err := repo.LoadDataset(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())
}

func TestDropAllTables(t *testing.T) {
	c := openMemory(t)
	require.NoError(t, DropAllTables(c))
	require.NoError(t, InitializeSchema(c))

	count, err := NewActivityRepo(c).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
