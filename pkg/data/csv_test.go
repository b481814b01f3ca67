package data

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/stride/pkg/model"
)

const activityLog = `id,name,type,distance,moving_time,elapsed_time,total_elevation_gain,start_date,start_date_local,average_heartrate,pr_count,achievement_count,workout_type
11,Morning Run,Run,10000,2400,2500,55.5,2024-03-02T07:00:00Z,2024-03-02T08:00:00+01:00,152.5,1,3,1
12,Easy,Run,5000,1800,,,2024-03-01 06:30:00,,nan,,,
13,Broken,Run,not-a-number,1800,,,2024-03-03T07:00:00Z,,,,,
14,Ride,Ride,40000.0,5400,5600,300,2024-03-04,,,0,0,
`

func TestReadActivitiesCSV(t *testing.T) {
	acts, err := ReadActivitiesCSV(strings.NewReader(activityLog))
	require.NoError(t, err)
	require.Len(t, acts, 3)

	a := acts[0]
	assert.Equal(t, int64(11), a.ID)
	assert.Equal(t, "Morning Run", a.Name)
	assert.True(t, a.IsRun())
	assert.InDelta(t, 10.0, a.DistanceKm, 1e-9)
	assert.InDelta(t, 40.0, a.MovingTimeMin, 1e-9)
	assert.InDelta(t, 2500.0/60, a.ElapsedTimeMin, 1e-9)
	assert.InDelta(t, 55.5, a.ElevationGainM, 1e-9)
	assert.Equal(t, time.Date(2024, 3, 2, 7, 0, 0, 0, time.UTC), a.StartDate)
	assert.True(t, a.StartDateLocal.Equal(a.StartDate))
	assert.InDelta(t, 152.5, a.AvgHeartRate.V, 1e-9)
	assert.Equal(t, 1, a.PRCount)
	assert.Equal(t, 3, a.AchievementCount)
	require.NotNil(t, a.WorkoutType)
	assert.Equal(t, 1, *a.WorkoutType)

	easy := acts[1]
	assert.Equal(t, time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC), easy.StartDate)
	assert.Equal(t, easy.StartDate, easy.StartDateLocal)
	assert.InDelta(t, 30.0, easy.ElapsedTimeMin, 1e-9)
	assert.True(t, easy.AvgHeartRate.IsMissing())
	assert.Zero(t, easy.ElevationGainM)
	assert.Nil(t, easy.WorkoutType)

	assert.Equal(t, int64(14), acts[2].ID)
	assert.Equal(t, "Ride", acts[2].Type)
}

func TestReadActivitiesCSV_MissingColumn(t *testing.T) {
	_, err := ReadActivitiesCSV(strings.NewReader("id,type,distance,start_date\n1,Run,5000,2024-01-01\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "moving_time")

	_, err = ReadActivitiesCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadActivitiesCSV_ByteOrderMark(t *testing.T) {
	input := "\ufeffid,type,distance,moving_time,start_date\n7,Run,5000,1500,2024-01-01T00:00:00Z\n"
	acts, err := ReadActivitiesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.InDelta(t, 5.0, acts[0].Pace().V, 1e-9)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	for _, s := range []string{
		"2024-05-06T07:08:09Z",
		"2024-05-06T09:08:09+02:00",
		"2024-05-06 07:08:09+00:00",
		"2024-05-06T07:08:09",
		" 2024-05-06 07:08:09 ",
	} {
		got, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), "%s parsed as %s", s, got)
	}

	day, err := ParseTimestamp("2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseTimestamp("06/05/2024")
	assert.Error(t, err)
}

func TestCSVProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.csv")
	require.NoError(t, os.WriteFile(path, []byte(activityLog), 0o644))

	p := NewCSVProvider(path)
	first, err := p.FetchActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 3)

	first[0].Name = "changed"
	second, err := p.FetchActivities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Morning Run", second[0].Name)

	_, err = NewCSVProvider(filepath.Join(t.TempDir(), "missing.csv")).FetchActivities(context.Background())
	assert.Error(t, err)
}

func TestLatestStart(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	acts := []model.Activity{{ID: 2, StartDate: t0.Add(time.Hour)}, {ID: 1, StartDate: t0}}

	latest, ok := LatestStart(acts)
	require.True(t, ok)
	assert.Equal(t, t0.Add(time.Hour), latest)

	_, ok = LatestStart(nil)
	assert.False(t, ok)
}

func TestSortByStart(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	acts := []model.Activity{
		{ID: 3, StartDate: t0.Add(time.Hour)},
		{ID: 2, StartDate: t0},
		{ID: 1, StartDate: t0},
	}

	SortByStart(acts)
	assert.Equal(t, int64(1), acts[0].ID)
	assert.Equal(t, int64(2), acts[1].ID)
	assert.Equal(t, int64(3), acts[2].ID)
}

func TestFITProvider_SkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.fit"), []byte("not a fit file"), 0o644))

	acts, err := NewFITProvider(dir).FetchActivities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, acts)

	_, err = ReadFITActivity(filepath.Join(dir, "missing.fit"))
	assert.Error(t, err)
}
