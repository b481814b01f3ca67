package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/tunogya/stride/pkg/model"
)

func sampleDataset() *model.RaceDataset {
	return &model.RaceDataset{
		FeatureNames: []string{"past_7d_num_runs", "past_7d_avg_heartrate"},
		Rows: []model.RaceFeatureRow{
			{
				RaceID:         1,
				Date:           time.Date(2024, 4, 7, 9, 0, 0, 0, time.UTC),
				Name:           "Spring 10K",
				Distance:       model.Distance10K,
				DistanceKm:     10.02,
				TimeMin:        42.5,
				PaceMinPerKm:   model.Some(4.25),
				ElevationGainM: 35,
				AvgHeartRate:   model.Missing,
				Features: model.FeatureMap{
					"past_7d_num_runs":      model.Some(4),
					"past_7d_avg_heartrate": model.Missing,
				},
			},
			{
				RaceID:     2,
				Date:       time.Date(2024, 5, 12, 8, 30, 0, 0, time.UTC),
				Name:       "Parkrun",
				Distance:   model.Distance5K,
				DistanceKm: 5,
				TimeMin:    20,
				Features: model.FeatureMap{
					"past_7d_num_runs":      model.Some(3),
					"past_7d_avg_heartrate": model.Some(148.5),
				},
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDataset()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "race_id,race_date,race_name,race_distance,race_distance_km,race_time_min,"+
		"race_pace_min_per_km,race_elevation_gain_m,race_avg_heartrate,past_7d_num_runs,past_7d_avg_heartrate", lines[0])
	assert.Equal(t, "1,2024-04-07T09:00:00Z,Spring 10K,10K,10.02,42.5,4.25,35,,4,", lines[1])
	assert.Equal(t, "2,2024-05-12T08:30:00Z,Parkrun,5K,5,20,,0,,3,148.5", lines[2])
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "races.csv")
	require.NoError(t, WriteCSVFile(path, &model.RaceDataset{FeatureNames: []string{"a"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(raceColumns, ",")+",a\n", string(data))

	assert.Error(t, WriteCSVFile(filepath.Join(t.TempDir(), "missing", "races.csv"), sampleDataset()))
}

func TestLongRows(t *testing.T) {
	rows := longRows(sampleDataset())
	require.Len(t, rows, 4)

	assert.Equal(t, int64(1), rows[0].RaceID)
	assert.Equal(t, "past_7d_num_runs", rows[0].FeatureName)
	assert.Equal(t, int32(0), rows[0].Ordinal)
	require.NotNil(t, rows[0].Value)
	assert.InDelta(t, 4.0, *rows[0].Value, 1e-9)

	assert.Equal(t, int32(1), rows[1].Ordinal)
	assert.Nil(t, rows[1].Value)

	assert.Equal(t, "5K", rows[3].RaceDistance)
	assert.Equal(t, "2024-05-12T08:30:00Z", rows[3].RaceDate)
	assert.InDelta(t, 148.5, *rows[3].Value, 1e-9)

	assert.Nil(t, longRows(&model.RaceDataset{}))
}

func TestMarshalParquet(t *testing.T) {
	data, err := MarshalParquet(sampleDataset())
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))

	pr, err := reader.NewParquetReader(buffer.NewBufferFileFromBytes(data), new(featureValueRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()
	assert.Equal(t, int64(4), pr.GetNumRows())
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "race_features.parquet")
	require.NoError(t, WriteParquet(path, sampleDataset()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
