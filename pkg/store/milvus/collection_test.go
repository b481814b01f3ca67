package milvus

import (
	"testing"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/stride/pkg/model"
)

func TestDistanceFilter(t *testing.T) {
	assert.Equal(t,
		`race_distance == "Half Marathon" && feature_set_id == "0123abcd"`,
		DistanceFilter(model.DistanceHalfMarathon, "0123abcd"))
}

func TestDefaultCollectionConfig(t *testing.T) {
	cfg := DefaultCollectionConfig(37)
	assert.Equal(t, DefaultCollectionName, cfg.Name)
	assert.Equal(t, 37, cfg.Dimension)
	assert.Positive(t, cfg.Shards)
	assert.Equal(t, DefaultConfig().NList, cfg.NList)
}

func TestBuildColumns(t *testing.T) {
	date := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	builds := []RaceBuild{
		{RaceID: 11, Embedding: []float32{0.1, -0.2, 0.3}, Distance: model.Distance5K, Date: date, TimeMin: 24, FeatureSetID: "abc"},
		{RaceID: 12, Embedding: []float32{0, 1, -1}, Distance: model.Distance10K, Date: date.AddDate(0, 1, 0), TimeMin: 50.5, FeatureSetID: "abc"},
	}

	columns := buildColumns(builds)
	require.Len(t, columns, 6)

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name()
		assert.Equal(t, 2, c.Len())
	}
	assert.Equal(t, []string{"race_id", embeddingField, "race_distance", "race_date", "race_time_min", "feature_set_id"}, names)

	ids, ok := columns[0].(*entity.ColumnInt64)
	require.True(t, ok)
	id, err := ids.ValueByIdx(1)
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	vectors, ok := columns[1].(*entity.ColumnFloatVector)
	require.True(t, ok)
	assert.Equal(t, 3, vectors.Dim())
	assert.Equal(t, []float32{0, 1, -1}, vectors.Data()[1])

	dist, err := columns[2].(*entity.ColumnVarChar).ValueByIdx(0)
	require.NoError(t, err)
	assert.Equal(t, "5K", dist)

	unix, err := columns[3].(*entity.ColumnInt64).ValueByIdx(0)
	require.NoError(t, err)
	assert.Equal(t, date.Unix(), unix)

	minutes, err := columns[4].(*entity.ColumnDouble).ValueByIdx(1)
	require.NoError(t, err)
	assert.InDelta(t, 50.5, minutes, 1e-9)
}
