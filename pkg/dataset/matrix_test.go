package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/stride/pkg/model"
	"github.com/tunogya/stride/pkg/race"
)

func row(id int64, d model.RaceDistance, minutes float64, features model.FeatureMap) model.RaceFeatureRow {
	return model.RaceFeatureRow{
		RaceID:   id,
		Date:     at(int(id), 9),
		Distance: d,
		TimeMin:  minutes,
		Features: features,
	}
}

func fiveKDataset() *model.RaceDataset {
	return &model.RaceDataset{
		FeatureNames: []string{"a", "b", "c"},
		Rows: []model.RaceFeatureRow{
			row(1, model.Distance5K, 25, model.FeatureMap{"a": model.Some(2), "b": model.Missing}),
			row(2, model.Distance5K, 24, model.FeatureMap{"a": model.Missing, "b": model.Missing}),
			row(3, model.Distance10K, 50, model.FeatureMap{"a": model.Some(100), "b": model.Some(1)}),
			row(4, model.Distance5K, 23, model.FeatureMap{"a": model.Some(4), "b": model.Missing}),
			row(5, model.Distance5K, 22, model.FeatureMap{"a": model.Some(10), "b": model.Missing}),
			row(6, model.Distance5K, 21, model.FeatureMap{"a": model.Missing, "b": model.Missing}),
		},
	}
}

func TestPrepareMatrix(t *testing.T) {
	m, ok := PrepareMatrix(fiveKDataset(), model.Distance5K)
	require.True(t, ok)

	assert.Equal(t, model.Distance5K, m.Distance)
	assert.Equal(t, 5, m.Rows())
	assert.Equal(t, []string{"a", "b", "c"}, m.FeatureNames)
	assert.Equal(t, []float64{25, 24, 23, 22, 21}, m.Y)

	// a: median of {2, 4, 10}; b and c have no values at all
	assert.Equal(t, [][]float64{
		{2, 0, 0},
		{4, 0, 0},
		{4, 0, 0},
		{10, 0, 0},
		{4, 0, 0},
	}, m.X)

	for _, r := range m.Source {
		assert.Equal(t, model.Distance5K, r.Distance)
	}
}

func TestPrepareMatrix_TooFewRaces(t *testing.T) {
	ds := fiveKDataset()

	m, ok := PrepareMatrix(ds, model.Distance10K)
	assert.False(t, ok)
	assert.Nil(t, m)

	ds.Rows = ds.Rows[:4]
	m, ok = PrepareMatrix(ds, model.Distance5K)
	assert.False(t, ok)
	assert.Nil(t, m)

	m, ok = PrepareMatrix(nil, model.Distance5K)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestPrepareMatrix_DoesNotModifyDataset(t *testing.T) {
	ds := fiveKDataset()
	_, ok := PrepareMatrix(ds, model.Distance5K)
	require.True(t, ok)

	assert.True(t, ds.Rows[1].Features["a"].IsMissing())
	assert.Len(t, ds.Rows, 6)
}

func TestAlign(t *testing.T) {
	features := model.FeatureMap{
		"b": model.Some(2),
		"a": model.Some(1),
		"x": model.Some(99),
		"m": model.Missing,
	}

	assert.Equal(t, []float64{1, 2, 0, 0}, Align(features, []string{"a", "b", "m", "absent"}))
	assert.Empty(t, Align(features, nil))
}

// tenKSeason has daily easy runs and six 10K PR efforts
func tenKSeason() []model.Activity {
	var acts []model.Activity
	for day := 1; day <= 60; day++ {
		acts = append(acts, run(int64(day), at(day, 7), 8, 48))
	}
	for i := 1; i <= 6; i++ {
		r := run(int64(100+i), at(i*10, 18), 10, 44-float64(i))
		r.PRCount = 1
		acts = append(acts, r)
	}
	return acts
}

func TestPrepareMatrix_StableFeatureOrder(t *testing.T) {
	b := DefaultBuilder()
	ds := b.Build(tenKSeason())

	first, ok := PrepareMatrix(ds, model.Distance10K)
	require.True(t, ok)
	second, ok := PrepareMatrix(ds, model.Distance10K)
	require.True(t, ok)

	assert.Equal(t, b.FeatureNames(), first.FeatureNames)
	assert.Equal(t, first.FeatureNames, second.FeatureNames)
	assert.Equal(t, first.X, second.X)

	first.FeatureNames[0] = "renamed"
	assert.Equal(t, b.FeatureNames()[0], second.FeatureNames[0])
	assert.Equal(t, b.FeatureNames()[0], ds.FeatureNames[0])
}

func TestPrepareMatrix_ThreeFiveKsDecline(t *testing.T) {
	fiveK := func(id int64, month time.Month, minutes float64) model.Activity {
		return run(id, time.Date(2024, month, 1, 8, 0, 0, 0, time.UTC), 5, minutes)
	}
	acts := []model.Activity{
		fiveK(1, time.January, 25.0),
		fiveK(2, time.February, 24.5),
		fiveK(3, time.March, 24.0),
	}

	for _, r := range race.NewClassifier(race.DefaultPolicy()).Annotate(acts) {
		assert.Equal(t, model.Distance5K, r.Distance)
	}

	ds := DefaultBuilder().Build(acts)
	assert.LessOrEqual(t, len(ds.Rows), 3)
	m, ok := PrepareMatrix(ds, model.Distance5K)
	assert.False(t, ok)
	assert.Nil(t, m)

	// all three as candidates still fall under the five-race floor
	for i := range acts {
		acts[i].PRCount = 1
	}
	ds = DefaultBuilder().Build(acts)
	require.Len(t, ds.Rows, 3)
	m, ok = PrepareMatrix(ds, model.Distance5K)
	assert.False(t, ok)
	assert.Nil(t, m)
}
