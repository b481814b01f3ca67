package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaler(t *testing.T) {
	rows := [][]float64{
		{1, 10},
		{3, 10},
	}
	s := FitScaler(rows)

	require.Len(t, s.Mean, 2)
	assert.Equal(t, []float64{2, 10}, s.Mean)
	assert.Equal(t, []float64{1, 1}, s.Std) // constant column keeps std 1

	assert.Equal(t, []float64{-1, 0}, s.Transform(rows[0]))
	assert.Equal(t, [][]float64{{-1, 0}, {1, 0}}, s.TransformAll(rows))
}

func TestScaler_Embed(t *testing.T) {
	s := &Scaler{Mean: []float64{0, 0}, Std: []float64{1, 1}}

	v := s.Embed([]float64{1.5, -10}, 3)
	assert.InDelta(t, 0.5, v[0], 1e-6)
	assert.InDelta(t, -1.0, v[1], 1e-6)
}

func TestFitScaler_PopulationStd(t *testing.T) {
	s := FitScaler([][]float64{{2}, {4}, {4}, {4}, {5}, {5}, {7}, {9}})

	assert.InDelta(t, 5.0, s.Mean[0], 1e-12)
	assert.InDelta(t, 2.0, s.Std[0], 1e-12)
}
