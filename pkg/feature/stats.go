package feature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tunogya/stride/pkg/model"
)

type extractor func(a *model.Activity) model.Float

func distanceKm(a *model.Activity) model.Float    { return model.Some(a.DistanceKm) }
func elevationGain(a *model.Activity) model.Float { return model.Some(a.ElevationGainM) }
func pace(a *model.Activity) model.Float          { return a.Pace() }
func avgHeartRate(a *model.Activity) model.Float  { return a.AvgHeartRate }
func movingTimeMin(a *model.Activity) model.Float { return model.Some(a.MovingTimeMin) }

// collect returns the present values in input order
func collect(runs []model.Activity, get extractor) []float64 {
	values := make([]float64, 0, len(runs))
	for i := range runs {
		if v, ok := get(&runs[i]).Get(); ok {
			values = append(values, v)
		}
	}
	return values
}

func countRuns(runs []model.Activity) model.Float {
	return model.Some(float64(len(runs)))
}

func sumOf(get extractor) func([]model.Activity) model.Float {
	return func(runs []model.Activity) model.Float {
		return model.Some(floats.Sum(collect(runs, get)))
	}
}

func meanOf(get extractor) func([]model.Activity) model.Float {
	return func(runs []model.Activity) model.Float {
		values := collect(runs, get)
		if len(values) == 0 {
			return model.Missing
		}
		return model.Some(stat.Mean(values, nil))
	}
}

func maxOf(get extractor) func([]model.Activity) model.Float {
	return func(runs []model.Activity) model.Float {
		values := collect(runs, get)
		if len(values) == 0 {
			return model.Missing
		}
		return model.Some(floats.Max(values))
	}
}

func minOf(get extractor) func([]model.Activity) model.Float {
	return func(runs []model.Activity) model.Float {
		values := collect(runs, get)
		if len(values) == 0 {
			return model.Missing
		}
		return model.Some(floats.Min(values))
	}
}

// Percentile calculates the p-th quantile (p in 0-1) with linear
// interpolation between closest ranks. The input is not modified.
func Percentile(values []float64, p float64) model.Float {
	if len(values) == 0 {
		return model.Missing
	}
	p = math.Max(0, math.Min(1, p))
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return model.Some(sorted[0])
	}

	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return model.Some(sorted[lower])
	}

	fraction := rank - float64(lower)
	return model.Some(sorted[lower] + fraction*(sorted[upper]-sorted[lower]))
}

// Median returns the middle value, averaging the two central values
// for even-length input
func Median(values []float64) model.Float {
	return Percentile(values, 0.5)
}
