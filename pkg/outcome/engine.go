package outcome

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/model"
)

// ErrLengthMismatch is returned when actual and predicted differ in length
var ErrLengthMismatch = errors.New("actual and predicted lengths differ")

// Result holds hold-out statistics for one distance class.
// Residuals are predicted minus actual, in minutes.
type Result struct {
	Distance    model.RaceDistance `json:"distance"`
	Samples     int                `json:"samples"`
	MAE         float64            `json:"mae"`
	RMSE        float64            `json:"rmse"`
	R2          float64            `json:"r2"`
	Bias        float64            `json:"bias"`
	ResidualP10 float64            `json:"residual_p10"`
	ResidualP50 float64            `json:"residual_p50"`
	ResidualP90 float64            `json:"residual_p90"`
}

// Evaluate scores predicted race times against actual ones.
// With no samples every statistic is NaN. R² is NaN when actual has no
// variance.
func Evaluate(distance model.RaceDistance, actual, predicted []float64) (Result, error) {
	if len(actual) != len(predicted) {
		return Result{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(actual), len(predicted))
	}

	result := Result{Distance: distance, Samples: len(actual)}
	if len(actual) == 0 {
		nan := math.NaN()
		result.MAE, result.RMSE, result.R2, result.Bias = nan, nan, nan, nan
		result.ResidualP10, result.ResidualP50, result.ResidualP90 = nan, nan, nan
		return result, nil
	}

	residuals := make([]float64, len(actual))
	floats.SubTo(residuals, predicted, actual)
	n := float64(len(actual))

	result.MAE = floats.Distance(predicted, actual, 1) / n
	result.RMSE = floats.Distance(predicted, actual, 2) / math.Sqrt(n)
	result.Bias = stat.Mean(residuals, nil)
	result.R2 = math.NaN()
	if stat.PopVariance(actual, nil) > 0 {
		result.R2 = stat.RSquaredFrom(predicted, actual, nil)
	}
	result.ResidualP10 = feature.Percentile(residuals, 0.10).Or(math.NaN())
	result.ResidualP50 = feature.Percentile(residuals, 0.50).Or(math.NaN())
	result.ResidualP90 = feature.Percentile(residuals, 0.90).Or(math.NaN())

	return result, nil
}

// String returns a formatted string representation
func (r Result) String() string {
	return fmt.Sprintf(
		"%s | Samples: %d | MAE: %.2f min | RMSE: %.2f min | R²: %.3f | Bias: %+.2f | P10: %+.2f | P50: %+.2f | P90: %+.2f",
		r.Distance, r.Samples, r.MAE, r.RMSE, r.R2, r.Bias, r.ResidualP10, r.ResidualP50, r.ResidualP90,
	)
}

// Report collects per-distance results
type Report map[model.RaceDistance]Result

// Sorted returns results ordered by canonical distance
func (rep Report) Sorted() []Result {
	out := make([]Result, 0, len(rep))
	for _, r := range rep {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Distance.CanonicalKm() < out[j].Distance.CanonicalKm()
	})
	return out
}

// Weighted returns the sample-weighted MAE and RMSE across distances
func (rep Report) Weighted() (mae, rmse float64) {
	var n, absSum, sqSum float64
	for _, r := range rep {
		if r.Samples == 0 {
			continue
		}
		s := float64(r.Samples)
		n += s
		absSum += r.MAE * s
		sqSum += r.RMSE * r.RMSE * s
	}
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	return absSum / n, math.Sqrt(sqSum / n)
}
