package dataset

import (
	"github.com/sirupsen/logrus"

	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/model"
)

// MinRacesPerDistance is the row floor below which a distance class is skipped
const MinRacesPerDistance = 5

// Matrix is a model-ready numeric view of one distance class
type Matrix struct {
	Distance     model.RaceDistance
	X            [][]float64
	Y            []float64
	FeatureNames []string
	Source       []model.RaceFeatureRow // filtered rows, same order as X
}

// Rows returns the number of samples
func (m *Matrix) Rows() int {
	return len(m.Y)
}

// PrepareMatrix filters ds to target and returns features, targets
// (race time in minutes) and the authoritative feature order. Missing
// values are replaced with the column median over the filtered rows.
// It returns false when fewer than MinRacesPerDistance rows match.
func PrepareMatrix(ds *model.RaceDataset, target model.RaceDistance) (*Matrix, bool) {
	var rows []model.RaceFeatureRow
	if ds != nil {
		for _, r := range ds.Rows {
			if r.Distance == target {
				rows = append(rows, r)
			}
		}
	}

	if len(rows) < MinRacesPerDistance {
		logrus.WithFields(logrus.Fields{
			"distance": target.String(),
			"races":    len(rows),
			"required": MinRacesPerDistance,
		}).Warn("not enough races for reliable predictions, skipping distance")
		return nil, false
	}

	names := append([]string(nil), ds.FeatureNames...)
	m := &Matrix{
		Distance:     target,
		X:            make([][]float64, len(rows)),
		Y:            make([]float64, len(rows)),
		FeatureNames: names,
		Source:       rows,
	}

	medians := columnMedians(rows, names, target)
	for i, r := range rows {
		m.Y[i] = r.TimeMin
		x := make([]float64, len(names))
		for j, name := range names {
			x[j] = r.Features.Get(name).Or(medians[j])
		}
		m.X[i] = x
	}

	return m, true
}

// columnMedians computes the imputation value for each feature column.
// A column with no values at all is imputed with 0.
func columnMedians(rows []model.RaceFeatureRow, names []string, target model.RaceDistance) []float64 {
	medians := make([]float64, len(names))
	values := make([]float64, 0, len(rows))
	for j, name := range names {
		values = values[:0]
		for _, r := range rows {
			if v, ok := r.Features.Get(name).Get(); ok {
				values = append(values, v)
			}
		}
		median, ok := feature.Median(values).Get()
		if !ok {
			logrus.WithFields(logrus.Fields{
				"distance": target.String(),
				"feature":  name,
			}).Debug("feature has no values, imputing 0")
			median = 0
		}
		medians[j] = median
	}
	return medians
}

// Align orders a freshly computed feature map by names for a trained
// model. Keys the map lacks and missing values both become 0.
func Align(features model.FeatureMap, names []string) []float64 {
	x := make([]float64, len(names))
	for j, name := range names {
		x[j] = features.Get(name).Or(0)
	}
	return x
}
