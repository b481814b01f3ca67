// Package predict fits per-distance race-time baselines on the race
// dataset and applies them to freshly computed training features.
package predict

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sajari/regression"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/tunogya/stride/pkg/dataset"
	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/model"
	"github.com/tunogya/stride/pkg/outcome"
)

// ErrTooFewSamples is returned when the training split cannot support
// even a single-feature fit
var ErrTooFewSamples = errors.New("too few samples to train")

// TrainConfig holds trainer settings
type TrainConfig struct {
	TestFraction float64 `toml:"test_fraction"` // chronological hold-out share
	MaxFeatures  int     `toml:"max_features"`  // upper bound on selected features
}

// DefaultTrainConfig returns an 80/20 split and at most 6 features
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		TestFraction: 0.2,
		MaxFeatures:  6,
	}
}

// Trainer fits ordinary least squares baselines
type Trainer struct {
	cfg TrainConfig
	now func() time.Time
}

// NewTrainer creates a trainer
func NewTrainer(cfg TrainConfig) *Trainer {
	if cfg.TestFraction < 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = DefaultTrainConfig().TestFraction
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = DefaultTrainConfig().MaxFeatures
	}
	return &Trainer{cfg: cfg, now: time.Now}
}

// Train fits a bundle on m. The latest TestFraction of rows (by race
// date) are held out for evaluation, then the model is refit on all
// rows with the same selected features.
func (t *Trainer) Train(m *dataset.Matrix) (*Bundle, error) {
	n := m.Rows()
	nTest := int(math.Round(float64(n) * t.cfg.TestFraction))
	nTrain := n - nTest

	// OLS with k features and an intercept needs more than k+1 rows
	k := t.cfg.MaxFeatures
	if k > nTrain-2 {
		k = nTrain - 2
	}
	if k > len(m.FeatureNames) {
		k = len(m.FeatureNames)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: %s has %d training rows", ErrTooFewSamples, m.Distance, nTrain)
	}

	trainX, trainY := m.X[:nTrain], m.Y[:nTrain]
	testX, testY := m.X[nTrain:], m.Y[nTrain:]

	scaler := feature.FitScaler(trainX)
	selected := selectFeatures(scaler.TransformAll(trainX), trainY, k)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %s has no informative features", ErrTooFewSamples, m.Distance)
	}

	holdout, err := fit(m, scaler, selected, trainX, trainY)
	if err != nil {
		return nil, err
	}

	evalX, evalY := testX, testY
	if len(evalY) == 0 {
		evalX, evalY = trainX, trainY
	}
	predicted := make([]float64, len(evalY))
	for i, x := range evalX {
		predicted[i] = holdout.predictVector(x)
	}
	eval, err := outcome.Evaluate(m.Distance, evalY, predicted)
	if err != nil {
		return nil, err
	}

	final, err := fit(m, feature.FitScaler(m.X), selected, m.X, m.Y)
	if err != nil {
		return nil, err
	}
	final.TrainedAt = t.now().UTC()
	final.TrainRows = nTrain
	final.TestRows = nTest
	final.Metrics = metricsFrom(eval)

	logrus.WithFields(logrus.Fields{
		"distance": m.Distance.String(),
		"rows":     n,
		"features": len(selected),
		"mae":      eval.MAE,
		"r2":       eval.R2,
	}).Info("trained race time model")

	return final, nil
}

// fit runs OLS on the standardized, selected columns of x
func fit(m *dataset.Matrix, scaler *feature.Scaler, selected []int, x [][]float64, y []float64) (*Bundle, error) {
	var r regression.Regression
	r.SetObserved("race_time_min")
	for i, j := range selected {
		r.SetVar(i, m.FeatureNames[j])
	}

	for i, row := range x {
		z := scaler.Transform(row)
		vars := make([]float64, len(selected))
		for c, j := range selected {
			vars[c] = z[j]
		}
		r.Train(regression.DataPoint(y[i], vars))
	}

	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("failed to fit %s: %w", m.Distance, err)
	}

	coeffs := r.GetCoeffs()
	for _, c := range coeffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: %s fit is singular", ErrTooFewSamples, m.Distance)
		}
	}

	names := append([]string(nil), m.FeatureNames...)
	return &Bundle{
		Distance:     m.Distance,
		FeatureNames: names,
		FeatureSetID: model.GenerateFeatureSetID(names),
		Selected:     append([]int(nil), selected...),
		Scaler:       scaler,
		Intercept:    coeffs[0],
		Coefficients: append([]float64(nil), coeffs[1:]...),
	}, nil
}

// selectFeatures returns the indices of the k columns most correlated
// with y in absolute value, in ascending index order. Constant columns
// are never selected.
func selectFeatures(x [][]float64, y []float64, k int) []int {
	if len(x) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var candidates []scored
	column := make([]float64, len(x))
	for j := range x[0] {
		for i, row := range x {
			column[i] = row[j]
		}
		corr := stat.Correlation(column, y, nil)
		if math.IsNaN(corr) || math.IsInf(corr, 0) {
			continue
		}
		candidates = append(candidates, scored{idx: j, score: math.Abs(corr)})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	selected := make([]int, len(candidates))
	for i, c := range candidates {
		selected[i] = c.idx
	}
	sort.Ints(selected)
	return selected
}

// TrainAll trains one bundle per distance class with enough races.
// Classes below the row floor or without a usable fit are skipped.
func (t *Trainer) TrainAll(ds *model.RaceDataset) map[model.RaceDistance]*Bundle {
	bundles := make(map[model.RaceDistance]*Bundle)
	for _, d := range model.RaceDistances {
		m, ok := dataset.PrepareMatrix(ds, d)
		if !ok {
			continue
		}
		b, err := t.Train(m)
		if err != nil {
			logrus.WithField("distance", d.String()).WithError(err).Warn("skipping distance")
			continue
		}
		bundles[d] = b
	}
	return bundles
}
