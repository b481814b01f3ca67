package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/tunogya/stride/pkg/dataset"
	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/model"
	"github.com/tunogya/stride/pkg/outcome"
)

// ErrModelNotFound is returned when no bundle exists for a distance
var ErrModelNotFound = errors.New("model not found")

// Metrics are the hold-out statistics stored with a bundle.
// Values that could not be computed are missing.
type Metrics struct {
	Samples     int         `json:"samples"`
	MAE         model.Float `json:"mae"`
	RMSE        model.Float `json:"rmse"`
	R2          model.Float `json:"r2"`
	Bias        model.Float `json:"bias"`
	ResidualP10 model.Float `json:"residual_p10"`
	ResidualP50 model.Float `json:"residual_p50"`
	ResidualP90 model.Float `json:"residual_p90"`
}

func metricsFrom(r outcome.Result) Metrics {
	return Metrics{
		Samples:     r.Samples,
		MAE:         model.Some(r.MAE),
		RMSE:        model.Some(r.RMSE),
		R2:          model.Some(r.R2),
		Bias:        model.Some(r.Bias),
		ResidualP10: model.Some(r.ResidualP10),
		ResidualP50: model.Some(r.ResidualP50),
		ResidualP90: model.Some(r.ResidualP90),
	}
}

// Result converts the stored metrics back into an evaluation result.
// Missing statistics become NaN.
func (m Metrics) Result(distance model.RaceDistance) outcome.Result {
	nan := math.NaN()
	return outcome.Result{
		Distance:    distance,
		Samples:     m.Samples,
		MAE:         m.MAE.Or(nan),
		RMSE:        m.RMSE.Or(nan),
		R2:          m.R2.Or(nan),
		Bias:        m.Bias.Or(nan),
		ResidualP10: m.ResidualP10.Or(nan),
		ResidualP50: m.ResidualP50.Or(nan),
		ResidualP90: m.ResidualP90.Or(nan),
	}
}

// Bundle is a trained race-time model for one distance class.
// FeatureNames is the frozen order the model was trained on; the scaler
// covers all of them and Selected picks the regressors.
type Bundle struct {
	Distance     model.RaceDistance `json:"distance"`
	FeatureNames []string           `json:"feature_names"`
	FeatureSetID string             `json:"feature_set_id"`
	Selected     []int              `json:"selected"`
	Scaler       *feature.Scaler    `json:"scaler"`
	Intercept    float64            `json:"intercept"`
	Coefficients []float64          `json:"coefficients"`
	TrainedAt    time.Time          `json:"trained_at"`
	TrainRows    int                `json:"train_rows"`
	TestRows     int                `json:"test_rows"`
	Metrics      Metrics            `json:"metrics"`
}

// Prediction is a predicted finishing time at one reference instant
type Prediction struct {
	Distance      model.RaceDistance `json:"distance"`
	At            time.Time          `json:"at"`
	TimeMin       float64            `json:"predicted_time_min"`
	Formatted     string             `json:"predicted_time"`
	PaceMinPerKm  model.Float        `json:"predicted_pace_min_per_km"`
	FormattedPace string             `json:"predicted_pace"`
}

// SelectedFeatures returns the names of the regressors
func (b *Bundle) SelectedFeatures() []string {
	names := make([]string, len(b.Selected))
	for i, j := range b.Selected {
		names[i] = b.FeatureNames[j]
	}
	return names
}

// predictVector applies the model to a vector in FeatureNames order
func (b *Bundle) predictVector(x []float64) float64 {
	z := b.Scaler.Transform(x)
	y := b.Intercept
	for c, j := range b.Selected {
		y += b.Coefficients[c] * z[j]
	}
	return y
}

// Predict aligns a freshly computed feature map to the bundle's feature
// order and returns the predicted race time
func (b *Bundle) Predict(features model.FeatureMap, at time.Time) Prediction {
	minutes := b.predictVector(dataset.Align(features, b.FeatureNames))
	pace := model.PaceMinPerKm(b.Distance.CanonicalKm(), minutes)
	return Prediction{
		Distance:      b.Distance,
		At:            at,
		TimeMin:       minutes,
		Formatted:     feature.FormatDuration(minutes),
		PaceMinPerKm:  pace,
		FormattedPace: feature.FormatPace(pace),
	}
}

// Validate checks the bundle is internally consistent
func (b *Bundle) Validate() error {
	if b.Scaler == nil || len(b.Scaler.Mean) != len(b.FeatureNames) || len(b.Scaler.Std) != len(b.FeatureNames) {
		return fmt.Errorf("bundle %s: scaler does not match %d features", b.Distance, len(b.FeatureNames))
	}
	if len(b.Coefficients) != len(b.Selected) {
		return fmt.Errorf("bundle %s: %d coefficients for %d features", b.Distance, len(b.Coefficients), len(b.Selected))
	}
	for _, j := range b.Selected {
		if j < 0 || j >= len(b.FeatureNames) {
			return fmt.Errorf("bundle %s: selected index %d out of range", b.Distance, j)
		}
	}
	return nil
}

// Path returns the bundle file location for distance under dir
func Path(dir string, distance model.RaceDistance) string {
	return filepath.Join(dir, distance.Slug()+"_model.json")
}

// Save writes the bundle as indented JSON under dir
func (b *Bundle) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bundle %s: %w", b.Distance, err)
	}
	if err := os.WriteFile(Path(dir, b.Distance), data, 0o644); err != nil {
		return fmt.Errorf("failed to write bundle %s: %w", b.Distance, err)
	}
	return nil
}

// Load reads the bundle for distance from dir
func Load(dir string, distance model.RaceDistance) (*Bundle, error) {
	data, err := os.ReadFile(Path(dir, distance))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, distance)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle %s: %w", distance, err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode bundle %s: %w", distance, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadAll reads every bundle present under dir
func LoadAll(dir string) (map[model.RaceDistance]*Bundle, error) {
	bundles := make(map[model.RaceDistance]*Bundle)
	for _, d := range model.RaceDistances {
		b, err := Load(dir, d)
		if errors.Is(err, ErrModelNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		bundles[d] = b
	}
	return bundles, nil
}
