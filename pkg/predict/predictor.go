package predict

import (
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/tunogya/stride/pkg/data"
	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/model"
	"github.com/tunogya/stride/pkg/window"
)

// Predictor applies trained bundles to an activity table
type Predictor struct {
	bundles    map[model.RaceDistance]*Bundle
	calculator *feature.Calculator
}

// NewPredictor creates a predictor. Bundles trained on a different
// feature set than calc produces are still used; absent keys align to 0.
func NewPredictor(bundles map[model.RaceDistance]*Bundle, calc *feature.Calculator) *Predictor {
	setID := model.GenerateFeatureSetID(calc.Keys())
	for d, b := range bundles {
		if b.FeatureSetID != setID {
			logrus.WithFields(logrus.Fields{
				"distance": d.String(),
				"bundle":   b.FeatureSetID,
				"current":  setID,
			}).Warn("model was trained on a different feature set")
		}
	}
	return &Predictor{bundles: bundles, calculator: calc}
}

// Distances returns the distances with a trained model, shortest first
func (p *Predictor) Distances() []model.RaceDistance {
	var out []model.RaceDistance
	for _, d := range model.RaceDistances {
		if _, ok := p.bundles[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// PredictAll predicts every trained distance at ref
func (p *Predictor) PredictAll(activities []model.Activity, ref time.Time) []Prediction {
	features := p.calculator.Compute(activities, ref)
	var predictions []Prediction
	for _, d := range p.Distances() {
		predictions = append(predictions, p.bundles[d].Predict(features, ref))
	}
	return predictions
}

// TimelinePoint is one step of a prediction timeline
type TimelinePoint struct {
	Prediction
	WeeklyDistanceKm  float64 `json:"weekly_distance"`
	MonthlyDistanceKm float64 `json:"monthly_distance"`
}

// Timeline predicts distance at each scheduled instant ending at the
// latest run. It returns ErrModelNotFound when distance has no model.
func (p *Predictor) Timeline(activities []model.Activity, distance model.RaceDistance, cfg window.ScheduleConfig) ([]TimelinePoint, error) {
	b, ok := p.bundles[distance]
	if !ok {
		return nil, ErrModelNotFound
	}

	runs := model.Runs(activities)
	end, ok := data.LatestStart(runs)
	if !ok {
		return nil, nil
	}

	weekly := window.Trailing{Days: 7}
	monthly := window.Trailing{Days: 30}

	var points []TimelinePoint
	for _, ref := range window.Schedule(end, cfg) {
		points = append(points, TimelinePoint{
			Prediction:        b.Predict(p.calculator.Compute(runs, ref), ref),
			WeeklyDistanceKm:  totalKm(weekly.Select(runs, ref)),
			MonthlyDistanceKm: totalKm(monthly.Select(runs, ref)),
		})
	}
	return points, nil
}

func totalKm(runs []model.Activity) float64 {
	km := make([]float64, len(runs))
	for i, r := range runs {
		km[i] = r.DistanceKm
	}
	return floats.Sum(km)
}

// ReferenceInstant picks the instant to predict at: now, unless the
// activity log already holds later activities, in which case one day
// after the latest start.
func ReferenceInstant(activities []model.Activity, now time.Time) time.Time {
	latest, ok := data.LatestStart(activities)
	if ok && !latest.Before(now) {
		return latest.Add(window.Day)
	}
	return now
}
