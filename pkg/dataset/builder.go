package dataset

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/model"
	"github.com/tunogya/stride/pkg/race"
)

// Builder joins classified races with their pre-race training features
type Builder struct {
	classifier *race.Classifier
	calculator *feature.Calculator
}

// NewBuilder creates a new dataset builder
func NewBuilder(classifier *race.Classifier, calculator *feature.Calculator) *Builder {
	return &Builder{
		classifier: classifier,
		calculator: calculator,
	}
}

// DefaultBuilder uses the default classifier policy and windows
func DefaultBuilder() *Builder {
	return NewBuilder(race.NewClassifier(race.DefaultPolicy()), feature.NewCalculator())
}

// FeatureNames returns the frozen feature order rows are keyed by
func (b *Builder) FeatureNames() []string {
	return b.calculator.Keys()
}

// Build produces one row per candidate race, sorted by race date.
// Features for each race are computed over the full activity table with
// the race's own start as reference, so the race itself never counts.
// With no candidates the returned dataset is empty.
func (b *Builder) Build(activities []model.Activity) *model.RaceDataset {
	ds := &model.RaceDataset{FeatureNames: b.calculator.Keys()}

	races := b.classifier.Classify(activities)
	if len(races) == 0 {
		logrus.Info("no races identified in the activity log")
		return ds
	}

	ds.Rows = make([]model.RaceFeatureRow, 0, len(races))
	for _, r := range races {
		ds.Rows = append(ds.Rows, model.RaceFeatureRow{
			RaceID:         r.ID,
			Date:           r.StartDate,
			Name:           r.Name,
			Distance:       r.Distance,
			DistanceKm:     r.DistanceKm,
			TimeMin:        r.MovingTimeMin,
			PaceMinPerKm:   r.Pace(),
			ElevationGainM: r.ElevationGainM,
			AvgHeartRate:   r.AvgHeartRate,
			Features:       b.calculator.Compute(activities, r.StartDate),
		})
	}

	sort.SliceStable(ds.Rows, func(i, j int) bool {
		if ds.Rows[i].Date.Equal(ds.Rows[j].Date) {
			return ds.Rows[i].RaceID < ds.Rows[j].RaceID
		}
		return ds.Rows[i].Date.Before(ds.Rows[j].Date)
	})

	counts := ds.CountByDistance()
	fields := logrus.Fields{"races": len(ds.Rows)}
	for d, n := range counts {
		fields[d.String()] = n
	}
	logrus.WithFields(fields).Info("identified potential race activities")

	return ds
}
