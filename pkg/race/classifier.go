// Package race flags running activities that plausibly were races and
// buckets them into canonical distance classes.
//
// The classifier is a heuristic: it can admit hard training runs and can
// miss races that carry no PR or achievement markers. Every threshold it
// uses lives in Policy so callers can tune it.
package race

import (
	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/model"
)

// Bucket is an inclusive distance range for one race class
type Bucket struct {
	Distance model.RaceDistance `toml:"distance"`
	MinKm    float64            `toml:"min_km"`
	MaxKm    float64            `toml:"max_km"`
}

// Matches reports whether km falls inside the bucket
func (b Bucket) Matches(km float64) bool {
	return km >= b.MinKm && km <= b.MaxKm
}

// Policy holds the candidate-race thresholds
type Policy struct {
	PacePercentile    float64  `toml:"pace_percentile"`    // fastest-quantile boundary (0-1)
	MinDistanceKm     float64  `toml:"min_distance_km"`    // pace branch floor
	PRCountAbove      int      `toml:"pr_count_above"`     // PR branch: count > this
	AchievementsAbove int      `toml:"achievements_above"` // achievement branch: count > this
	Buckets           []Bucket `toml:"buckets"`            // tested in order, first match wins
}

// DefaultBuckets returns the standard race distance ranges
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Distance: model.Distance5K, MinKm: 4.5, MaxKm: 5.5},
		{Distance: model.Distance10K, MinKm: 9.5, MaxKm: 10.5},
		{Distance: model.DistanceHalfMarathon, MinKm: 20.5, MaxKm: 21.5},
		{Distance: model.DistanceMarathon, MinKm: 41.5, MaxKm: 42.5},
	}
}

// DefaultPolicy returns the standard thresholds
func DefaultPolicy() Policy {
	return Policy{
		PacePercentile:    0.25,
		MinDistanceKm:     5.0,
		PRCountAbove:      0,
		AchievementsAbove: 2,
		Buckets:           DefaultBuckets(),
	}
}

// Classifier annotates runs with race distance and candidate flag
type Classifier struct {
	policy Policy
}

// NewClassifier creates a classifier. An empty bucket list falls back
// to the default buckets.
func NewClassifier(policy Policy) *Classifier {
	if len(policy.Buckets) == 0 {
		policy.Buckets = DefaultBuckets()
	}
	return &Classifier{policy: policy}
}

// Policy returns the thresholds in use
func (c *Classifier) Policy() Policy {
	return c.policy
}

// ClassifyDistance returns the first bucket containing km, or DistanceNone
func (c *Classifier) ClassifyDistance(km float64) model.RaceDistance {
	for _, b := range c.policy.Buckets {
		if b.Matches(km) {
			return b.Distance
		}
	}
	return model.DistanceNone
}

// PaceThreshold is the pace percentile across all runs with a pace.
// Lower pace is faster, so this bounds the fastest share of runs.
func (c *Classifier) PaceThreshold(runs []model.Activity) model.Float {
	paces := make([]float64, 0, len(runs))
	for i := range runs {
		if p, ok := runs[i].Pace().Get(); ok {
			paces = append(paces, p)
		}
	}
	return feature.Percentile(paces, c.policy.PacePercentile)
}

// Annotate labels every run in activities. Non-run activities are dropped.
func (c *Classifier) Annotate(activities []model.Activity) []model.Race {
	runs := model.Runs(activities)
	if len(runs) == 0 {
		return nil
	}

	threshold := c.PaceThreshold(runs)
	races := make([]model.Race, 0, len(runs))
	for _, run := range runs {
		distance := c.ClassifyDistance(run.DistanceKm)
		races = append(races, model.Race{
			Activity:  run,
			Distance:  distance,
			Candidate: c.isCandidate(&run, distance, threshold),
		})
	}
	return races
}

// Classify returns only the candidate races, in input order
func (c *Classifier) Classify(activities []model.Activity) []model.Race {
	var candidates []model.Race
	for _, r := range c.Annotate(activities) {
		if r.Candidate {
			candidates = append(candidates, r)
		}
	}
	return candidates
}

func (c *Classifier) isCandidate(run *model.Activity, distance model.RaceDistance, threshold model.Float) bool {
	if run.PRCount > c.policy.PRCountAbove || run.AchievementCount > c.policy.AchievementsAbove {
		return true
	}

	pace, ok := run.Pace().Get()
	limit, hasLimit := threshold.Get()
	if !ok || !hasLimit {
		return false
	}
	return pace <= limit &&
		distance != model.DistanceNone &&
		run.DistanceKm >= c.policy.MinDistanceKm
}

// Classify runs the default policy over activities
func Classify(activities []model.Activity) []model.Race {
	return NewClassifier(DefaultPolicy()).Classify(activities)
}
