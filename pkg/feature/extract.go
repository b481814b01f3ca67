package feature

import (
	"fmt"
	"time"

	"github.com/tunogya/stride/pkg/model"
	"github.com/tunogya/stride/pkg/window"
)

// Window-independent feature keys
const (
	KeyDaysSinceLastRun = "days_since_last_run"
	KeyBestPace90d      = "best_pace_90d"
)

// BestPaceLookbackDays is the span best_pace_90d looks back over,
// independent of the configured windows
const BestPaceLookbackDays = 90

// DefaultWindows are the trailing window lengths in days
var DefaultWindows = []int{7, 14, 30, 60, 90}

// EmptyPolicy decides what an aggregate reports over a window with no runs
type EmptyPolicy int

const (
	// ZeroWhenEmpty reports 0: totals, counts and "longest so far"
	ZeroWhenEmpty EmptyPolicy = iota
	// MissingWhenEmpty reports Missing: averages have no value without data
	MissingWhenEmpty
)

// Aggregate is one per-window statistic
type Aggregate struct {
	Suffix    string
	WhenEmpty EmptyPolicy
	Reduce    func(runs []model.Activity) model.Float
}

// Apply reduces runs, applying the empty-window policy first
func (a Aggregate) Apply(runs []model.Activity) model.Float {
	if len(runs) == 0 {
		if a.WhenEmpty == ZeroWhenEmpty {
			return model.Some(0)
		}
		return model.Missing
	}
	return a.Reduce(runs)
}

// WindowAggregates are computed for every window, in key order
var WindowAggregates = []Aggregate{
	{Suffix: "total_distance_km", WhenEmpty: ZeroWhenEmpty, Reduce: sumOf(distanceKm)},
	{Suffix: "num_runs", WhenEmpty: ZeroWhenEmpty, Reduce: countRuns},
	{Suffix: "avg_pace", WhenEmpty: MissingWhenEmpty, Reduce: meanOf(pace)},
	{Suffix: "avg_distance_km", WhenEmpty: MissingWhenEmpty, Reduce: meanOf(distanceKm)},
	{Suffix: "longest_run_km", WhenEmpty: ZeroWhenEmpty, Reduce: maxOf(distanceKm)},
	{Suffix: "total_elevation_m", WhenEmpty: ZeroWhenEmpty, Reduce: sumOf(elevationGain)},
	{Suffix: "avg_heartrate", WhenEmpty: MissingWhenEmpty, Reduce: meanOf(avgHeartRate)},
}

// WindowKey builds the feature name for an aggregate over a window
func WindowKey(days int, suffix string) string {
	return fmt.Sprintf("past_%dd_%s", days, suffix)
}

// Calculator computes training-load features relative to a reference instant
type Calculator struct {
	windows []int
	keys    []string
}

// NewCalculator creates a calculator for the given window lengths.
// Duplicates and non-positive lengths are dropped; with none left the
// default windows are used.
func NewCalculator(windows ...int) *Calculator {
	seen := make(map[int]bool)
	var ws []int
	for _, d := range windows {
		if d <= 0 || seen[d] {
			continue
		}
		seen[d] = true
		ws = append(ws, d)
	}
	if len(ws) == 0 {
		ws = append(ws, DefaultWindows...)
	}

	keys := make([]string, 0, len(ws)*len(WindowAggregates)+2)
	for _, d := range ws {
		for _, agg := range WindowAggregates {
			keys = append(keys, WindowKey(d, agg.Suffix))
		}
	}
	keys = append(keys, KeyDaysSinceLastRun, KeyBestPace90d)

	return &Calculator{windows: ws, keys: keys}
}

// Windows returns the window lengths in days
func (c *Calculator) Windows() []int {
	return append([]int(nil), c.windows...)
}

// Keys returns the feature names in canonical order.
// Every map Compute returns has exactly these keys.
func (c *Calculator) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Compute summarizes the runs that started strictly before ref.
// The input slice is not modified.
func (c *Calculator) Compute(activities []model.Activity, ref time.Time) model.FeatureMap {
	runs := model.Runs(activities)
	features := make(model.FeatureMap, len(c.keys))

	for _, days := range c.windows {
		inWindow := window.Trailing{Days: days}.Select(runs, ref)
		for _, agg := range WindowAggregates {
			features[WindowKey(days, agg.Suffix)] = agg.Apply(inWindow)
		}
	}

	features[KeyDaysSinceLastRun] = daysSinceLastRun(runs, ref)

	lookback := window.Trailing{Days: BestPaceLookbackDays}.Select(runs, ref)
	features[KeyBestPace90d] = minOf(pace)(lookback)

	return features
}

// daysSinceLastRun counts whole days between the latest prior run and ref
func daysSinceLastRun(runs []model.Activity, ref time.Time) model.Float {
	last, ok := window.Latest(runs, ref)
	if !ok {
		return model.Missing
	}
	return model.Some(float64(ref.Sub(last) / window.Day))
}
