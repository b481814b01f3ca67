package window

import (
	"time"

	"github.com/tunogya/stride/pkg/model"
)

// Day is the length of one window day. Windows are counted in exact
// 24-hour spans, not calendar days.
const Day = 24 * time.Hour

// Trailing selects activities in the half-open span [ref - Days, ref)
type Trailing struct {
	Days int
}

// Start returns the inclusive lower bound of the window ending at ref
func (t Trailing) Start(ref time.Time) time.Time {
	return ref.Add(-time.Duration(t.Days) * Day)
}

// Contains reports whether ts falls inside the window ending at ref
func (t Trailing) Contains(ts, ref time.Time) bool {
	return !ts.Before(t.Start(ref)) && ts.Before(ref)
}

// Select returns a new slice with the activities inside the window,
// preserving input order
func (t Trailing) Select(activities []model.Activity, ref time.Time) []model.Activity {
	var selected []model.Activity
	for _, a := range activities {
		if t.Contains(a.StartDate, ref) {
			selected = append(selected, a)
		}
	}
	return selected
}

// Latest returns the most recent start instant strictly before ref
func Latest(activities []model.Activity, ref time.Time) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, a := range activities {
		if !a.StartDate.Before(ref) {
			continue
		}
		if !found || a.StartDate.After(latest) {
			latest = a.StartDate
			found = true
		}
	}
	return latest, found
}

// ScheduleConfig holds configuration for a series of reference instants
type ScheduleConfig struct {
	Span time.Duration // how far back from the end the series starts
	Step time.Duration // distance between consecutive instants
}

// DefaultScheduleConfig returns a two-year series stepping every 30 days
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		Span: 730 * Day,
		Step: 30 * Day,
	}
}

// Schedule produces reference instants from end-Span up to and including end
func Schedule(end time.Time, cfg ScheduleConfig) []time.Time {
	if cfg.Step <= 0 {
		return nil
	}

	var instants []time.Time
	for t := end.Add(-cfg.Span); !t.After(end); t = t.Add(cfg.Step) {
		instants = append(instants, t)
	}
	return instants
}
