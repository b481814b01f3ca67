package feature

import (
	"fmt"
	"math"
	"time"

	"github.com/tunogya/stride/pkg/model"
)

// TrainingSummary holds whole-history totals over all runs
type TrainingSummary struct {
	TotalActivities int         `json:"total_activities"`
	TotalRuns       int         `json:"total_runs"`
	TotalDistanceKm float64     `json:"total_distance_km"`
	TotalTimeHours  float64     `json:"total_time_hours"`
	AvgPace         model.Float `json:"avg_pace"`
	BestPace        model.Float `json:"best_pace"`
	LongestRunKm    float64     `json:"longest_run_km"`
	TotalElevationM float64     `json:"total_elevation_m"`
	FirstRun        time.Time   `json:"first_run_date"`
	LastRun         time.Time   `json:"last_run_date"`
}

// Summarize aggregates the full activity history
func Summarize(activities []model.Activity) TrainingSummary {
	runs := model.Runs(activities)
	summary := TrainingSummary{
		TotalActivities: len(activities),
		TotalRuns:       len(runs),
		AvgPace:         model.Missing,
		BestPace:        model.Missing,
	}
	if len(runs) == 0 {
		return summary
	}

	for i, r := range runs {
		if i == 0 || r.StartDate.Before(summary.FirstRun) {
			summary.FirstRun = r.StartDate
		}
		if i == 0 || r.StartDate.After(summary.LastRun) {
			summary.LastRun = r.StartDate
		}
	}

	summary.TotalDistanceKm = sumOf(distanceKm)(runs).Or(0)
	summary.TotalTimeHours = sumOf(movingTimeMin)(runs).Or(0) / 60
	summary.AvgPace = meanOf(pace)(runs)
	summary.BestPace = minOf(pace)(runs)
	summary.LongestRunKm = maxOf(distanceKm)(runs).Or(0)
	summary.TotalElevationM = sumOf(elevationGain)(runs).Or(0)

	return summary
}

// String returns a formatted one-line report
func (s TrainingSummary) String() string {
	return fmt.Sprintf(
		"Runs: %d/%d | Distance: %.1f km | Time: %.1f h | Avg pace: %s | Best pace: %s | Longest: %.1f km",
		s.TotalRuns, s.TotalActivities, s.TotalDistanceKm, s.TotalTimeHours,
		FormatPace(s.AvgPace), FormatPace(s.BestPace), s.LongestRunKm,
	)
}

// FormatPace renders min/km as m:ss, or "-" when missing
func FormatPace(p model.Float) string {
	v, ok := p.Get()
	if !ok || v < 0 {
		return "-"
	}
	totalSeconds := int(v*60 + 0.5)
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}

// FormatDuration renders minutes as HH:MM:SS, or "-" when not finite
func FormatDuration(minutes float64) string {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return "-"
	}
	if minutes < 0 {
		minutes = 0
	}
	hours := int(minutes / 60)
	mins := int(minutes) % 60
	secs := int((minutes - float64(int(minutes))) * 60)
	return fmt.Sprintf("%02d:%02d:%02d", hours, mins, secs)
}
