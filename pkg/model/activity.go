package model

import "time"

// ActivityTypeRun is the only activity type the race engine looks at
const ActivityTypeRun = "Run"

// Activity represents a single exercise session from the activity log
type Activity struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	DistanceKm     float64   `json:"distance_km"`
	MovingTimeMin  float64   `json:"moving_time_min"`
	ElapsedTimeMin float64   `json:"elapsed_time_min"`
	ElevationGainM float64   `json:"total_elevation_gain"`
	StartDate      time.Time `json:"start_date"`       // UTC instant
	StartDateLocal time.Time `json:"start_date_local"` // athlete-local wall clock

	AvgHeartRate Float `json:"average_heartrate"`
	MaxHeartRate Float `json:"max_heartrate"`
	AvgCadence   Float `json:"average_cadence"`
	ElevHigh     Float `json:"elev_high"`
	ElevLow      Float `json:"elev_low"`

	PRCount          int    `json:"pr_count"`
	AchievementCount int    `json:"achievement_count"`
	KudosCount       int    `json:"kudos_count"`
	WorkoutType      *int   `json:"workout_type,omitempty"`
	Description      string `json:"description,omitempty"`
}

// IsRun returns true for running activities
func (a *Activity) IsRun() bool {
	return a.Type == ActivityTypeRun
}

// Pace returns minutes per kilometer, derived from distance and moving time
func (a *Activity) Pace() Float {
	return PaceMinPerKm(a.DistanceKm, a.MovingTimeMin)
}

// PaceMinPerKm divides moving minutes by kilometers.
// Zero distance and non-finite ratios yield Missing.
func PaceMinPerKm(distanceKm, movingTimeMin float64) Float {
	if distanceKm == 0 {
		return Missing
	}
	return Some(movingTimeMin / distanceKm)
}

// Runs returns a new slice holding only the running activities
func Runs(activities []Activity) []Activity {
	runs := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if a.IsRun() {
			runs = append(runs, a)
		}
	}
	return runs
}
