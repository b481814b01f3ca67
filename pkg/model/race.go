package model

import (
	"strings"
	"time"
)

// RaceDistance is a canonical race distance class
type RaceDistance string

// RaceDistance constants
const (
	DistanceNone         RaceDistance = ""
	Distance5K           RaceDistance = "5K"
	Distance10K          RaceDistance = "10K"
	DistanceHalfMarathon RaceDistance = "Half Marathon"
	DistanceMarathon     RaceDistance = "Marathon"
)

// RaceDistances lists the canonical classes in ascending length
var RaceDistances = []RaceDistance{
	Distance5K,
	Distance10K,
	DistanceHalfMarathon,
	DistanceMarathon,
}

// ParseRaceDistance matches a label case-insensitively
func ParseRaceDistance(s string) (RaceDistance, bool) {
	s = strings.TrimSpace(s)
	for _, d := range RaceDistances {
		if strings.EqualFold(s, string(d)) {
			return d, true
		}
	}
	return DistanceNone, false
}

// CanonicalKm returns the official length of the distance class
func (d RaceDistance) CanonicalKm() float64 {
	switch d {
	case Distance5K:
		return 5.0
	case Distance10K:
		return 10.0
	case DistanceHalfMarathon:
		return 21.0975
	case DistanceMarathon:
		return 42.195
	default:
		return 0
	}
}

// Slug returns the label with spaces replaced, for file names
func (d RaceDistance) Slug() string {
	return strings.ReplaceAll(string(d), " ", "_")
}

func (d RaceDistance) String() string {
	if d == DistanceNone {
		return "none"
	}
	return string(d)
}

// Race is an annotated view over a running activity.
// It shares its identity with the underlying activity.
type Race struct {
	Activity
	Distance  RaceDistance `json:"race_distance"`
	Candidate bool         `json:"is_potential_race"`
}

// RaceFeatureRow is one identified race merged with the training
// features computed strictly before its start.
type RaceFeatureRow struct {
	RaceID         int64        `json:"race_id"`
	Date           time.Time    `json:"race_date"`
	Name           string       `json:"race_name"`
	Distance       RaceDistance `json:"race_distance"`
	DistanceKm     float64      `json:"race_distance_km"`
	TimeMin        float64      `json:"race_time_min"`
	PaceMinPerKm   Float        `json:"race_pace_min_per_km"`
	ElevationGainM float64      `json:"race_elevation_gain_m"`
	AvgHeartRate   Float        `json:"race_avg_heartrate"`
	Features       FeatureMap   `json:"features"`
}

// RaceDataset holds all race rows sorted by date together with the
// ordered feature names every row's FeatureMap is keyed by.
type RaceDataset struct {
	FeatureNames []string         `json:"feature_names"`
	Rows         []RaceFeatureRow `json:"rows"`
}

// Empty reports the "no races found" result
func (ds *RaceDataset) Empty() bool {
	return ds == nil || len(ds.Rows) == 0
}

// CountByDistance tallies rows per distance class
func (ds *RaceDataset) CountByDistance() map[RaceDistance]int {
	counts := make(map[RaceDistance]int)
	if ds == nil {
		return counts
	}
	for _, r := range ds.Rows {
		counts[r.Distance]++
	}
	return counts
}
