package data

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/tunogya/stride/pkg/model"
)

// ErrMissingColumn is returned when the activity log lacks a required column
var ErrMissingColumn = errors.New("required column missing from activity log")

// ActivityProvider defines the interface for loading the activity table
type ActivityProvider interface {
	// FetchActivities returns the full activity table.
	// Callers own the returned slice.
	FetchActivities(ctx context.Context) ([]model.Activity, error)
}

// LatestStart returns the most recent activity start instant
func LatestStart(activities []model.Activity) (time.Time, bool) {
	if len(activities) == 0 {
		return time.Time{}, false
	}
	latest := activities[0].StartDate
	for _, a := range activities[1:] {
		if a.StartDate.After(latest) {
			latest = a.StartDate
		}
	}
	return latest, true
}

// SortByStart orders activities by start instant, then by ID
func SortByStart(activities []model.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		if activities[i].StartDate.Equal(activities[j].StartDate) {
			return activities[i].ID < activities[j].ID
		}
		return activities[i].StartDate.Before(activities[j].StartDate)
	})
}
