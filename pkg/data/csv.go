package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tunogya/stride/pkg/model"
)

// RequiredColumns must be present in every activity log header
var RequiredColumns = []string{"id", "type", "distance", "moving_time", "start_date"}

// timestampLayouts are the ISO-8601 forms accepted for start dates.
// Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// CSVProvider implements ActivityProvider for CSV activity logs
type CSVProvider struct {
	filePath   string
	activities []model.Activity
	loaded     bool
}

// NewCSVProvider creates a new CSV-based activity provider
func NewCSVProvider(filePath string) *CSVProvider {
	return &CSVProvider{
		filePath:   filePath,
		activities: make([]model.Activity, 0),
		loaded:     false,
	}
}

// loadIfNeeded loads the CSV file if not already loaded
func (p *CSVProvider) loadIfNeeded() error {
	if p.loaded {
		return nil
	}

	file, err := os.Open(p.filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	activities, err := ReadActivitiesCSV(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", p.filePath, err)
	}

	p.activities = activities
	p.loaded = true
	return nil
}

// FetchActivities returns a copy of the parsed activity table
func (p *CSVProvider) FetchActivities(ctx context.Context) ([]model.Activity, error) {
	if err := p.loadIfNeeded(); err != nil {
		return nil, err
	}

	out := make([]model.Activity, len(p.activities))
	copy(out, p.activities)
	return out, nil
}

// ReadActivitiesCSV parses an activity log. Distances are read in meters
// and durations in seconds. Rows with unparseable required values are
// skipped; a missing required column is an error.
func ReadActivitiesCSV(r io.Reader) ([]model.Activity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Read header
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty activity log: %w", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Parse column indices
	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range RequiredColumns {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var activities []model.Activity
	line := 1
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record at line %d: %w", line, err)
		}

		activity, err := parseRecord(record, colMap)
		if err != nil {
			skipped++
			logrus.WithFields(logrus.Fields{"line": line}).WithError(err).Warn("skipping malformed activity row")
			continue
		}
		activities = append(activities, activity)
	}

	logrus.WithFields(logrus.Fields{
		"activities": len(activities),
		"skipped":    skipped,
	}).Debug("parsed activity log")

	return activities, nil
}

// parseRecord parses a CSV record into an Activity
func parseRecord(record []string, colMap map[string]int) (model.Activity, error) {
	getValue := func(name string) string {
		if idx, ok := colMap[name]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	id, err := parseInt(getValue("id"))
	if err != nil {
		return model.Activity{}, fmt.Errorf("invalid id: %w", err)
	}
	distanceM, err := strconv.ParseFloat(getValue("distance"), 64)
	if err != nil {
		return model.Activity{}, fmt.Errorf("invalid distance: %w", err)
	}
	movingS, err := strconv.ParseFloat(getValue("moving_time"), 64)
	if err != nil {
		return model.Activity{}, fmt.Errorf("invalid moving_time: %w", err)
	}
	startDate, err := ParseTimestamp(getValue("start_date"))
	if err != nil {
		return model.Activity{}, fmt.Errorf("invalid start_date: %w", err)
	}

	startLocal := startDate
	if v := getValue("start_date_local"); v != "" {
		if t, err := ParseTimestamp(v); err == nil {
			startLocal = t
		}
	}

	elapsedS := parseFloatOr(getValue("elapsed_time"), movingS)

	activity := model.Activity{
		ID:               id,
		Name:             getValue("name"),
		Type:             getValue("type"),
		DistanceKm:       distanceM / 1000,
		MovingTimeMin:    movingS / 60,
		ElapsedTimeMin:   elapsedS / 60,
		ElevationGainM:   parseFloatOr(getValue("total_elevation_gain"), 0),
		StartDate:        startDate.UTC(),
		StartDateLocal:   startLocal,
		AvgHeartRate:     parseOptional(getValue("average_heartrate")),
		MaxHeartRate:     parseOptional(getValue("max_heartrate")),
		AvgCadence:       parseOptional(getValue("average_cadence")),
		ElevHigh:         parseOptional(getValue("elev_high")),
		ElevLow:          parseOptional(getValue("elev_low")),
		PRCount:          int(parseFloatOr(getValue("pr_count"), 0)),
		AchievementCount: int(parseFloatOr(getValue("achievement_count"), 0)),
		KudosCount:       int(parseFloatOr(getValue("kudos_count"), 0)),
		Description:      nullString(getValue("description")),
	}

	if wt := parseOptional(getValue("workout_type")); wt.Valid {
		code := int(wt.V)
		activity.WorkoutType = &code
	}

	return activity, nil
}

// ParseTimestamp parses an ISO-8601 timestamp into a zone-aware instant
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %s", s)
	}
	return int64(f), nil
}

func parseFloatOr(s string, def float64) float64 {
	v := parseOptional(s)
	return v.Or(def)
}

// parseOptional treats empty and null-like cells as missing
func parseOptional(s string) model.Float {
	if nullString(s) == "" {
		return model.Missing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return model.Missing
	}
	return model.Some(v)
}

func nullString(s string) string {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null", "nat":
		return ""
	}
	return s
}
