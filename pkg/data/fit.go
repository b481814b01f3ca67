package data

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tormoder/fit"

	"github.com/tunogya/stride/pkg/model"
)

// FITProvider implements ActivityProvider over a directory of .fit files.
// Each file contributes one activity from its first session.
type FITProvider struct {
	dir string
}

// NewFITProvider creates a provider reading every .fit file under dir
func NewFITProvider(dir string) *FITProvider {
	return &FITProvider{dir: dir}
}

// FetchActivities decodes all FIT files. Files that fail to decode are
// logged and skipped.
func (p *FITProvider) FetchActivities(ctx context.Context) ([]model.Activity, error) {
	paths, err := filepath.Glob(filepath.Join(p.dir, "*.fit"))
	if err != nil {
		return nil, fmt.Errorf("failed to list FIT files: %w", err)
	}
	upper, err := filepath.Glob(filepath.Join(p.dir, "*.FIT"))
	if err != nil {
		return nil, fmt.Errorf("failed to list FIT files: %w", err)
	}
	paths = append(paths, upper...)

	activities := make([]model.Activity, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		activity, err := ReadFITActivity(path)
		if err != nil {
			logrus.WithField("file", path).WithError(err).Warn("skipping FIT file")
			continue
		}
		activities = append(activities, activity)
	}

	SortByStart(activities)
	return activities, nil
}

// ReadFITActivity decodes one FIT activity file into an Activity.
// The activity ID is the session start in Unix seconds.
func ReadFITActivity(path string) (model.Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Activity{}, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()

	decoded, err := fit.Decode(f)
	if err != nil {
		return model.Activity{}, fmt.Errorf("decode FIT file: %w", err)
	}

	af, err := decoded.Activity()
	if err != nil {
		return model.Activity{}, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(af.Sessions) == 0 {
		return model.Activity{}, fmt.Errorf("activity file has no session message")
	}
	s := af.Sessions[0]

	if s.StartTime.IsZero() || fit.IsBaseTime(s.StartTime) {
		return model.Activity{}, fmt.Errorf("session has no start time")
	}

	moving := finiteOrZero(s.GetTotalTimerTimeScaled())
	elapsed := finiteOrZero(s.GetTotalElapsedTimeScaled())
	if elapsed == 0 {
		elapsed = moving
	}

	activity := model.Activity{
		ID:             s.StartTime.Unix(),
		Name:           strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Type:           sportType(s.Sport),
		DistanceKm:     finiteOrZero(s.GetTotalDistanceScaled()) / 1000,
		MovingTimeMin:  moving / 60,
		ElapsedTimeMin: elapsed / 60,
		StartDate:      s.StartTime.UTC(),
		StartDateLocal: s.StartTime,
		AvgHeartRate:   validUint8(s.AvgHeartRate),
		MaxHeartRate:   validUint8(s.MaxHeartRate),
		AvgCadence:     validUint8(s.AvgCadence),
	}
	if s.TotalAscent != 0xFFFF {
		activity.ElevationGainM = float64(s.TotalAscent)
	}

	return activity, nil
}

func sportType(sport fit.Sport) string {
	switch sport {
	case fit.SportRunning:
		return model.ActivityTypeRun
	case fit.SportCycling:
		return "Ride"
	case fit.SportWalking:
		return "Walk"
	case fit.SportSwimming:
		return "Swim"
	case fit.SportHiking:
		return "Hike"
	}
	return sport.String()
}

func validUint8(v uint8) model.Float {
	if v == 0xFF || v == 0 {
		return model.Missing
	}
	return model.Some(float64(v))
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
