package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/tunogya/stride/pkg/model"
)

// raceColumns lead every wide CSV row, followed by the feature columns
var raceColumns = []string{
	"race_id", "race_date", "race_name", "race_distance", "race_distance_km",
	"race_time_min", "race_pace_min_per_km", "race_elevation_gain_m", "race_avg_heartrate",
}

// WriteCSV writes ds with one row per race and one column per feature.
// Missing values are written as empty cells.
func WriteCSV(w io.Writer, ds *model.RaceDataset) error {
	cw := csv.NewWriter(w)

	header := append(append([]string(nil), raceColumns...), ds.FeatureNames...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range ds.Rows {
		record := []string{
			strconv.FormatInt(r.RaceID, 10),
			r.Date.UTC().Format(time.RFC3339),
			r.Name,
			string(r.Distance),
			formatFloat(r.DistanceKm),
			formatFloat(r.TimeMin),
			formatOptional(r.PaceMinPerKm),
			formatFloat(r.ElevationGainM),
			formatOptional(r.AvgHeartRate),
		}
		for _, name := range ds.FeatureNames {
			record = append(record, formatOptional(r.Features.Get(name)))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write race %d: %w", r.RaceID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes ds to path
func WriteCSVFile(path string, ds *model.RaceDataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(f model.Float) string {
	if v, ok := f.Get(); ok {
		return formatFloat(v)
	}
	return ""
}
