package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// header matches the activity log columns CSVProvider reads
var header = []string{
	"id", "name", "type", "distance", "moving_time", "elapsed_time", "total_elevation_gain",
	"start_date", "start_date_local", "average_speed", "max_speed",
	"average_heartrate", "max_heartrate", "average_cadence", "has_heartrate",
	"elev_high", "elev_low", "pr_count", "achievement_count", "kudos_count",
	"workout_type", "description",
}

type race struct {
	name string
	km   float64
}

var races = []race{
	{"Parkrun 5K", 5.0},
	{"City 10K", 10.0},
	{"Spring Half Marathon", 21.1},
	{"Autumn Marathon", 42.2},
}

func main() {
	days := flag.Int("days", 900, "Number of days of history to generate")
	seed := flag.Int64("seed", 42, "Random seed")
	output := flag.String("output", "data/activities.csv", "Output CSV file path")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -*days)

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	file, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create output file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		log.Fatalf("failed to write header: %v", err)
	}

	id := int64(1_000_000)
	count := 0
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		progress := float64(day.Sub(start)) / float64(end.Sub(start))
		// fitness improves over the generated history
		basePace := 6.0 - 0.7*progress

		var rows [][]string
		switch {
		case day.Weekday() == time.Saturday && rng.Float64() < 0.12:
			r := races[rng.Intn(len(races))]
			pace := basePace * (0.82 + 0.04*rng.Float64()) * (1 + 0.015*math.Log(r.km/5))
			rows = append(rows, run(rng, &id, day, r.name, r.km, pace, 1, rng.Intn(4), 1))
		case day.Weekday() == time.Sunday:
			km := 14 + 10*progress + 4*rng.Float64()
			rows = append(rows, run(rng, &id, day, "Long Run", km, basePace*1.05, 0, rng.Intn(2), 2))
		case rng.Float64() < 0.55:
			km := 5 + 7*rng.Float64()
			rows = append(rows, run(rng, &id, day, "Easy Run", km, basePace*(0.97+0.1*rng.Float64()), 0, rng.Intn(2), 0))
		case rng.Float64() < 0.25:
			rows = append(rows, ride(rng, &id, day))
		}

		for _, row := range rows {
			if err := writer.Write(row); err != nil {
				log.Fatalf("failed to write row: %v", err)
			}
			count++
		}
	}

	log.Infof("wrote %d activities to %s", count, *output)
}

func run(rng *rand.Rand, id *int64, day time.Time, name string, km, pace float64, prs, achievements, workoutType int) []string {
	*id++
	startAt := day.Add(time.Duration(6+rng.Intn(4))*time.Hour + time.Duration(rng.Intn(60))*time.Minute)
	movingS := km * pace * 60
	elevation := km * (2 + 8*rng.Float64())
	hr := 140 + 25*rng.Float64()
	if workoutType == 1 {
		hr += 10
	}

	return []string{
		strconv.FormatInt(*id, 10),
		name,
		"Run",
		fmt.Sprintf("%.1f", km*1000),
		fmt.Sprintf("%.0f", movingS),
		fmt.Sprintf("%.0f", movingS*(1.02+0.05*rng.Float64())),
		fmt.Sprintf("%.1f", elevation),
		startAt.Format(time.RFC3339),
		startAt.Format("2006-01-02T15:04:05Z"),
		fmt.Sprintf("%.3f", km*1000/movingS),
		fmt.Sprintf("%.3f", km*1000/movingS*1.3),
		fmt.Sprintf("%.1f", hr),
		fmt.Sprintf("%.0f", hr+15),
		fmt.Sprintf("%.1f", 80+5*rng.Float64()),
		"True",
		fmt.Sprintf("%.1f", 50+elevation/2),
		"45.0",
		strconv.Itoa(prs),
		strconv.Itoa(achievements),
		strconv.Itoa(rng.Intn(20)),
		strconv.Itoa(workoutType),
		"",
	}
}

func ride(rng *rand.Rand, id *int64, day time.Time) []string {
	*id++
	startAt := day.Add(17 * time.Hour)
	km := 20 + 40*rng.Float64()
	movingS := km / (25 + 5*rng.Float64()) * 3600

	return []string{
		strconv.FormatInt(*id, 10),
		"Evening Ride",
		"Ride",
		fmt.Sprintf("%.1f", km*1000),
		fmt.Sprintf("%.0f", movingS),
		fmt.Sprintf("%.0f", movingS*1.05),
		fmt.Sprintf("%.1f", km*5),
		startAt.Format(time.RFC3339),
		startAt.Format("2006-01-02T15:04:05Z"),
		fmt.Sprintf("%.3f", km*1000/movingS),
		"",
		"",
		"",
		"",
		"False",
		"",
		"",
		"0",
		"0",
		"0",
		"",
		"",
	}
}
