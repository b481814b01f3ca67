package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tunogya/stride/pkg/config"
	"github.com/tunogya/stride/pkg/data"
	"github.com/tunogya/stride/pkg/dataset"
	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/logging"
	"github.com/tunogya/stride/pkg/model"
	"github.com/tunogya/stride/pkg/predict"
	"github.com/tunogya/stride/pkg/rerank"
	"github.com/tunogya/stride/pkg/store/duckdb"
	"github.com/tunogya/stride/pkg/store/milvus"
	"github.com/tunogya/stride/pkg/window"
)

// Options holds predict flags
type Options struct {
	ConfigPath string
	CSVPath    string
	FITDir     string
	DuckDBPath string
	ModelDir   string
	At         string
	Timeline   string
	Similar    bool
	TopK       int
	Features   bool
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath, true)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if opts.DuckDBPath != "" {
		cfg.DuckDB.Path = opts.DuckDBPath
	}
	if opts.ModelDir != "" {
		cfg.Export.ModelDir = opts.ModelDir
	}
	if opts.TopK > 0 {
		cfg.Similar.TopK = opts.TopK
	}
	logging.Setup(cfg.Logging)

	ctx := context.Background()

	activities, err := loadActivities(ctx, cfg, opts)
	if err != nil {
		log.Fatalf("failed to load activities: %v", err)
	}
	if len(activities) == 0 {
		log.Fatal("activity log is empty")
	}

	bundles, err := predict.LoadAll(cfg.Export.ModelDir)
	if err != nil {
		log.Fatalf("failed to load models: %v", err)
	}
	if len(bundles) == 0 {
		log.Fatalf("no trained models in %s, run backfill first", cfg.Export.ModelDir)
	}

	calc := cfg.NewCalculator()
	predictor := predict.NewPredictor(bundles, calc)

	ref := predict.ReferenceInstant(activities, time.Now().UTC())
	if opts.At != "" {
		ref, err = data.ParseTimestamp(opts.At)
		if err != nil {
			log.Fatalf("invalid -at: %v", err)
		}
	}

	fmt.Println(feature.Summarize(activities).String())
	fmt.Printf("\nPredictions at %s\n", ref.Format(time.RFC3339))

	features := calc.Compute(activities, ref)
	if opts.Features {
		printFeatures(features, calc.Keys())
	}

	for _, p := range predictor.PredictAll(activities, ref) {
		fmt.Printf("  %-14s %s  (%s /km)\n", p.Distance, p.Formatted, p.FormattedPace)
	}

	if opts.Timeline != "" {
		distance, ok := model.ParseRaceDistance(opts.Timeline)
		if !ok {
			log.Fatalf("unknown distance %q", opts.Timeline)
		}
		points, err := predictor.Timeline(activities, distance, window.DefaultScheduleConfig())
		if err != nil {
			log.Fatalf("timeline for %s: %v", distance, err)
		}
		fmt.Printf("\n%s timeline\n", distance)
		for _, pt := range points {
			fmt.Printf("  %s  %s  week %6.1f km  month %6.1f km\n",
				pt.At.Format("2006-01-02"), pt.Formatted, pt.WeeklyDistanceKm, pt.MonthlyDistanceKm)
		}
	}

	if opts.Similar || cfg.Similar.Enabled {
		if err := similar(ctx, cfg, bundles, features, ref); err != nil {
			log.Errorf("similar build search failed: %v", err)
		}
	}
}

func loadActivities(ctx context.Context, cfg *config.Config, opts Options) ([]model.Activity, error) {
	switch {
	case opts.CSVPath != "":
		return data.NewCSVProvider(opts.CSVPath).FetchActivities(ctx)
	case opts.FITDir != "":
		return data.NewFITProvider(opts.FITDir).FetchActivities(ctx)
	}

	client, err := duckdb.Open(cfg.DuckDB.Path)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return duckdb.NewActivityRepo(client).FetchActivities(ctx)
}

func printFeatures(features model.FeatureMap, keys []string) {
	fmt.Println("\nTraining features:")
	for _, k := range keys {
		fmt.Printf("  %-32s %s\n", k, features.Get(k))
	}
	fmt.Println()
}

// similar searches past races whose pre-race build-up looks like the
// current one, per trained distance
func similar(ctx context.Context, cfg *config.Config, bundles map[model.RaceDistance]*predict.Bundle, features model.FeatureMap, ref time.Time) error {
	client, err := milvus.NewClient(ctx, cfg.Milvus)
	if err != nil {
		return err
	}
	defer client.Close()

	reranker := rerank.NewReranker(cfg.Similar.Decay)

	distances := make([]model.RaceDistance, 0, len(bundles))
	for d := range bundles {
		distances = append(distances, d)
	}
	sort.Slice(distances, func(i, j int) bool {
		return distances[i].CanonicalKm() < distances[j].CanonicalKm()
	})

	for _, d := range distances {
		b := bundles[d]
		embedding := b.Scaler.Embed(dataset.Align(features, b.FeatureNames), cfg.Similar.ClipStd)
		// over-fetch so the time decay can reorder before the cut
		hits, err := client.Search(ctx, cfg.Milvus.Collection, embedding,
			milvus.DistanceFilter(d, b.FeatureSetID), cfg.Similar.TopK*3, cfg.Milvus.NProbe)
		if err != nil {
			return fmt.Errorf("search %s: %w", d, err)
		}

		ranked := rerank.FilterByMinScore(reranker.TopN(hits, ref, cfg.Similar.TopK), cfg.Similar.MinScore)
		fmt.Printf("\nSimilar %s build-ups (%d):\n", d, len(ranked))
		for i, r := range ranked {
			fmt.Printf("  %d. race %d on %s  %s  (score %.3f, weight %.2f, final %.3f)\n",
				i+1, r.RaceID, r.Date.Format("2006-01-02"), feature.FormatDuration(r.TimeMin),
				r.Score, r.TimeWeight, r.FinalScore)
		}
	}
	return nil
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.ConfigPath, "config", "stride.toml", "Path to TOML config file")
	flag.StringVar(&opts.CSVPath, "csv", "", "Read activities from CSV instead of DuckDB")
	flag.StringVar(&opts.FITDir, "fit", "", "Read activities from a directory of .fit files")
	flag.StringVar(&opts.DuckDBPath, "duckdb", "", "DuckDB file path (overrides config)")
	flag.StringVar(&opts.ModelDir, "models", "", "Model directory (overrides config)")
	flag.StringVar(&opts.At, "at", "", "Reference instant (RFC3339 or YYYY-MM-DD); default now")
	flag.StringVar(&opts.Timeline, "timeline", "", "Print a two-year prediction timeline for this distance")
	flag.BoolVar(&opts.Similar, "similar", false, "Search Milvus for past races with a similar build-up")
	flag.IntVar(&opts.TopK, "topk", 0, "Similar races to fetch per distance")
	flag.BoolVar(&opts.Features, "features", false, "Print the computed training features")

	flag.Parse()

	if flag.NArg() > 0 {
		fmt.Printf("Unexpected arguments: %s\n", strings.Join(flag.Args(), " "))
		flag.PrintDefaults()
		os.Exit(1)
	}

	return opts
}
