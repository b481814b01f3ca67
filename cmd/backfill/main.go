package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/tunogya/stride/pkg/config"
	"github.com/tunogya/stride/pkg/data"
	"github.com/tunogya/stride/pkg/dataset"
	"github.com/tunogya/stride/pkg/export"
	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/logging"
	"github.com/tunogya/stride/pkg/model"
	"github.com/tunogya/stride/pkg/outcome"
	"github.com/tunogya/stride/pkg/predict"
	natsq "github.com/tunogya/stride/pkg/queue/nats"
	"github.com/tunogya/stride/pkg/store/duckdb"
	"github.com/tunogya/stride/pkg/store/milvus"
)

// Options holds backfill flags
type Options struct {
	ConfigPath string
	CSVPath    string
	FITDir     string
	DuckDBPath string
	ModelDir   string
	FromDB     bool
	Publish    bool
	Index      bool
	BatchSize  int
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
	logging.Setup(cfg.Logging)

	ctx := context.Background()

	var activities []model.Activity
	var ds *model.RaceDataset
	if opts.FromDB {
		// Reuse the stored race dataset
		ds, err = loadDataset(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to load stored races: %v", err)
		}
		log.Infof("loaded %d races from %s", len(ds.Rows), cfg.DuckDB.Path)
	} else {
		// Load activity log
		provider, source := newProvider(opts)
		log.Infof("loading activities from %s", source)
		activities, err = provider.FetchActivities(ctx)
		if err != nil {
			log.Fatalf("failed to load activities: %v", err)
		}
		log.Infof("loaded %d activities", len(activities))
		log.Info(feature.Summarize(activities).String())

		// Build race dataset
		builder := dataset.NewBuilder(cfg.NewClassifier(), cfg.NewCalculator())
		ds = builder.Build(activities)

		// Persist, either directly or through the writer worker
		if opts.Publish {
			if err := publish(ctx, cfg, activities, ds, opts.BatchSize); err != nil {
				log.Fatalf("failed to publish: %v", err)
			}
		} else {
			if err := store(ctx, cfg, activities, ds); err != nil {
				log.Fatalf("failed to store: %v", err)
			}
		}
	}

	if ds.Empty() {
		log.Warn("no races identified, nothing to export or train")
		return
	}

	// Export
	if err := exportDataset(cfg, ds); err != nil {
		log.Fatalf("failed to export dataset: %v", err)
	}

	// Train per distance
	trainer := predict.NewTrainer(cfg.Training)
	bundles := trainer.TrainAll(ds)
	report := outcome.Report{}
	for d, b := range bundles {
		if err := b.Save(cfg.Export.ModelDir); err != nil {
			log.Fatalf("failed to save model: %v", err)
		}
		log.Infof("saved %s model to %s", d, predict.Path(cfg.Export.ModelDir, d))
		report[d] = b.Metrics.Result(d)
	}
	for _, r := range report.Sorted() {
		log.Info(r.String())
	}
	if len(report) > 0 {
		mae, rmse := report.Weighted()
		log.Infof("overall hold-out MAE %.2f min, RMSE %.2f min", mae, rmse)
	}

	// Similar-build index
	if opts.Index || cfg.Similar.Enabled {
		if err := index(ctx, cfg, ds, bundles); err != nil {
			log.Errorf("failed to index race builds: %v", err)
		}
	}

	log.Infof("backfill completed: %d activities -> %d races -> %d models",
		len(activities), len(ds.Rows), len(bundles))
}

func newProvider(opts Options) (data.ActivityProvider, string) {
	if opts.FITDir != "" {
		return data.NewFITProvider(opts.FITDir), opts.FITDir
	}
	return data.NewCSVProvider(opts.CSVPath), opts.CSVPath
}

func store(ctx context.Context, cfg *config.Config, activities []model.Activity, ds *model.RaceDataset) error {
	client, err := duckdb.Open(cfg.DuckDB.Path)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := duckdb.NewActivityRepo(client).InsertBatch(ctx, activities); err != nil {
		return err
	}
	if err := duckdb.NewRaceRepo(client).ReplaceDataset(ctx, ds); err != nil {
		return err
	}
	log.Infof("stored %d activities and %d races in %s", len(activities), len(ds.Rows), cfg.DuckDB.Path)
	return nil
}

func loadDataset(ctx context.Context, cfg *config.Config) (*model.RaceDataset, error) {
	client, err := duckdb.Open(cfg.DuckDB.Path)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	return duckdb.NewRaceRepo(client).LoadDataset(ctx)
}

func publish(ctx context.Context, cfg *config.Config, activities []model.Activity, ds *model.RaceDataset, batchSize int) error {
	client, err := natsq.NewClient(cfg.NATS)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.CreateStream(ctx); err != nil {
		return err
	}

	for _, chunk := range natsq.ChunkActivities(activities, batchSize) {
		if err := client.PublishMsg(ctx, natsq.SubjectActivityWrite, natsq.ActivityBatchMsg{Activities: chunk}); err != nil {
			return err
		}
	}
	for _, msg := range natsq.RaceBatches(ds, batchSize, true) {
		if err := client.PublishMsg(ctx, natsq.SubjectRaceWrite, msg); err != nil {
			return err
		}
	}
	log.Infof("published %d activities and %d races to %s", len(activities), len(ds.Rows), cfg.NATS.StreamName)
	return nil
}

func exportDataset(cfg *config.Config, ds *model.RaceDataset) error {
	if path := cfg.Export.ParquetPath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := export.WriteParquet(path, ds); err != nil {
			return err
		}
		log.Infof("wrote %s", path)
	}
	if path := cfg.Export.CSVPath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := export.WriteCSVFile(path, ds); err != nil {
			return err
		}
		log.Infof("wrote %s", path)
	}
	return nil
}

// index embeds every modelled race with its distance's scaler and
// stores the vectors in Milvus
func index(ctx context.Context, cfg *config.Config, ds *model.RaceDataset, bundles map[model.RaceDistance]*predict.Bundle) error {
	client, err := milvus.NewClient(ctx, cfg.Milvus)
	if err != nil {
		return err
	}
	defer client.Close()

	collection := milvus.DefaultCollectionConfig(len(ds.FeatureNames))
	collection.Name = cfg.Milvus.Collection
	collection.NList = cfg.Milvus.NList
	if err := client.EnsureCollection(ctx, collection); err != nil {
		return err
	}

	var builds []milvus.RaceBuild
	for d, b := range bundles {
		m, ok := dataset.PrepareMatrix(ds, d)
		if !ok {
			continue
		}
		for i, row := range m.Source {
			builds = append(builds, milvus.RaceBuild{
				RaceID:       row.RaceID,
				Embedding:    b.Scaler.Embed(m.X[i], cfg.Similar.ClipStd),
				Distance:     d,
				Date:         row.Date,
				TimeMin:      row.TimeMin,
				FeatureSetID: b.FeatureSetID,
			})
		}
	}

	if err := client.UpsertBatch(ctx, collection.Name, builds); err != nil {
		return err
	}
	if err := client.Flush(ctx, collection.Name); err != nil {
		log.Warnf("failed to flush milvus: %v", err)
	}
	log.Infof("indexed %d race builds in %s", len(builds), collection.Name)
	return nil
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.ConfigPath, "config", "stride.toml", "Path to TOML config file")
	flag.StringVar(&opts.CSVPath, "csv", "", "Path to activity log CSV")
	flag.StringVar(&opts.FITDir, "fit", "", "Directory of .fit activity files")
	flag.StringVar(&opts.DuckDBPath, "duckdb", "", "DuckDB file path (overrides config)")
	flag.StringVar(&opts.ModelDir, "models", "", "Model output directory (overrides config)")
	flag.BoolVar(&opts.FromDB, "from-db", false, "Retrain and export from the races stored in DuckDB")
	flag.BoolVar(&opts.Publish, "publish", false, "Publish to NATS instead of writing DuckDB directly")
	flag.BoolVar(&opts.Index, "index", false, "Index race builds in Milvus")
	flag.IntVar(&opts.BatchSize, "batch", 500, "Activities or races per NATS message")

	flag.Parse()

	if !opts.FromDB && opts.CSVPath == "" && opts.FITDir == "" {
		fmt.Println("Usage: backfill -csv <path> | -fit <dir> | -from-db [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return opts
}
