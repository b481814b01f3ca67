package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go/jetstream"
	log "github.com/sirupsen/logrus"

	"github.com/tunogya/stride/pkg/config"
	"github.com/tunogya/stride/pkg/logging"
	"github.com/tunogya/stride/pkg/queue/nats"
	"github.com/tunogya/stride/pkg/store/duckdb"
)

// Options holds writer worker flags
type Options struct {
	ConfigPath string
	NATSUrl    string
	DuckDBPath string
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath, true)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if opts.NATSUrl != "" {
		cfg.NATS.URL = opts.NATSUrl
	}
	if opts.DuckDBPath != "" {
		cfg.DuckDB.Path = opts.DuckDBPath
	}
	logging.Setup(cfg.Logging)

	log.Infof("starting writer worker, NATS: %s, DuckDB: %s", cfg.NATS.URL, cfg.DuckDB.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	duckClient, err := duckdb.Open(cfg.DuckDB.Path)
	if err != nil {
		log.Fatalf("failed to open DuckDB: %v", err)
	}
	defer duckClient.Close()

	activityRepo := duckdb.NewActivityRepo(duckClient)
	raceRepo := duckdb.NewRaceRepo(duckClient)

	natsClient, err := nats.NewClient(cfg.NATS)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	if err := natsClient.CreateStream(ctx); err != nil {
		log.Fatalf("failed to create stream: %v", err)
	}
	log.Info("NATS stream ready")

	activityConsumer, err := natsClient.Subscribe(ctx, nats.SubjectActivityWrite, "activity-writer", func(msg jetstream.Msg) error {
		batch, err := nats.DecodeActivityBatch(msg.Data())
		if err != nil {
			return err
		}
		if len(batch.Activities) == 0 {
			return nil
		}
		if err := activityRepo.InsertBatch(ctx, batch.Activities); err != nil {
			return err
		}
		log.Infof("inserted %d activities", len(batch.Activities))
		return nil
	})
	if err != nil {
		log.Fatalf("failed to subscribe to activity writes: %v", err)
	}
	defer activityConsumer.Stop()

	raceConsumer, err := natsClient.Subscribe(ctx, nats.SubjectRaceWrite, "race-writer", func(msg jetstream.Msg) error {
		batch, err := nats.DecodeRaceBatch(msg.Data())
		if err != nil {
			return err
		}
		if batch.Replace {
			err = raceRepo.ReplaceDataset(ctx, batch.Dataset)
		} else {
			err = raceRepo.InsertDataset(ctx, batch.Dataset)
		}
		if err != nil {
			return err
		}
		log.Infof("stored %d races (replace=%t)", len(batch.Dataset.Rows), batch.Replace)
		return nil
	})
	if err != nil {
		log.Fatalf("failed to subscribe to race writes: %v", err)
	}
	defer raceConsumer.Stop()

	log.Info("writer worker started, waiting for messages...")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down writer worker...")
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.ConfigPath, "config", "stride.toml", "Path to TOML config file")
	flag.StringVar(&opts.NATSUrl, "nats", "", "NATS server URL (overrides config)")
	flag.StringVar(&opts.DuckDBPath, "duckdb", "", "DuckDB file path (overrides config)")

	flag.Parse()

	if flag.NArg() > 0 {
		fmt.Println("Usage: writer [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	return opts
}
