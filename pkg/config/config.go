// Package config loads the TOML configuration shared by the binaries.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/logging"
	"github.com/tunogya/stride/pkg/predict"
	natsq "github.com/tunogya/stride/pkg/queue/nats"
	"github.com/tunogya/stride/pkg/race"
	"github.com/tunogya/stride/pkg/rerank"
	"github.com/tunogya/stride/pkg/store/milvus"
)

// Features selects the trailing windows, in days
type Features struct {
	Windows []int `toml:"windows"`
}

// DuckDB locates the embedded store. An empty path is in-memory.
type DuckDB struct {
	Path string `toml:"path"`
}

// Export names the output files written by backfill
type Export struct {
	ModelDir    string `toml:"model_dir"`
	ParquetPath string `toml:"parquet_path"`
	CSVPath     string `toml:"csv_path"`
}

// Similar configures Milvus similar-build search
type Similar struct {
	Enabled  bool                   `toml:"enabled"`
	TopK     int                    `toml:"top_k"`
	MinScore float64                `toml:"min_score"`
	ClipStd  float64                `toml:"clip_std"`
	Decay    rerank.TimeDecayConfig `toml:"decay"`
}

// Config is the full configuration file
type Config struct {
	Logging    logging.Params      `toml:"logging"`
	Classifier race.Policy         `toml:"classifier"`
	Features   Features            `toml:"features"`
	Training   predict.TrainConfig `toml:"training"`
	DuckDB     DuckDB              `toml:"duckdb"`
	Milvus     milvus.Config       `toml:"milvus"`
	Similar    Similar             `toml:"similar"`
	NATS       natsq.Config        `toml:"nats"`
	Export     Export              `toml:"export"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Logging:    logging.DefaultParams(),
		Classifier: race.DefaultPolicy(),
		Features:   Features{Windows: append([]int(nil), feature.DefaultWindows...)},
		Training:   predict.DefaultTrainConfig(),
		DuckDB:     DuckDB{Path: "stride.duckdb"},
		Milvus:     milvus.DefaultConfig(),
		Similar: Similar{
			TopK:    10,
			ClipStd: 3.0,
			Decay:   rerank.DefaultTimeDecayConfig(),
		},
		NATS: natsq.DefaultConfig(),
		Export: Export{
			ModelDir:    "models",
			ParquetPath: "data/race_features.parquet",
			CSVPath:     "data/race_features.csv",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults
// when optional is true.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		if optional && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown keys %v", path, undecoded)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	p := c.Classifier.PacePercentile
	if p < 0 || p > 1 {
		return fmt.Errorf("classifier.pace_percentile %v outside [0, 1]", p)
	}
	for _, b := range c.Classifier.Buckets {
		if b.MinKm > b.MaxKm {
			return fmt.Errorf("classifier bucket %s: min_km > max_km", b.Distance)
		}
	}
	for _, w := range c.Features.Windows {
		if w <= 0 {
			return fmt.Errorf("features.windows: %d is not a positive day count", w)
		}
	}
	if t := c.Training.TestFraction; t < 0 || t >= 1 {
		return fmt.Errorf("training.test_fraction %v outside [0, 1)", t)
	}
	return nil
}

// NewCalculator builds the feature calculator for the configured windows
func (c *Config) NewCalculator() *feature.Calculator {
	return feature.NewCalculator(c.Features.Windows...)
}

// NewClassifier builds the race classifier for the configured policy
func (c *Config) NewClassifier() *race.Classifier {
	return race.NewClassifier(c.Classifier)
}
