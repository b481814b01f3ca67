package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/stride/pkg/feature"
	"github.com/tunogya/stride/pkg/race"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stride.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, race.DefaultPolicy(), cfg.Classifier)
	assert.Equal(t, feature.DefaultWindows, cfg.Features.Windows)
	assert.Equal(t, "models", cfg.Export.ModelDir)
	assert.Equal(t, 10, cfg.Similar.TopK)
	assert.False(t, cfg.Similar.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"

[classifier]
pace_percentile = 0.3
min_distance_km = 4.0

[features]
windows = [7, 28]

[training]
max_features = 4

[duckdb]
path = ""

[similar]
enabled = true
top_k = 5
min_score = 0.25

[similar.decay]
use_segments = true
`)

	cfg, err := Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.InDelta(t, 0.3, cfg.Classifier.PacePercentile, 1e-9)
	assert.InDelta(t, 4.0, cfg.Classifier.MinDistanceKm, 1e-9)
	assert.Equal(t, 2, cfg.Classifier.AchievementsAbove)
	assert.Equal(t, race.DefaultBuckets(), cfg.Classifier.Buckets)
	assert.Equal(t, []int{7, 28}, cfg.Features.Windows)
	assert.Equal(t, 4, cfg.Training.MaxFeatures)
	assert.InDelta(t, 0.2, cfg.Training.TestFraction, 1e-9)
	assert.Empty(t, cfg.DuckDB.Path)
	assert.True(t, cfg.Similar.Enabled)
	assert.Equal(t, 5, cfg.Similar.TopK)
	assert.InDelta(t, 0.25, cfg.Similar.MinScore, 1e-9)
	assert.True(t, cfg.Similar.Decay.UseSegments)
	assert.InDelta(t, 0.7, cfg.Similar.Decay.MediumWeight, 1e-9)

	assert.Equal(t, []int{7, 28}, cfg.NewCalculator().Windows())
	assert.InDelta(t, 0.3, cfg.NewClassifier().Policy().PacePercentile, 1e-9)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "[logging]\nlevl = \"debug\"\n")

	_, err := Load(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "levl")
}

func TestLoad_InvalidValues(t *testing.T) {
	for _, content := range []string{
		"[classifier]\npace_percentile = 1.5\n",
		"[features]\nwindows = [7, 0]\n",
		"[training]\ntest_fraction = 1.0\n",
		"[[classifier.buckets]]\ndistance = \"5K\"\nmin_km = 6.0\nmax_km = 4.0\n",
	} {
		_, err := Load(writeConfig(t, content), false)
		assert.Error(t, err, content)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(path, false)
	assert.Error(t, err)

	cfg, err = Load("", false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
