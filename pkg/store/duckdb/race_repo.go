package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tunogya/stride/pkg/model"
)

// RaceRepo persists the race dataset: one races row per race and one
// race_feature_values row per (race, feature).
type RaceRepo struct {
	client *Client
}

// NewRaceRepo creates a new race repository
func NewRaceRepo(client *Client) *RaceRepo {
	return &RaceRepo{client: client}
}

// ReplaceDataset stores ds, replacing any previously stored dataset.
// The old rows are cleared in a separate transaction: DuckDB rejects
// re-inserting a key deleted earlier in the same transaction.
func (r *RaceRepo) ReplaceDataset(ctx context.Context, ds *model.RaceDataset) error {
	if err := r.Clear(ctx); err != nil {
		return err
	}
	return r.InsertDataset(ctx, ds)
}

// Clear removes every stored race and feature value
func (r *RaceRepo) Clear(ctx context.Context) error {
	return r.client.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM race_feature_values"); err != nil {
			return fmt.Errorf("failed to clear feature values: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM races"); err != nil {
			return fmt.Errorf("failed to clear races: %w", err)
		}
		return nil
	})
}

// InsertDataset upserts the rows of ds
func (r *RaceRepo) InsertDataset(ctx context.Context, ds *model.RaceDataset) error {
	return r.client.WithTx(ctx, func(tx *sql.Tx) error {
		return insertDataset(ctx, tx, ds)
	})
}

func insertDataset(ctx context.Context, tx *sql.Tx, ds *model.RaceDataset) error {
	if ds.Empty() {
		return nil
	}
	setID := model.GenerateFeatureSetID(ds.FeatureNames)

	raceStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO races (
			race_id, race_date, name, race_distance, distance_km, time_min,
			pace_min_per_km, elevation_gain_m, average_heartrate, feature_set_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (race_id) DO UPDATE SET
			race_date = EXCLUDED.race_date,
			name = EXCLUDED.name,
			race_distance = EXCLUDED.race_distance,
			distance_km = EXCLUDED.distance_km,
			time_min = EXCLUDED.time_min,
			pace_min_per_km = EXCLUDED.pace_min_per_km,
			elevation_gain_m = EXCLUDED.elevation_gain_m,
			average_heartrate = EXCLUDED.average_heartrate,
			feature_set_id = EXCLUDED.feature_set_id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare race statement: %w", err)
	}
	defer raceStmt.Close()

	valueStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO race_feature_values (race_id, ordinal, feature_name, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (race_id, feature_name) DO UPDATE SET
			ordinal = EXCLUDED.ordinal,
			value = EXCLUDED.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare feature statement: %w", err)
	}
	defer valueStmt.Close()

	for _, row := range ds.Rows {
		_, err := raceStmt.ExecContext(ctx,
			row.RaceID, row.Date, row.Name, string(row.Distance), row.DistanceKm, row.TimeMin,
			nullable(row.PaceMinPerKm), row.ElevationGainM, nullable(row.AvgHeartRate), setID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert race %d: %w", row.RaceID, err)
		}
		for ordinal, name := range ds.FeatureNames {
			if _, err := valueStmt.ExecContext(ctx, row.RaceID, ordinal, name, nullable(row.Features.Get(name))); err != nil {
				return fmt.Errorf("failed to insert feature %s for race %d: %w", name, row.RaceID, err)
			}
		}
	}
	return nil
}

// LoadDataset reads the stored dataset back in date order. Feature names
// come from the stored ordinals.
func (r *RaceRepo) LoadDataset(ctx context.Context) (*model.RaceDataset, error) {
	ds := &model.RaceDataset{}

	names, err := r.featureNames(ctx)
	if err != nil {
		return nil, err
	}
	ds.FeatureNames = names

	rows, err := r.client.Query(ctx, `
		SELECT race_id, race_date, name, race_distance, distance_km, time_min,
			pace_min_per_km, elevation_gain_m, average_heartrate
		FROM races
		ORDER BY race_date ASC, race_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query races: %w", err)
	}
	defer rows.Close()

	index := make(map[int64]int)
	for rows.Next() {
		var row model.RaceFeatureRow
		var name sql.NullString
		var distance string
		var elevation sql.NullFloat64
		err := rows.Scan(
			&row.RaceID, &row.Date, &name, &distance, &row.DistanceKm, &row.TimeMin,
			&row.PaceMinPerKm, &elevation, &row.AvgHeartRate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		row.Date = row.Date.UTC()
		row.Name = name.String
		row.Distance, _ = model.ParseRaceDistance(distance)
		row.ElevationGainM = elevation.Float64
		row.Features = make(model.FeatureMap, len(names))
		index[row.RaceID] = len(ds.Rows)
		ds.Rows = append(ds.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate races: %w", err)
	}

	values, err := r.client.Query(ctx, "SELECT race_id, feature_name, value FROM race_feature_values")
	if err != nil {
		return nil, fmt.Errorf("failed to query feature values: %w", err)
	}
	defer values.Close()

	for values.Next() {
		var raceID int64
		var name string
		var v model.Float
		if err := values.Scan(&raceID, &name, &v); err != nil {
			return nil, fmt.Errorf("failed to scan feature value: %w", err)
		}
		if i, ok := index[raceID]; ok {
			ds.Rows[i].Features[name] = v
		}
	}
	if err := values.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feature values: %w", err)
	}

	return ds, nil
}

func (r *RaceRepo) featureNames(ctx context.Context) ([]string, error) {
	rows, err := r.client.Query(ctx, `
		SELECT DISTINCT ordinal, feature_name
		FROM race_feature_values
		ORDER BY ordinal ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var ordinal int
		var name string
		if err := rows.Scan(&ordinal, &name); err != nil {
			return nil, fmt.Errorf("failed to scan feature name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the number of stored races
func (r *RaceRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.client.QueryRow(ctx, "SELECT COUNT(*) FROM races").Scan(&count)
	return count, err
}
