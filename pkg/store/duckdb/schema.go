package duckdb

import (
	"context"
	"fmt"
)

// CreateActivitiesTable creates the activity log table
const CreateActivitiesTable = `
CREATE TABLE IF NOT EXISTS activities (
    id BIGINT PRIMARY KEY,
    name VARCHAR,
    type VARCHAR NOT NULL,
    distance_km DOUBLE NOT NULL,
    moving_time_min DOUBLE NOT NULL,
    elapsed_time_min DOUBLE,
    elevation_gain_m DOUBLE,
    start_date TIMESTAMPTZ NOT NULL,
    start_date_local TIMESTAMP,
    average_heartrate DOUBLE,
    max_heartrate DOUBLE,
    average_cadence DOUBLE,
    elev_high DOUBLE,
    elev_low DOUBLE,
    pr_count INTEGER DEFAULT 0,
    achievement_count INTEGER DEFAULT 0,
    kudos_count INTEGER DEFAULT 0,
    workout_type INTEGER,
    description VARCHAR
);

CREATE INDEX IF NOT EXISTS idx_activities_start ON activities(start_date);
`

// CreateRacesTable creates the race dataset table
const CreateRacesTable = `
CREATE TABLE IF NOT EXISTS races (
    race_id BIGINT PRIMARY KEY,
    race_date TIMESTAMPTZ NOT NULL,
    name VARCHAR,
    race_distance VARCHAR NOT NULL,
    distance_km DOUBLE NOT NULL,
    time_min DOUBLE NOT NULL,
    pace_min_per_km DOUBLE,
    elevation_gain_m DOUBLE,
    average_heartrate DOUBLE,
    feature_set_id VARCHAR NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_races_distance ON races(race_distance);
`

// CreateRaceFeatureValuesTable stores one row per (race, feature).
// ordinal preserves the frozen feature order; a NULL value is missing.
const CreateRaceFeatureValuesTable = `
CREATE TABLE IF NOT EXISTS race_feature_values (
    race_id BIGINT NOT NULL,
    ordinal INTEGER NOT NULL,
    feature_name VARCHAR NOT NULL,
    value DOUBLE,
    PRIMARY KEY (race_id, feature_name)
);
`

// InitializeSchema creates all required tables
func InitializeSchema(c *Client) error {
	schemas := []string{
		CreateActivitiesTable,
		CreateRacesTable,
		CreateRaceFeatureValuesTable,
	}

	for _, schema := range schemas {
		if err := c.Exec(context.Background(), schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with caution)
func DropAllTables(c *Client) error {
	tables := []string{"race_feature_values", "races", "activities"}
	for _, table := range tables {
		if err := c.Exec(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
