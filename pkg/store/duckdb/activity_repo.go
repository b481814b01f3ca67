package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tunogya/stride/pkg/model"
)

const upsertActivity = `
	INSERT INTO activities (
		id, name, type, distance_km, moving_time_min, elapsed_time_min,
		elevation_gain_m, start_date, start_date_local,
		average_heartrate, max_heartrate, average_cadence, elev_high, elev_low,
		pr_count, achievement_count, kudos_count, workout_type, description
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		type = EXCLUDED.type,
		distance_km = EXCLUDED.distance_km,
		moving_time_min = EXCLUDED.moving_time_min,
		elapsed_time_min = EXCLUDED.elapsed_time_min,
		elevation_gain_m = EXCLUDED.elevation_gain_m,
		start_date = EXCLUDED.start_date,
		start_date_local = EXCLUDED.start_date_local,
		average_heartrate = EXCLUDED.average_heartrate,
		max_heartrate = EXCLUDED.max_heartrate,
		average_cadence = EXCLUDED.average_cadence,
		elev_high = EXCLUDED.elev_high,
		elev_low = EXCLUDED.elev_low,
		pr_count = EXCLUDED.pr_count,
		achievement_count = EXCLUDED.achievement_count,
		kudos_count = EXCLUDED.kudos_count,
		workout_type = EXCLUDED.workout_type,
		description = EXCLUDED.description
`

const selectActivities = `
	SELECT id, name, type, distance_km, moving_time_min, elapsed_time_min,
		elevation_gain_m, start_date, start_date_local,
		average_heartrate, max_heartrate, average_cadence, elev_high, elev_low,
		pr_count, achievement_count, kudos_count, workout_type, description
	FROM activities
`

// ActivityRepo handles activity log persistence.
// It also serves as a data.ActivityProvider.
type ActivityRepo struct {
	client *Client
}

// NewActivityRepo creates a new activity repository
func NewActivityRepo(client *Client) *ActivityRepo {
	return &ActivityRepo{client: client}
}

// InsertBatch upserts activities in a transaction
func (r *ActivityRepo) InsertBatch(ctx context.Context, activities []model.Activity) error {
	return r.client.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertActivity)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i := range activities {
			a := &activities[i]
			var workoutType any
			if a.WorkoutType != nil {
				workoutType = *a.WorkoutType
			}
			_, err := stmt.ExecContext(ctx,
				a.ID, a.Name, a.Type, a.DistanceKm, a.MovingTimeMin, a.ElapsedTimeMin,
				a.ElevationGainM, a.StartDate, a.StartDateLocal,
				nullable(a.AvgHeartRate), nullable(a.MaxHeartRate), nullable(a.AvgCadence),
				nullable(a.ElevHigh), nullable(a.ElevLow),
				a.PRCount, a.AchievementCount, a.KudosCount, workoutType, a.Description,
			)
			if err != nil {
				return fmt.Errorf("failed to insert activity %d: %w", a.ID, err)
			}
		}
		return nil
	})
}

// FetchActivities returns the whole activity log in start order
func (r *ActivityRepo) FetchActivities(ctx context.Context) ([]model.Activity, error) {
	rows, err := r.client.Query(ctx, selectActivities+" ORDER BY start_date ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return activities, nil
}

// Count returns the number of stored activities
func (r *ActivityRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.client.QueryRow(ctx, "SELECT COUNT(*) FROM activities").Scan(&count)
	return count, err
}

func scanActivity(rows *sql.Rows) (model.Activity, error) {
	var a model.Activity
	var name, description sql.NullString
	var elapsed, elevation sql.NullFloat64
	var local sql.NullTime
	var workoutType sql.NullInt64
	var prCount, achievements, kudos sql.NullInt64

	err := rows.Scan(
		&a.ID, &name, &a.Type, &a.DistanceKm, &a.MovingTimeMin, &elapsed,
		&elevation, &a.StartDate, &local,
		&a.AvgHeartRate, &a.MaxHeartRate, &a.AvgCadence, &a.ElevHigh, &a.ElevLow,
		&prCount, &achievements, &kudos, &workoutType, &description,
	)
	if err != nil {
		return a, fmt.Errorf("failed to scan activity: %w", err)
	}

	a.Name = name.String
	a.Description = description.String
	a.ElapsedTimeMin = elapsed.Float64
	a.ElevationGainM = elevation.Float64
	a.StartDate = a.StartDate.UTC()
	if local.Valid {
		a.StartDateLocal = local.Time
	}
	a.PRCount = int(prCount.Int64)
	a.AchievementCount = int(achievements.Int64)
	a.KudosCount = int(kudos.Int64)
	if workoutType.Valid {
		code := int(workoutType.Int64)
		a.WorkoutType = &code
	}
	return a, nil
}

// nullable converts a Float into a driver value, NULL when missing
func nullable(f model.Float) any {
	if v, ok := f.Get(); ok {
		return v
	}
	return nil
}
