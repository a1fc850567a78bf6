package database

import (
	"database/sql"
	"energycast/internal/models"
	"fmt"
	"time"
)

// StoreObservations upserts hourly consumption readings for a region.
// Existing covariates are left untouched when a reading is re-imported.
func (db *DB) StoreObservations(region string, observations []models.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	queryStart := time.Now()
	var err error
	defer func() { db.recordQuery("UPSERT", "observations", queryStart, err) }()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if committed

	stmt, err := tx.Prepare(`INSERT INTO observations (region, timestamp, consumption, temperature, humidity)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE consumption = VALUES(consumption)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range observations {
		if _, err = stmt.Exec(region, o.Timestamp.UTC(), o.Consumption, o.Temperature, nullFloat(o.Humidity)); err != nil {
			return fmt.Errorf("failed to store observation for %s at %s: %w", region, o.Timestamp.Format(time.RFC3339), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateCovariates attaches weather readings to the stored observations of
// the same hour and returns how many observations were updated.
func (db *DB) UpdateCovariates(region string, samples []models.WeatherSample) (int64, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	queryStart := time.Now()
	var err error
	defer func() { db.recordQuery("UPDATE", "observations", queryStart, err) }()

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE observations SET temperature = ?, humidity = ? WHERE region = ? AND timestamp = ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	var updated int64
	for _, s := range samples {
		var res sql.Result
		res, err = stmt.Exec(s.Temperature, nullFloat(s.Humidity), region, s.Timestamp.UTC())
		if err != nil {
			return updated, fmt.Errorf("failed to update covariates for %s at %s: %w", region, s.Timestamp.Format(time.RFC3339), err)
		}
		if n, rowsErr := res.RowsAffected(); rowsErr == nil {
			updated += n
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// GetRecentObservations returns the latest limit observations for a region,
// oldest first, with calendar fields derived from their timestamps.
func (db *DB) GetRecentObservations(region string, limit int) (models.Window, error) {
	queryStart := time.Now()
	query := `SELECT timestamp, consumption, temperature, humidity FROM observations
		WHERE region = ? ORDER BY timestamp DESC LIMIT ?`
	rows, err := db.conn.Query(query, region, limit)
	db.recordQuery("SELECT", "observations", queryStart, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var window models.Window
	for rows.Next() {
		var (
			ts          time.Time
			consumption float64
			temperature sql.NullFloat64
			humidity    sql.NullFloat64
		)
		if err := rows.Scan(&ts, &consumption, &temperature, &humidity); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		var h *float64
		if humidity.Valid {
			v := humidity.Float64
			h = &v
		}
		window = append(window, models.NewObservation(ts.UTC(), consumption, temperature.Float64, h))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	// newest first from the query; the engine expects ascending order
	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	return window, nil
}

// StoreAnomalies stores consumption anomalies detected for a region
func (db *DB) StoreAnomalies(region string, anomalies []models.Anomaly) error {
	if len(anomalies) == 0 {
		return nil // Nothing to store
	}

	queryStart := time.Now()
	var err error
	defer func() { db.recordQuery("INSERT", "anomalies", queryStart, err) }()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO anomalies (region, timestamp, value, z_score, severity) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range anomalies {
		if _, err = stmt.Exec(region, a.Timestamp.UTC(), a.Value, a.ZScore, a.Severity); err != nil {
			return fmt.Errorf("failed to insert anomaly for %s at %s: %w", region, a.Timestamp.Format(time.RFC3339), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
