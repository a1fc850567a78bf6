package database

import (
	"energycast/internal/models"
	"fmt"
	"time"
)

// StoreForecast stores a next-hour forecast and sets its ID
func (db *DB) StoreForecast(rec *models.ForecastRecord) error {
	queryStart := time.Now()
	query := `INSERT INTO forecasts (region, generated_at, target_time, model_type, ensemble_value, lower_bound, upper_bound, confidence, contributors)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.conn.Exec(query, rec.Region, rec.GeneratedAt.UTC(), rec.TargetTime.UTC(), rec.ModelType,
		rec.EnsembleValue, rec.LowerBound, rec.UpperBound, rec.Confidence, rec.Contributors)
	db.recordQuery("INSERT", "forecasts", queryStart, err)
	if err != nil {
		return fmt.Errorf("failed to store forecast for %s: %w", rec.Region, err)
	}

	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// GetForecasts retrieves the most recent forecasts for a region
func (db *DB) GetForecasts(region string, limit int) ([]models.ForecastRecord, error) {
	queryStart := time.Now()
	query := `SELECT id, region, generated_at, target_time, model_type, ensemble_value, lower_bound, upper_bound, confidence, contributors
	          FROM forecasts WHERE region = ? ORDER BY target_time DESC LIMIT ?`
	rows, err := db.conn.Query(query, region, limit)
	db.recordQuery("SELECT", "forecasts", queryStart, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ForecastRecord
	for rows.Next() {
		var r models.ForecastRecord
		if err := rows.Scan(&r.ID, &r.Region, &r.GeneratedAt, &r.TargetTime, &r.ModelType,
			&r.EnsembleValue, &r.LowerBound, &r.UpperBound, &r.Confidence, &r.Contributors); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// StoreAlertSuggestion stores an alert suggestion
func (db *DB) StoreAlertSuggestion(suggestion *models.AlertSuggestion) error {
	queryStart := time.Now()
	query := `INSERT INTO alert_suggestions (region, metric_type, threshold, operator, suggested_at, confidence, description, anomaly_count)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.conn.Exec(query, suggestion.Region, suggestion.MetricType, suggestion.Threshold, suggestion.Operator, suggestion.SuggestedAt,
		suggestion.Confidence, suggestion.Description, suggestion.AnomalyCount)
	db.recordQuery("INSERT", "alert_suggestions", queryStart, err)
	return err
}

// GetAlertSuggestions retrieves alert suggestions for a region, most confident first
func (db *DB) GetAlertSuggestions(region string, limit int) ([]models.AlertSuggestion, error) {
	query := `SELECT id, region, metric_type, threshold, operator, suggested_at, confidence, description, anomaly_count
	          FROM alert_suggestions WHERE region = ? ORDER BY confidence DESC, suggested_at DESC LIMIT ?`
	rows, err := db.conn.Query(query, region, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []models.AlertSuggestion
	for rows.Next() {
		var s models.AlertSuggestion
		if err := rows.Scan(&s.ID, &s.Region, &s.MetricType, &s.Threshold, &s.Operator, &s.SuggestedAt, &s.Confidence, &s.Description, &s.AnomalyCount); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}

	return suggestions, rows.Err()
}
