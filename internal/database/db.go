package database

import (
	"database/sql"
	"energycast/internal/config"
	"energycast/internal/metrics"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// DB represents the database connection
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection and initializes the schema
// dsn format: "username:password@tcp(host:port)/dbname?parseTime=true"
// example: "user:pass@tcp(localhost:3306)/energycast?parseTime=true"
func NewDB(dsn string, pool config.PoolConfig) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(pool.MaxOpenConns)
	conn.SetMaxIdleConns(pool.MaxIdleConns)
	conn.SetConnMaxLifetime(pool.ConnMaxLifetime)

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	// MySQL doesn't support multiple statements in one Exec, so we need to split them
	statements := []string{
		`CREATE TABLE IF NOT EXISTS regions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			UNIQUE KEY uq_regions_name (name)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS observations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			region VARCHAR(255) NOT NULL,
			timestamp DATETIME NOT NULL,
			consumption DOUBLE NOT NULL,
			temperature DOUBLE NULL,
			humidity DOUBLE NULL,
			UNIQUE KEY uq_observations_region_ts (region, timestamp),
			INDEX idx_observations_timestamp (timestamp)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS forecasts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			region VARCHAR(255) NOT NULL,
			generated_at DATETIME(6) NOT NULL,
			target_time DATETIME NOT NULL,
			model_type VARCHAR(50) NOT NULL,
			ensemble_value DOUBLE NOT NULL,
			lower_bound DOUBLE NOT NULL,
			upper_bound DOUBLE NOT NULL,
			confidence DOUBLE NOT NULL,
			contributors VARCHAR(512) NOT NULL,
			INDEX idx_forecasts_region_target (region, target_time)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS anomalies (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			region VARCHAR(255) NOT NULL,
			timestamp DATETIME NOT NULL,
			value DOUBLE NOT NULL,
			z_score DOUBLE NOT NULL,
			severity VARCHAR(50) NOT NULL,
			INDEX idx_anomalies_region_ts (region, timestamp)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS alert_suggestions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			region VARCHAR(255) NOT NULL,
			metric_type VARCHAR(100) NOT NULL,
			threshold DOUBLE NOT NULL,
			operator VARCHAR(10) NOT NULL,
			suggested_at DATETIME(6) NOT NULL,
			confidence DOUBLE NOT NULL,
			description TEXT NOT NULL,
			anomaly_count INT NOT NULL,
			INDEX idx_alert_suggestions_region (region)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// recordQuery records query latency and refreshes the pool gauges
func (db *DB) recordQuery(queryType, table string, start time.Time, err error) {
	metrics.RecordDBQuery(queryType, table, time.Since(start), err)
	stats := db.conn.Stats()
	metrics.UpdateDBConnectionStats(stats.OpenConnections, stats.InUse, stats.Idle)
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
