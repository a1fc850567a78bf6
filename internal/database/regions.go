package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateRegion is returned when a region name already exists
var ErrDuplicateRegion = errors.New("duplicate region")

// mysqlDuplicateEntry is the server error number for a unique key violation
const mysqlDuplicateEntry = 1062

// Region represents a region in the database
type Region struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// InsertRegion inserts a new region into the database
func (db *DB) InsertRegion(name string, latitude, longitude float64) error {
	query := `INSERT INTO regions (name, latitude, longitude) VALUES (?, ?, ?)`
	_, err := db.conn.Exec(query, name, latitude, longitude)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrDuplicateRegion
		}
		return fmt.Errorf("failed to insert region: %w", err)
	}
	return nil
}

// GetAllRegions retrieves all regions ordered by name
func (db *DB) GetAllRegions() ([]Region, error) {
	query := `SELECT id, name, latitude, longitude FROM regions ORDER BY name`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	var regions []Region
	for rows.Next() {
		var r Region
		if err := rows.Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating regions: %w", err)
	}

	return regions, nil
}

// GetRegionByName retrieves a specific region by name
func (db *DB) GetRegionByName(name string) (*Region, error) {
	query := `SELECT id, name, latitude, longitude FROM regions WHERE name = ? LIMIT 1`
	row := db.conn.QueryRow(query, name)

	var r Region
	if err := row.Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("region not found: %s", name)
		}
		return nil, fmt.Errorf("failed to scan region: %w", err)
	}

	return &r, nil
}

// GetRegionsWithData returns the set of regions that have stored observations
func (db *DB) GetRegionsWithData() (map[string]bool, error) {
	query := `SELECT DISTINCT region FROM observations`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get regions with data: %w", err)
	}
	defer rows.Close()

	regions := make(map[string]bool)
	for rows.Next() {
		var region string
		if err := rows.Scan(&region); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions[region] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating regions: %w", err)
	}

	return regions, nil
}
