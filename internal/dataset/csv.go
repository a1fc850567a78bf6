package dataset

import (
	"encoding/csv"
	"energycast/internal/models"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{"timestamp", "consumption", "temperature", "humidity"}

// ReadCSV imports a recorded history. The header must name timestamp and
// consumption columns; temperature and humidity are optional. Timestamps are
// RFC 3339 and rows must be in ascending order.
func ReadCSV(r io.Reader) (models.Window, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	tsCol, okTS := cols["timestamp"]
	consCol, okCons := cols["consumption"]
	if !okTS || !okCons {
		return nil, fmt.Errorf("CSV header %v must contain timestamp and consumption", header)
	}
	tempCol, hasTemp := cols["temperature"]
	humCol, hasHum := cols["humidity"]

	var window models.Window
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := time.Parse(time.RFC3339, record[tsCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid timestamp: %w", line, err)
		}
		consumption, err := strconv.ParseFloat(record[consCol], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid consumption: %w", line, err)
		}

		var temperature float64
		if hasTemp && record[tempCol] != "" {
			if temperature, err = strconv.ParseFloat(record[tempCol], 64); err != nil {
				return nil, fmt.Errorf("line %d: invalid temperature: %w", line, err)
			}
		}

		var humidity *float64
		if hasHum && record[humCol] != "" {
			h, err := strconv.ParseFloat(record[humCol], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid humidity: %w", line, err)
			}
			humidity = &h
		}

		window = append(window, models.NewObservation(ts.UTC(), consumption, temperature, humidity))
	}

	return window, nil
}

// WriteCSV exports a history in the format ReadCSV accepts
func WriteCSV(w io.Writer, window models.Window) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, o := range window {
		humidity := ""
		if o.Humidity != nil {
			humidity = strconv.FormatFloat(*o.Humidity, 'f', -1, 64)
		}
		record := []string{
			o.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(o.Consumption, 'f', -1, 64),
			strconv.FormatFloat(o.Temperature, 'f', -1, 64),
			humidity,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
