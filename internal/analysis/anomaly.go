package analysis

import (
	"energycast/internal/models"
	"math"
)

// DetectAnomalies flags observations whose consumption z-score exceeds threshold
func DetectAnomalies(window models.Window, mean, stdDev, threshold float64) []models.Anomaly {
	if stdDev == 0 {
		return nil // No variation, no anomalies
	}

	var anomalies []models.Anomaly
	for i, o := range window {
		zScore := CalculateZScore(o.Consumption, mean, stdDev)
		if !IsOutlier(zScore, threshold) {
			continue
		}
		anomalies = append(anomalies, models.Anomaly{
			Index:     i,
			Timestamp: o.Timestamp,
			Hour:      o.Hour,
			Value:     o.Consumption,
			ZScore:    zScore,
			Severity:  severityFromZScore(zScore, threshold),
		})
	}
	return anomalies
}

// severityFromZScore grades an outlier by how far past the threshold it lies
func severityFromZScore(zScore, threshold float64) string {
	abs := math.Abs(zScore)
	if abs > threshold+1.0 {
		return "high"
	} else if abs > threshold+0.5 {
		return "medium"
	}
	return "low"
}

// CalculateZScore calculates the Z-score for a value given mean and standard deviation
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}

// IsOutlier checks if a Z-score lies strictly beyond threshold standard deviations
func IsOutlier(zScore, threshold float64) bool {
	return math.Abs(zScore) > threshold
}
