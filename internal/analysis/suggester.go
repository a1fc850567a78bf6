package analysis

import (
	"energycast/internal/models"
	"time"
)

// AlertSuggester suggests demand alerts based on repeated consumption anomalies
type AlertSuggester struct {
	minAnomaliesForSuggestion int
	now                       func() time.Time
}

// NewAlertSuggester creates a new alert suggester
func NewAlertSuggester() *AlertSuggester {
	return &AlertSuggester{
		minAnomaliesForSuggestion: 3, // Suggest after 3 anomalies on the same side
		now:                       time.Now,
	}
}

// SuggestAlerts groups anomalies into surges and drops and proposes a
// threshold alert for each group that recurs often enough.
func (as *AlertSuggester) SuggestAlerts(anomalies []models.Anomaly, region string) []models.AlertSuggestion {
	if len(anomalies) == 0 {
		return nil
	}

	var surges, drops []models.Anomaly
	for _, a := range anomalies {
		if a.ZScore > 0 {
			surges = append(surges, a)
		} else {
			drops = append(drops, a)
		}
	}

	var suggestions []models.AlertSuggestion
	if len(surges) >= as.minAnomaliesForSuggestion {
		suggestions = append(suggestions, as.generateSuggestion(region, surges, ">"))
	}
	if len(drops) >= as.minAnomaliesForSuggestion {
		suggestions = append(suggestions, as.generateSuggestion(region, drops, "<"))
	}

	return suggestions
}

// generateSuggestion creates an alert suggestion for one side of the distribution
func (as *AlertSuggester) generateSuggestion(region string, anomalies []models.Anomaly, operator string) models.AlertSuggestion {
	values := make([]float64, len(anomalies))
	for i, a := range anomalies {
		values[i] = a.Value
	}
	mean, stdDev := meanStdDev(values)

	var threshold float64
	var description string
	if operator == ">" {
		threshold = mean - stdDev
		description = "Consumption surging above normal demand"
	} else {
		threshold = mean + stdDev
		description = "Consumption dropping below normal demand"
	}

	return models.AlertSuggestion{
		Region:       region,
		MetricType:   "consumption",
		Threshold:    threshold,
		Operator:     operator,
		SuggestedAt:  as.now(),
		Confidence:   as.calculateConfidence(values, threshold, operator),
		Description:  description,
		AnomalyCount: len(anomalies),
	}
}

// calculateConfidence is the share of anomalies the threshold would have caught
func (as *AlertSuggester) calculateConfidence(values []float64, threshold float64, operator string) float64 {
	if len(values) == 0 {
		return 0
	}

	triggeredCount := 0
	for _, v := range values {
		if operator == ">" && v > threshold {
			triggeredCount++
		} else if operator == "<" && v < threshold {
			triggeredCount++
		}
	}

	return float64(triggeredCount) / float64(len(values))
}
