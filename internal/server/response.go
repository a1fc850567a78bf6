package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"energycast/internal/forecast"
	"energycast/internal/models"
	"math"
	"net/http"

	"github.com/shopspring/decimal"
)

// StrategyDetail is one row of strategy_details
type StrategyDetail struct {
	Valid   bool               `json:"valid"`
	Reason  string             `json:"error_reason,omitempty"`
	Details map[string]float64 `json:"details,omitempty"`
}

// Declined names a strategy that produced no prediction
type Declined struct {
	Strategy string `json:"strategy"`
	Reason   string `json:"reason"`
}

// NextHourForecast is the combined forecast for the next hour
type NextHourForecast struct {
	EnsemblePrediction float64                   `json:"ensemble_prediction"`
	ConfidenceInterval models.ConfidenceInterval `json:"confidence_interval"`
	Confidence         float64                   `json:"confidence"`
}

// buildPredictResponse flattens an engine response into the wire format.
// Every strategy gets a <name>_prediction key; the learned ones are always
// present and null unless they produced a value. algorithm_comparison holds
// only the valid predictions.
func buildPredictResponse(modelType string, resp *models.ForecastResponse) map[string]interface{} {
	out := map[string]interface{}{
		"model_type":   modelType,
		"statistics":   resp.Statistics,
		"correlations": resp.Correlations,
		"declined":     declinedOf(resp.Predictions),
	}

	for _, name := range forecast.LearnedStrategies {
		out[name+"_prediction"] = nil
	}

	comparison := make(map[string]float64, len(resp.Predictions))
	details := make(map[string]StrategyDetail, len(resp.Predictions))
	for _, p := range resp.Predictions {
		details[p.Strategy] = StrategyDetail{Valid: p.Valid, Reason: p.Reason, Details: roundDetails(p.Details)}
		if p.Valid {
			v := round2(p.Value)
			comparison[p.Strategy] = v
			out[p.Strategy+"_prediction"] = v
		} else {
			out[p.Strategy+"_prediction"] = nil
		}
	}
	out["algorithm_comparison"] = comparison
	out["strategy_details"] = details

	if e := resp.Ensemble; e != nil {
		interval := models.ConfidenceInterval{
			Lower: round2(e.Interval.Lower),
			Upper: round2(e.Interval.Upper),
		}
		out["ensemble_prediction"] = models.EnsembleResult{
			Value:        round2(e.Value),
			Interval:     interval,
			Confidence:   round2(e.Confidence),
			Spread:       round2(e.Spread),
			Contributors: e.Contributors,
		}
		out["next_hour_forecast"] = NextHourForecast{
			EnsemblePrediction: round2(e.Value),
			ConfidenceInterval: interval,
			Confidence:         round2(e.Confidence),
		}
	}

	return out
}

func declinedOf(predictions []models.StrategyPrediction) []Declined {
	declined := []Declined{}
	for _, p := range predictions {
		if !p.Valid {
			declined = append(declined, Declined{Strategy: p.Strategy, Reason: p.Reason})
		}
	}
	return declined
}

// round2 rounds half away from zero to two decimal places
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// roundDetails rounds diagnostics for the wire, dropping non-finite values
func roundDetails(details map[string]float64) map[string]float64 {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]float64, len(details))
	for k, v := range details {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = decimal.NewFromFloat(v).Round(4).InexactFloat64()
	}
	return out
}

// cacheKey hashes the canonical encoding of a request. Forecasts are
// deterministic, so equal keys always produce equal bodies.
func cacheKey(req PredictRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, body)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	writeJSON(w, status, map[string]string{"error": message, "kind": kind})
}
