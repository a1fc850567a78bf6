package forecast

import (
	"context"
	"energycast/internal/models"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Strategy identifiers. The set is closed; anything else is an UnknownModelError.
const (
	LinearRegression      = "linear_regression"
	HoltWinters           = "holt_winters"
	ARIMA                 = "arima"
	SeasonalDecomposition = "seasonal_decomposition"
	MovingAverage         = "moving_average"
	ExponentialSmoothing  = "exponential_smoothing"
	LSTM                  = "lstm"
	GRU                   = "gru"
)

// StatisticalStrategies are the closed-form strategies, in response order
var StatisticalStrategies = []string{
	LinearRegression,
	HoltWinters,
	ARIMA,
	SeasonalDecomposition,
	MovingAverage,
	ExponentialSmoothing,
}

// LearnedStrategies delegate to an external sequence model
var LearnedStrategies = []string{LSTM, GRU}

// Strategy predicts the next hour from a shared feature vector. Implementations
// must not mutate fv or window, and report failure through an invalid
// prediction rather than an error.
type Strategy interface {
	Name() string
	Predict(ctx context.Context, fv *FeatureVector, window models.Window) models.StrategyPrediction
}

// accept builds a valid prediction, clamped at zero. Non-finite values decline.
func accept(name string, value float64, details map[string]float64) models.StrategyPrediction {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return declineErr(name, &NumericInstabilityError{Op: name, Detail: "non-finite prediction"})
	}
	return models.StrategyPrediction{
		Strategy: name,
		Value:    math.Max(0, value),
		Valid:    true,
		Details:  details,
	}
}

// decline builds an invalid prediction carrying reason
func decline(name, reason string) models.StrategyPrediction {
	return declineErr(name, &StrategyDeclinedError{Strategy: name, Reason: reason})
}

// declineErr converts a strategy-local error into an invalid prediction
func declineErr(name string, err error) models.StrategyPrediction {
	reason := err.Error()
	var declined *StrategyDeclinedError
	if errors.As(err, &declined) && declined.Err == nil {
		reason = declined.Reason
	}
	return models.StrategyPrediction{
		Strategy: name,
		Valid:    false,
		Reason:   reason,
	}
}

// flatValue reports whether every value in series is identical
func flatValue(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	if floats.Min(series) != floats.Max(series) {
		return 0, false
	}
	return series[0], true
}
