package models

import "time"

// Observation is one hourly consumption reading with its weather covariates.
// Calendar fields are either supplied by the caller or derived from Timestamp.
type Observation struct {
	Timestamp   time.Time `json:"timestamp"`
	Consumption float64   `json:"consumption"` // MW
	Temperature float64   `json:"temperature"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Hour        int       `json:"hour"`
	DayOfWeek   int       `json:"dayofweek"` // Monday = 0
	Month       int       `json:"month"`
	DayOfYear   int       `json:"dayofyear"`
}

// NewObservation builds an observation and fills its calendar fields from ts
func NewObservation(ts time.Time, consumption, temperature float64, humidity *float64) Observation {
	o := Observation{
		Timestamp:   ts,
		Consumption: consumption,
		Temperature: temperature,
		Humidity:    humidity,
	}
	return o.WithCalendar()
}

// HasTimestamp reports whether the observation carries a real timestamp
// rather than ordinal calendar fields only.
func (o Observation) HasTimestamp() bool {
	return !o.Timestamp.IsZero()
}

// WithCalendar returns a copy with the calendar fields derived from the timestamp.
// Observations without a timestamp are returned unchanged.
func (o Observation) WithCalendar() Observation {
	if !o.HasTimestamp() {
		return o
	}
	o.Hour = o.Timestamp.Hour()
	o.DayOfWeek = (int(o.Timestamp.Weekday()) + 6) % 7
	o.Month = int(o.Timestamp.Month())
	o.DayOfYear = o.Timestamp.YearDay()
	return o
}

// Window is an ordered, time-ascending run of hourly observations
type Window []Observation

// Consumption returns the consumption series in window order
func (w Window) Consumption() []float64 {
	values := make([]float64, len(w))
	for i, o := range w {
		values[i] = o.Consumption
	}
	return values
}

// Temperatures returns the temperature series in window order
func (w Window) Temperatures() []float64 {
	values := make([]float64, len(w))
	for i, o := range w {
		values[i] = o.Temperature
	}
	return values
}

// HumidityPairs returns humidity and the matching consumption for every
// observation that carries a humidity reading.
func (w Window) HumidityPairs() (humidity, consumption []float64) {
	for _, o := range w {
		if o.Humidity == nil {
			continue
		}
		humidity = append(humidity, *o.Humidity)
		consumption = append(consumption, o.Consumption)
	}
	return humidity, consumption
}

// HasHumidity reports whether every observation carries humidity
func (w Window) HasHumidity() bool {
	if len(w) == 0 {
		return false
	}
	for _, o := range w {
		if o.Humidity == nil {
			return false
		}
	}
	return true
}

// Last returns the most recent observation. The window must not be empty.
func (w Window) Last() Observation {
	return w[len(w)-1]
}

// StrategyPrediction is the outcome of one forecasting strategy for one request
type StrategyPrediction struct {
	Strategy string             `json:"strategy"`
	Value    float64            `json:"predicted_value"`
	Valid    bool               `json:"valid"`
	Reason   string             `json:"error_reason,omitempty"`
	Details  map[string]float64 `json:"details,omitempty"`
}

// ConfidenceInterval bounds an ensemble estimate
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// EnsembleResult is the combination of all valid strategy predictions
type EnsembleResult struct {
	Value        float64            `json:"ensemble_value"`
	Interval     ConfidenceInterval `json:"confidence_interval"`
	Confidence   float64            `json:"confidence"` // 0-1
	Spread       float64            `json:"prediction_std"`
	Contributors []string           `json:"contributing_strategies"`
}

// Anomaly is an observation whose consumption sits far from the window mean
type Anomaly struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Hour      int       `json:"hour"`
	Value     float64   `json:"value"`
	ZScore    float64   `json:"z_score"`
	Severity  string    `json:"severity"` // "low", "medium", "high"
}

// StatisticsSummary describes the consumption distribution of a window
type StatisticsSummary struct {
	Count            int                `json:"count"`
	Mean             float64            `json:"mean_consumption"`
	Std              float64            `json:"std_consumption"`
	Min              float64            `json:"min_consumption"`
	Max              float64            `json:"max_consumption"`
	SeasonalAverages map[Season]float64 `json:"seasonal_averages"`
	PeakHours        []int              `json:"peak_hours"`
	Anomalies        []Anomaly          `json:"anomalies,omitempty"`
}

// CorrelationSummary holds Pearson correlations between covariates and consumption
type CorrelationSummary struct {
	TemperatureCorrelation float64 `json:"temperature_correlation"`
	HumidityCorrelation    float64 `json:"humidity_correlation"`
	TemperatureStrength    string  `json:"temperature_strength"`
	HumidityStrength       string  `json:"humidity_strength"`
}

// ForecastResponse is everything the engine produces for one request
type ForecastResponse struct {
	Predictions  []StrategyPrediction `json:"predictions"`
	Ensemble     *EnsembleResult      `json:"ensemble,omitempty"`
	Statistics   StatisticsSummary    `json:"statistics"`
	Correlations CorrelationSummary   `json:"correlations"`
}

// Prediction returns the prediction for the named strategy, if it was requested
func (r *ForecastResponse) Prediction(strategy string) (StrategyPrediction, bool) {
	for _, p := range r.Predictions {
		if p.Strategy == strategy {
			return p, true
		}
	}
	return StrategyPrediction{}, false
}

// ForecastRecord is a stored next-hour forecast for a region
type ForecastRecord struct {
	ID            int64     `json:"id"`
	Region        string    `json:"region"`
	GeneratedAt   time.Time `json:"generated_at"`
	TargetTime    time.Time `json:"target_time"`
	ModelType     string    `json:"model_type"`
	EnsembleValue float64   `json:"ensemble_value"`
	LowerBound    float64   `json:"lower_bound"`
	UpperBound    float64   `json:"upper_bound"`
	Confidence    float64   `json:"confidence"`
	Contributors  string    `json:"contributors"`
}

// AlertSuggestion represents a suggested demand alert rule
type AlertSuggestion struct {
	ID           int64     `json:"id"`
	Region       string    `json:"region"`
	MetricType   string    `json:"metric_type"`
	Threshold    float64   `json:"threshold"`
	Operator     string    `json:"operator"` // ">", "<"
	SuggestedAt  time.Time `json:"suggested_at"`
	Confidence   float64   `json:"confidence"` // 0-1
	Description  string    `json:"description"`
	AnomalyCount int       `json:"anomaly_count"`
}
