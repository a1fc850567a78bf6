package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Forecast engine metrics
var (
	// ForecastRequestsTotal tracks forecast requests by outcome
	ForecastRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energycast_forecast_requests_total",
			Help: "Total number of forecast requests by outcome",
		},
		[]string{"outcome"},
	)

	// ForecastDuration tracks end-to-end forecast latency
	ForecastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "energycast_forecast_duration_seconds",
			Help:    "Duration of a full forecast request in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// StrategyPredictionsTotal tracks strategy outcomes
	StrategyPredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energycast_strategy_predictions_total",
			Help: "Total number of strategy predictions by validity",
		},
		[]string{"strategy", "status"},
	)

	// StrategyDuration tracks how long each strategy takes
	StrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "energycast_strategy_duration_seconds",
			Help:    "Duration of a single strategy prediction in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"strategy"},
	)

	// EnsembleConfidence tracks the reported ensemble confidence
	EnsembleConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "energycast_ensemble_confidence",
			Help:    "Confidence reported by the ensemble combiner",
			Buckets: []float64{.5, .6, .7, .8, .9, .95, .99},
		},
	)
)

// HTTP metrics
var (
	// HTTPRequestsTotal tracks API requests by route and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energycast_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	// PredictCacheTotal tracks /predict response cache lookups
	PredictCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "energycast_predict_cache_total",
			Help: "Prediction cache lookups by result",
		},
		[]string{"result"},
	)
)

// Database metrics
var (
	// DBQueriesTotal tracks the total number of database queries
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries executed",
		},
		[]string{"query_type", "table", "status"},
	)

	// DBQueryDuration tracks the duration of database queries
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query_type", "table"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of established connections both in use and idle",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle connections",
		},
	)

	// AppInfo provides static information about the application
	AppInfo = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "energycast_app_info",
			Help: "Application information (always 1)",
		},
	)

	// AppStartTime records when the application started
	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "energycast_app_start_time_seconds",
			Help: "Unix timestamp of when the application started",
		},
	)
)

func init() {
	AppInfo.Set(1)
	AppStartTime.SetToCurrentTime()
}

// RecordForecast records the outcome of one forecast request
func RecordForecast(outcome string, duration time.Duration) {
	ForecastRequestsTotal.WithLabelValues(outcome).Inc()
	ForecastDuration.Observe(duration.Seconds())
}

// RecordStrategy records one strategy prediction
func RecordStrategy(strategy string, duration time.Duration, valid bool) {
	status := "valid"
	if !valid {
		status = "declined"
	}
	StrategyPredictionsTotal.WithLabelValues(strategy, status).Inc()
	StrategyDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordEnsemble records the confidence of a combined forecast
func RecordEnsemble(confidence float64) {
	EnsembleConfidence.Observe(confidence)
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(route string, status int) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// RecordCacheLookup records a prediction cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	PredictCacheTotal.WithLabelValues(result).Inc()
}

// RecordDBQuery records a database query execution
func RecordDBQuery(queryType, table string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueriesTotal.WithLabelValues(queryType, table, status).Inc()
	DBQueryDuration.WithLabelValues(queryType, table).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(open, inUse, idle int) {
	DBConnectionsOpen.Set(float64(open))
	DBConnectionsInUse.Set(float64(inUse))
	DBConnectionsIdle.Set(float64(idle))
}
