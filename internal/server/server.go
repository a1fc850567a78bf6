package server

import (
	"encoding/json"
	"energycast/internal/analysis"
	"energycast/internal/dataset"
	"energycast/internal/forecast"
	"energycast/internal/metrics"
	"energycast/internal/models"
	"errors"
	"net/http"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultSampleHours = 168
	maxSampleHours     = 8760
	maxRequestBytes    = 8 << 20
	defaultModelType   = "both"
)

// Options configures the HTTP surface
type Options struct {
	CacheSize      int     // cached /predict responses; 0 disables the cache
	RateLimit      float64 // /predict requests per second; 0 disables limiting
	Burst          int
	AllowedOrigins []string
	SampleSeed     uint64
	LearnedEnabled bool
}

// PredictRequest is the body of POST /predict
type PredictRequest struct {
	Data      []models.Observation `json:"data"`
	ModelType string               `json:"model_type"`
}

// Server represents the HTTP server
type Server struct {
	orchestrator *forecast.Orchestrator
	analyzer     *analysis.Analyzer
	opts         Options
	cache        *lru.Cache[string, []byte]
	limiter      *rate.Limiter
	logger       logrus.FieldLogger
	now          func() time.Time
	mux          *http.ServeMux
}

// NewServer creates a new HTTP server
func NewServer(orch *forecast.Orchestrator, analyzer *analysis.Analyzer, opts Options, logger logrus.FieldLogger) (*Server, error) {
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(analysis.DefaultConfig())
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		orchestrator: orch,
		analyzer:     analyzer,
		opts:         opts,
		logger:       logger,
		now:          time.Now,
		mux:          http.NewServeMux(),
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, []byte](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	// Register routes
	s.mux.HandleFunc("/health", s.instrument("/health", s.handleHealth))
	s.mux.HandleFunc("/sample-data", s.instrument("/sample-data", s.handleSampleData))
	s.mux.HandleFunc("/predict", s.instrument("/predict", s.rateLimited(s.handlePredict)))
	s.mux.HandleFunc("/model-info", s.instrument("/model-info", s.handleModelInfo))
	s.mux.Handle("/metrics", promhttp.Handler())

	return s, nil
}

// Handler returns the root handler with CORS applied
func (s *Server) Handler() http.Handler {
	return s.cors(s.mux)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth returns the server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"time":           s.now().UTC().Format(time.RFC3339),
		"learned_models": s.opts.LearnedEnabled,
	})
}

// handleSampleData returns a synthetic history with its statistics
func (s *Server) handleSampleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "method_not_allowed")
		return
	}

	hours := defaultSampleHours
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		h, err := strconv.Atoi(hoursStr)
		if err != nil || h <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer", "invalid_request")
			return
		}
		hours = min(h, maxSampleHours)
	}

	end := s.now().UTC().Truncate(time.Hour)
	samples := dataset.NewGenerator(s.opts.SampleSeed).Hourly(end.Add(-time.Duration(hours)*time.Hour), hours)
	window := make(models.Window, len(samples))
	for i, sample := range samples {
		window[i] = sample.Observation
	}
	stats, corr := s.analyzer.Analyze(window)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":         samples,
		"count":        len(samples),
		"statistics":   stats,
		"correlations": corr,
	})
}

// handlePredict runs the forecast engine over the posted window
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "method_not_allowed")
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error(), "invalid_request")
		return
	}
	if req.ModelType == "" {
		req.ModelType = defaultModelType
	}

	key, keyErr := cacheKey(req)
	if s.cache != nil && keyErr == nil {
		body, hit := s.cache.Get(key)
		metrics.RecordCacheLookup(hit)
		if hit {
			w.Header().Set("X-Cache", "HIT")
			writeRaw(w, http.StatusOK, body)
			return
		}
	}

	strategies, err := forecast.ResolveModelType(req.ModelType)
	if err != nil {
		s.writeForecastError(w, r, err, nil)
		return
	}

	window := make(models.Window, len(req.Data))
	for i, o := range req.Data {
		window[i] = o.WithCalendar()
	}

	resp, err := s.orchestrator.Forecast(r.Context(), window, strategies)
	if err != nil {
		s.writeForecastError(w, r, err, resp)
		return
	}

	body, err := json.Marshal(buildPredictResponse(req.ModelType, resp))
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode prediction")
		writeError(w, http.StatusInternalServerError, "failed to encode response", "internal")
		return
	}

	if s.cache != nil && keyErr == nil {
		s.cache.Add(key, body)
		w.Header().Set("X-Cache", "MISS")
	}
	writeRaw(w, http.StatusOK, body)
}

// handleModelInfo describes the available strategies and their inputs
func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	cfg := s.orchestrator.Config()

	strategies := make([]map[string]string, 0, len(strategyDescriptions))
	for _, name := range s.orchestrator.Strategies() {
		kind := "statistical"
		for _, learned := range forecast.LearnedStrategies {
			if name == learned {
				kind = "learned"
			}
		}
		strategies = append(strategies, map[string]string{
			"name":        name,
			"type":        kind,
			"description": strategyDescriptions[name],
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"strategies":  strategies,
		"model_types": forecast.ModelTypes,
		"input_requirements": map[string]interface{}{
			"min_observations": cfg.MinWindow,
			"season_period":    cfg.SeasonPeriod,
			"features":         []string{"consumption", "temperature", "humidity", "hour", "dayofweek", "month", "dayofyear"},
			"horizon_hours":    1,
		},
		"ensemble": map[string]interface{}{
			"method":       "mean of valid strategy predictions",
			"z_multiplier": cfg.ZMultiplier,
			"confidence":   []float64{cfg.MinConfidence, cfg.MaxConfidence},
		},
		"learned_models_enabled": s.opts.LearnedEnabled,
	})
}

// writeForecastError maps engine errors onto status codes
func (s *Server) writeForecastError(w http.ResponseWriter, r *http.Request, err error, resp *models.ForecastResponse) {
	kind := forecast.ErrorKind(err)
	status := statusFor(err)

	log := s.logger.WithFields(logrus.Fields{"kind": kind, "request_id": requestID(r)})
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("Forecast failed")
	} else {
		log.WithError(err).Debug("Forecast rejected")
	}

	body := map[string]interface{}{"error": err.Error(), "kind": kind}
	if resp != nil {
		body["declined"] = declinedOf(resp.Predictions)
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	var insufficient *forecast.InsufficientDataError
	var unknown *forecast.UnknownModelError
	switch {
	case errors.As(err, &insufficient), errors.As(err, &unknown), errors.Is(err, forecast.ErrMalformedWindow):
		return http.StatusBadRequest
	case errors.Is(err, forecast.ErrNoValidPredictions):
		return http.StatusUnprocessableEntity
	case forecast.ErrorKind(err) == "canceled":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var strategyDescriptions = map[string]string{
	forecast.LinearRegression:      "Least squares on lagged consumption, hour of day, day of week and weather",
	forecast.HoltWinters:           "Additive triple exponential smoothing with a daily season",
	forecast.ARIMA:                 "Autoregressive model on first differences",
	forecast.SeasonalDecomposition: "Centred moving-average trend plus average seasonal profile",
	forecast.MovingAverage:         "Mean of the most recent day",
	forecast.ExponentialSmoothing:  "Simple exponential smoothing",
	forecast.LSTM:                  "Pretrained LSTM served by the model worker",
	forecast.GRU:                   "Pretrained GRU served by the model worker",
}
