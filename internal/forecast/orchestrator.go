package forecast

import (
	"context"
	"energycast/internal/analysis"
	"energycast/internal/metrics"
	"energycast/internal/models"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("energycast/forecast")

// Orchestrator is the engine entry point. It holds only configuration and
// stateless strategies, so one instance serves concurrent requests.
type Orchestrator struct {
	cfg        Config
	builder    *FeatureBuilder
	combiner   *Combiner
	analyzer   *analysis.Analyzer
	strategies map[string]Strategy
	client     ModelClient
	logger     logrus.FieldLogger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithModelClient enables the lstm and gru strategies
func WithModelClient(client ModelClient) Option {
	return func(o *Orchestrator) { o.client = client }
}

// WithLogger sets the logger used for strategy declines and panics
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an orchestrator. Zero config fields take their defaults.
func NewOrchestrator(cfg Config, analyzer *analysis.Analyzer, opts ...Option) *Orchestrator {
	cfg = cfg.WithDefaults()
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(analysis.DefaultConfig())
	}

	o := &Orchestrator{
		cfg:      cfg,
		builder:  NewFeatureBuilder(cfg),
		combiner: NewCombiner(cfg),
		analyzer: analyzer,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.strategies = map[string]Strategy{
		LinearRegression:      linearStrategy{period: cfg.SeasonPeriod},
		HoltWinters:           holtWintersStrategy{period: cfg.SeasonPeriod, alpha: cfg.HoltWintersAlpha, beta: cfg.HoltWintersBeta, gamma: cfg.HoltWintersGamma},
		ARIMA:                 arimaStrategy{order: cfg.AROrder},
		SeasonalDecomposition: seasonalStrategy{period: cfg.SeasonPeriod},
		MovingAverage:         movingAverageStrategy{span: cfg.MovingAverageSpan},
		ExponentialSmoothing:  exponentialSmoothingStrategy{alpha: cfg.SmoothingAlpha},
		LSTM:                  learnedStrategy{name: LSTM, client: o.client, timeout: cfg.LearnedTimeout},
		GRU:                   learnedStrategy{name: GRU, client: o.client, timeout: cfg.LearnedTimeout},
	}
	return o
}

// Config returns the effective configuration
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Forecast runs the requested strategies over window and combines them.
// An empty request runs every statistical strategy. When every strategy
// declines, the response is still returned alongside ErrNoValidPredictions.
func (o *Orchestrator) Forecast(ctx context.Context, window models.Window, requested []string) (*models.ForecastResponse, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "forecast.Forecast")
	defer span.End()
	span.SetAttributes(attribute.Int("window.length", len(window)))

	resp, err := o.forecast(ctx, window, requested)

	outcome := outcomeOf(err)
	metrics.RecordForecast(outcome, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return resp, err
}

func (o *Orchestrator) forecast(ctx context.Context, window models.Window, requested []string) (*models.ForecastResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(window) < o.cfg.MinWindow {
		return nil, &InsufficientDataError{Need: o.cfg.MinWindow, Have: len(window)}
	}

	strategies, err := o.resolve(requested)
	if err != nil {
		return nil, err
	}

	fv, err := o.builder.Build(window)
	if err != nil {
		return nil, err
	}

	predictions := make([]models.StrategyPrediction, len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range strategies {
		g.Go(func() error {
			predictions[i] = o.run(gctx, s, fv, window)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats, corr := o.analyzer.Analyze(window)
	resp := &models.ForecastResponse{
		Predictions:  predictions,
		Statistics:   stats,
		Correlations: corr,
	}

	ensemble, err := o.combiner.Combine(predictions)
	if err != nil {
		return resp, err
	}
	resp.Ensemble = ensemble
	metrics.RecordEnsemble(ensemble.Confidence)

	return resp, nil
}

// resolve maps identifiers to strategies in request order, dropping repeats
func (o *Orchestrator) resolve(requested []string) ([]Strategy, error) {
	if len(requested) == 0 {
		requested = StatisticalStrategies
	}

	seen := make(map[string]bool, len(requested))
	strategies := make([]Strategy, 0, len(requested))
	for _, name := range requested {
		s, ok := o.strategies[name]
		if !ok {
			return nil, &UnknownModelError{Model: name}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		strategies = append(strategies, s)
	}
	return strategies, nil
}

// run executes one strategy, converting a panic into a decline
func (o *Orchestrator) run(ctx context.Context, s Strategy, fv *FeatureVector, window models.Window) (pred models.StrategyPrediction) {
	name := s.Name()
	start := time.Now()
	ctx, span := tracer.Start(ctx, "strategy."+name)

	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{"strategy": name, "panic": r}).Error("Strategy panicked")
			pred = declineErr(name, &StrategyDeclinedError{Strategy: name, Reason: fmt.Sprintf("internal error: %v", r)})
		}
		if !pred.Valid {
			span.SetAttributes(attribute.String("decline.reason", pred.Reason))
		}
		span.SetAttributes(attribute.Bool("valid", pred.Valid))
		span.End()
		metrics.RecordStrategy(name, time.Since(start), pred.Valid)
	}()

	pred = s.Predict(ctx, fv, window)
	pred.Strategy = name
	if !pred.Valid {
		o.logger.WithFields(logrus.Fields{"strategy": name, "reason": pred.Reason}).Debug("Strategy declined")
	}
	return pred
}

// Strategies lists every identifier the orchestrator accepts
func (o *Orchestrator) Strategies() []string {
	return append(append([]string{}, StatisticalStrategies...), LearnedStrategies...)
}

// ResolveModelType expands an HTTP model_type into strategy identifiers
func ResolveModelType(modelType string) ([]string, error) {
	statistical := append([]string{}, StatisticalStrategies...)
	switch modelType {
	case "lstm":
		return append([]string{LSTM}, statistical...), nil
	case "gru":
		return append([]string{GRU}, statistical...), nil
	case "both":
		return append([]string{LSTM, GRU}, statistical...), nil
	case "ensemble":
		return statistical, nil
	case "arima":
		return []string{ARIMA}, nil
	case "seasonal":
		return []string{SeasonalDecomposition}, nil
	default:
		return nil, &UnknownModelError{Model: modelType}
	}
}

// ModelTypes lists the values ResolveModelType accepts
var ModelTypes = []string{"lstm", "gru", "both", "ensemble", "arima", "seasonal"}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return ErrorKind(err)
}
