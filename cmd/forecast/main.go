package main

import (
	"context"
	"energycast/internal/analysis"
	"energycast/internal/config"
	"energycast/internal/database"
	"energycast/internal/forecast"
	"energycast/internal/logging"
	"energycast/internal/models"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// historyHours is how much stored history each region's forecast reads
const historyHours = 168

type store interface {
	GetRecentObservations(region string, limit int) (models.Window, error)
	StoreForecast(rec *models.ForecastRecord) error
	StoreAnomalies(region string, anomalies []models.Anomaly) error
	StoreAlertSuggestion(suggestion *models.AlertSuggestion) error
}

func main() {
	_ = godotenv.Load()
	logger := logging.FromEnv()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "./config.yaml"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to load config")
	}

	db, err := database.NewDB(config.GetDatabaseDSN(), config.GetPoolConfig())
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	regions, err := db.GetAllRegions()
	if err != nil {
		logger.WithError(err).Fatal("Failed to get regions from database")
	}
	if len(regions) == 0 {
		logger.Fatal("No regions found in database. Please run the seed command first.")
	}

	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.Name
	}

	analyzer := analysis.NewAnalyzer(cfg.AnalysisConfig())
	orchestrator := forecast.NewOrchestrator(cfg.ForecastConfig(), analyzer, forecast.WithLogger(logger))

	// Run once; scheduling is external
	summary := runForAllRegions(context.Background(), db, names, orchestrator, analysis.NewAlertSuggester(), logger)
	logger.WithFields(logrus.Fields{
		"regions":     summary.Regions,
		"errors":      summary.Errors,
		"forecasts":   summary.Forecasts,
		"anomalies":   summary.Anomalies,
		"suggestions": summary.Suggestions,
		"duration":    summary.Duration.String(),
	}).Info("Forecast run completed")
}

// RegionResult holds one region's forecast outcome
type RegionResult struct {
	Region         string
	Record         *models.ForecastRecord
	Anomalies      []models.Anomaly
	Suggestions    []models.AlertSuggestion
	Error          error
	ProcessingTime time.Duration
}

// RunSummary totals a run across regions
type RunSummary struct {
	Regions     int
	Errors      int
	Forecasts   int
	Anomalies   int
	Suggestions int
	Duration    time.Duration
}

func runForAllRegions(ctx context.Context, db store, regions []string, orchestrator *forecast.Orchestrator,
	suggester *analysis.AlertSuggester, logger logrus.FieldLogger) RunSummary {
	startTime := time.Now()

	numWorkers := min(50, len(regions))
	jobs := make(chan string, len(regions))
	results := make(chan RegionResult, len(regions))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go worker(ctx, db, jobs, results, orchestrator, suggester, &wg)
	}

	for _, region := range regions {
		jobs <- region
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var summary RunSummary
	for result := range results {
		summary.Regions++
		log := logger.WithFields(logrus.Fields{
			"region":  result.Region,
			"elapsed": result.ProcessingTime.String(),
		})

		if result.Error != nil {
			log.WithError(result.Error).Warn("Forecast failed")
			summary.Errors++
			continue
		}

		if result.Record != nil {
			if err := db.StoreForecast(result.Record); err != nil {
				log.WithError(err).Warn("Failed to store forecast")
				summary.Errors++
				continue
			}
			summary.Forecasts++
		}

		if len(result.Anomalies) > 0 {
			if err := db.StoreAnomalies(result.Region, result.Anomalies); err != nil {
				log.WithError(err).Warn("Failed to store anomalies")
				summary.Errors++
				continue
			}
			summary.Anomalies += len(result.Anomalies)
		}

		for i := range result.Suggestions {
			if err := db.StoreAlertSuggestion(&result.Suggestions[i]); err != nil {
				log.WithError(err).Warn("Failed to store alert suggestion")
				continue
			}
			summary.Suggestions++
		}

		log.WithFields(logrus.Fields{
			"anomalies":   len(result.Anomalies),
			"suggestions": len(result.Suggestions),
		}).Info("Region forecast stored")
	}

	summary.Duration = time.Since(startTime)
	return summary
}

func worker(ctx context.Context, db store, jobs <-chan string, results chan<- RegionResult,
	orchestrator *forecast.Orchestrator, suggester *analysis.AlertSuggester, wg *sync.WaitGroup) {
	defer wg.Done()

	for region := range jobs {
		startTime := time.Now()
		result := forecastRegion(ctx, db, region, orchestrator, suggester)
		result.ProcessingTime = time.Since(startTime)
		results <- result
	}
}

func forecastRegion(ctx context.Context, db store, region string, orchestrator *forecast.Orchestrator,
	suggester *analysis.AlertSuggester) RegionResult {
	window, err := db.GetRecentObservations(region, historyHours)
	if err != nil {
		return RegionResult{Region: region, Error: err}
	}
	for i := range window {
		window[i] = window[i].WithCalendar()
	}

	// Statistics are still stored when every strategy declines
	resp, err := orchestrator.Forecast(ctx, window, nil)
	if err != nil && !(resp != nil && errors.Is(err, forecast.ErrNoValidPredictions)) {
		return RegionResult{Region: region, Error: err}
	}

	result := RegionResult{Region: region, Anomalies: resp.Statistics.Anomalies}
	if resp.Ensemble != nil {
		result.Record = &models.ForecastRecord{
			Region:        region,
			GeneratedAt:   time.Now().UTC(),
			TargetTime:    window.Last().Timestamp.Add(time.Hour),
			ModelType:     "ensemble",
			EnsembleValue: resp.Ensemble.Value,
			LowerBound:    resp.Ensemble.Interval.Lower,
			UpperBound:    resp.Ensemble.Interval.Upper,
			Confidence:    resp.Ensemble.Confidence,
			Contributors:  strings.Join(resp.Ensemble.Contributors, ","),
		}
	}
	if len(result.Anomalies) > 0 {
		result.Suggestions = suggester.SuggestAlerts(result.Anomalies, region)
	}
	return result
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
