package analysis

import (
	"energycast/internal/models"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Config holds the analyzer thresholds
type Config struct {
	PeakThreshold       float64 // std devs above the mean for an hour to count as peak
	StrongCorrelation   float64 // |r| at or above which a correlation is "strong"
	ModerateCorrelation float64 // |r| at or above which a correlation is "moderate"
	AnomalyZScore       float64 // |z| above which an observation is reported as an anomaly
}

// DefaultConfig returns the thresholds used by the dashboard
func DefaultConfig() Config {
	return Config{
		PeakThreshold:       1.0,
		StrongCorrelation:   0.5,
		ModerateCorrelation: 0.3,
		AnomalyZScore:       2.5,
	}
}

// Analyzer computes descriptive statistics and covariate correlations
// directly from a window. It holds no state besides its configuration.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.PeakThreshold <= 0 {
		cfg.PeakThreshold = def.PeakThreshold
	}
	if cfg.StrongCorrelation <= 0 {
		cfg.StrongCorrelation = def.StrongCorrelation
	}
	if cfg.ModerateCorrelation <= 0 {
		cfg.ModerateCorrelation = def.ModerateCorrelation
	}
	if cfg.AnomalyZScore <= 0 {
		cfg.AnomalyZScore = def.AnomalyZScore
	}
	return &Analyzer{cfg: cfg}
}

// Analyze summarizes consumption and correlates it with temperature and humidity
func (a *Analyzer) Analyze(window models.Window) (models.StatisticsSummary, models.CorrelationSummary) {
	return a.Statistics(window), a.Correlations(window)
}

// Statistics computes mean/std/min/max, seasonal averages, peak hours and anomalies
func (a *Analyzer) Statistics(window models.Window) models.StatisticsSummary {
	summary := models.StatisticsSummary{
		Count:            len(window),
		SeasonalAverages: map[models.Season]float64{},
		PeakHours:        []int{},
	}
	if len(window) == 0 {
		return summary
	}

	values := window.Consumption()
	summary.Mean, summary.Std = meanStdDev(values)
	summary.Min = floats.Min(values)
	summary.Max = floats.Max(values)
	summary.SeasonalAverages = seasonalAverages(window)
	summary.PeakHours = peakHours(window, summary.Mean, summary.Std, a.cfg.PeakThreshold)
	summary.Anomalies = DetectAnomalies(window, summary.Mean, summary.Std, a.cfg.AnomalyZScore)

	return summary
}

// Correlations computes Pearson correlations between covariates and consumption
func (a *Analyzer) Correlations(window models.Window) models.CorrelationSummary {
	consumption := window.Consumption()
	tempCorr := Pearson(window.Temperatures(), consumption)

	humidity, humidityConsumption := window.HumidityPairs()
	humidityCorr := Pearson(humidity, humidityConsumption)

	return models.CorrelationSummary{
		TemperatureCorrelation: tempCorr,
		HumidityCorrelation:    humidityCorr,
		TemperatureStrength:    a.Strength(tempCorr),
		HumidityStrength:       a.Strength(humidityCorr),
	}
}

// Strength labels a correlation coefficient
func (a *Analyzer) Strength(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= a.cfg.StrongCorrelation:
		return "strong"
	case abs >= a.cfg.ModerateCorrelation:
		return "moderate"
	default:
		return "weak"
	}
}

// Pearson returns the correlation coefficient of x and y. Series that are
// too short, mismatched or have zero variance yield exactly 0.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	if floats.Min(x) == floats.Max(x) || floats.Min(y) == floats.Max(y) {
		return 0
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// seasonalAverages groups consumption by season; empty seasons are left out,
// as are observations without a calendar month
func seasonalAverages(window models.Window) map[models.Season]float64 {
	sums := make(map[models.Season]float64)
	counts := make(map[models.Season]int)
	for _, o := range window {
		if !models.ValidMonth(o.Month) {
			continue
		}
		s := models.SeasonOf(o.Month)
		sums[s] += o.Consumption
		counts[s]++
	}

	averages := make(map[models.Season]float64, len(sums))
	for s, sum := range sums {
		averages[s] = sum / float64(counts[s])
	}
	return averages
}

// peakHours returns, ascending, the hours whose average consumption exceeds
// mean + threshold*std.
func peakHours(window models.Window, mean, std, threshold float64) []int {
	var sums [24]float64
	var counts [24]int
	for _, o := range window {
		if o.Hour < 0 || o.Hour > 23 {
			continue
		}
		sums[o.Hour] += o.Consumption
		counts[o.Hour]++
	}

	cutoff := mean + threshold*std
	hours := []int{}
	for h := 0; h < 24; h++ {
		if counts[h] == 0 {
			continue
		}
		if sums[h]/float64(counts[h]) > cutoff {
			hours = append(hours, h)
		}
	}
	return hours
}

// meanStdDev returns the mean and sample standard deviation, with std 0 for
// fewer than two values.
func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return values[0], 0
	}
	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}
