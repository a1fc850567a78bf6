package config

import (
	"energycast/internal/analysis"
	"energycast/internal/forecast"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Region is a grid area whose consumption is forecast and whose weather is collected
type Region struct {
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

var (
	instance *Config
	once     sync.Once
)

// Config is the YAML configuration shared by every command
type Config struct {
	Forecast struct {
		MinWindow         int     `yaml:"min_window"`
		SeasonPeriod      int     `yaml:"season_period"`
		LagCount          int     `yaml:"lag_count"`
		RollingSpans      []int   `yaml:"rolling_spans"`
		ZMultiplier       float64 `yaml:"z_multiplier"`
		FallbackMargin    float64 `yaml:"fallback_margin"`
		CVPenalty         float64 `yaml:"cv_penalty"`
		MinConfidence     float64 `yaml:"min_confidence"`
		MaxConfidence     float64 `yaml:"max_confidence"`
		ARIMAOrder        int     `yaml:"arima_order"`
		SmoothingAlpha    float64 `yaml:"smoothing_alpha"`
		MovingAverageSpan int     `yaml:"moving_average_span"`
		HoltWinters       struct {
			Alpha float64 `yaml:"alpha"`
			Beta  float64 `yaml:"beta"`
			Gamma float64 `yaml:"gamma"`
		} `yaml:"holt_winters"`
	} `yaml:"forecast"`
	Analysis struct {
		PeakThreshold       float64 `yaml:"peak_threshold"`
		StrongCorrelation   float64 `yaml:"strong_correlation"`
		ModerateCorrelation float64 `yaml:"moderate_correlation"`
		AnomalyZScore       float64 `yaml:"anomaly_z"`
	} `yaml:"analysis"`
	Server struct {
		Addr           string   `yaml:"addr"`
		CacheSize      int      `yaml:"cache_size"`
		RateLimit      float64  `yaml:"rate_limit"` // requests per second on /predict
		Burst          int      `yaml:"burst"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		SampleSeed     uint64   `yaml:"sample_seed"`
	} `yaml:"server"`
	Learned struct {
		Enabled      bool          `yaml:"enabled"`
		Timeout      time.Duration `yaml:"timeout"`
		InputStream  string        `yaml:"input_stream"`
		OutputStream string        `yaml:"output_stream"`
	} `yaml:"learned"`
	Weather struct {
		MonitoredFields []string `yaml:"monitored_fields"`
	} `yaml:"weather"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Stream   string `yaml:"stream"`
	} `yaml:"redis"`
	Regions []Region `yaml:"regions"`
}

func Load(configPath string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file %s: %w", configPath, readErr)
			return
		}

		if parseErr := yaml.Unmarshal(data, instance); parseErr != nil {
			err = fmt.Errorf("failed to parse config: %w", parseErr)
			return
		}

		if validateErr := instance.validate(); validateErr != nil {
			err = validateErr
			return
		}
	})

	return instance, err
}

func Get() *Config {
	if instance == nil {
		panic("config not loaded - call config.Load() first")
	}
	return instance
}

// ForecastConfig converts the forecast section; unset fields take the engine defaults
func (c *Config) ForecastConfig() forecast.Config {
	f := c.Forecast
	return forecast.Config{
		MinWindow:         f.MinWindow,
		SeasonPeriod:      f.SeasonPeriod,
		LagCount:          f.LagCount,
		RollingSpans:      f.RollingSpans,
		ZMultiplier:       f.ZMultiplier,
		FallbackMargin:    f.FallbackMargin,
		CVPenalty:         f.CVPenalty,
		MinConfidence:     f.MinConfidence,
		MaxConfidence:     f.MaxConfidence,
		HoltWintersAlpha:  f.HoltWinters.Alpha,
		HoltWintersBeta:   f.HoltWinters.Beta,
		HoltWintersGamma:  f.HoltWinters.Gamma,
		AROrder:           f.ARIMAOrder,
		SmoothingAlpha:    f.SmoothingAlpha,
		MovingAverageSpan: f.MovingAverageSpan,
		LearnedTimeout:    c.Learned.Timeout,
	}.WithDefaults()
}

// AnalysisConfig converts the analysis section
func (c *Config) AnalysisConfig() analysis.Config {
	return analysis.Config{
		PeakThreshold:       c.Analysis.PeakThreshold,
		StrongCorrelation:   c.Analysis.StrongCorrelation,
		ModerateCorrelation: c.Analysis.ModerateCorrelation,
		AnomalyZScore:       c.Analysis.AnomalyZScore,
	}
}

// Region returns the configured region with the given name
func (c *Config) Region(name string) (Region, bool) {
	for _, r := range c.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

func (c *Config) validate() error {
	if len(c.Weather.MonitoredFields) == 0 {
		return fmt.Errorf("weather.monitored_fields cannot be empty")
	}

	if err := c.ForecastConfig().Validate(); err != nil {
		return fmt.Errorf("invalid forecast config: %w", err)
	}

	if c.Analysis.ModerateCorrelation > 0 && c.Analysis.StrongCorrelation > 0 &&
		c.Analysis.ModerateCorrelation > c.Analysis.StrongCorrelation {
		return fmt.Errorf("analysis.moderate_correlation cannot exceed analysis.strong_correlation")
	}

	seen := make(map[string]bool, len(c.Regions))
	for _, r := range c.Regions {
		if r.Name == "" {
			return fmt.Errorf("region name cannot be empty")
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate region %q", r.Name)
		}
		seen[r.Name] = true
		if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
			return fmt.Errorf("region %q has invalid coordinates (%v, %v)", r.Name, r.Latitude, r.Longitude)
		}
	}
	return nil
}
