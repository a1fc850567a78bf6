package forecast

import (
	"energycast/internal/models"
	"fmt"
	"math"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"gonum.org/v1/gonum/stat"
)

// RollingStat is the mean and sample std of the trailing Span observations
type RollingStat struct {
	Span int     `json:"span"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Calendar holds the calendar encoding of one hour
type Calendar struct {
	Hour      int     `json:"hour"`
	DayOfWeek int     `json:"dayofweek"`
	Month     int     `json:"month"`
	DayOfYear int     `json:"dayofyear"`
	HourSin   float64 `json:"hour_sin"`
	HourCos   float64 `json:"hour_cos"`
}

// FeatureVector is derived once per request and shared read-only by every strategy.
type FeatureVector struct {
	// Lags holds the most recent consumption readings, most recent first.
	Lags    []float64
	Last    Calendar // final observation in the window
	Target  Calendar // the hour being forecast
	Rolling []RollingStat

	// Series is the full consumption series in window order.
	Series []float64
}

// Lag returns the k-th most recent reading (1 = last observed hour)
func (fv *FeatureVector) Lag(k int) float64 {
	return fv.Lags[k-1]
}

// FeatureBuilder turns a window into a FeatureVector
type FeatureBuilder struct {
	cfg Config
}

// NewFeatureBuilder creates a feature builder
func NewFeatureBuilder(cfg Config) *FeatureBuilder {
	return &FeatureBuilder{cfg: cfg.WithDefaults()}
}

// Build validates the window and derives lag, calendar and rolling features
func (b *FeatureBuilder) Build(window models.Window) (*FeatureVector, error) {
	if err := ValidateWindow(window, b.cfg.MinWindow); err != nil {
		return nil, err
	}

	series := window.Consumption()
	n := len(series)

	lagCount := b.cfg.LagCount
	if lagCount > n {
		lagCount = n
	}
	lags := make([]float64, lagCount)
	for k := 0; k < lagCount; k++ {
		lags[k] = series[n-1-k]
	}

	last := window.Last()
	rolling := make([]RollingStat, 0, len(b.cfg.RollingSpans))
	for _, span := range b.cfg.RollingSpans {
		if span > n {
			span = n
		}
		rolling = append(rolling, rollingStat(series, span))
	}

	return &FeatureVector{
		Lags:    lags,
		Last:    calendarOf(last),
		Target:  calendarOf(nextHour(last)),
		Rolling: rolling,
		Series:  series,
	}, nil
}

// ValidateWindow checks the minimum length and, when timestamps are present,
// that they are strictly ascending.
func ValidateWindow(window models.Window, minWindow int) error {
	if len(window) < minWindow {
		return &InsufficientDataError{Need: minWindow, Have: len(window)}
	}

	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1], window[i]
		if prev.HasTimestamp() != cur.HasTimestamp() {
			return fmt.Errorf("%w: observation %d mixes timestamped and ordinal records", ErrMalformedWindow, i)
		}
		if cur.HasTimestamp() && !cur.Timestamp.After(prev.Timestamp) {
			return fmt.Errorf("%w: observation %d at %s is not after %s", ErrMalformedWindow, i,
				cur.Timestamp.Format(time.RFC3339), prev.Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

func rollingStat(series []float64, span int) RollingStat {
	tail := series[len(series)-span:]
	rs := RollingStat{Span: span}

	sma := trend.NewSmaWithPeriod[float64](span)
	means := helper.ChanToSlice(sma.Compute(helper.SliceToChan(tail)))
	if len(means) > 0 {
		rs.Mean = means[len(means)-1]
	}
	if span > 1 {
		rs.Std = stat.StdDev(tail, nil)
	}
	return rs
}

// nextHour returns the observation slot one hour after o. Ordinal records
// without a timestamp roll their calendar fields forward instead.
func nextHour(o models.Observation) models.Observation {
	if o.HasTimestamp() {
		return models.Observation{Timestamp: o.Timestamp.Add(time.Hour)}.WithCalendar()
	}

	next := models.Observation{
		Hour:      (o.Hour + 1) % 24,
		DayOfWeek: o.DayOfWeek,
		Month:     o.Month,
		DayOfYear: o.DayOfYear,
	}
	if next.Hour == 0 {
		next.DayOfWeek = (o.DayOfWeek + 1) % 7
		next.DayOfYear = o.DayOfYear%366 + 1
	}
	return next
}

func calendarOf(o models.Observation) Calendar {
	angle := 2 * math.Pi * float64(o.Hour) / 24
	return Calendar{
		Hour:      o.Hour,
		DayOfWeek: o.DayOfWeek,
		Month:     o.Month,
		DayOfYear: o.DayOfYear,
		HourSin:   math.Sin(angle),
		HourCos:   math.Cos(angle),
	}
}
