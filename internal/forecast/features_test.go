package forecast

import (
	"energycast/internal/models"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_InsufficientData(t *testing.T) {
	b := NewFeatureBuilder(DefaultConfig())

	fv, err := b.Build(constantWindow(89, 100))

	assert.Nil(t, fv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))

	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 90, ide.Need)
	assert.Equal(t, 89, ide.Have)
}

func TestBuild_LagsMostRecentFirst(t *testing.T) {
	values := make([]float64, 120)
	for i := range values {
		values[i] = float64(i)
	}

	fv := mustBuild(DefaultConfig(), windowOf(values))

	require.Len(t, fv.Lags, 90)
	assert.Equal(t, 119.0, fv.Lag(1))
	assert.Equal(t, 118.0, fv.Lag(2))
	assert.Equal(t, 30.0, fv.Lag(90))
	assert.Len(t, fv.Series, 120)
}

func TestBuild_CalendarFromLastObservation(t *testing.T) {
	// 168 hours from Monday 00:00 ends on Sunday 23:00
	fv := mustBuild(DefaultConfig(), constantWindow(168, 100))

	assert.Equal(t, 23, fv.Last.Hour)
	assert.Equal(t, 6, fv.Last.DayOfWeek)
	assert.Equal(t, 0, fv.Target.Hour)
	assert.Equal(t, 0, fv.Target.DayOfWeek)
	assert.Equal(t, 1, fv.Target.Month)
	assert.Equal(t, 8, fv.Target.DayOfYear)
	assert.InDelta(t, 0.0, fv.Target.HourSin, 1e-12)
	assert.InDelta(t, 1.0, fv.Target.HourCos, 1e-12)
}

func TestBuild_OrdinalWindow(t *testing.T) {
	w := make(models.Window, 90)
	for i := range w {
		w[i] = models.Observation{
			Consumption: 100 + float64(i%5),
			Hour:        i % 24,
			DayOfWeek:   (i / 24) % 7,
			Month:       3,
			DayOfYear:   60 + i/24,
		}
	}

	fv := mustBuild(DefaultConfig(), w)

	// last is index 89: hour 17, day 3
	assert.Equal(t, 17, fv.Last.Hour)
	assert.Equal(t, 18, fv.Target.Hour)
	assert.Equal(t, 3, fv.Target.DayOfWeek)
	assert.Equal(t, 63, fv.Target.DayOfYear)
}

func TestNextHour_OrdinalRollsDay(t *testing.T) {
	got := nextHour(models.Observation{Hour: 23, DayOfWeek: 6, Month: 12, DayOfYear: 365})

	assert.Equal(t, 0, got.Hour)
	assert.Equal(t, 0, got.DayOfWeek)
	assert.Equal(t, 366, got.DayOfYear)
}

func TestBuild_RollingStatsUseTrailingSpans(t *testing.T) {
	values := make([]float64, 120)
	for i := range values {
		values[i] = float64(i % 10)
	}

	fv := mustBuild(DefaultConfig(), windowOf(values))

	require.Len(t, fv.Rolling, 3)

	// last six: 4,5,6,7,8,9
	assert.Equal(t, 6, fv.Rolling[0].Span)
	assert.InDelta(t, 6.5, fv.Rolling[0].Mean, 1e-9)
	assert.InDelta(t, 1.8708286933869707, fv.Rolling[0].Std, 1e-9)

	// 168 exceeds the window and is capped to it
	assert.Equal(t, 120, fv.Rolling[2].Span)
	assert.InDelta(t, 4.5, fv.Rolling[2].Mean, 1e-9)
}

func TestBuild_Deterministic(t *testing.T) {
	w := dailyWindow(200, 7)
	b := NewFeatureBuilder(DefaultConfig())

	first, err := b.Build(w)
	require.NoError(t, err)
	second, err := b.Build(w)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestValidateWindow(t *testing.T) {
	ordered := constantWindow(90, 100)

	duplicate := constantWindow(90, 100)
	duplicate[40].Timestamp = duplicate[39].Timestamp

	reversed := constantWindow(90, 100)
	reversed[10].Timestamp = reversed[10].Timestamp.Add(-2 * time.Hour)

	mixed := constantWindow(90, 100)
	mixed[5].Timestamp = time.Time{}

	tests := []struct {
		name    string
		window  models.Window
		wantErr error
	}{
		{name: "ordered", window: ordered, wantErr: nil},
		{name: "duplicate timestamp", window: duplicate, wantErr: ErrMalformedWindow},
		{name: "out of order", window: reversed, wantErr: ErrMalformedWindow},
		{name: "mixed timestamps", window: mixed, wantErr: ErrMalformedWindow},
		{name: "too short", window: ordered[:10], wantErr: ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindow(tt.window, 90)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
