package api

import (
	"context"
	"encoding/json"
	"energycast/internal/models"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

	// Open-Meteo hourly timestamps, local to the requested timezone
	hourlyTimeLayout = "2006-01-02T15:04"

	FieldTemperature = "temperature_2m"
	FieldHumidity    = "relative_humidity_2m"
)

// OpenMeteoClient is a client for the Open-Meteo API
type OpenMeteoClient struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

type ForecastParams struct {
	Latitude        float64
	Longitude       float64
	HourlyFields    []string
	Timezone        string
	TemperatureUnit string
	PastDays        int // how many days in the past you want to get
	ForecastDays    int // how many days in the future you want to forecast
}

// NewOpenMeteoClient creates a new Open-Meteo API client. An empty baseURL
// uses the public endpoint.
func NewOpenMeteoClient(baseURL string) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenMeteoClient{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		// the free tier allows roughly 10 calls a second
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

// GetForecast fetches forecast data for the given parameters
func (c *OpenMeteoClient) GetForecast(ctx context.Context, forecastParams ForecastParams) (*models.Forecast, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BuildURL(forecastParams), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var forecast models.Forecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &forecast, nil
}

// Builds URL for OpenMeteoClient request
func (c *OpenMeteoClient) BuildURL(forecastParams ForecastParams) string {
	if forecastParams.Timezone == "" {
		forecastParams.Timezone = "UTC"
	}

	if forecastParams.TemperatureUnit == "" {
		forecastParams.TemperatureUnit = "celsius"
	}

	url := fmt.Sprintf("%s?latitude=%.4f&longitude=%.4f&timezone=%s&temperature_unit=%s",
		c.baseURL, forecastParams.Latitude, forecastParams.Longitude, forecastParams.Timezone, forecastParams.TemperatureUnit)

	if forecastParams.PastDays > 0 {
		url += fmt.Sprintf("&past_days=%d", forecastParams.PastDays)
	}

	if forecastParams.ForecastDays >= 0 {
		url += fmt.Sprintf("&forecast_days=%d", forecastParams.ForecastDays)
	}

	if len(forecastParams.HourlyFields) > 0 {
		url += "&hourly=" + strings.Join(forecastParams.HourlyFields, ",")
	}

	return url
}

// GetHourlyCovariates fetches the hourly temperature (and humidity, when
// monitored) for the past days up to now, in UTC.
func (c *OpenMeteoClient) GetHourlyCovariates(ctx context.Context, lat, long float64, fields []string, pastDays int) ([]models.WeatherSample, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("GetHourlyCovariates: no weather fields provided")
	}

	forecast, err := c.GetForecast(ctx, ForecastParams{
		Latitude:     lat,
		Longitude:    long,
		HourlyFields: fields,
		PastDays:     pastDays,
		ForecastDays: 1,
	})
	if err != nil {
		return nil, err
	}

	return HourlySamples(forecast)
}

// HourlySamples converts the hourly block of a UTC forecast into samples.
// Humidity is attached only when the response carries it for every hour.
func HourlySamples(forecast *models.Forecast) ([]models.WeatherSample, error) {
	hourly := forecast.Hourly
	if len(hourly.Temperature2m) != len(hourly.Time) {
		return nil, fmt.Errorf("hourly %s has %d values for %d timestamps", FieldTemperature, len(hourly.Temperature2m), len(hourly.Time))
	}
	withHumidity := len(hourly.RelativeHumidity2m) == len(hourly.Time)

	samples := make([]models.WeatherSample, 0, len(hourly.Time))
	for i, raw := range hourly.Time {
		ts, err := time.ParseInLocation(hourlyTimeLayout, raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid hourly timestamp %q: %w", raw, err)
		}

		s := models.WeatherSample{Timestamp: ts, Temperature: hourly.Temperature2m[i]}
		if withHumidity {
			h := hourly.RelativeHumidity2m[i]
			s.Humidity = &h
		}
		samples = append(samples, s)
	}

	return samples, nil
}
