package api

import (
	"context"
	"energycast/internal/models"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewOpenMeteoClient(t *testing.T) {
	client := NewOpenMeteoClient("")
	if client == nil {
		t.Fatal("NewOpenMeteoClient() returned nil")
	}

	if client.client == nil {
		t.Error("OpenMeteoClient.client should not be nil")
	}

	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %v, want %v", client.baseURL, DefaultBaseURL)
	}
}

func TestBuildURL(t *testing.T) {
	client := NewOpenMeteoClient("")

	tests := []struct {
		name   string
		params ForecastParams
		want   string
	}{
		{
			name: "hourly covariates with past days",
			params: ForecastParams{
				Latitude:     37.7749,
				Longitude:    -122.4194,
				HourlyFields: []string{"temperature_2m", "relative_humidity_2m"},
				PastDays:     7,
				ForecastDays: 1,
			},
			want: "https://api.open-meteo.com/v1/forecast?latitude=37.7749&longitude=-122.4194&timezone=UTC&temperature_unit=celsius&past_days=7&forecast_days=1&hourly=temperature_2m,relative_humidity_2m",
		},
		{
			name: "custom timezone and temperature unit",
			params: ForecastParams{
				Latitude:        51.5074,
				Longitude:       -0.1278,
				HourlyFields:    []string{"temperature_2m"},
				Timezone:        "Europe/London",
				TemperatureUnit: "fahrenheit",
			},
			want: "https://api.open-meteo.com/v1/forecast?latitude=51.5074&longitude=-0.1278&timezone=Europe/London&temperature_unit=fahrenheit&forecast_days=0&hourly=temperature_2m",
		},
		{
			name: "negative coordinates",
			params: ForecastParams{
				Latitude:     -33.8688,
				Longitude:    151.2093,
				ForecastDays: -1,
			},
			want: "https://api.open-meteo.com/v1/forecast?latitude=-33.8688&longitude=151.2093&timezone=UTC&temperature_unit=celsius",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := client.BuildURL(tt.params)
			if got != tt.want {
				t.Errorf("BuildURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetHourlyCovariates_NoFields(t *testing.T) {
	client := NewOpenMeteoClient("")

	_, err := client.GetHourlyCovariates(context.Background(), 37.7749, -122.4194, []string{}, 7)
	if err == nil {
		t.Fatal("GetHourlyCovariates() expected error for empty fields, got nil")
	}

	expectedMsg := "GetHourlyCovariates: no weather fields provided"
	if err.Error() != expectedMsg {
		t.Errorf("GetHourlyCovariates() error = %v, want %v", err.Error(), expectedMsg)
	}
}

func TestGetHourlyCovariates(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"latitude": 59.91,
			"longitude": 10.75,
			"timezone": "UTC",
			"hourly_units": {"time": "iso8601", "temperature_2m": "°C", "relative_humidity_2m": "%"},
			"hourly": {
				"time": ["2024-06-03T00:00", "2024-06-03T01:00"],
				"temperature_2m": [14.2, 13.8],
				"relative_humidity_2m": [71, 74]
			}
		}`))
	}))
	defer srv.Close()

	client := NewOpenMeteoClient(srv.URL)
	samples, err := client.GetHourlyCovariates(context.Background(), 59.91, 10.75, []string{FieldTemperature, FieldHumidity}, 2)
	if err != nil {
		t.Fatalf("GetHourlyCovariates() error = %v", err)
	}

	if !strings.Contains(gotQuery, "past_days=2") || !strings.Contains(gotQuery, "hourly=temperature_2m,relative_humidity_2m") {
		t.Errorf("unexpected query %q", gotQuery)
	}

	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}

	want := time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC)
	if !samples[1].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", samples[1].Timestamp, want)
	}
	if samples[1].Temperature != 13.8 {
		t.Errorf("Temperature = %v, want %v", samples[1].Temperature, 13.8)
	}
	if samples[0].Humidity == nil || *samples[0].Humidity != 71 {
		t.Errorf("Humidity = %v, want 71", samples[0].Humidity)
	}
}

func TestGetForecast_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":true,"reason":"Latitude must be in range of -90 to 90"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewOpenMeteoClient(srv.URL)
	_, err := client.GetForecast(context.Background(), ForecastParams{Latitude: 120, HourlyFields: []string{FieldTemperature}})
	if err == nil {
		t.Fatal("GetForecast() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("GetForecast() error = %v, want status 400", err)
	}
}

func TestGetForecast_CanceledContext(t *testing.T) {
	client := NewOpenMeteoClient("http://127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetForecast(ctx, ForecastParams{}); err == nil {
		t.Error("GetForecast() expected error for canceled context, got nil")
	}
}

func TestHourlySamples(t *testing.T) {
	tests := []struct {
		name         string
		hourly       models.Hourly
		wantLen      int
		wantHumidity bool
		wantErr      bool
	}{
		{
			name:    "temperature only",
			hourly:  models.Hourly{Time: []string{"2024-01-01T00:00"}, Temperature2m: []float64{-3}},
			wantLen: 1,
		},
		{
			name: "partial humidity is dropped",
			hourly: models.Hourly{
				Time:               []string{"2024-01-01T00:00", "2024-01-01T01:00"},
				Temperature2m:      []float64{-3, -4},
				RelativeHumidity2m: []float64{80},
			},
			wantLen: 2,
		},
		{
			name: "complete humidity",
			hourly: models.Hourly{
				Time:               []string{"2024-01-01T00:00"},
				Temperature2m:      []float64{-3},
				RelativeHumidity2m: []float64{80},
			},
			wantLen:      1,
			wantHumidity: true,
		},
		{
			name:    "temperature length mismatch",
			hourly:  models.Hourly{Time: []string{"2024-01-01T00:00"}},
			wantErr: true,
		},
		{
			name:    "bad timestamp",
			hourly:  models.Hourly{Time: []string{"yesterday"}, Temperature2m: []float64{1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HourlySamples(&models.Forecast{Hourly: tt.hourly})
			if (err != nil) != tt.wantErr {
				t.Fatalf("HourlySamples() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if (got[0].Humidity != nil) != tt.wantHumidity {
				t.Errorf("Humidity present = %v, want %v", got[0].Humidity != nil, tt.wantHumidity)
			}
		})
	}
}
