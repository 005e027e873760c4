// Package weatherapi fetches daily weather observations from WeatherAPI.com
// and shapes them into the fields the prediction model consumes.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
)

// degreeDayBaseC is the standard balance-point temperature for heating and
// cooling degree-day calculations.
const degreeDayBaseC = 18.0

// kphPerKnot converts WeatherAPI wind speeds (km/h) to knots.
const kphPerKnot = 1.852

// Client implements domain.WeatherProvider using WeatherAPI.com. Historical
// dates use the history endpoint; nil dates use a one-day forecast, whose
// first day is the current day.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a WeatherAPI.com client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.weatherapi.com/v1",
		logger:  logger,
	}
}

// FetchDaily returns the daily observation for a location. Missing or
// unusable response fields surface as domain.MissingFieldError so the caller
// can name the offending field.
func (c *Client) FetchDaily(ctx context.Context, location string, date *time.Time) (domain.DailyWeather, error) {
	endpoint := c.baseURL + "/forecast.json"
	params := url.Values{
		"key":  {c.apiKey},
		"q":    {location},
		"days": {"1"},
	}
	if date != nil {
		endpoint = c.baseURL + "/history.json"
		params = url.Values{
			"key": {c.apiKey},
			"q":   {location},
			"dt":  {date.Format("2006-01-02")},
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return domain.DailyWeather{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DailyWeather{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if msg := apiErrorMessage(body); msg != "" {
			return domain.DailyWeather{}, fmt.Errorf("weather API error: %s", msg)
		}
		return domain.DailyWeather{}, fmt.Errorf("weather API error: status %d", resp.StatusCode)
	}

	var apiResp response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return domain.DailyWeather{}, fmt.Errorf("decode response: %w", err)
	}

	return buildDaily(apiResp)
}

// buildDaily validates the response shape and derives the observation fields
// the upstream API does not report directly: degree-days from the daily
// average, and dew point, pressure, and wind from hourly means.
func buildDaily(apiResp response) (domain.DailyWeather, error) {
	if len(apiResp.Forecast.ForecastDay) == 0 {
		return domain.DailyWeather{}, domain.MissingFieldError{Field: "forecastday"}
	}
	fd := apiResp.Forecast.ForecastDay[0]

	required := []struct {
		name  string
		value *float64
	}{
		{"maxtemp_c", fd.Day.MaxTempC},
		{"mintemp_c", fd.Day.MinTempC},
		{"avgtemp_c", fd.Day.AvgTempC},
		{"totalprecip_mm", fd.Day.TotalPrecipMM},
		{"avghumidity", fd.Day.AvgHumidity},
		{"avgvis_km", fd.Day.AvgVisKM},
	}
	for _, f := range required {
		if f.value == nil {
			return domain.DailyWeather{}, domain.MissingFieldError{Field: f.name}
		}
	}
	if len(fd.Hours) == 0 {
		return domain.DailyWeather{}, domain.MissingFieldError{Field: "hour"}
	}

	var dewPointF, pressureMB, windKph float64
	for _, h := range fd.Hours {
		dewPointF += h.DewPointF
		pressureMB += h.PressureMB
		windKph += h.WindKph
	}
	n := float64(len(fd.Hours))

	avgTemp := *fd.Day.AvgTempC
	obs := domain.WeatherObservation{
		MaxTempC:        *fd.Day.MaxTempC,
		MinTempC:        *fd.Day.MinTempC,
		AvgTempC:        avgTemp,
		HeatingDegDaysC: math.Max(0, degreeDayBaseC-avgTemp),
		CoolingDegDaysC: math.Max(0, avgTemp-degreeDayBaseC),
		PrecipMM:        *fd.Day.TotalPrecipMM,
		AvgHumidity:     *fd.Day.AvgHumidity,
		AvgWindKnots:    windKph / n / kphPerKnot,
		AvgDewPointF:    dewPointF / n,
		AvgVisibilityKM: *fd.Day.AvgVisKM,
		AvgPressureMB:   pressureMB / n,
	}

	date := fd.Date
	if date == "" {
		date = domain.Today()
	}

	return domain.DailyWeather{WeatherObservation: obs, Date: date}, nil
}

// apiErrorMessage extracts WeatherAPI's error envelope, if present.
func apiErrorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}

// WeatherAPI response types. Day fields are pointers so a field the API
// omitted is distinguishable from a genuine zero.

type response struct {
	Forecast struct {
		ForecastDay []forecastDay `json:"forecastday"`
	} `json:"forecast"`
}

type forecastDay struct {
	Date  string `json:"date"`
	Day   day    `json:"day"`
	Hours []hour `json:"hour"`
}

type day struct {
	MaxTempC      *float64 `json:"maxtemp_c"`
	MinTempC      *float64 `json:"mintemp_c"`
	AvgTempC      *float64 `json:"avgtemp_c"`
	TotalPrecipMM *float64 `json:"totalprecip_mm"`
	AvgHumidity   *float64 `json:"avghumidity"`
	AvgVisKM      *float64 `json:"avgvis_km"`
}

type hour struct {
	WindKph    float64 `json:"wind_kph"`
	DewPointF  float64 `json:"dewpoint_f"`
	PressureMB float64 `json:"pressure_mb"`
}
