package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/wildfire-risk-service/internal/adapter/http"
	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	p   float64
	err error
}

func (s *stubClassifier) PredictProbability(_ []domain.FeatureField) (float64, error) {
	return s.p, s.err
}

type stubAnalyst struct {
	text string
	err  error
}

func (s *stubAnalyst) GenerateAnalysis(_ context.Context, _ domain.AnalysisRequest) (string, error) {
	return s.text, s.err
}

type stubWeather struct {
	daily    domain.DailyWeather
	err      error
	called   bool
	location string
	date     *time.Time
}

func (s *stubWeather) FetchDaily(_ context.Context, location string, date *time.Time) (domain.DailyWeather, error) {
	s.called = true
	s.location = location
	s.date = date
	return s.daily, s.err
}

func newTestServer(deps httpadapter.Deps) *httpadapter.Server {
	deps.Metrics = observability.NewMetricsForTesting()
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", deps)
}

func doJSON(t *testing.T, srv *httpadapter.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// predictBody returns a complete valid prediction request.
func predictBody() map[string]any {
	return map[string]any{
		"max_temp_c":                38.0,
		"min_temp_c":                21.0,
		"avg_temp_c":                32.0,
		"heating_deg_days_c":        0.0,
		"cooling_deg_days_c":        14.0,
		"precip_mm":                 0.5,
		"avg_humidity":              20.0,
		"avg_wind_speed_knots":      18.0,
		"avg_dew_point_f":           40.0,
		"avg_visibility_km":         16.0,
		"avg_sea_level_pressure_mb": 1009.0,
	}
}

func TestPredict(t *testing.T) {
	t.Run("rule-based path with all bands", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{})
		rec := doJSON(t, srv, http.MethodPost, "/api/predict", predictBody())

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.InDelta(t, 0.71, body["fire_probability"], 1e-9)
		assert.Equal(t, "rule-based", body["prediction_method"])
		assert.Equal(t, "Unknown location", body["location"])
	})

	t.Run("location carried through", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{})
		req := predictBody()
		req["location"] = "Paradise, CA"
		rec := doJSON(t, srv, http.MethodPost, "/api/predict", req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Paradise, CA", decode[map[string]any](t, rec)["location"])
	})

	t.Run("model path rounds to four decimals", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{Classifier: &stubClassifier{p: 0.87654321}})
		rec := doJSON(t, srv, http.MethodPost, "/api/predict", predictBody())

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.InDelta(t, 0.8765, body["fire_probability"], 1e-9)
		assert.Equal(t, "model", body["prediction_method"])
	})

	t.Run("classifier failure returns 500", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{Classifier: &stubClassifier{err: errors.New("shape mismatch")}})
		rec := doJSON(t, srv, http.MethodPost, "/api/predict", predictBody())

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Error making prediction", decode[map[string]string](t, rec)["error"])
	})

	t.Run("missing field rejected", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{})
		req := predictBody()
		delete(req, "avg_temp_c")
		rec := doJSON(t, srv, http.MethodPost, "/api/predict", req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing required field: avg_temp_c", decode[map[string]string](t, rec)["error"])
	})

	t.Run("zero values are valid, not missing", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{})
		req := predictBody()
		req["precip_mm"] = 0.0
		rec := doJSON(t, srv, http.MethodPost, "/api/predict", req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{})
		req := httptest.NewRequest(http.MethodPost, "/api/predict", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func analyzeBody(p float64) map[string]any {
	return map[string]any{
		"fire_probability": p,
		"weather_data":     map[string]any{"avg_temp_c": 31.0},
		"location":         "Paradise, CA",
	}
}

func TestAnalyze_Unconfigured(t *testing.T) {
	tests := []struct {
		p      float64
		bucket string
	}{
		{0.6, "high"},
		{0.35, "moderate"},
		{0.2, "low"},
	}

	for _, tt := range tests {
		srv := newTestServer(httpadapter.Deps{})
		rec := doJSON(t, srv, http.MethodPost, "/api/analyze", analyzeBody(tt.p))

		require.Equal(t, http.StatusOK, rec.Code)
		n := decode[domain.Narrative](t, rec)
		assert.Contains(t, n.RiskAssessment, tt.bucket)
		assert.Contains(t, n.RiskAssessment, "AI analysis is not available")
	}
}

func TestAnalyze_GeneratedNarrative(t *testing.T) {
	fenced := "```json\n{\"risk_assessment\":\"Severe risk\",\"contributing_factors\":[\"heat\"],\"recommended_actions\":\"evacuate\"}\n```"
	srv := newTestServer(httpadapter.Deps{Analyst: &stubAnalyst{text: fenced}})
	rec := doJSON(t, srv, http.MethodPost, "/api/analyze", analyzeBody(0.8))

	require.Equal(t, http.StatusOK, rec.Code)
	n := decode[domain.Narrative](t, rec)
	assert.Equal(t, "Severe risk", n.RiskAssessment)
	assert.Equal(t, []string{"heat"}, n.ContributingFactors)
	assert.Equal(t, "evacuate", n.RecommendedActions)
}

func TestAnalyze_ServiceErrorFallsBack(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{Analyst: &stubAnalyst{err: errors.New("rate limited")}})
	rec := doJSON(t, srv, http.MethodPost, "/api/analyze", analyzeBody(0.6))

	// Narrative failures never surface as errors.
	require.Equal(t, http.StatusOK, rec.Code)
	n := decode[domain.Narrative](t, rec)
	assert.Contains(t, n.RiskAssessment, "Based on the data")
	assert.Contains(t, n.RiskAssessment, "high")
}

func TestAnalyze_UnparseableFallsBack(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{Analyst: &stubAnalyst{text: "the vibes are bad, stay safe"}})
	rec := doJSON(t, srv, http.MethodPost, "/api/analyze", analyzeBody(0.6))

	require.Equal(t, http.StatusOK, rec.Code)
	n := decode[domain.Narrative](t, rec)
	assert.Contains(t, n.RiskAssessment, "Unable to parse AI response")
	// Distinct from the bucketed service-error fallback.
	assert.NotContains(t, n.RiskAssessment, "high")
}

func TestAnalyze_MissingProbabilityRejected(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{})
	rec := doJSON(t, srv, http.MethodPost, "/api/analyze", map[string]any{"location": "X"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing required field: fire_probability", decode[map[string]string](t, rec)["error"])
}

func testDaily() domain.DailyWeather {
	return domain.DailyWeather{
		WeatherObservation: domain.WeatherObservation{
			MaxTempC:        33.44,
			MinTempC:        18.16,
			AvgTempC:        26.01,
			HeatingDegDaysC: 0,
			CoolingDegDaysC: 8.01,
			PrecipMM:        0.24,
			AvgHumidity:     28.4,
			AvgWindKnots:    14.96,
			AvgDewPointF:    51.95,
			AvgVisibilityKM: 10,
			AvgPressureMB:   1013.04,
		},
		Date: "2024-07-15",
	}
}

func TestWeather(t *testing.T) {
	t.Run("success rounds fields to one decimal", func(t *testing.T) {
		stub := &stubWeather{daily: testDaily()}
		srv := newTestServer(httpadapter.Deps{Weather: stub})
		rec := doJSON(t, srv, http.MethodGet, "/api/weather?location=Boulder%2C%20CO&date=2024-07-15", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.InDelta(t, 33.4, body["max_temp_c"], 1e-9)
		assert.InDelta(t, 18.2, body["min_temp_c"], 1e-9)
		assert.InDelta(t, 26.0, body["avg_temp_c"], 1e-9)
		assert.InDelta(t, 8.0, body["cooling_deg_days_c"], 1e-9)
		assert.InDelta(t, 0.2, body["precip_mm"], 1e-9)
		assert.InDelta(t, 15.0, body["avg_wind_speed_knots"], 1e-9)
		assert.InDelta(t, 1013.0, body["avg_sea_level_pressure_mb"], 1e-9)
		assert.Equal(t, "2024-07-15", body["date"])

		assert.True(t, stub.called)
		assert.Equal(t, "Boulder, CO", stub.location)
		require.NotNil(t, stub.date)
		assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), *stub.date)
	})

	t.Run("omitted date passes nil to provider", func(t *testing.T) {
		stub := &stubWeather{daily: testDaily()}
		srv := newTestServer(httpadapter.Deps{Weather: stub})
		rec := doJSON(t, srv, http.MethodGet, "/api/weather?location=Boulder", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, stub.date)
	})

	t.Run("empty location rejected before upstream call", func(t *testing.T) {
		stub := &stubWeather{daily: testDaily()}
		srv := newTestServer(httpadapter.Deps{Weather: stub})
		rec := doJSON(t, srv, http.MethodGet, "/api/weather?location=", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Location cannot be empty", decode[map[string]string](t, rec)["error"])
		assert.False(t, stub.called)
	})

	t.Run("whitespace location rejected", func(t *testing.T) {
		stub := &stubWeather{daily: testDaily()}
		srv := newTestServer(httpadapter.Deps{Weather: stub})
		rec := doJSON(t, srv, http.MethodGet, "/api/weather?location=%20%20", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, stub.called)
	})

	t.Run("malformed date rejected before upstream call", func(t *testing.T) {
		stub := &stubWeather{daily: testDaily()}
		srv := newTestServer(httpadapter.Deps{Weather: stub})
		rec := doJSON(t, srv, http.MethodGet, "/api/weather?location=Boulder&date=2024-13-40", nil)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Date must be in YYYY-MM-DD format", decode[map[string]string](t, rec)["error"])
		assert.False(t, stub.called)
	})

	t.Run("provider unconfigured", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{})
		rec := doJSON(t, srv, http.MethodGet, "/api/weather?location=Boulder", nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Weather service not available", decode[map[string]string](t, rec)["error"])
	})

	t.Run("missing upstream field named in error", func(t *testing.T) {
		stub := &stubWeather{err: domain.MissingFieldError{Field: "avgtemp_c"}}
		srv := newTestServer(httpadapter.Deps{Weather: stub})
		rec := doJSON(t, srv, http.MethodGet, "/api/weather?location=Boulder", nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], "avgtemp_c")
	})

	t.Run("generic upstream failure", func(t *testing.T) {
		stub := &stubWeather{err: errors.New("connection reset")}
		srv := newTestServer(httpadapter.Deps{Weather: stub})
		rec := doJSON(t, srv, http.MethodGet, "/api/weather?location=Boulder", nil)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode[map[string]string](t, rec)
		assert.Equal(t, "Error fetching weather data", body["error"])
	})
}

func TestStatus(t *testing.T) {
	t.Run("all collaborators present", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{
			Classifier: &stubClassifier{},
			Analyst:    &stubAnalyst{},
			Weather:    &stubWeather{},
		})
		rec := doJSON(t, srv, http.MethodGet, "/api/status", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.Equal(t, true, body["model_loaded"])
		assert.Equal(t, true, body["openai_available"])

		info, ok := body["system_info"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, info["go_version"], "go")
		assert.NotEmpty(t, info["current_directory"])
	})

	t.Run("degraded mode", func(t *testing.T) {
		srv := newTestServer(httpadapter.Deps{})
		rec := doJSON(t, srv, http.MethodGet, "/api/status", nil)

		body := decode[map[string]any](t, rec)
		assert.Equal(t, false, body["model_loaded"])
		assert.Equal(t, false, body["openai_available"])
	})
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{})
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestHomePage(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{})
	rec := doJSON(t, srv, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Wildfire Risk Prediction")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(httpadapter.Deps{})
	rec := doJSON(t, srv, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
