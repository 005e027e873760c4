package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"os"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
)

// Request outcome labels for the requests_total metric.
const (
	outcomeOK          = "ok"
	outcomeClientError = "client_error"
	outcomeServerError = "server_error"
)

type handler struct {
	classifier domain.Classifier
	analyst    domain.Analyst
	weather    domain.WeatherProvider
	metrics    *observability.Metrics
	logger     *slog.Logger
	validate   *validator.Validate
	templates  *template.Template
}

func newHandler(deps Deps) *handler {
	return &handler{
		classifier: deps.Classifier,
		analyst:    deps.Analyst,
		weather:    deps.Weather,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		validate:   newValidator(),
		templates:  parseTemplates(),
	}
}

// predictRequest mirrors the prediction API request body. Pointer fields let
// the validator distinguish a missing field from a legitimate zero value.
type predictRequest struct {
	MaxTempC        *float64 `json:"max_temp_c" validate:"required"`
	MinTempC        *float64 `json:"min_temp_c" validate:"required"`
	AvgTempC        *float64 `json:"avg_temp_c" validate:"required"`
	HeatingDegDaysC *float64 `json:"heating_deg_days_c" validate:"required"`
	CoolingDegDaysC *float64 `json:"cooling_deg_days_c" validate:"required"`
	PrecipMM        *float64 `json:"precip_mm" validate:"required"`
	AvgHumidity     *float64 `json:"avg_humidity" validate:"required"`
	AvgWindKnots    *float64 `json:"avg_wind_speed_knots" validate:"required"`
	AvgDewPointF    *float64 `json:"avg_dew_point_f" validate:"required"`
	AvgVisibilityKM *float64 `json:"avg_visibility_km" validate:"required"`
	AvgPressureMB   *float64 `json:"avg_sea_level_pressure_mb" validate:"required"`
	Location        string   `json:"location"`
}

func (r *predictRequest) observation() domain.WeatherObservation {
	return domain.WeatherObservation{
		MaxTempC:        *r.MaxTempC,
		MinTempC:        *r.MinTempC,
		AvgTempC:        *r.AvgTempC,
		HeatingDegDaysC: *r.HeatingDegDaysC,
		CoolingDegDaysC: *r.CoolingDegDaysC,
		PrecipMM:        *r.PrecipMM,
		AvgHumidity:     *r.AvgHumidity,
		AvgWindKnots:    *r.AvgWindKnots,
		AvgDewPointF:    *r.AvgDewPointF,
		AvgVisibilityKM: *r.AvgVisibilityKM,
		AvgPressureMB:   *r.AvgPressureMB,
	}
}

type predictResponse struct {
	FireProbability  float64 `json:"fire_probability"`
	Location         string  `json:"location"`
	PredictionMethod string  `json:"prediction_method"`
}

func (h *handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/predict"

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.clientError(w, endpoint, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.clientError(w, endpoint, validationMessage(err))
		return
	}

	features := domain.DeriveFeatures(req.observation())
	pred, err := domain.EstimateProbability(h.classifier, features)
	if err != nil {
		h.logger.Error("prediction failed", "error", err, "location", req.Location)
		h.serverError(w, endpoint, "Error making prediction")
		return
	}

	location := req.Location
	if location == "" {
		location = domain.UnknownLocation
	}

	h.metrics.PredictionsTotal.WithLabelValues(pred.Method).Inc()
	h.ok(w, endpoint, predictResponse{
		FireProbability:  pred.Probability,
		Location:         location,
		PredictionMethod: pred.Method,
	})
}

// analyzeRequest mirrors the analysis API request body.
type analyzeRequest struct {
	FireProbability *float64       `json:"fire_probability" validate:"required"`
	WeatherData     map[string]any `json:"weather_data"`
	Location        string         `json:"location"`
}

// handleAnalyze never returns an error status for narrative failures: a risk
// narrative is supplementary, so every failure degrades to a fallback body.
func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/analyze"

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.clientError(w, endpoint, "invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.clientError(w, endpoint, validationMessage(err))
		return
	}

	if req.Location == "" {
		req.Location = domain.UnknownLocation
	}
	p := *req.FireProbability

	if h.analyst == nil {
		h.logger.Warn("analyst not configured, returning fallback narrative", "location", req.Location)
		h.narrative(w, endpoint, "fallback_unconfigured", domain.UnavailableNarrative(p))
		return
	}

	start := time.Now()
	text, err := h.analyst.GenerateAnalysis(r.Context(), domain.AnalysisRequest{
		FireProbability: p,
		WeatherData:     req.WeatherData,
		Location:        req.Location,
	})
	h.metrics.UpstreamDuration.WithLabelValues("openai").Observe(time.Since(start).Seconds())
	if err != nil {
		h.logger.Error("narrative generation failed", "error", err, "location", req.Location)
		h.narrative(w, endpoint, "fallback_error", domain.ServiceErrorNarrative(p))
		return
	}

	n, err := domain.ParseNarrative(text)
	if err != nil {
		h.logger.Error("narrative output not parseable", "error", err, "text", text)
		h.narrative(w, endpoint, "fallback_parse", domain.ParseFailureNarrative())
		return
	}

	h.narrative(w, endpoint, "generated", n)
}

type weatherResponse struct {
	MaxTempC        float64 `json:"max_temp_c"`
	MinTempC        float64 `json:"min_temp_c"`
	AvgTempC        float64 `json:"avg_temp_c"`
	HeatingDegDaysC float64 `json:"heating_deg_days_c"`
	CoolingDegDaysC float64 `json:"cooling_deg_days_c"`
	PrecipMM        float64 `json:"precip_mm"`
	AvgHumidity     float64 `json:"avg_humidity"`
	AvgWindKnots    float64 `json:"avg_wind_speed_knots"`
	AvgDewPointF    float64 `json:"avg_dew_point_f"`
	AvgVisibilityKM float64 `json:"avg_visibility_km"`
	AvgPressureMB   float64 `json:"avg_sea_level_pressure_mb"`
	Date            string  `json:"date"`
}

func (h *handler) handleWeather(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/weather"

	// Validation runs before any upstream call.
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		h.clientError(w, endpoint, "Location cannot be empty")
		return
	}

	var date *time.Time
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			h.clientError(w, endpoint, "Date must be in YYYY-MM-DD format")
			return
		}
		date = &parsed
	}

	if h.weather == nil {
		h.serverError(w, endpoint, "Weather service not available")
		return
	}

	start := time.Now()
	daily, err := h.weather.FetchDaily(r.Context(), location, date)
	h.metrics.UpstreamDuration.WithLabelValues("weatherapi").Observe(time.Since(start).Seconds())
	if err != nil {
		h.logger.Error("weather lookup failed", "error", err, "location", location)

		var mfe domain.MissingFieldError
		switch {
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			h.serverError(w, endpoint, "Weather service not available")
		case errors.As(err, &mfe):
			h.serverError(w, endpoint, mfe.Error())
		default:
			h.serverError(w, endpoint, "Error fetching weather data")
		}
		return
	}

	h.ok(w, endpoint, weatherResponse{
		MaxTempC:        round1(daily.MaxTempC),
		MinTempC:        round1(daily.MinTempC),
		AvgTempC:        round1(daily.AvgTempC),
		HeatingDegDaysC: round1(daily.HeatingDegDaysC),
		CoolingDegDaysC: round1(daily.CoolingDegDaysC),
		PrecipMM:        round1(daily.PrecipMM),
		AvgHumidity:     round1(daily.AvgHumidity),
		AvgWindKnots:    round1(daily.AvgWindKnots),
		AvgDewPointF:    round1(daily.AvgDewPointF),
		AvgVisibilityKM: round1(daily.AvgVisibilityKM),
		AvgPressureMB:   round1(daily.AvgPressureMB),
		Date:            daily.Date,
	})
}

func (h *handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	wd, _ := os.Getwd()
	h.ok(w, "/api/status", map[string]any{
		"model_loaded":     h.classifier != nil,
		"openai_available": h.analyst != nil,
		"system_info": map[string]string{
			"go_version":        runtime.Version(),
			"current_directory": wd,
		},
	})
}

func (h *handler) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		h.logger.Error("render home page failed", "error", err)
	}
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Response helpers.

func (h *handler) ok(w http.ResponseWriter, endpoint string, v any) {
	h.metrics.RequestsTotal.WithLabelValues(endpoint, outcomeOK).Inc()
	writeJSON(w, http.StatusOK, v)
}

func (h *handler) narrative(w http.ResponseWriter, endpoint, outcome string, n domain.Narrative) {
	h.metrics.NarrativesTotal.WithLabelValues(outcome).Inc()
	h.ok(w, endpoint, n)
}

func (h *handler) clientError(w http.ResponseWriter, endpoint, msg string) {
	h.metrics.RequestsTotal.WithLabelValues(endpoint, outcomeClientError).Inc()
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (h *handler) serverError(w http.ResponseWriter, endpoint, msg string) {
	h.metrics.RequestsTotal.WithLabelValues(endpoint, outcomeServerError).Inc()
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}

// jsonTagName makes validator errors report JSON field names.
func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// validationMessage names the first offending field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "missing required field: " + verrs[0].Field()
	}
	return "invalid request body"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
