package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// prediction API.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec // labels: endpoint, outcome={ok,client_error,server_error}
	PredictionsTotal *prometheus.CounterVec // labels: method={model,rule-based}

	// Narrative analysis outcomes.
	NarrativesTotal *prometheus.CounterVec // labels: outcome={generated,fallback_unconfigured,fallback_error,fallback_parse}

	// Upstream call durations.
	UpstreamDuration *prometheus.HistogramVec // labels: upstream={openai,weatherapi}

	ModelLoaded      prometheus.Gauge
	OpenAIConfigured prometheus.Gauge
}

// NewMetrics creates and registers all API metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire_api",
			Name:      "requests_total",
			Help:      "API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire_api",
			Name:      "predictions_total",
			Help:      "Fire probability predictions by estimation method.",
		}, []string{"method"}),
		NarrativesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire_api",
			Name:      "narratives_total",
			Help:      "Narrative analysis responses by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wildfire_api",
			Name:      "upstream_duration_seconds",
			Help:      "External service request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"upstream"}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wildfire_api",
			Name:      "model_loaded",
			Help:      "1 when a trained model is loaded, 0 in rule-based mode.",
		}),
		OpenAIConfigured: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wildfire_api",
			Name:      "openai_configured",
			Help:      "1 when narrative generation is configured, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RequestsTotal,
		m.PredictionsTotal,
		m.NarrativesTotal,
		m.UpstreamDuration,
		m.ModelLoaded,
		m.OpenAIConfigured,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RequestsTotal:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wildfire_api", Name: "requests_total"}, []string{"endpoint", "outcome"}),
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wildfire_api", Name: "predictions_total"}, []string{"method"}),
		NarrativesTotal:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wildfire_api", Name: "narratives_total"}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "wildfire_api", Name: "upstream_duration_seconds"}, []string{"upstream"}),
		ModelLoaded:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wildfire_api", Name: "model_loaded"}),
		OpenAIConfigured: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wildfire_api", Name: "openai_configured"}),
	}
}
