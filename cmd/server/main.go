package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/wildfire-risk-service/internal/adapter/http"
	"github.com/couchcryptid/wildfire-risk-service/internal/adapter/mlmodel"
	"github.com/couchcryptid/wildfire-risk-service/internal/adapter/openai"
	"github.com/couchcryptid/wildfire-risk-service/internal/adapter/weatherapi"
	"github.com/couchcryptid/wildfire-risk-service/internal/config"
	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// The model handle is resolved once here and read-only afterwards; a nil
	// classifier selects rule-based estimation for the process lifetime.
	var classifier domain.Classifier
	if m, err := mlmodel.Load(cfg.ModelPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("model not found, using rule-based predictions", "path", cfg.ModelPath)
		} else {
			logger.Error("failed to load model, using rule-based predictions", "path", cfg.ModelPath, "error", err)
		}
	} else {
		classifier = m
		metrics.ModelLoaded.Set(1)
		logger.Info("prediction model loaded", "path", cfg.ModelPath, "features", m.FeatureCount())
	}

	var analyst domain.Analyst
	if cfg.OpenAIEnabled() {
		analyst = openai.NewClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAITimeout, logger)
		metrics.OpenAIConfigured.Set(1)
		logger.Info("narrative analysis enabled", "model", cfg.OpenAIModel, "timeout", cfg.OpenAITimeout)
	} else {
		logger.Warn("OPENAI_API_KEY not set, narrative analysis disabled")
	}

	var weather domain.WeatherProvider
	if cfg.WeatherEnabled() {
		weather = weatherapi.NewClient(cfg.WeatherAPIKey, cfg.WeatherAPITimeout, logger)
		logger.Info("weather lookup enabled", "timeout", cfg.WeatherAPITimeout)
	} else {
		logger.Warn("WEATHER_API_KEY not set, weather lookup disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Classifier: classifier,
		Analyst:    analyst,
		Weather:    weather,
		Metrics:    metrics,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
