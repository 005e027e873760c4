package config

import (
	"errors"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// openaiKeyPlaceholder ships in .env.example; treat it as unset.
const openaiKeyPlaceholder = "your_openai_api_key_here"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Trained model parameter file; the service runs rule-based when absent.
	ModelPath string

	// OpenAI narrative generation. Disabled when the key is unset.
	OpenAIKey     string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// WeatherAPI.com lookup. Disabled when the key is unset.
	WeatherAPIKey     string
	WeatherAPITimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first when
// present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	openaiTimeout, err := parseTimeout("OPENAI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parseTimeout("WEATHER_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == openaiKeyPlaceholder {
		openaiKey = ""
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath: sharedcfg.EnvOrDefault("MODEL_PATH", "model/fire_prediction_model.json"),

		OpenAIKey:     openaiKey,
		OpenAIModel:   sharedcfg.EnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAITimeout: openaiTimeout,

		WeatherAPIKey:     os.Getenv("WEATHER_API_KEY"),
		WeatherAPITimeout: weatherTimeout,
	}

	if cfg.ModelPath == "" {
		return nil, errors.New("MODEL_PATH must not be empty")
	}

	return cfg, nil
}

// OpenAIEnabled reports whether narrative generation is configured.
func (c *Config) OpenAIEnabled() bool {
	return c.OpenAIKey != ""
}

// WeatherEnabled reports whether the weather lookup is configured.
func (c *Config) WeatherEnabled() bool {
	return c.WeatherAPIKey != ""
}

func parseTimeout(envVar, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(envVar, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + envVar)
	}
	return d, nil
}
