// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, provider credentials, retrieval parameters,
// deduplication, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "youth-telegram-bot")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Providers
	TelegramBotToken  string // TELEGRAM_BOT_TOKEN (secret)
	OpenAIAPIKey      string // OPENAI_API_KEY (secret)
	PineconeAPIKey    string // PINECONE_API_KEY (secret)
	PineconeIndexHost string // data-plane URL of the index, e.g. https://idx-abc.svc.us-east1.pinecone.io
	PineconeIndexName string // informational; used in startup logs

	// Retrieval / generation
	TopK           int     // number of neighbors requested from the vector index
	EmbeddingModel string  // e.g. text-embedding-3-large
	ChatModel      string  // e.g. gpt-4-turbo
	Temperature    float64 // completion temperature

	// Request handling
	DedupTTL        time.Duration // retention window for seen message ids
	UpstreamTimeout time.Duration // per external call (embed/query/complete)

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "4000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// Providers
		TelegramBotToken:  getenv("TELEGRAM_BOT_TOKEN", ""),
		OpenAIAPIKey:      getenv("OPENAI_API_KEY", ""),
		PineconeAPIKey:    getenv("PINECONE_API_KEY", ""),
		PineconeIndexHost: strings.TrimRight(getenv("PINECONE_INDEX_HOST", ""), "/"),
		PineconeIndexName: getenv("PINECONE_INDEX_NAME", ""),

		// Retrieval / generation
		TopK:           getint("TOP_K", 8),
		EmbeddingModel: getenv("EMBEDDING_MODEL", "text-embedding-3-large"),
		ChatModel:      getenv("CHAT_MODEL", "gpt-4-turbo"),
		Temperature:    getfloat("TEMPERATURE", 0.3),

		// Request handling
		DedupTTL:        getdur("DEDUP_TTL", 60*time.Second),
		UpstreamTimeout: getdur("UPSTREAM_TIMEOUT", 10*time.Second),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "youth-telegram-bot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.TelegramBotToken) == "" {
		return cfg, errors.New("TELEGRAM_BOT_TOKEN must not be empty")
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return cfg, errors.New("OPENAI_API_KEY must not be empty")
	}
	if strings.TrimSpace(cfg.PineconeAPIKey) == "" {
		return cfg, errors.New("PINECONE_API_KEY must not be empty")
	}
	if strings.TrimSpace(cfg.PineconeIndexHost) == "" {
		return cfg, errors.New("PINECONE_INDEX_HOST must not be empty")
	}
	if cfg.TopK < 1 || cfg.TopK > 100 {
		return cfg, errors.New("TOP_K must be in [1,100]")
	}
	if strings.TrimSpace(cfg.EmbeddingModel) == "" || strings.TrimSpace(cfg.ChatModel) == "" {
		return cfg, errors.New("EMBEDDING_MODEL and CHAT_MODEL must not be empty")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return cfg, errors.New("TEMPERATURE must be in [0,2]")
	}
	if cfg.DedupTTL <= 0 {
		return cfg, errors.New("DEDUP_TTL must be > 0")
	}
	if cfg.UpstreamTimeout <= 0 {
		return cfg, errors.New("UPSTREAM_TIMEOUT must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
