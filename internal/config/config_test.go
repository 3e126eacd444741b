package config

import (
	"testing"
	"time"
)

// setRequired populates the credentials every successful Load needs.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PINECONE_API_KEY", "pc-test")
	t.Setenv("PINECONE_INDEX_HOST", "https://idx-abc.svc.us-east1.pinecone.io/")
}

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "4000" {
		t.Fatalf("default port: %q", cfg.Port)
	}
	if cfg.TopK != 8 || cfg.EmbeddingModel != "text-embedding-3-large" || cfg.ChatModel != "gpt-4-turbo" {
		t.Fatalf("retrieval defaults unexpected: %+v", cfg)
	}
	if cfg.Temperature != 0.3 {
		t.Fatalf("temperature default: %v", cfg.Temperature)
	}
	if cfg.DedupTTL != 60*time.Second {
		t.Fatalf("dedup ttl default: %v", cfg.DedupTTL)
	}
	if cfg.UpstreamTimeout != 10*time.Second {
		t.Fatalf("upstream timeout default: %v", cfg.UpstreamTimeout)
	}
	// The trailing slash on the index host must be stripped.
	if cfg.PineconeIndexHost != "https://idx-abc.svc.us-east1.pinecone.io" {
		t.Fatalf("index host not normalized: %q", cfg.PineconeIndexHost)
	}
	if cfg.OTEL.Enabled {
		t.Fatalf("otel should default to disabled")
	}
}

func TestLoad_OverridesAndNormalization(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("GIN_MODE", "weird")    // will normalize to "release"
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("TOP_K", "5")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-small")
	t.Setenv("CHAT_MODEL", "gpt-4o")
	t.Setenv("TEMPERATURE", "0.7")
	t.Setenv("DEDUP_TTL", "90s")
	t.Setenv("UPSTREAM_TIMEOUT", "junk") // parse failure -> default
	t.Setenv("PINECONE_INDEX_NAME", "youth-kb")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty {
		t.Fatalf("logging unexpected: %+v", cfg)
	}
	if cfg.TopK != 5 || cfg.EmbeddingModel != "text-embedding-3-small" || cfg.ChatModel != "gpt-4o" || cfg.Temperature != 0.7 {
		t.Fatalf("retrieval fields unexpected: %+v", cfg)
	}
	if cfg.DedupTTL != 90*time.Second {
		t.Fatalf("dedup ttl: %v", cfg.DedupTTL)
	}
	if cfg.UpstreamTimeout != 10*time.Second {
		t.Fatalf("upstream timeout should fall back to default: %v", cfg.UpstreamTimeout)
	}
	if cfg.PineconeIndexName != "youth-kb" {
		t.Fatalf("index name: %q", cfg.PineconeIndexName)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing TELEGRAM_BOT_TOKEN", map[string]string{"TELEGRAM_BOT_TOKEN": ""}},
		{"missing OPENAI_API_KEY", map[string]string{"OPENAI_API_KEY": ""}},
		{"missing PINECONE_API_KEY", map[string]string{"PINECONE_API_KEY": ""}},
		{"missing PINECONE_INDEX_HOST", map[string]string{"PINECONE_INDEX_HOST": ""}},
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}},
		{"TOP_K too small", map[string]string{"TOP_K": "0"}},
		{"TOP_K too large", map[string]string{"TOP_K": "1000"}},
		{"TEMPERATURE out of range", map[string]string{"TEMPERATURE": "3.5"}},
		{"negative MAX_HEADER_BYTES", map[string]string{"MAX_HEADER_BYTES": "-1"}},
		{"sampler arg out of range", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

// --- helper parsing ---

func TestHelpers_ParseFallbacks(t *testing.T) {
	t.Setenv("H_INT", "not-a-number")
	if got := getint("H_INT", 7); got != 7 {
		t.Fatalf("getint fallback: %d", got)
	}
	t.Setenv("H_BOOL", "definitely")
	if got := getbool("H_BOOL", true); got != true {
		t.Fatalf("getbool fallback: %v", got)
	}
	t.Setenv("H_BOOL", "off")
	if got := getbool("H_BOOL", true); got != false {
		t.Fatalf("getbool off: %v", got)
	}
	t.Setenv("H_DUR", "5x")
	if got := getdur("H_DUR", time.Second); got != time.Second {
		t.Fatalf("getdur fallback: %v", got)
	}
	t.Setenv("H_FLOAT", "0.25")
	if got := getfloat("H_FLOAT", 1.0); got != 0.25 {
		t.Fatalf("getfloat: %v", got)
	}
}
