package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Context window clamp bounds for per-room overrides.
const (
	MinContextPairs = 3
	MaxContextPairs = 20
)

// Config holds all configuration for the translation relay service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Deepgram STT API configuration
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY" required:"true"`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"` // nova-2, enhanced, base

	// Translation LLM configuration
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:""` // Optional override for proxies/compatible backends

	// Postgres connection string for tenant lookups, prompt templates and the
	// transcript store. Optional; when empty those features degrade to
	// defaults and the relay runs broadcast-only.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	// Language defaults (per-room tenant config overrides these)
	DefaultSourceLanguage string `envconfig:"DEFAULT_SOURCE_LANGUAGE" default:"ar"`
	DefaultTargetLanguage string `envconfig:"DEFAULT_TARGET_LANGUAGE" default:"nl"`

	// Translation context window: user/assistant pairs of history kept per
	// target language. Per-room overrides are clamped to [3, 20].
	TranslationContextPairs int `envconfig:"TRANSLATION_CONTEXT_PAIRS" default:"12"`

	// Translation retry behaviour
	TranslateMaxRetries  int `envconfig:"TRANSLATE_MAX_RETRIES" default:"2"`    // Additional attempts after the first
	TranslateBackoffStep int `envconfig:"TRANSLATE_BACKOFF_STEP" default:"500"` // Linear backoff step in milliseconds

	// Audio processing configuration
	AudioBufferSize    int     `envconfig:"AUDIO_BUFFER_SIZE" default:"8192"`     // Ring buffer size in bytes
	VADEnergyThreshold float64 `envconfig:"VAD_ENERGY_THRESHOLD" default:"500.0"` // RMS energy threshold for VAD
	VADSilenceFrames   int     `envconfig:"VAD_SILENCE_FRAMES" default:"10"`      // Frames of silence to mark speech end

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	ReconnectMaxAttempts       int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`         // Maximum STT reconnection attempts
	ReconnectBackoff           int `envconfig:"RECONNECT_BACKOFF" default:"1000"`           // Reconnection backoff in milliseconds

	// Session heartbeat persisted while a room session is live
	HeartbeatInterval int `envconfig:"HEARTBEAT_INTERVAL" default:"20"` // seconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the
// environment.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables without
// attempting a .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DeepgramAPIKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return &cfg, nil
}

// ContextPairs resolves the history window size for a room. A zero or
// negative override means "use the configured default"; anything else is
// clamped to [MinContextPairs, MaxContextPairs].
func (c *Config) ContextPairs(roomOverride int) int {
	if roomOverride <= 0 {
		return c.TranslationContextPairs
	}
	if roomOverride < MinContextPairs {
		return MinContextPairs
	}
	if roomOverride > MaxContextPairs {
		return MaxContextPairs
	}
	return roomOverride
}
