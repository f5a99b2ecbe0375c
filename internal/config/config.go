// Package config provides environment configuration for medassist.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/capitalize-ai/medassist/internal/llm"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	CORSOrigins        []string

	// Chat settings
	ChatVariant   string
	DefaultLocale string

	// LLM settings
	LLMProvider     string
	LLMModel        string
	LLMTimeout      time.Duration
	GeminiAPIURL    string
	GeminiModel     string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string

	// Session storage
	SessionBackend string
	SessionTTL     time.Duration
	RedisURL       string

	// NATS settings, empty URL disables the warning publisher
	NATSURL          string
	NATSCAFile       string
	NATSCertFile     string
	NATSKeyFile      string
	NATSToken        string
	WarningSubject   string
	WarningStream    bool
	WarningRetention time.Duration

	// JWT settings, empty secret disables auth
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		CORSOrigins:        getListEnv("CORS_ALLOWED_ORIGINS"),

		// Chat
		ChatVariant:   getEnv("CHAT_VARIANT", "multilingual"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", ""),

		// LLM
		LLMProvider:     getEnv("LLM_PROVIDER", "gemini"),
		LLMModel:        getEnv("LLM_MODEL", ""),
		LLMTimeout:      getDurationEnv("LLM_TIMEOUT", 60*time.Second),
		GeminiAPIURL:    getEnv("GEMINI_API_URL", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		// Sessions
		SessionBackend: getEnv("SESSION_BACKEND", "memory"),
		SessionTTL:     getDurationEnv("SESSION_TTL", 30*time.Minute),
		RedisURL:       getEnv("REDIS_URL", ""),

		// NATS
		NATSURL:          getEnv("NATS_URL", ""),
		NATSCAFile:       getEnv("NATS_CA_FILE", ""),
		NATSCertFile:     getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:      getEnv("NATS_KEY_FILE", ""),
		NATSToken:        getEnv("NATS_TOKEN", ""),
		WarningSubject:   getEnv("WARNING_SUBJECT", "medassist.warnings"),
		WarningStream:    getBoolEnv("WARNING_STREAM", false),
		WarningRetention: getDurationEnv("WARNING_RETENTION", 24*time.Hour),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}

	key, err := resolveSecret("GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}
	cfg.GeminiAPIKey = key

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("SESSION_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}

	switch c.LLMProvider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	return nil
}

// APIKey returns the credential for the selected provider. Empty is a valid,
// handled state.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// Endpoint returns the provider endpoint override, if any.
func (c *Config) Endpoint() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIBaseURL
	case "anthropic":
		return ""
	default:
		if c.GeminiAPIURL != "" {
			return c.GeminiAPIURL
		}
		if c.GeminiModel != "" {
			return llm.GeminiEndpointForModel(c.GeminiModel)
		}
		return ""
	}
}

// LLMOptions builds the completer options for the selected provider.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider: llm.Provider(c.LLMProvider),
		APIKey:   c.APIKey(),
		Model:    c.LLMModel,
		Endpoint: c.Endpoint(),
		Timeout:  c.LLMTimeout,
	}
}

// resolveSecret reads <name>_FILE if set, else <name>. A configured file
// that cannot be read is an error; an absent credential is not.
func resolveSecret(name string) (string, error) {
	if path := os.Getenv(name + "_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s_FILE: %w", name, err)
		}
		if v := strings.TrimSpace(string(b)); v != "" {
			return v, nil
		}
	}
	return strings.TrimSpace(os.Getenv(name)), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
