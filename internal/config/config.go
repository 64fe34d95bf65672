package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	CORS      CORSConfig
	Intake    IntakeConfig
	Extractor ProviderConfig
	Chat      ChatConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Environment     string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// IntakeConfig bounds document normalization.
type IntakeConfig struct {
	PageLimit        int     `mapstructure:"page_limit"`
	MaxSide          int     `mapstructure:"max_side"`
	SingleQuality    int     `mapstructure:"single_quality"`
	CompositeQuality int     `mapstructure:"composite_quality"`
	PDFScale         float64 `mapstructure:"pdf_scale"`
	MaxUploadMB      int64   `mapstructure:"max_upload_mb"`
	TimeoutSecs      int     `mapstructure:"timeout_secs"`
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *IntakeConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Timeout returns the end-to-end intake deadline.
func (c *IntakeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ProviderConfig holds settings for a single model provider.
type ProviderConfig struct {
	Provider     string  `mapstructure:"provider"`
	APIKey       string  `mapstructure:"api_key"`
	DefaultModel string  `mapstructure:"default_model"`
	Endpoint     string  `mapstructure:"endpoint"`
	TimeoutSecs  int     `mapstructure:"timeout_secs"`
	Temperature  float64 `mapstructure:"temperature"`
}

// Timeout returns the per-call deadline.
func (c *ProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ChatConfig holds the conversational provider and its history bounds.
type ChatConfig struct {
	ProviderConfig `mapstructure:",squash"`
	MaxTurns       int `mapstructure:"max_turns"`
	MaxChars       int `mapstructure:"max_chars"`
}

// SessionConfig holds in-memory session settings.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	EventBuffer   int           `mapstructure:"event_buffer"`
	MaxSessions   int           `mapstructure:"max_sessions"`
}

// RateLimitConfig holds the per-client token bucket for model-backed routes.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Load reads configuration from a .env file (if present) and environment
// variables with the CAREPILOT_ prefix.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CAREPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Intake defaults
	v.SetDefault("intake.page_limit", 4)
	v.SetDefault("intake.max_side", 1000)
	v.SetDefault("intake.single_quality", 70)
	v.SetDefault("intake.composite_quality", 60)
	v.SetDefault("intake.pdf_scale", 1.5)
	v.SetDefault("intake.max_upload_mb", 20)
	v.SetDefault("intake.timeout_secs", 90)

	// Extraction provider defaults
	v.SetDefault("extractor.provider", "mistral")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.default_model", "pixtral-12b-2409")
	v.SetDefault("extractor.endpoint", "")
	v.SetDefault("extractor.timeout_secs", 120)
	v.SetDefault("extractor.temperature", 0.1)

	// Chat provider defaults
	v.SetDefault("chat.provider", "mistral")
	v.SetDefault("chat.api_key", "")
	v.SetDefault("chat.default_model", "mistral-small-latest")
	v.SetDefault("chat.endpoint", "")
	v.SetDefault("chat.timeout_secs", 60)
	v.SetDefault("chat.temperature", 0.7)
	v.SetDefault("chat.max_turns", 20)
	v.SetDefault("chat.max_chars", 16000)

	// Session defaults
	v.SetDefault("session.ttl", "2h")
	v.SetDefault("session.sweep_interval", "5m")
	v.SetDefault("session.event_buffer", 16)
	v.SetDefault("session.max_sessions", 1000)

	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 5)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":              "CAREPILOT_SERVER_PORT",
		"server.read_timeout":      "CAREPILOT_SERVER_READ_TIMEOUT",
		"server.write_timeout":     "CAREPILOT_SERVER_WRITE_TIMEOUT",
		"server.shutdown_timeout":  "CAREPILOT_SERVER_SHUTDOWN_TIMEOUT",
		"server.environment":       "CAREPILOT_SERVER_ENVIRONMENT",
		"log.level":                "CAREPILOT_LOG_LEVEL",
		"log.format":               "CAREPILOT_LOG_FORMAT",
		"cors.allowed_origins":     "CAREPILOT_CORS_ALLOWED_ORIGINS",
		"intake.page_limit":        "CAREPILOT_INTAKE_PAGE_LIMIT",
		"intake.max_side":          "CAREPILOT_INTAKE_MAX_SIDE",
		"intake.single_quality":    "CAREPILOT_INTAKE_SINGLE_QUALITY",
		"intake.composite_quality": "CAREPILOT_INTAKE_COMPOSITE_QUALITY",
		"intake.pdf_scale":         "CAREPILOT_INTAKE_PDF_SCALE",
		"intake.max_upload_mb":     "CAREPILOT_INTAKE_MAX_UPLOAD_MB",
		"intake.timeout_secs":      "CAREPILOT_INTAKE_TIMEOUT_SECS",
		"extractor.provider":       "CAREPILOT_EXTRACTOR_PROVIDER",
		"extractor.api_key":        "CAREPILOT_EXTRACTOR_API_KEY",
		"extractor.default_model":  "CAREPILOT_EXTRACTOR_DEFAULT_MODEL",
		"extractor.endpoint":       "CAREPILOT_EXTRACTOR_ENDPOINT",
		"extractor.timeout_secs":   "CAREPILOT_EXTRACTOR_TIMEOUT_SECS",
		"extractor.temperature":    "CAREPILOT_EXTRACTOR_TEMPERATURE",
		"chat.provider":            "CAREPILOT_CHAT_PROVIDER",
		"chat.api_key":             "CAREPILOT_CHAT_API_KEY",
		"chat.default_model":       "CAREPILOT_CHAT_DEFAULT_MODEL",
		"chat.endpoint":            "CAREPILOT_CHAT_ENDPOINT",
		"chat.timeout_secs":        "CAREPILOT_CHAT_TIMEOUT_SECS",
		"chat.temperature":         "CAREPILOT_CHAT_TEMPERATURE",
		"chat.max_turns":           "CAREPILOT_CHAT_MAX_TURNS",
		"chat.max_chars":           "CAREPILOT_CHAT_MAX_CHARS",
		"session.ttl":              "CAREPILOT_SESSION_TTL",
		"session.sweep_interval":   "CAREPILOT_SESSION_SWEEP_INTERVAL",
		"session.event_buffer":     "CAREPILOT_SESSION_EVENT_BUFFER",
		"session.max_sessions":     "CAREPILOT_SESSION_MAX_SESSIONS",
		"ratelimit.rps":            "CAREPILOT_RATELIMIT_RPS",
		"ratelimit.burst":          "CAREPILOT_RATELIMIT_BURST",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if CAREPILOT_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CAREPILOT_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:            serverPort,
		ReadTimeout:     v.GetDuration("server.read_timeout"),
		WriteTimeout:    v.GetDuration("server.write_timeout"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Environment:     v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Intake = IntakeConfig{
		PageLimit:        v.GetInt("intake.page_limit"),
		MaxSide:          v.GetInt("intake.max_side"),
		SingleQuality:    v.GetInt("intake.single_quality"),
		CompositeQuality: v.GetInt("intake.composite_quality"),
		PDFScale:         v.GetFloat64("intake.pdf_scale"),
		MaxUploadMB:      v.GetInt64("intake.max_upload_mb"),
		TimeoutSecs:      v.GetInt("intake.timeout_secs"),
	}
	cfg.Extractor = providerConfig(v, "extractor")
	cfg.Chat = ChatConfig{
		ProviderConfig: providerConfig(v, "chat"),
		MaxTurns:       v.GetInt("chat.max_turns"),
		MaxChars:       v.GetInt("chat.max_chars"),
	}
	// One Mistral key usually serves both capabilities.
	if cfg.Extractor.APIKey == "" {
		cfg.Extractor.APIKey = os.Getenv("MISTRAL_API_KEY")
	}
	if cfg.Chat.APIKey == "" && cfg.Chat.Provider == cfg.Extractor.Provider {
		cfg.Chat.APIKey = cfg.Extractor.APIKey
	}
	cfg.Session = SessionConfig{
		TTL:           v.GetDuration("session.ttl"),
		SweepInterval: v.GetDuration("session.sweep_interval"),
		EventBuffer:   v.GetInt("session.event_buffer"),
		MaxSessions:   v.GetInt("session.max_sessions"),
	}
	cfg.RateLimit = RateLimitConfig{
		RPS:   v.GetFloat64("ratelimit.rps"),
		Burst: v.GetInt("ratelimit.burst"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		Endpoint:     v.GetString(prefix + ".endpoint"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
		Temperature:  v.GetFloat64(prefix + ".temperature"),
	}
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
