package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepilot/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MISTRAL_API_KEY", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Intake.PageLimit)
	assert.Equal(t, 1000, cfg.Intake.MaxSide)
	assert.Equal(t, 70, cfg.Intake.SingleQuality)
	assert.Equal(t, 60, cfg.Intake.CompositeQuality)
	assert.InDelta(t, 1.5, cfg.Intake.PDFScale, 1e-9)
	assert.Equal(t, int64(20<<20), cfg.Intake.MaxUploadBytes())

	assert.Equal(t, "mistral", cfg.Extractor.Provider)
	assert.Equal(t, "pixtral-12b-2409", cfg.Extractor.DefaultModel)
	assert.InDelta(t, 0.1, cfg.Extractor.Temperature, 1e-9)

	assert.Equal(t, "mistral-small-latest", cfg.Chat.DefaultModel)
	assert.InDelta(t, 0.7, cfg.Chat.Temperature, 1e-9)
	assert.Equal(t, 20, cfg.Chat.MaxTurns)

	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 1000, cfg.Session.MaxSessions)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CAREPILOT_INTAKE_PAGE_LIMIT", "2")
	t.Setenv("CAREPILOT_EXTRACTOR_PROVIDER", "gemini")
	t.Setenv("CAREPILOT_EXTRACTOR_API_KEY", "gk-test")
	t.Setenv("CAREPILOT_CHAT_MAX_TURNS", "6")
	t.Setenv("CAREPILOT_CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Intake.PageLimit)
	assert.Equal(t, "gemini", cfg.Extractor.Provider)
	assert.Equal(t, "gk-test", cfg.Extractor.APIKey)
	assert.Equal(t, 6, cfg.Chat.MaxTurns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CAREPILOT_SERVER_PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_SharedMistralKey(t *testing.T) {
	t.Setenv("CAREPILOT_EXTRACTOR_API_KEY", "")
	t.Setenv("CAREPILOT_CHAT_API_KEY", "")
	t.Setenv("MISTRAL_API_KEY", "mk-shared")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "mk-shared", cfg.Extractor.APIKey)
	assert.Equal(t, "mk-shared", cfg.Chat.APIKey)
}
