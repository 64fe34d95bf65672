// Package app wires the pipeline components from configuration. Both the
// HTTP server and the CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"carepilot/internal/chat"
	"carepilot/internal/config"
	"carepilot/internal/extraction"
	"carepilot/internal/imaging"
	"carepilot/internal/llm"
	"carepilot/internal/llm/providers"
	"carepilot/internal/port"
	"carepilot/internal/service"
)

var registerOnce sync.Once

// Pipeline holds the stateless services.
type Pipeline struct {
	Intake service.IntakeService
	Chat   service.ChatService

	extractor port.Provider
	chatModel port.Provider
}

// NewPipeline builds the intake and chat services. Each provider is wrapped
// in a rate-limit cooldown.
func NewPipeline(cfg *config.Config, logger zerolog.Logger) (*Pipeline, error) {
	registerOnce.Do(providers.Register)

	extractor, err := llm.NewProvider(&cfg.Extractor)
	if err != nil {
		return nil, fmt.Errorf("creating extraction provider: %w", err)
	}
	chatModel, err := llm.NewProvider(&cfg.Chat.ProviderConfig)
	if err != nil {
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}
	return NewPipelineWithProviders(cfg, extractor, chatModel, logger), nil
}

// NewPipelineWithProviders builds the services around the given providers.
func NewPipelineWithProviders(cfg *config.Config, extractor, chatModel port.Provider, logger zerolog.Logger) *Pipeline {
	extractor = llm.NewCooldown(extractor, logger)
	chatModel = llm.NewCooldown(chatModel, logger)

	normalizer := imaging.NewNormalizer(cfg.Intake, logger)
	extractClient := extraction.NewClient(extractor, cfg.Extractor.Temperature, logger)
	chatClient := chat.NewClient(chatModel, cfg.Chat.Temperature, chat.HistoryPolicy{
		MaxTurns: cfg.Chat.MaxTurns,
		MaxChars: cfg.Chat.MaxChars,
	}, logger)

	return &Pipeline{
		Intake:    service.NewIntakeService(normalizer, extractClient, &cfg.Intake, logger),
		Chat:      service.NewChatService(chatClient, cfg.Chat.Timeout(), logger),
		extractor: extractor,
		chatModel: chatModel,
	}
}

// ErrMissingAPIKey is reported by readiness when a provider has no key.
var ErrMissingAPIKey = errors.New("api key not configured")

// CheckCredentials reports whether both providers have an API key.
func CheckCredentials(cfg *config.Config) func(context.Context) error {
	return func(context.Context) error {
		if cfg.Extractor.APIKey == "" {
			return fmt.Errorf("extractor (%s): %w", cfg.Extractor.Provider, ErrMissingAPIKey)
		}
		if cfg.Chat.APIKey == "" {
			return fmt.Errorf("chat (%s): %w", cfg.Chat.Provider, ErrMissingAPIKey)
		}
		return nil
	}
}

// Providers returns the names of the wrapped extraction and chat providers.
func (p *Pipeline) Providers() (extractor, chatModel string) {
	return p.extractor.Name(), p.chatModel.Name()
}
