// Package providers registers the built-in model providers.
package providers

import (
	"carepilot/internal/config"
	"carepilot/internal/llm"
	"carepilot/internal/llm/claude"
	"carepilot/internal/llm/gemini"
	"carepilot/internal/llm/mistral"
	"carepilot/internal/port"
)

// Register adds the built-in provider factories to the llm registry.
func Register() {
	llm.RegisterProvider("mistral", func(cfg *config.ProviderConfig) (port.Provider, error) {
		return mistral.NewClient(cfg), nil
	})
	llm.RegisterProvider("gemini", func(cfg *config.ProviderConfig) (port.Provider, error) {
		return gemini.NewClient(cfg), nil
	})
	llm.RegisterProvider("claude", func(cfg *config.ProviderConfig) (port.Provider, error) {
		return claude.NewClient(cfg), nil
	})
}
