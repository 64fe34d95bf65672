package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"carepilot/internal/config"
	"carepilot/internal/port"
)

// ProviderFactory creates a Provider from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.Provider, error)

var (
	mu        sync.RWMutex
	providers = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// NewProvider creates a Provider from a config using the registered factory.
func NewProvider(cfg *config.ProviderConfig) (port.Provider, error) {
	mu.RLock()
	factory, ok := providers[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown model provider: %s (registered: %s)", cfg.Provider, strings.Join(Registered(), ", "))
	}
	return factory(cfg)
}

// Registered lists the registered provider names.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
