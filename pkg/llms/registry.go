package llms

import (
	"fmt"
	"sync"

	"github.com/docmind/docmind/pkg/config"
)

// Registry holds named LLM providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under a name.
func (r *Registry) Register(name string, provider Provider) error {
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = provider
	return nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not found", name)
	}
	return provider, nil
}

// CreateFromConfig constructs a provider from config and registers it.
// The provider variant is chosen here, once, by the configured type.
func (r *Registry) CreateFromConfig(name string, cfg *config.LLMConfig) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("LLM config cannot be nil")
	}

	var provider Provider
	var err error

	switch cfg.Type {
	case "gemini":
		provider, err = NewGeminiProviderFromConfig(cfg)
	case "openai":
		provider, err = NewOpenAIProviderFromConfig(cfg)
	default:
		return nil, config.NewConfigError("llm",
			fmt.Sprintf("unsupported LLM type: %s (supported: gemini, openai)", cfg.Type))
	}

	if err != nil {
		return nil, err
	}

	if err := r.Register(name, provider); err != nil {
		return nil, err
	}

	return provider, nil
}

// Close closes all registered providers.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, provider := range r.providers {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close provider %q: %w", name, err)
		}
	}
	r.providers = make(map[string]Provider)
	return firstErr
}
