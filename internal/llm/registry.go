package llm

import (
	"fmt"
	"sync"

	"github.com/finsight/finsight/internal/config"
	"github.com/finsight/finsight/internal/logging"
)

// ProviderError is returned when a model provider fails.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP-like status code (401, 429, 500, etc.)
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Registry manages model clients and resolves model references to clients.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]Client // model id or provider name → client
	fallback string            // default key used when no match is found
	log      *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		clients: make(map[string]Client),
		log:     log.Sub("llm.registry"),
	}
}

// Register adds a client under the given key (model id or provider name).
func (r *Registry) Register(key string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[key] = client
	r.log.Info().Str("model", key).Str("provider", client.Name()).Msg("registered model")
}

// SetFallback sets the default key used when no model match is found.
func (r *Registry) SetFallback(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = key
}

// Resolve returns the Client for the given model reference.
func (r *Registry) Resolve(model string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.clients[model]; ok {
		return c, nil
	}
	if r.fallback != "" {
		if c, ok := r.clients[r.fallback]; ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no model client for %q", model)
}

// List returns all registered keys.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.clients))
	for k := range r.clients {
		keys = append(keys, k)
	}
	return keys
}

// NewRegistryFromConfig builds a registry from the model configuration: one
// client per configured model id (primary first, then fallbacks), all backed
// by the configured provider.
func NewRegistryFromConfig(cfg config.ModelConfig, log *logging.Logger) (*Registry, error) {
	reg := NewRegistry(log)

	switch cfg.Provider {
	case "gemini":
		reg.Register(cfg.ID, NewGemini(cfg.APIKey, cfg.ID))
		for _, id := range cfg.Fallbacks {
			if id == cfg.ID {
				continue
			}
			reg.Register(id, NewGemini(cfg.APIKey, id))
		}
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}

	reg.SetFallback(cfg.ID)
	return reg, nil
}
