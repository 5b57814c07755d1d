package payments

import (
	"sort"
	"strings"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// Registry holds the configured providers. It is built once at the
// composition root and read-only afterwards; there is no lazy global
// instance.
type Registry struct {
	providers       map[string]Provider
	defaultProvider string
}

// NewRegistry wires the given providers. The default falls back to any
// configured provider when the requested default is absent.
func NewRegistry(providers map[string]Provider, defaultProvider string) *Registry {
	defaultProvider = strings.ToLower(defaultProvider)
	if _, ok := providers[defaultProvider]; !ok {
		for name := range providers {
			defaultProvider = name
			break
		}
	}
	return &Registry{providers: providers, defaultProvider: defaultProvider}
}

// Get resolves a provider by name; empty name selects the default.
func (r *Registry) Get(name string) (Provider, error) {
	if len(r.providers) == 0 {
		return nil, apperror.ErrProvidersNotReady
	}
	key := strings.ToLower(name)
	if key == "" {
		key = r.defaultProvider
	}
	provider, ok := r.providers[key]
	if !ok {
		return nil, apperror.Validation("unsupported payment provider", map[string]interface{}{
			"provider":  name,
			"supported": r.Names(),
		})
	}
	return provider, nil
}

// Names lists the configured provider names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
