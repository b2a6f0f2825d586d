package adapters

import (
	"strings"

	"github.com/billingkit/taxengine/internal/taxcalc/domain"
)

// Registry resolves tax providers by name at call time.
type Registry struct {
	providers map[string]domain.TaxProvider
}

func NewRegistry(providers ...domain.TaxProvider) *Registry {
	registry := &Registry{providers: map[string]domain.TaxProvider{}}
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(provider.Name()))
		if name == "" {
			continue
		}
		registry.providers[name] = provider
	}
	return registry
}

func (r *Registry) Exists(name string) bool {
	if r == nil {
		return false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	_, ok := r.providers[name]
	return ok
}

func (r *Registry) Get(name string) (domain.TaxProvider, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	name = strings.ToLower(strings.TrimSpace(name))
	provider, ok := r.providers[name]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return provider, nil
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
