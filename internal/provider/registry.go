package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry is a thread-safe set of providers keyed by name, with an index of
// which providers serve each model type.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	modelIdx  map[ModelType][]string // registration order
	defaults  map[ModelType]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		modelIdx:  make(map[ModelType][]string),
		defaults:  make(map[ModelType]string),
	}
}

// Register adds a provider. A later registration under the same name
// replaces the earlier one.
func (r *Registry) Register(p Provider) error {
	info := p.Info()
	if info.Name == "" {
		return errors.New("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[info.Name] = p
	for _, model := range p.SupportedModels() {
		if !contains(r.modelIdx[model], info.Name) {
			r.modelIdx[model] = append(r.modelIdx[model], info.Name)
		}
		if _, ok := r.defaults[model]; !ok {
			r.defaults[model] = info.Name
		}
	}
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// List returns info about all registered providers, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ProvidersFor returns the providers serving a model, in registration order.
func (r *Registry) ProvidersFor(model ModelType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.modelIdx[model]...)
}

// DefaultProvider returns the default provider for a model type.
func (r *Registry) DefaultProvider(model ModelType) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.defaults[model]
	return name, ok
}

// SetDefault sets the default provider for a model type.
func (r *Registry) SetDefault(model ModelType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.providers[name]
	if !ok {
		return &ErrProviderNotFound{Name: name}
	}
	if p.Fetcher(model) == nil {
		return &ErrModelNotSupported{Provider: name, Model: model}
	}
	r.defaults[model] = name
	return nil
}

// Fetch routes a request to params[ParamProvider], or to the model's default
// provider when unset.
func (r *Registry) Fetch(ctx context.Context, model ModelType, params QueryParams) (*FetchResult, error) {
	name := params[ParamProvider]

	r.mu.RLock()
	if name == "" {
		name = r.defaults[model]
	}
	p, ok := r.providers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	fetcher := p.Fetcher(model)
	if fetcher == nil {
		return nil, &ErrModelNotSupported{Provider: name, Model: model}
	}
	if err := ValidateParams(params, fetcher.RequiredParams()); err != nil {
		return nil, err
	}

	result, err := fetcher.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("provider %q fetch %s: %w", name, model, err)
	}
	result.Provider = name
	result.Model = model
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}
	if result.Data.Source == "" {
		result.Data.Source = name
	}
	return result, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
