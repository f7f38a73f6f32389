package radar

import "context"

// Provider turns search criteria into zero or more normalized events for one
// external source. Search never fails: transport errors, non-2xx responses,
// timeouts and parse failures all yield an empty slice. Each provider owns
// its city mapping, its location acceptability check and a hard per-call
// network timeout independent of the orchestrator's budget.
type Provider interface {
	Name() Source
	Search(ctx context.Context, criteria Criteria) []Event
}

// ExcerptFetcher is the raw-markup variant of a provider: instead of events
// it returns a capped listing-page excerpt for the extraction step to
// interpret. An empty string means the source had nothing usable.
type ExcerptFetcher interface {
	Name() Source
	FetchExcerpt(ctx context.Context, criteria Criteria) string
}

// Registry stores providers by source name.
type Registry struct {
	providers map[Source]Provider
	order     []Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Source]Provider)}
}

// Register adds or replaces a provider by name, preserving insertion order.
func (r *Registry) Register(provider Provider) {
	if r == nil || provider == nil {
		return
	}
	if r.providers == nil {
		r.providers = make(map[Source]Provider)
	}
	if _, exists := r.providers[provider.Name()]; !exists {
		r.order = append(r.order, provider.Name())
	}
	r.providers[provider.Name()] = provider
}

// Get returns a provider by name.
func (r *Registry) Get(name Source) Provider {
	if r == nil {
		return nil
	}
	return r.providers[name]
}

// All returns registered providers in registration order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}
