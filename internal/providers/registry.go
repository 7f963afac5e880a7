package providers

import "fmt"

// Registry maps providers to their strategies. It is built once and never
// mutated, so lookups need no locking.
type Registry struct {
	strategies map[Provider]Strategy
}

// NewRegistry builds a registry from the enabled strategies.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	m := make(map[Provider]Strategy, len(strategies))
	for _, s := range strategies {
		if s == nil {
			continue
		}
		name := s.Name()
		if !name.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
		}
		if _, dup := m[name]; dup {
			return nil, fmt.Errorf("providers: %s registered twice", name)
		}
		m[name] = s
	}
	return &Registry{strategies: m}, nil
}

// Resolve returns the strategy for p, or ErrUnsupportedProvider.
func (r *Registry) Resolve(p Provider) (Strategy, error) {
	if s, ok := r.strategies[p]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, p)
}

// Lookup parses name and resolves it.
func (r *Registry) Lookup(name string) (Strategy, error) {
	p, err := Parse(name)
	if err != nil {
		return nil, err
	}
	return r.Resolve(p)
}

// Providers lists the registered providers in stable order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, 0, len(r.strategies))
	for _, p := range All {
		if _, ok := r.strategies[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
