package currency

import (
	"fmt"
	"strings"
)

// Registry manages the currencies a bench offers
type Registry struct {
	currencies map[string]*Currency
	order      []string
}

// NewRegistry creates a registry holding the given currencies in order
func NewRegistry(currencies ...*Currency) (*Registry, error) {
	r := &Registry{currencies: make(map[string]*Currency, len(currencies))}
	for _, c := range currencies {
		if _, exists := r.currencies[c.ID()]; exists {
			return nil, fmt.Errorf("duplicate currency id %q", c.ID())
		}
		r.currencies[c.ID()] = c
		r.order = append(r.order, c.ID())
	}
	return r, nil
}

// DefaultRegistry returns a registry of the full catalog
func DefaultRegistry() *Registry {
	r, err := NewRegistry(All()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns a currency by ID
func (r *Registry) Get(id string) *Currency {
	return r.currencies[id]
}

// All returns all currencies in registration order
func (r *Registry) All() []*Currency {
	out := make([]*Currency, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.currencies[id])
	}
	return out
}

// Count returns the total number of currencies
func (r *Registry) Count() int {
	return len(r.currencies)
}

// Find looks a currency up by ID, then by display name, then by
// case-insensitive partial match on either, in registration order.
func (r *Registry) Find(query string) *Currency {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if c := r.currencies[query]; c != nil {
		return c
	}

	lower := strings.ToLower(query)
	underscored := strings.ReplaceAll(lower, " ", "_")
	for _, id := range r.order {
		c := r.currencies[id]
		if strings.ToLower(c.Name()) == lower || id == underscored {
			return c
		}
	}
	for _, id := range r.order {
		c := r.currencies[id]
		if strings.Contains(strings.ToLower(c.Name()), lower) || strings.Contains(id, underscored) {
			return c
		}
	}
	return nil
}
