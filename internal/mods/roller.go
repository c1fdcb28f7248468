package mods

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/crucible/internal/stats"
)

// Roller draws values and templates from an injected source.
type Roller struct {
	src stats.Source
}

// NewRoller creates a roller drawing from src.
func NewRoller(src stats.Source) *Roller {
	return &Roller{src: src}
}

// Source returns the roller's random source.
func (r *Roller) Source() stats.Source {
	return r.src
}

// Roll draws one value per range of m and renders the result.
func (r *Roller) Roll(m *Mod) Rolled {
	values := make([]int, len(m.Ranges))
	for i, rng := range m.Ranges {
		values[i] = stats.RollRange(r.src, rng.Min, rng.Max)
	}
	return Rolled{
		TemplateID: m.ID,
		Family:     m.FamilyKey(),
		Values:     values,
		Text:       m.Render(values),
	}
}

// Select picks one template by cumulative weight for contextKey.
// Ties resolve to the first template in candidate order.
func (r *Roller) Select(candidates []*Mod, contextKey string) (*Mod, error) {
	weights := make([]int, len(candidates))
	total := 0
	for i, m := range candidates {
		w, err := m.Weight(contextKey)
		if err != nil {
			return nil, err
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return nil, ErrEmptyPool
	}

	target := r.src.Intn(total)
	cumulative := 0
	for i, m := range candidates {
		cumulative += weights[i]
		if cumulative > target {
			return m, nil
		}
	}
	// Unreachable while weights are non-negative.
	return nil, ErrEmptyPool
}

// RollFrom selects a template from pool whose family is not in taken and
// rolls it.
func (r *Roller) RollFrom(pool *Pool, contextKey string, taken Families) (Rolled, error) {
	m, err := r.Select(pool.eligible(taken), contextKey)
	if err != nil {
		return Rolled{}, err
	}
	return r.Roll(m), nil
}

// RollMany rolls a uniform count in [min, max] of modifiers with distinct
// families. taken is extended with every family rolled. When the pool runs
// out of families the count is cut short; fewer than min is ErrEmptyPool.
func (r *Roller) RollMany(pool *Pool, contextKey string, taken Families, min, max int) ([]Rolled, error) {
	if taken == nil {
		taken = Families{}
	}
	count := stats.RollRange(r.src, min, max)
	rolled := make([]Rolled, 0, count)
	for len(rolled) < count {
		mod, err := r.RollFrom(pool, contextKey, taken)
		if errors.Is(err, ErrEmptyPool) && len(rolled) >= min {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rolled %d of %d modifiers: %w", len(rolled), count, err)
		}
		taken[mod.Family] = true
		rolled = append(rolled, mod)
	}
	return rolled, nil
}

// Reroll draws fresh values for an existing modifier using its template.
// Modifiers whose template is not in pool are returned unchanged.
func (r *Roller) Reroll(pool *Pool, existing Rolled) Rolled {
	m, ok := pool.Get(existing.TemplateID)
	if !ok || len(m.Ranges) != len(existing.Values) {
		return existing.Clone()
	}
	fresh := r.Roll(m)
	fresh.Family = existing.Family
	return fresh
}
