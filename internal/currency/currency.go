// Package currency holds the catalog of crafting currencies: named
// transforms with a precondition over an item and an effect producing the
// crafted item.
package currency

import (
	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/mods"
)

// Effect crafts item, which is a private copy the effect may modify, and
// returns the result.
type Effect func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error)

// Currency is one crafting transform.
type Currency struct {
	id          string
	name        string
	description string

	precondition func(items.Item) bool
	effect       Effect
}

// New builds a currency. Corrupted items are always refused, whatever the
// precondition says.
func New(id, name, description string, precondition func(items.Item) bool, effect Effect) *Currency {
	return &Currency{
		id:           id,
		name:         name,
		description:  description,
		precondition: precondition,
		effect:       effect,
	}
}

// ID returns the registry key, e.g. "chaos_orb".
func (c *Currency) ID() string {
	return c.id
}

// Name returns the display name, e.g. "Chaos Orb".
func (c *Currency) Name() string {
	return c.name
}

// Description returns the one-line rule summary.
func (c *Currency) Description() string {
	return c.description
}

// CanApply reports whether the currency may be used on item.
func (c *Currency) CanApply(item items.Item) bool {
	if item.Corrupted {
		return false
	}
	return c.precondition == nil || c.precondition(item)
}

// Mutate runs the effect. Callers check CanApply first and pass an item they
// are prepared to have modified.
func (c *Currency) Mutate(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
	return c.effect(item, pool, roller)
}

// contextKey is the weight-table key used for rolls on item.
func contextKey(item items.Item) string {
	return string(item.Base.Type)
}

// rollFresh rolls a uniform count in [min, max] of modifiers with no
// families taken.
func rollFresh(item items.Item, pool *mods.Pool, roller *mods.Roller, min, max int) ([]mods.Rolled, error) {
	return roller.RollMany(pool, contextKey(item), mods.Families{}, min, max)
}

// rollAfter rolls a uniform count in [min, max] of modifiers that do not
// share a family with lead, and returns lead followed by them.
func rollAfter(item items.Item, pool *mods.Pool, roller *mods.Roller, lead mods.Rolled, min, max int) ([]mods.Rolled, error) {
	rest, err := roller.RollMany(pool, contextKey(item), mods.Families{lead.Family: true}, min, max)
	if err != nil {
		return nil, err
	}
	return append([]mods.Rolled{lead}, rest...), nil
}

// rollAppend rolls one modifier whose family is not already on item.
func rollAppend(item items.Item, pool *mods.Pool, roller *mods.Roller) (mods.Rolled, error) {
	return roller.RollFrom(pool, contextKey(item), mods.FamiliesOf(item.ExplicitMods))
}
