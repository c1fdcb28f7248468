package items

import (
	"fmt"
	"strings"
)

// BaseCatalog holds the item bases available for crafting, in file order.
type BaseCatalog struct {
	bases  []ItemBase
	byName map[string]int
}

// NewBaseCatalog creates an empty catalog
func NewBaseCatalog() *BaseCatalog {
	return &BaseCatalog{byName: make(map[string]int)}
}

// Add registers a base. Names are unique case-insensitively.
func (c *BaseCatalog) Add(base ItemBase) error {
	if base.Name == "" {
		return fmt.Errorf("item base has no name")
	}
	key := strings.ToLower(base.Name)
	if _, exists := c.byName[key]; exists {
		return fmt.Errorf("duplicate item base %q", base.Name)
	}
	c.byName[key] = len(c.bases)
	c.bases = append(c.bases, base.Clone())
	return nil
}

// Get returns a copy of the base with the given name (case-insensitive)
func (c *BaseCatalog) Get(name string) (ItemBase, bool) {
	idx, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return ItemBase{}, false
	}
	return c.bases[idx].Clone(), true
}

// Find searches for a base using partial matching (case-insensitive).
// Exact names win over partial matches; the first partial match in file
// order is returned otherwise.
func (c *BaseCatalog) Find(partial string) (ItemBase, bool) {
	if base, ok := c.Get(partial); ok {
		return base, true
	}

	partial = strings.ToLower(strings.TrimSpace(partial))
	if partial == "" {
		return ItemBase{}, false
	}
	for _, base := range c.bases {
		if strings.Contains(strings.ToLower(base.Name), partial) {
			return base.Clone(), true
		}
	}
	return ItemBase{}, false
}

// All returns copies of every base in file order
func (c *BaseCatalog) All() []ItemBase {
	out := make([]ItemBase, len(c.bases))
	for i, base := range c.bases {
		out[i] = base.Clone()
	}
	return out
}

// Count returns the number of bases
func (c *BaseCatalog) Count() int {
	return len(c.bases)
}
