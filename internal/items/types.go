package items

import "strings"

// Rarity is an item's tier. The set is open: data files may use rarities
// beyond the built-in ones.
type Rarity string

const (
	Common Rarity = "common"
	Magic  Rarity = "magic"
	Rare   Rarity = "rare"
	Unique Rarity = "unique"
)

// ParseRarity normalizes a rarity name. Empty input is not a rarity.
func ParseRarity(s string) (Rarity, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	return Rarity(s), true
}

// String returns the string representation of a Rarity
func (r Rarity) String() string {
	return string(r)
}

// In reports whether r is one of the given rarities.
func (r Rarity) In(set ...Rarity) bool {
	for _, s := range set {
		if r == s {
			return true
		}
	}
	return false
}

// ItemType is the slot category of a base; it doubles as the weight
// context key when rolling modifiers.
type ItemType string

const (
	Weapon    ItemType = "weapon"
	Armor     ItemType = "armor"
	Accessory ItemType = "accessory"
)

// String returns the string representation of an ItemType
func (t ItemType) String() string {
	return string(t)
}
