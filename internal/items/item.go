// Package items models item bases and the items crafting currencies act on.
package items

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/lawnchairsociety/crucible/internal/mods"
	"golang.org/x/crypto/blake2b"
)

const (
	// MaxExplicitMods is the most explicit modifiers a rare item can hold.
	MaxExplicitMods = 6

	// MaxQuality is the upper bound of an item's quality.
	MaxQuality = 20

	// MaxCraftedMods is the most crafted modifiers an item can hold.
	MaxCraftedMods = 3
)

// IDFunc generates item identifiers.
type IDFunc func() string

// NewID returns a random UUID string. It is the default IDFunc.
func NewID() string {
	return uuid.NewString()
}

// ItemBase is the template an item is made from. A nil EldritchImplicits
// means the base cannot take eldritch implicits at all; an empty list means
// it can but has none yet.
type ItemBase struct {
	Name              string   `yaml:"name" json:"name"`
	Type              ItemType `yaml:"type" json:"type"`
	ImplicitMods      []string `yaml:"implicit_mods" json:"implicitMods"`
	EldritchImplicits []string `yaml:"eldritch_implicits" json:"eldritchImplicits"`
}

// Clone returns a copy that shares no memory with b.
func (b ItemBase) Clone() ItemBase {
	b.ImplicitMods = cloneStrings(b.ImplicitMods)
	b.EldritchImplicits = cloneStrings(b.EldritchImplicits)
	return b
}

// HasEldritch reports whether the base accepts eldritch implicits.
func (b ItemBase) HasEldritch() bool {
	return b.EldritchImplicits != nil
}

// Item is one crafted item. Items are values: crafting returns a new Item
// rather than changing the one it was given.
type Item struct {
	ID           string        `json:"id"`
	Base         ItemBase      `json:"base"`
	Rarity       Rarity        `json:"rarity"`
	ExplicitMods []mods.Rolled `json:"explicitMods"`
	Quality      int           `json:"quality"`
	CraftedMods  []string      `json:"craftedMods"`
	Corrupted    bool          `json:"corrupted"`
	Influence    []string      `json:"influence"`
}

// New creates an item of the given rarity with no explicit modifiers. The
// item owns its own copy of base.
func New(base ItemBase, rarity Rarity, ids IDFunc) Item {
	if ids == nil {
		ids = NewID
	}
	return Item{
		ID:     ids(),
		Base:   base.Clone(),
		Rarity: rarity,
	}
}

// Clone returns a deep copy of the item. Nil slices stay nil.
func (i Item) Clone() Item {
	i.Base = i.Base.Clone()
	if i.ExplicitMods != nil {
		cloned := make([]mods.Rolled, len(i.ExplicitMods))
		for n, m := range i.ExplicitMods {
			cloned[n] = m.Clone()
		}
		i.ExplicitMods = cloned
	}
	i.CraftedMods = cloneStrings(i.CraftedMods)
	i.Influence = cloneStrings(i.Influence)
	return i
}

// Equal reports whether two items are structurally identical. Nil and empty
// slices are not the same.
func Equal(a, b Item) bool {
	return cmp.Equal(a, b)
}

// Diff returns a human-readable difference, empty when equal.
func Diff(a, b Item) string {
	return cmp.Diff(a, b)
}

// ExplicitTexts returns the rendered explicit modifiers in roll order.
func (i Item) ExplicitTexts() []string {
	return mods.Texts(i.ExplicitMods)
}

// String returns a short description for logs
func (i Item) String() string {
	state := ""
	if i.Corrupted {
		state = ", corrupted"
	}
	return fmt.Sprintf("%s (%s, %d mods, %d%% quality%s)", i.Base.Name, i.Rarity, len(i.ExplicitMods), i.Quality, state)
}

// ClampQuality bounds q to [0, MaxQuality].
func ClampQuality(q int) int {
	return min(max(q, 0), MaxQuality)
}

// CanAddMods reports whether the item has room for another explicit modifier.
func CanAddMods(item Item, maxMods int) bool {
	return len(item.ExplicitMods) < maxMods
}

// HasTag reports whether the item's base type is tag or one of its explicit
// modifiers came from a template carrying tag.
func HasTag(item Item, pool *mods.Pool, tag string) bool {
	if string(item.Base.Type) == tag {
		return true
	}
	for _, m := range item.ExplicitMods {
		if tmpl, ok := pool.Get(m.TemplateID); ok && tmpl.HasTag(tag) {
			return true
		}
	}
	return false
}

// Snapshot is the flat display record of an item. It is lossy: quality,
// crafted modifiers, corruption and eldritch implicits are not included.
type Snapshot struct {
	ID           string   `json:"id"`
	BaseName     string   `json:"baseName"`
	Rarity       Rarity   `json:"rarity"`
	ImplicitMods []string `json:"implicitMods"`
	ExplicitMods []string `json:"explicitMods"`
}

// Snapshot returns the item's flat display record.
func (i Item) Snapshot() Snapshot {
	implicits := cloneStrings(i.Base.ImplicitMods)
	if implicits == nil {
		implicits = []string{}
	}
	return Snapshot{
		ID:           i.ID,
		BaseName:     i.Base.Name,
		Rarity:       i.Rarity,
		ImplicitMods: implicits,
		ExplicitMods: i.ExplicitTexts(),
	}
}

// Serialize encodes the item's snapshot as JSON.
func (i Item) Serialize() string {
	data, err := json.Marshal(i.Snapshot())
	if err != nil {
		// Snapshot holds only strings; Marshal cannot fail on it.
		panic(err)
	}
	return string(data)
}

// MarshalRecord encodes the full item, including provenance, as JSON.
func MarshalRecord(i Item) ([]byte, error) {
	return json.Marshal(i)
}

// UnmarshalRecord decodes an item written by MarshalRecord.
func UnmarshalRecord(data []byte) (Item, error) {
	var i Item
	if err := json.Unmarshal(data, &i); err != nil {
		return Item{}, fmt.Errorf("failed to decode item record: %w", err)
	}
	return i, nil
}

// Fingerprint returns a hex blake2b-256 digest of the full item record.
func Fingerprint(i Item) string {
	data, err := MarshalRecord(i)
	if err != nil {
		panic(err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}
