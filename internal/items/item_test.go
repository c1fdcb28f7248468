package items

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lawnchairsociety/crucible/internal/mods"
)

var swordBase = ItemBase{
	Name:         "Rusted Sword",
	Type:         Weapon,
	ImplicitMods: []string{"+5% Critical Strike Chance"},
}

func fixedID() string { return "test_id_123" }

func TestNewItem(t *testing.T) {
	item := New(swordBase, Common, fixedID)

	if item.ID != "test_id_123" {
		t.Errorf("ID = %q, want %q", item.ID, "test_id_123")
	}
	if item.Base.Name != "Rusted Sword" {
		t.Errorf("Base.Name = %q", item.Base.Name)
	}
	if item.Rarity != Common {
		t.Errorf("Rarity = %q, want common", item.Rarity)
	}
	if len(item.ExplicitMods) != 0 {
		t.Errorf("ExplicitMods = %v, want none", item.ExplicitMods)
	}
	if item.Quality != 0 {
		t.Errorf("Quality = %d, want 0", item.Quality)
	}
	if diff := cmp.Diff([]string{"+5% Critical Strike Chance"}, item.Base.ImplicitMods); diff != "" {
		t.Errorf("implicit mods mismatch (-want +got):\n%s", diff)
	}
}

func TestNewItemOwnsBase(t *testing.T) {
	base := swordBase.Clone()
	item := New(base, Common, fixedID)
	base.ImplicitMods[0] = "changed"

	if item.Base.ImplicitMods[0] != "+5% Critical Strike Chance" {
		t.Error("item shares implicit mod storage with the base it was created from")
	}
}

func TestNewItemDefaultID(t *testing.T) {
	a := New(swordBase, Common, nil)
	b := New(swordBase, Common, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("default IDs should be unique and non-empty: %q, %q", a.ID, b.ID)
	}
}

func TestCloneIsDeep(t *testing.T) {
	item := New(swordBase, Rare, fixedID)
	item.Base.EldritchImplicits = []string{}
	item.ExplicitMods = []mods.Rolled{{TemplateID: "str1", Family: "Strength", Values: []int{10}, Text: "+10 to Strength"}}
	item.CraftedMods = []string{"crafted"}
	item.Influence = []string{"shaper"}

	clone := item.Clone()
	if !Equal(item, clone) {
		t.Fatalf("clone differs:\n%s", Diff(item, clone))
	}

	clone.ExplicitMods[0].Values[0] = 99
	clone.ExplicitMods[0].Text = "tampered"
	clone.Base.ImplicitMods[0] = "tampered"
	clone.Base.EldritchImplicits = append(clone.Base.EldritchImplicits, "x")
	clone.CraftedMods[0] = "tampered"
	clone.Influence[0] = "tampered"

	if item.ExplicitMods[0].Values[0] != 10 || item.ExplicitMods[0].Text != "+10 to Strength" {
		t.Error("clone shares explicit mod storage")
	}
	if item.Base.ImplicitMods[0] != "+5% Critical Strike Chance" {
		t.Error("clone shares implicit mod storage")
	}
	if len(item.Base.EldritchImplicits) != 0 {
		t.Error("clone shares eldritch implicit storage")
	}
	if item.CraftedMods[0] != "crafted" || item.Influence[0] != "shaper" {
		t.Error("clone shares crafted or influence storage")
	}
}

func TestClonePreservesNil(t *testing.T) {
	item := New(swordBase, Common, fixedID)
	clone := item.Clone()
	if clone.ExplicitMods != nil || clone.CraftedMods != nil || clone.Base.EldritchImplicits != nil {
		t.Error("Clone turned nil slices into empty ones")
	}
	if !Equal(item, clone) {
		t.Errorf("clone of fresh item differs:\n%s", Diff(item, clone))
	}
}

func TestEqualDetectsModChange(t *testing.T) {
	a := New(swordBase, Rare, fixedID)
	a.ExplicitMods = []mods.Rolled{{TemplateID: "str1", Family: "Strength", Values: []int{9}, Text: "+9 to Strength"}}
	b := a.Clone()
	b.ExplicitMods[0].Text = "+999 to Strength"

	if Equal(a, b) {
		t.Error("Equal should detect a changed explicit modifier")
	}
}

func TestSerialize(t *testing.T) {
	item := New(swordBase, Rare, fixedID)
	item.ExplicitMods = append(item.ExplicitMods, mods.Rolled{TemplateID: "str1", Family: "Strength", Values: []int{10}, Text: "+10 to Strength"})
	item.Quality = 12
	item.Corrupted = true

	want := `{"id":"test_id_123","baseName":"Rusted Sword","rarity":"rare","implicitMods":["+5% Critical Strike Chance"],"explicitMods":["+10 to Strength"]}`
	if got := item.Serialize(); got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerializeEmptyLists(t *testing.T) {
	item := New(ItemBase{Name: "Plain Ring", Type: Accessory}, Common, fixedID)
	want := `{"id":"test_id_123","baseName":"Plain Ring","rarity":"common","implicitMods":[],"explicitMods":[]}`
	if got := item.Serialize(); got != want {
		t.Errorf("Serialize() = %s, want %s", got, want)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	item := New(swordBase, Rare, fixedID)
	item.Base.EldritchImplicits = []string{}
	item.ExplicitMods = []mods.Rolled{{TemplateID: "phys1", Family: "PhysicalDamage", Values: []int{5, 14}, Text: "Adds 5 to 14 Physical Damage"}}
	item.Quality = 15
	item.CraftedMods = []string{"Can have up to 3 Crafted Modifiers"}
	item.Corrupted = true

	data, err := MarshalRecord(item)
	if err != nil {
		t.Fatalf("MarshalRecord failed: %v", err)
	}
	decoded, err := UnmarshalRecord(data)
	if err != nil {
		t.Fatalf("UnmarshalRecord failed: %v", err)
	}
	if diff := Diff(item, decoded); diff != "" {
		t.Errorf("record round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := UnmarshalRecord([]byte("{")); err == nil {
		t.Error("UnmarshalRecord should fail on malformed JSON")
	}
}

func TestFingerprint(t *testing.T) {
	a := New(swordBase, Rare, fixedID)
	b := a.Clone()
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("equal items should have equal fingerprints")
	}
	if len(Fingerprint(a)) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(Fingerprint(a)))
	}

	b.Quality = 5
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("different items should have different fingerprints")
	}
}

func TestClampQuality(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 0},
		{0, 0},
		{15, 15},
		{20, 20},
		{25, 20},
	}
	for _, tt := range tests {
		if got := ClampQuality(tt.in); got != tt.want {
			t.Errorf("ClampQuality(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCanAddMods(t *testing.T) {
	item := New(swordBase, Rare, fixedID)
	if !CanAddMods(item, 6) {
		t.Error("empty item should accept mods")
	}
	item.ExplicitMods = make([]mods.Rolled, 6)
	if CanAddMods(item, 6) {
		t.Error("item with 6 mods should not accept a 7th")
	}
}

func TestHasTag(t *testing.T) {
	pool, err := mods.NewPool(&mods.Mod{
		ID:      "fire_res1",
		Text:    "+{0}% to Fire Resistance",
		Tags:    []string{"elemental", "fire"},
		Weights: map[string]int{"default": 1},
		Ranges:  []mods.Range{{Min: 6, Max: 11}},
	})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	item := New(swordBase, Rare, fixedID)
	if !HasTag(item, pool, "weapon") {
		t.Error("HasTag should match the base type")
	}
	if HasTag(item, pool, "fire") {
		t.Error("HasTag(fire) should be false without a fire modifier")
	}

	item.ExplicitMods = []mods.Rolled{{TemplateID: "fire_res1", Values: []int{8}, Text: "+8% to Fire Resistance"}}
	if !HasTag(item, pool, "fire") {
		t.Error("HasTag(fire) should follow modifier provenance")
	}
}

func TestParseRarity(t *testing.T) {
	tests := []struct {
		in   string
		want Rarity
		ok   bool
	}{
		{"common", Common, true},
		{" Rare ", Rare, true},
		{"MAGIC", Magic, true},
		{"relic", Rarity("relic"), true},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRarity(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRarity(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
