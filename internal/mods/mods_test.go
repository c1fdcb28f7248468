package mods

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lawnchairsociety/crucible/internal/stats"
)

// scriptedSource replays fixed draws, reduced modulo n.
type scriptedSource struct {
	draws []int
	next  int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.draws[s.next%len(s.draws)]
	s.next++
	return v % n
}

func testTemplates() []*Mod {
	return []*Mod{
		{
			ID:      "str1",
			Text:    "+{0} to Strength",
			Tags:    []string{"attribute"},
			Weights: map[string]int{"default": 100},
			Ranges:  []Range{{Min: 8, Max: 12}},
			Family:  "Strength",
		},
		{
			ID:      "dex1",
			Text:    "+{0} to Dexterity",
			Tags:    []string{"attribute"},
			Weights: map[string]int{"default": 100},
			Ranges:  []Range{{Min: 8, Max: 12}},
			Family:  "Dexterity",
		},
		{
			ID:      "phys1",
			Text:    "Adds {0} to {1} Physical Damage",
			Tags:    []string{"damage", "physical"},
			Weights: map[string]int{"default": 100, "weapon": 150},
			Ranges:  []Range{{Min: 4, Max: 6}, {Min: 12, Max: 18}},
			Family:  "PhysicalDamage",
		},
		{
			ID:      "fire_res1",
			Text:    "+{0}% to Fire Resistance",
			Tags:    []string{"elemental", "resistance", "fire"},
			Weights: map[string]int{"default": 100},
			Ranges:  []Range{{Min: 6, Max: 11}},
			Family:  "FireResistance",
		},
	}
}

func mustPool(t *testing.T, templates ...*Mod) *Pool {
	t.Helper()
	p, err := NewPool(templates...)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	return p
}

func TestRollValuesWithinRanges(t *testing.T) {
	roller := NewRoller(stats.NewSource(11))
	for _, m := range testTemplates() {
		for i := 0; i < 200; i++ {
			rolled := roller.Roll(m)
			if len(rolled.Values) != len(m.Ranges) {
				t.Fatalf("Roll(%s) produced %d values, want %d", m.ID, len(rolled.Values), len(m.Ranges))
			}
			for slot, v := range rolled.Values {
				if !m.Ranges[slot].Contains(v) {
					t.Errorf("Roll(%s) slot %d = %d, outside [%d, %d]", m.ID, slot, v, m.Ranges[slot].Min, m.Ranges[slot].Max)
				}
			}
			if rolled.TemplateID != m.ID {
				t.Errorf("Roll(%s) TemplateID = %q", m.ID, rolled.TemplateID)
			}
			if rolled.Family != m.FamilyKey() {
				t.Errorf("Roll(%s) Family = %q, want %q", m.ID, rolled.Family, m.FamilyKey())
			}
		}
	}
}

func TestRender(t *testing.T) {
	m := testTemplates()[2]
	if got := m.Render([]int{4, 12}); got != "Adds 4 to 12 Physical Damage" {
		t.Errorf("Render = %q", got)
	}

	custom := &Mod{ID: "x", Format: func(v []int) string { return "custom" }}
	if got := custom.Render([]int{1}); got != "custom" {
		t.Errorf("Render with Format = %q, want %q", got, "custom")
	}
}

func TestSelectCumulativeWeights(t *testing.T) {
	a := &Mod{ID: "a", Text: "a", Weights: map[string]int{"default": 100}}
	b := &Mod{ID: "b", Text: "b", Weights: map[string]int{"default": 300}}
	zero := &Mod{ID: "zero", Text: "zero", Weights: map[string]int{"default": 0}}
	c := &Mod{ID: "c", Text: "c", Weights: map[string]int{"default": 600}}
	candidates := []*Mod{a, b, zero, c}

	tests := []struct {
		draw int
		want string
	}{
		{0, "a"},
		{99, "a"},
		{100, "b"},
		{399, "b"},
		{400, "c"},
		{999, "c"},
	}

	for _, tt := range tests {
		roller := NewRoller(&scriptedSource{draws: []int{tt.draw}})
		got, err := roller.Select(candidates, "ring")
		if err != nil {
			t.Fatalf("Select(draw=%d) error: %v", tt.draw, err)
		}
		if got.ID != tt.want {
			t.Errorf("Select(draw=%d) = %s, want %s", tt.draw, got.ID, tt.want)
		}
	}
}

func TestSelectUsesContextWeight(t *testing.T) {
	a := &Mod{ID: "a", Text: "a", Weights: map[string]int{"default": 100, "weapon": 0}}
	b := &Mod{ID: "b", Text: "b", Weights: map[string]int{"default": 100}}

	roller := NewRoller(&scriptedSource{draws: []int{0}})
	got, err := roller.Select([]*Mod{a, b}, "weapon")
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}
	if got.ID != "b" {
		t.Errorf("Select with weapon context = %s, want b", got.ID)
	}
}

func TestSelectEmptyPool(t *testing.T) {
	roller := NewRoller(stats.NewSource(1))

	if _, err := roller.Select(nil, "default"); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("Select(nil) error = %v, want ErrEmptyPool", err)
	}

	zero := &Mod{ID: "zero", Text: "z", Weights: map[string]int{"default": 0}}
	if _, err := roller.Select([]*Mod{zero}, "default"); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("Select(zero weight) error = %v, want ErrEmptyPool", err)
	}
}

func TestSelectMissingDefaultWeight(t *testing.T) {
	roller := NewRoller(stats.NewSource(1))
	broken := &Mod{ID: "broken", Text: "b", Weights: map[string]int{"weapon": 10}}

	if _, err := roller.Select([]*Mod{broken}, "armor"); !errors.Is(err, ErrMissingDefaultWeight) {
		t.Errorf("Select error = %v, want ErrMissingDefaultWeight", err)
	}
	if _, err := NewPool(broken); !errors.Is(err, ErrMissingDefaultWeight) {
		t.Errorf("NewPool error = %v, want ErrMissingDefaultWeight", err)
	}
}

func TestNewPoolValidation(t *testing.T) {
	tests := []struct {
		name string
		mods []*Mod
	}{
		{"missing id", []*Mod{{Text: "x", Weights: map[string]int{"default": 1}}}},
		{"inverted range", []*Mod{{ID: "x", Text: "x", Weights: map[string]int{"default": 1}, Ranges: []Range{{Min: 5, Max: 1}}}}},
		{"negative weight", []*Mod{{ID: "x", Text: "x", Weights: map[string]int{"default": -1}}}},
		{"no text", []*Mod{{ID: "x", Weights: map[string]int{"default": 1}}}},
		{"duplicate id", []*Mod{
			{ID: "x", Text: "x", Weights: map[string]int{"default": 1}},
			{ID: "x", Text: "y", Weights: map[string]int{"default": 1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPool(tt.mods...); err == nil {
				t.Error("NewPool should fail")
			}
		})
	}
}

func TestRollFromExcludesTakenFamilies(t *testing.T) {
	pool := mustPool(t, testTemplates()...)
	roller := NewRoller(stats.NewSource(5))
	taken := Families{"Strength": true, "Dexterity": true, "PhysicalDamage": true}

	for i := 0; i < 50; i++ {
		rolled, err := roller.RollFrom(pool, "default", taken)
		if err != nil {
			t.Fatalf("RollFrom error: %v", err)
		}
		if rolled.TemplateID != "fire_res1" {
			t.Fatalf("RollFrom picked %s, only fire_res1 is eligible", rolled.TemplateID)
		}
	}

	taken["FireResistance"] = true
	if _, err := roller.RollFrom(pool, "default", taken); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("RollFrom with all families taken error = %v, want ErrEmptyPool", err)
	}
}

func TestRollManyDistinctFamilies(t *testing.T) {
	pool := mustPool(t, testTemplates()...)
	roller := NewRoller(stats.NewSource(8))

	for i := 0; i < 100; i++ {
		rolled, err := roller.RollMany(pool, "weapon", nil, 1, 4)
		if err != nil {
			t.Fatalf("RollMany error: %v", err)
		}
		if len(rolled) < 1 || len(rolled) > 4 {
			t.Fatalf("RollMany returned %d mods, want 1-4", len(rolled))
		}
		seen := map[string]bool{}
		for _, r := range rolled {
			if seen[r.Family] {
				t.Fatalf("RollMany produced duplicate family %s", r.Family)
			}
			seen[r.Family] = true
		}
	}
}

func TestRollManyShortPool(t *testing.T) {
	pool := mustPool(t, testTemplates()[:2]...)
	roller := NewRoller(stats.NewSource(2))

	// Two families available: a 1-6 roll is cut short at two.
	for i := 0; i < 50; i++ {
		rolled, err := roller.RollMany(pool, "default", nil, 1, 6)
		if err != nil {
			t.Fatalf("RollMany error: %v", err)
		}
		if len(rolled) > 2 {
			t.Fatalf("RollMany returned %d mods from a two-family pool", len(rolled))
		}
	}

	if _, err := roller.RollMany(pool, "default", nil, 3, 6); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("RollMany(3-6) on two families error = %v, want ErrEmptyPool", err)
	}
}

func TestWithTag(t *testing.T) {
	pool := mustPool(t, testTemplates()...)

	attrs := pool.WithTag("attribute")
	if attrs.Len() != 2 {
		t.Fatalf("WithTag(attribute) has %d templates, want 2", attrs.Len())
	}
	ids := []string{}
	for _, m := range attrs.Mods() {
		ids = append(ids, m.ID)
	}
	if diff := cmp.Diff([]string{"str1", "dex1"}, ids); diff != "" {
		t.Errorf("WithTag order mismatch (-want +got):\n%s", diff)
	}

	if pool.WithTag("chaos").Len() != 0 {
		t.Error("WithTag(chaos) should be empty")
	}
}

func TestReroll(t *testing.T) {
	pool := mustPool(t, testTemplates()...)
	roller := NewRoller(stats.NewSource(21))

	phys, _ := pool.Get("phys1")
	original := roller.Roll(phys)
	for i := 0; i < 50; i++ {
		fresh := roller.Reroll(pool, original)
		if fresh.TemplateID != original.TemplateID || fresh.Family != original.Family {
			t.Fatalf("Reroll changed provenance: %+v -> %+v", original, fresh)
		}
		for slot, v := range fresh.Values {
			if !phys.Ranges[slot].Contains(v) {
				t.Errorf("Reroll slot %d = %d out of range", slot, v)
			}
		}
	}

	foreign := Fixed("essence_life", "Life", "+40 to maximum Life", 40)
	if diff := cmp.Diff(foreign, roller.Reroll(pool, foreign)); diff != "" {
		t.Errorf("Reroll of unknown template changed it (-want +got):\n%s", diff)
	}
}

func TestFamiliesOf(t *testing.T) {
	rolled := []Rolled{
		{TemplateID: "str1", Family: "Strength"},
		{TemplateID: "custom"},
	}
	f := FamiliesOf(rolled)
	if !f["Strength"] || len(f) != 1 {
		t.Errorf("FamiliesOf = %v, want only Strength", f)
	}
}

func TestLoadPoolFromYAML(t *testing.T) {
	content := `
mods:
  - id: life1
    text: "+{0} to maximum Life"
    tags: [life]
    weights: {default: 1000}
    ranges: [{min: 10, max: 20}]
    family: Life
  - id: fire_res1
    text: "+{0}% to Fire Resistance"
    tags: [elemental, resistance, fire]
    weights: {default: 1000, armor: 1200}
    ranges: [{min: 6, max: 11}]
    family: FireResistance
`
	path := filepath.Join(t.TempDir(), "mods.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write mods file: %v", err)
	}

	pool, err := LoadPoolFromYAML(path)
	if err != nil {
		t.Fatalf("LoadPoolFromYAML failed: %v", err)
	}
	if pool.Len() != 2 {
		t.Fatalf("pool has %d templates, want 2", pool.Len())
	}
	if pool.Mods()[0].ID != "life1" {
		t.Errorf("first template = %s, want life1 (file order)", pool.Mods()[0].ID)
	}
	fire, ok := pool.Get("fire_res1")
	if !ok {
		t.Fatal("fire_res1 not found")
	}
	if w, _ := fire.Weight("armor"); w != 1200 {
		t.Errorf("fire_res1 armor weight = %d, want 1200", w)
	}
}

func TestLoadPoolFromYAMLErrors(t *testing.T) {
	if _, err := LoadPoolFromYAML("/nonexistent/mods.yaml"); err == nil {
		t.Error("LoadPoolFromYAML should fail for a missing file")
	}
	if _, err := ParsePool([]byte("mods: [")); err == nil {
		t.Error("ParsePool should fail for malformed YAML")
	}
	if _, err := ParsePool([]byte("mods:\n  - id: x\n    text: x\n    weights: {weapon: 5}\n")); !errors.Is(err, ErrMissingDefaultWeight) {
		t.Errorf("ParsePool error = %v, want ErrMissingDefaultWeight", err)
	}
}
