package mutator

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lawnchairsociety/crucible/internal/currency"
	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/mods"
	"github.com/lawnchairsociety/crucible/internal/stats"
)

func testPool(t *testing.T) *mods.Pool {
	t.Helper()
	tmpl := func(id, family, text string, tags []string, ranges ...mods.Range) *mods.Mod {
		return &mods.Mod{ID: id, Family: family, Text: text, Tags: tags, Weights: map[string]int{"default": 1000}, Ranges: ranges}
	}
	pool, err := mods.NewPool(
		tmpl("life1", "Life", "+{0} to maximum Life", []string{"life"}, mods.Range{Min: 10, Max: 20}),
		tmpl("fire_res1", "FireResistance", "+{0}% to Fire Resistance", []string{"elemental"}, mods.Range{Min: 6, Max: 11}),
		tmpl("cold_res1", "ColdResistance", "+{0}% to Cold Resistance", []string{"elemental"}, mods.Range{Min: 6, Max: 11}),
		tmpl("lightning_res1", "LightningResistance", "+{0}% to Lightning Resistance", []string{"elemental"}, mods.Range{Min: 6, Max: 11}),
		tmpl("str1", "Strength", "+{0} to Strength", nil, mods.Range{Min: 8, Max: 12}),
		tmpl("dex1", "Dexterity", "+{0} to Dexterity", nil, mods.Range{Min: 8, Max: 12}),
		tmpl("int1", "Intelligence", "+{0} to Intelligence", nil, mods.Range{Min: 8, Max: 12}),
		tmpl("phys1", "PhysicalDamage", "Adds {0} to {1} Physical Damage", nil, mods.Range{Min: 4, Max: 6}, mods.Range{Min: 12, Max: 18}),
		tmpl("mana1", "Mana", "+{0} to maximum Mana", nil, mods.Range{Min: 10, Max: 20}),
	)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	return pool
}

func newMutator(t *testing.T, seed int64) *Mutator {
	t.Helper()
	m := New(testPool(t), mods.NewRoller(stats.NewSource(seed)))
	n := 0
	m.SetIDGenerator(func() string {
		n++
		return fmt.Sprintf("txn_%d", n)
	})
	m.SetClock(func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	})
	return m
}

var sword = items.ItemBase{Name: "Rusted Sword", Type: items.Weapon, ImplicitMods: []string{"+5% Critical Strike Chance"}}

func commonSword() items.Item {
	return items.New(sword, items.Common, func() string { return "sword-1" })
}

func rareSword(texts ...string) items.Item {
	item := items.New(sword, items.Rare, func() string { return "sword-1" })
	for i, text := range texts {
		item.ExplicitMods = append(item.ExplicitMods, mods.Rolled{
			TemplateID: fmt.Sprintf("fixed_%d", i),
			Family:     fmt.Sprintf("Fixed%d", i),
			Text:       text,
		})
	}
	return item
}

func TestApplyAlchemyOnCommon(t *testing.T) {
	m := newMutator(t, 1)
	item := commonSword()

	out, err := m.Apply(currency.OrbOfAlchemy, item)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if out.Rarity != items.Rare {
		t.Errorf("rarity = %s, want rare", out.Rarity)
	}
	if n := len(out.ExplicitMods); n < 3 || n > 6 {
		t.Errorf("explicit mods = %d, want 3-6", n)
	}
	if diff := cmp.Diff(item.Base.ImplicitMods, out.Base.ImplicitMods); diff != "" {
		t.Errorf("implicit mods changed (-want +got):\n%s", diff)
	}
	if item.Rarity != items.Common || item.ExplicitMods != nil {
		t.Error("Apply modified the caller's item")
	}
	if m.Len() != 1 {
		t.Errorf("log length = %d, want 1", m.Len())
	}
}

func TestApplyChaosOnRare(t *testing.T) {
	m := newMutator(t, 2)
	item := rareSword("+8 to Strength")

	out, err := m.Apply(currency.ChaosOrb, item)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if n := len(out.ExplicitMods); n < 3 || n > 6 {
		t.Errorf("explicit mods = %d, want 3-6", n)
	}
	if cmp.Equal(out.ExplicitTexts(), []string{"+8 to Strength"}) {
		t.Error("Chaos Orb kept the original mods")
	}
}

func TestApplyExaltedOnFullRare(t *testing.T) {
	m := newMutator(t, 3)
	item := rareSword("a", "b", "c", "d", "e", "f")
	before := item.Clone()

	_, err := m.Apply(currency.ExaltedOrb, item)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("Apply error = %v, want ErrPreconditionFailed", err)
	}
	if m.Len() != 0 {
		t.Errorf("log length = %d, want 0", m.Len())
	}
	if diff := items.Diff(before, item); diff != "" {
		t.Errorf("item changed (-want +got):\n%s", diff)
	}
}

func TestApplyChaosOnCommonNamesCurrency(t *testing.T) {
	m := newMutator(t, 4)

	_, err := m.Apply(currency.ChaosOrb, commonSword())
	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("Apply error = %v, want *PreconditionError", err)
	}
	if pe.Currency != "Chaos Orb" || pe.ItemID != "sword-1" {
		t.Errorf("PreconditionError = %+v", pe)
	}
	if !strings.Contains(err.Error(), "Chaos Orb") {
		t.Errorf("error %q does not mention Chaos Orb", err)
	}
}

func TestPreconditionFailureLeavesLog(t *testing.T) {
	m := newMutator(t, 5)
	item, err := m.Apply(currency.OrbOfAlchemy, commonSword())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, c := range currency.All() {
		if c.CanApply(item) {
			continue
		}
		if _, err := m.Apply(c, item); !errors.Is(err, ErrPreconditionFailed) {
			t.Errorf("%s: error = %v, want ErrPreconditionFailed", c.Name(), err)
		}
	}
	if m.Len() != 1 {
		t.Errorf("log length = %d, want 1", m.Len())
	}
}

// startingItem returns an item every currency in the catalog can act on,
// or false if no simple starting point exists.
func startingItem(c *currency.Currency) (items.Item, bool) {
	candidates := []items.Item{
		commonSword(),
		items.New(items.ItemBase{Name: "Plate Vest", Type: items.Armor, EldritchImplicits: []string{}}, items.Common, func() string { return "vest-1" }),
		items.New(items.ItemBase{Name: "Plate Vest", Type: items.Armor, EldritchImplicits: []string{}}, items.Rare, func() string { return "vest-2" }),
	}
	magic := items.New(sword, items.Magic, func() string { return "sword-2" })
	magic.ExplicitMods = []mods.Rolled{{TemplateID: "str1", Family: "Strength", Values: []int{9}, Text: "+9 to Strength"}}
	rare := items.New(sword, items.Rare, func() string { return "sword-3" })
	rare.ExplicitMods = []mods.Rolled{
		{TemplateID: "str1", Family: "Strength", Values: []int{9}, Text: "+9 to Strength"},
		{TemplateID: "phys1", Family: "PhysicalDamage", Values: []int{5, 13}, Text: "Adds 5 to 13 Physical Damage"},
	}
	candidates = append(candidates, magic, rare)
	for _, item := range candidates {
		if c.CanApply(item) {
			return item, true
		}
	}
	return items.Item{}, false
}

func TestApplyThenRollbackRestoresEveryCurrency(t *testing.T) {
	for _, c := range currency.All() {
		t.Run(c.Name(), func(t *testing.T) {
			m := newMutator(t, 6)
			item, ok := startingItem(c)
			if !ok {
				t.Fatalf("no starting item for %s", c.Name())
			}
			original := item.Clone()

			out, err := m.Apply(c, item)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if !m.Verify(out) {
				t.Error("Verify(result) = false, want true")
			}

			restored, err := m.Rollback(m.LastTransaction().ID())
			if err != nil {
				t.Fatalf("Rollback failed: %v", err)
			}
			if diff := items.Diff(original, restored); diff != "" {
				t.Errorf("rollback mismatch (-want +got):\n%s", diff)
			}
			if diff := items.Diff(original, item); diff != "" {
				t.Errorf("caller's item changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTransformCannotCorruptSnapshot(t *testing.T) {
	m := newMutator(t, 7)
	item := rareSword("+8 to Strength")

	out, err := m.Apply(currency.MultiModCraft, item)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	out.ExplicitMods[0].Text = "tampered"
	out.CraftedMods[0] = "tampered"

	tx := m.LastTransaction()
	if tx.Before().ExplicitMods[0].Text != "+8 to Strength" {
		t.Error("pre-state snapshot shares memory with the result")
	}
	if tx.After().CraftedMods[0] != currency.CraftedPlaceholder {
		t.Error("post-state snapshot shares memory with the result")
	}
}

func TestEldritchDoesNotTouchSharedBase(t *testing.T) {
	m := newMutator(t, 8)
	base := items.ItemBase{Name: "Plate Vest", Type: items.Armor, EldritchImplicits: make([]string, 0, 4)}
	first := items.New(base, items.Rare, func() string { return "vest-1" })
	second := items.New(base, items.Rare, func() string { return "vest-2" })

	if _, err := m.Apply(currency.EldritchExaltedOrb, first); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(base.EldritchImplicits) != 0 || len(second.Base.EldritchImplicits) != 0 {
		t.Error("eldritch implicit leaked into another item's base")
	}
	if got := base.EldritchImplicits[:1][0]; got != "" {
		t.Errorf("shared backing array was written: %q", got)
	}
}

func TestVerify(t *testing.T) {
	m := newMutator(t, 9)
	if !m.Verify(commonSword()) {
		t.Error("Verify on an empty log = false, want true")
	}

	out, err := m.Apply(currency.OrbOfAlchemy, commonSword())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !m.Verify(out) {
		t.Error("Verify(result) = false, want true")
	}

	tampered := out.Clone()
	tampered.ExplicitMods[0].Text += " (edited)"
	if m.Verify(tampered) {
		t.Error("Verify accepted an item with an edited modifier")
	}

	dropped := out.Clone()
	dropped.ExplicitMods = dropped.ExplicitMods[1:]
	if m.Verify(dropped) {
		t.Error("Verify accepted an item missing a modifier")
	}

	if m.Verify(commonSword()) {
		t.Error("Verify accepted the pre-state")
	}
}

func TestRollbackUnknownTransaction(t *testing.T) {
	m := newMutator(t, 10)
	_, err := m.Rollback("txn_missing")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("Rollback error = %v, want ErrTransactionNotFound", err)
	}
}

func TestRollbackKeepsLogLinear(t *testing.T) {
	m := newMutator(t, 11)
	first, err := m.Apply(currency.OrbOfAlchemy, commonSword())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := m.Apply(currency.ChaosOrb, first); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	restored, err := m.Rollback("txn_1")
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("log length after rollback = %d, want 2", m.Len())
	}
	if _, err := m.Apply(currency.OrbOfTransmutation, restored); err != nil {
		t.Fatalf("Apply after rollback failed: %v", err)
	}

	var got []string
	for _, tx := range m.Log() {
		got = append(got, tx.ID()+":"+tx.Currency())
	}
	want := []string{"txn_1:Orb of Alchemy", "txn_2:Chaos Orb", "txn_3:Orb of Transmutation"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("log mismatch (-want +got):\n%s", diff)
	}
	if _, ok := m.Transaction("txn_2"); !ok {
		t.Error("Transaction(txn_2) not found")
	}
}

func TestTransactionFields(t *testing.T) {
	m := newMutator(t, 12)
	out, err := m.Apply(currency.OrbOfTransmutation, commonSword())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	tx := m.LastTransaction()
	if tx.ID() != "txn_1" || tx.Currency() != "Orb of Transmutation" {
		t.Errorf("transaction = %s/%s", tx.ID(), tx.Currency())
	}
	if !tx.Timestamp().Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("Timestamp() = %v", tx.Timestamp())
	}
	if tx.Digest() != items.Fingerprint(out) {
		t.Error("Digest() does not match the result's fingerprint")
	}
}

func TestDefaultTransactionIDs(t *testing.T) {
	m := New(testPool(t), mods.NewRoller(stats.NewSource(13)))
	item, err := m.Apply(currency.OrbOfAlchemy, commonSword())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := m.Apply(currency.ChaosOrb, item); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	log := m.Log()
	if !strings.HasPrefix(log[0].ID(), "txn_") || log[0].ID() == log[1].ID() {
		t.Errorf("transaction ids = %q, %q", log[0].ID(), log[1].ID())
	}
}

type failingRecorder struct{ calls int }

func (r *failingRecorder) Record(*Transaction) error {
	r.calls++
	return errors.New("disk full")
}

func TestRecorderFailureLogsNothing(t *testing.T) {
	m := newMutator(t, 14)
	rec := &failingRecorder{}
	m.SetRecorder(rec)

	_, err := m.Apply(currency.OrbOfAlchemy, commonSword())
	if !errors.Is(err, ErrRecordFailed) {
		t.Fatalf("Apply error = %v, want ErrRecordFailed", err)
	}
	if rec.calls != 1 || m.Len() != 0 {
		t.Errorf("calls = %d, log length = %d, want 1 and 0", rec.calls, m.Len())
	}
}

type memoryRecorder struct{ ids []string }

func (r *memoryRecorder) Record(tx *Transaction) error {
	r.ids = append(r.ids, tx.ID())
	return nil
}

func TestRecorderSeesEveryTransaction(t *testing.T) {
	m := newMutator(t, 15)
	rec := &memoryRecorder{}
	m.SetRecorder(rec)

	item, _ := m.Apply(currency.OrbOfAlchemy, commonSword())
	m.Apply(currency.ExaltedOrb, rareSword("a", "b", "c", "d", "e", "f"))
	m.Apply(currency.DivineOrb, item)

	if diff := cmp.Diff([]string{"txn_1", "txn_2"}, rec.ids); diff != "" {
		t.Errorf("recorded ids mismatch (-want +got):\n%s", diff)
	}
}

func TestEffectErrorLogsNothing(t *testing.T) {
	pool, err := mods.NewPool(&mods.Mod{ID: "str1", Family: "Strength", Text: "+{0} to Strength", Weights: map[string]int{"default": 1}, Ranges: []mods.Range{{Min: 1, Max: 2}}})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	m := New(pool, mods.NewRoller(stats.NewSource(16)))

	_, err = m.Apply(currency.PrismaticFossil, commonSword())
	if !errors.Is(err, mods.ErrEmptyPool) {
		t.Errorf("Apply error = %v, want ErrEmptyPool", err)
	}
	if m.Len() != 0 {
		t.Errorf("log length = %d, want 0", m.Len())
	}
}

func TestFamilyExclusionAcrossSequence(t *testing.T) {
	m := newMutator(t, 17)
	sequence := []*currency.Currency{
		currency.OrbOfTransmutation,
		currency.RegalOrb,
		currency.ExaltedOrb,
		currency.ExaltedOrb,
		currency.DivineOrb,
		currency.OrbOfAnnulment,
		currency.ChaosOrb,
		currency.VaalOrb,
	}

	item := commonSword()
	for _, c := range sequence {
		if !c.CanApply(item) {
			continue
		}
		next, err := m.Apply(c, item)
		if err != nil {
			t.Fatalf("%s failed: %v", c.Name(), err)
		}
		item = next
		families := map[string]bool{}
		for _, mod := range item.ExplicitMods {
			if families[mod.Family] {
				t.Fatalf("after %s: duplicate family %s", c.Name(), mod.Family)
			}
			families[mod.Family] = true
		}
	}
}
