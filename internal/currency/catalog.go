package currency

import (
	"errors"
	"slices"

	"github.com/lawnchairsociety/crucible/internal/items"
	"github.com/lawnchairsociety/crucible/internal/mods"
	"github.com/lawnchairsociety/crucible/internal/stats"
)

// QualityPerScrap is the quality one Armourer's Scrap adds.
const QualityPerScrap = 5

// Fixed modifier lines some currencies write instead of rolling.
var (
	GreedLifeMod       = mods.Fixed("essence_of_greed_life", "Life", "+40 to maximum Life", 40)
	VeiledMod          = mods.Fixed("veiled", "Veiled", "Veiled Modifier")
	EldritchImplicit   = "+10% increased Damage"
	CraftedPlaceholder = "Can have up to 3 Crafted Modifiers"
)

func rarityIs(set ...items.Rarity) func(items.Item) bool {
	return func(item items.Item) bool {
		return item.Rarity.In(set...)
	}
}

var OrbOfTransmutation = New("orb_of_transmutation", "Orb of Transmutation",
	"Upgrades a common item to magic with 1-2 modifiers.",
	rarityIs(items.Common),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		rolled, err := rollFresh(item, pool, roller, 1, 2)
		if err != nil {
			return item, err
		}
		item.Rarity = items.Magic
		item.ExplicitMods = rolled
		return item, nil
	})

var OrbOfAlchemy = New("orb_of_alchemy", "Orb of Alchemy",
	"Upgrades a common item to rare with 3-6 modifiers.",
	rarityIs(items.Common),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		rolled, err := rollFresh(item, pool, roller, 3, 6)
		if err != nil {
			return item, err
		}
		item.Rarity = items.Rare
		item.ExplicitMods = rolled
		return item, nil
	})

var OrbOfAlteration = New("orb_of_alteration", "Orb of Alteration",
	"Rerolls a magic item's modifiers (1-2).",
	rarityIs(items.Magic),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		rolled, err := rollFresh(item, pool, roller, 1, 2)
		if err != nil {
			return item, err
		}
		item.ExplicitMods = rolled
		return item, nil
	})

var ChaosOrb = New("chaos_orb", "Chaos Orb",
	"Rerolls a rare item's modifiers (3-6).",
	rarityIs(items.Rare),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		rolled, err := rollFresh(item, pool, roller, 3, 6)
		if err != nil {
			return item, err
		}
		item.ExplicitMods = rolled
		return item, nil
	})

var ExaltedOrb = New("exalted_orb", "Exalted Orb",
	"Adds a modifier to a rare item with fewer than 6.",
	func(item items.Item) bool {
		return item.Rarity == items.Rare && items.CanAddMods(item, items.MaxExplicitMods)
	},
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		rolled, err := rollAppend(item, pool, roller)
		if err != nil {
			return item, err
		}
		item.ExplicitMods = append(item.ExplicitMods, rolled)
		return item, nil
	})

var RegalOrb = New("regal_orb", "Regal Orb",
	"Upgrades a magic item to rare, adding a modifier.",
	rarityIs(items.Magic),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		rolled, err := rollAppend(item, pool, roller)
		if err != nil {
			return item, err
		}
		item.Rarity = items.Rare
		item.ExplicitMods = append(item.ExplicitMods, rolled)
		return item, nil
	})

var OrbOfAnnulment = New("orb_of_annulment", "Orb of Annulment",
	"Removes a random modifier from a magic or rare item.",
	func(item items.Item) bool {
		return len(item.ExplicitMods) > 0 && item.Rarity.In(items.Magic, items.Rare)
	},
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		idx := stats.Pick(roller.Source(), len(item.ExplicitMods))
		item.ExplicitMods = slices.Delete(item.ExplicitMods, idx, idx+1)
		return item, nil
	})

var OrbOfScouring = New("orb_of_scouring", "Orb of Scouring",
	"Removes all modifiers, making the item common.",
	rarityIs(items.Magic, items.Rare),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		item.Rarity = items.Common
		item.ExplicitMods = nil
		return item, nil
	})

var DivineOrb = New("divine_orb", "Divine Orb",
	"Rerolls the numeric values of every modifier.",
	func(item items.Item) bool {
		return len(item.ExplicitMods) > 0
	},
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		for i, m := range item.ExplicitMods {
			item.ExplicitMods[i] = roller.Reroll(pool, m)
		}
		return item, nil
	})

var ArmourersScrap = New("armourers_scrap", "Armourer's Scrap",
	"Adds 5% quality to armour, up to 20%.",
	func(item items.Item) bool {
		return item.Quality < items.MaxQuality && item.Base.Type == items.Armor
	},
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		item.Quality = items.ClampQuality(item.Quality + QualityPerScrap)
		return item, nil
	})

var EssenceOfGreed = New("essence_of_greed", "Essence of Greed",
	"Makes a common item rare with a guaranteed life modifier and 2-5 others.",
	rarityIs(items.Common),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		rolled, err := rollAfter(item, pool, roller, GreedLifeMod.Clone(), 2, 5)
		if err != nil {
			return item, err
		}
		item.Rarity = items.Rare
		item.ExplicitMods = rolled
		return item, nil
	})

var PrismaticFossil = New("prismatic_fossil", "Prismatic Fossil",
	"Makes the item rare with 3-6 elemental modifiers.",
	rarityIs(items.Common, items.Magic, items.Rare),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		rolled, err := rollFresh(item, pool.WithTag("elemental"), roller, 3, 6)
		if err != nil {
			return item, err
		}
		item.Rarity = items.Rare
		item.ExplicitMods = rolled
		return item, nil
	})

var HarvestReforgeLife = New("harvest_reforge_life", "Harvest Reforge Life",
	"Rerolls a rare item with a guaranteed life modifier and 2-5 others.",
	rarityIs(items.Rare),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		lead, err := roller.RollFrom(pool.WithTag("life"), contextKey(item), mods.Families{})
		if err != nil {
			return item, err
		}
		rolled, err := rollAfter(item, pool, roller, lead, 2, 5)
		if err != nil {
			return item, err
		}
		item.ExplicitMods = rolled
		return item, nil
	})

var VeiledChaosOrb = New("veiled_chaos_orb", "Veiled Chaos Orb",
	"Rerolls a rare item with a veiled modifier and 2-5 others.",
	rarityIs(items.Rare),
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		rolled, err := rollAfter(item, pool, roller, VeiledMod.Clone(), 2, 5)
		if err != nil {
			return item, err
		}
		item.ExplicitMods = rolled
		return item, nil
	})

var EldritchExaltedOrb = New("eldritch_exalted_orb", "Eldritch Exalted Orb",
	"Adds an eldritch implicit to a rare item's own base.",
	func(item items.Item) bool {
		return item.Rarity == items.Rare && item.Base.HasEldritch()
	},
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		// item.Base is the item's private copy; shared bases are never touched.
		item.Base.EldritchImplicits = append(item.Base.EldritchImplicits, EldritchImplicit)
		return item, nil
	})

var MultiModCraft = New("multi_mod_craft", "Multi-mod Craft",
	"Adds a crafted modifier slot marker, up to 3 crafted modifiers.",
	func(item items.Item) bool {
		return len(item.CraftedMods) < items.MaxCraftedMods
	},
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		item.CraftedMods = append(item.CraftedMods, CraftedPlaceholder)
		return item, nil
	})

var VaalOrb = New("vaal_orb", "Vaal Orb",
	"Corrupts the item; half the time it also gains a modifier.",
	nil,
	func(item items.Item, pool *mods.Pool, roller *mods.Roller) (items.Item, error) {
		item.Corrupted = true
		if !stats.Chance(roller.Source(), 50) {
			return item, nil
		}
		rolled, err := rollAppend(item, pool, roller)
		if errors.Is(err, mods.ErrEmptyPool) {
			return item, nil
		}
		if err != nil {
			return item, err
		}
		item.ExplicitMods = append(item.ExplicitMods, rolled)
		return item, nil
	})

// All returns every currency in catalog order.
func All() []*Currency {
	return []*Currency{
		OrbOfTransmutation,
		OrbOfAlchemy,
		OrbOfAlteration,
		ChaosOrb,
		ExaltedOrb,
		RegalOrb,
		OrbOfAnnulment,
		OrbOfScouring,
		DivineOrb,
		ArmourersScrap,
		EssenceOfGreed,
		PrismaticFossil,
		HarvestReforgeLife,
		VeiledChaosOrb,
		EldritchExaltedOrb,
		MultiModCraft,
		VaalOrb,
	}
}
