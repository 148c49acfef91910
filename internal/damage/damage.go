// Package damage computes armor- and protection-adjusted damage using the
// vanilla reduction curve (https://minecraft.wiki/w/Armor#Damage_reduction).
package damage

import (
	"math"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
)

// ProtectionEnchantment is the only enchantment that reduces combat damage here.
const ProtectionEnchantment = "protection"

const (
	maxArmorPoints      = 20.0
	armorDivisor        = 25.0
	protectionPerLevel  = 0.04
	maxProtectionFactor = 0.8
)

// Reduction breaks down one damage computation.
type Reduction struct {
	Armor            float64
	Toughness        float64
	Protection       int
	ArmorFactor      float64
	AfterArmor       float64
	ProtectionFactor float64
	Final            int
}

// FinalDamage returns the damage target would take from base after armor,
// toughness and protection. A nil table uses the vanilla values.
func FinalDamage(base float64, target engine.Entity, table ArmorTable) int {
	return Compute(base, target, table).Final
}

// Compute is FinalDamage with the intermediate values.
func Compute(base float64, target engine.Entity, table ArmorTable) Reduction {
	if base <= 0 {
		return Reduction{}
	}

	var armor, toughness float64
	var protection int
	if target != nil {
		armor, toughness, protection = totals(target, resolve(table))
	}
	return Apply(base, armor, toughness, protection)
}

// Apply runs the reduction curve on already summed armor stats.
func Apply(base, armor, toughness float64, protection int) Reduction {
	r := Reduction{Armor: armor, Toughness: toughness, Protection: protection}
	if base <= 0 {
		return r
	}

	r.ArmorFactor = math.Min(maxArmorPoints, math.Max(armor/5, armor-base/(2+toughness/4))) / armorDivisor
	r.AfterArmor = base * (1 - r.ArmorFactor)
	r.ProtectionFactor = math.Min(float64(protection)*protectionPerLevel, maxProtectionFactor)
	r.Final = int(math.Floor(math.Max(0, r.AfterArmor*(1-r.ProtectionFactor))))
	return r
}

func totals(target engine.Entity, table ArmorTable) (armor, toughness float64, protection int) {
	defer func() {
		// a target vanishing mid-read counts as unarmored
		if recover() != nil {
			armor, toughness, protection = 0, 0, 0
		}
	}()

	eq := target.Equipment()
	if eq == nil {
		return 0, 0, 0
	}
	for _, slot := range engine.ArmorSlots {
		item := eq.Armor(slot)
		if item == nil {
			continue
		}
		if stats, ok := table[item.TypeID]; ok {
			armor += stats.Armor
			toughness += stats.Toughness
		}
		protection += item.Enchantment(ProtectionEnchantment)
	}
	return armor, toughness, protection
}
