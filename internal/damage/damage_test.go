package damage

import (
	"testing"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
)

// armored is the smallest engine.Entity that carries equipment.
type armored struct {
	engine.Entity
	gear map[engine.ArmorSlot]*engine.Item
}

func (a *armored) Equipment() engine.Equipment { return a }

func (a *armored) Armor(slot engine.ArmorSlot) *engine.Item { return a.gear[slot] }

func wearing(items ...*engine.Item) *armored {
	a := &armored{gear: map[engine.ArmorSlot]*engine.Item{}}
	for i, it := range items {
		a.gear[engine.ArmorSlots[i]] = it
	}
	return a
}

func item(id string, prot int) *engine.Item {
	it := &engine.Item{TypeID: id, Amount: 1}
	if prot > 0 {
		it.Enchantments = map[string]int{ProtectionEnchantment: prot}
	}
	return it
}

// TestFinalDamageZero tests non-positive damage always yields 0
func TestFinalDamageZero(t *testing.T) {
	target := wearing()
	for _, d := range []float64{0, -1, -100} {
		if got := FinalDamage(d, target, nil); got != 0 {
			t.Errorf("FinalDamage(%v) = %d, expected 0", d, got)
		}
	}
}

// TestFinalDamageNoArmor tests unarmored targets take floor(d)
func TestFinalDamageNoArmor(t *testing.T) {
	tests := []struct {
		base     float64
		expected int
	}{
		{1, 1},
		{2, 2},
		{8.9, 8},
		{14, 14},
		{0.5, 0},
	}

	for _, tt := range tests {
		if got := FinalDamage(tt.base, wearing(), nil); got != tt.expected {
			t.Errorf("FinalDamage(%v) = %d, expected %d", tt.base, got, tt.expected)
		}
		if got := FinalDamage(tt.base, nil, nil); got != tt.expected {
			t.Errorf("FinalDamage(%v, nil target) = %d, expected %d", tt.base, got, tt.expected)
		}
	}
}

// TestFinalDamageKnownValues tests hand-computed reductions
func TestFinalDamageKnownValues(t *testing.T) {
	tests := []struct {
		name     string
		base     float64
		target   *armored
		expected int
	}{
		// armor 20, toughness 8: min(20, max(4, 20-14/4)) = 16.5 -> 0.66
		// 14 * 0.34 = 4.76
		{
			name: "full diamond",
			base: 14,
			target: wearing(
				item("minecraft:diamond_helmet", 0),
				item("minecraft:diamond_chestplate", 0),
				item("minecraft:diamond_leggings", 0),
				item("minecraft:diamond_boots", 0),
			),
			expected: 4,
		},
		// armor 15, toughness 0: max(3, 15-7) = 8 -> 0.32; 14*0.68 = 9.52
		// protection 4 -> 0.16; 9.52*0.84 = 7.99
		{
			name: "iron with protection",
			base: 14,
			target: wearing(
				item("minecraft:iron_helmet", 0),
				item("minecraft:iron_chestplate", 4),
				item("minecraft:iron_leggings", 0),
				item("minecraft:iron_boots", 0),
			),
			expected: 7,
		},
		{
			name:     "unknown item contributes nothing",
			base:     10,
			target:   wearing(item("custom:paper_hat", 0)),
			expected: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FinalDamage(tt.base, tt.target, nil); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

// TestFinalDamageMonotonic tests adding armor never increases damage
func TestFinalDamageMonotonic(t *testing.T) {
	pieces := []*engine.Item{
		item("minecraft:netherite_helmet", 0),
		item("minecraft:netherite_chestplate", 0),
		item("minecraft:netherite_leggings", 0),
		item("minecraft:netherite_boots", 0),
	}

	for _, base := range []float64{1, 2, 5, 8, 14, 30, 100} {
		prev := FinalDamage(base, wearing(), nil)
		for n := 1; n <= len(pieces); n++ {
			got := FinalDamage(base, wearing(pieces[:n]...), nil)
			if got > prev {
				t.Errorf("base %v: %d pieces gave %d, more than %d", base, n, got, prev)
			}
			prev = got
		}
	}
}

// TestProtectionCap tests protection stops helping past 80 percent
func TestProtectionCap(t *testing.T) {
	capped := FinalDamage(50, wearing(item("custom:hat", 10), item("custom:shirt", 10)), nil)
	over := FinalDamage(50, wearing(item("custom:hat", 30), item("custom:shirt", 30)), nil)
	if capped != over {
		t.Errorf("Expected capped protection to match, got %d and %d", capped, over)
	}
	if r := Apply(50, 0, 0, 40); r.ProtectionFactor != 0.8 {
		t.Errorf("Expected protection factor 0.8, got %f", r.ProtectionFactor)
	}
}

// TestCustomArmorTable tests overrides layered over vanilla
func TestCustomArmorTable(t *testing.T) {
	table := WithOverrides(ArmorTable{"custom:plate": {Armor: 20, Toughness: 0}})
	target := wearing(item("custom:plate", 0))

	// max(4, 20-5) = 15 -> 0.6; 10*0.4 = 4
	if got := FinalDamage(10, target, table); got != 4 {
		t.Errorf("Expected 4, got %d", got)
	}
	if _, ok := table["minecraft:iron_helmet"]; !ok {
		t.Error("Overrides should keep vanilla entries")
	}
	if _, ok := VanillaArmor()["custom:plate"]; ok {
		t.Error("Overrides must not leak into the vanilla table")
	}
}
