package damage

// ArmorStats for one armor item
type ArmorStats struct {
	Armor     float64 `yaml:"armor" json:"armor"`
	Toughness float64 `yaml:"toughness" json:"toughness"`
}

// ArmorTable maps item type ids to armor stats.
type ArmorTable map[string]ArmorStats

var vanillaArmor = ArmorTable{
	// Helmets
	"minecraft:leather_helmet":   {1, 0},
	"minecraft:golden_helmet":    {2, 0},
	"minecraft:chainmail_helmet": {2, 0},
	"minecraft:iron_helmet":      {2, 0},
	"minecraft:turtle_helmet":    {2, 0},
	"minecraft:diamond_helmet":   {3, 2},
	"minecraft:netherite_helmet": {3, 3},

	// Chestplates
	"minecraft:leather_chestplate":   {3, 0},
	"minecraft:golden_chestplate":    {5, 0},
	"minecraft:chainmail_chestplate": {5, 0},
	"minecraft:iron_chestplate":      {6, 0},
	"minecraft:diamond_chestplate":   {8, 2},
	"minecraft:netherite_chestplate": {8, 3},

	// Leggings
	"minecraft:leather_leggings":   {2, 0},
	"minecraft:golden_leggings":    {3, 0},
	"minecraft:chainmail_leggings": {4, 0},
	"minecraft:iron_leggings":      {5, 0},
	"minecraft:diamond_leggings":   {6, 2},
	"minecraft:netherite_leggings": {6, 3},

	// Boots
	"minecraft:leather_boots":   {1, 0},
	"minecraft:golden_boots":    {1, 0},
	"minecraft:chainmail_boots": {1, 0},
	"minecraft:iron_boots":      {2, 0},
	"minecraft:diamond_boots":   {3, 2},
	"minecraft:netherite_boots": {3, 3},
}

// VanillaArmor returns a copy of the vanilla armor table.
func VanillaArmor() ArmorTable {
	t := make(ArmorTable, len(vanillaArmor))
	for k, v := range vanillaArmor {
		t[k] = v
	}
	return t
}

// WithOverrides layers custom entries over the vanilla table.
func WithOverrides(custom ArmorTable) ArmorTable {
	t := VanillaArmor()
	for k, v := range custom {
		t[k] = v
	}
	return t
}

func resolve(t ArmorTable) ArmorTable {
	if t == nil {
		return vanillaArmor
	}
	return t
}
