package engine

// Item is a snapshot of an item stack. Hosts hand out copies; writing back
// goes through Actor.SetMainhand.
type Item struct {
	TypeID        string         `json:"typeId"`
	NameTag       string         `json:"nameTag,omitempty"`
	Amount        int            `json:"amount"`
	Damage        int            `json:"damage"`
	MaxDurability int            `json:"maxDurability"`
	Enchantments  map[string]int `json:"enchantments,omitempty"`
}

// SameIdentity compares type and per-instance label.
func (i *Item) SameIdentity(other *Item) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.TypeID == other.TypeID && i.NameTag == other.NameTag
}

// NeedsRepair reports whether a damageable item has no durability left.
func (i *Item) NeedsRepair() bool {
	if i == nil || i.MaxDurability <= 0 {
		return false
	}
	return i.Damage >= i.MaxDurability
}

// RemainingDurability is how much more damage the item can take.
func (i *Item) RemainingDurability() int {
	if i == nil || i.MaxDurability <= 0 {
		return 0
	}
	r := i.MaxDurability - i.Damage
	if r < 0 {
		return 0
	}
	return r
}

// Enchantment returns the level of an enchantment, or 0.
func (i *Item) Enchantment(id string) int {
	if i == nil {
		return 0
	}
	return i.Enchantments[id]
}

// Clone returns a deep copy.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	if i.Enchantments != nil {
		c.Enchantments = make(map[string]int, len(i.Enchantments))
		for k, v := range i.Enchantments {
			c.Enchantments[k] = v
		}
	}
	return &c
}

// ArmorSlot of an equippable
type ArmorSlot uint8

const (
	SlotHead ArmorSlot = iota
	SlotChest
	SlotLegs
	SlotFeet
)

// ArmorSlots in a stable order
var ArmorSlots = []ArmorSlot{SlotHead, SlotChest, SlotLegs, SlotFeet}

// Equipment exposes what an entity wears.
type Equipment interface {
	Armor(slot ArmorSlot) *Item
}
