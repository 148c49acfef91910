package slasher

import (
	"fmt"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/session"
)

// ItemType is the Slasher's item type id.
const ItemType = "lc:slasher"

// Factory returns the session factory for Slasher handlers sharing deps.
func Factory(deps Deps) session.Factory {
	deps = deps.withDefaults()
	return func(ctx *session.Context) session.Handler {
		return NewHandler(ctx, deps)
	}
}

// Register wires the Slasher into reg. A nil reg uses the process-wide
// registry.
func Register(reg *session.Registry, deps Deps) error {
	if reg == nil {
		reg = session.DefaultRegistry()
	}
	if err := deps.withDefaults().Tuning.Validate(); err != nil {
		return fmt.Errorf("register %s: %w", ItemType, err)
	}
	if err := reg.Register(ItemType, Factory(deps)); err != nil {
		return fmt.Errorf("register %s: %w", ItemType, err)
	}
	return nil
}

// NewItem builds a fresh Slasher stack.
func NewItem(nameTag string, maxDurability int) *engine.Item {
	return &engine.Item{
		TypeID:        ItemType,
		NameTag:       nameTag,
		Amount:        1,
		MaxDurability: maxDurability,
	}
}
