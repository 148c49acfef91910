package engine

// Event payloads delivered by the host. Field names describe the role of each
// participant, not the engine's wording.

type StartUseEvent struct {
	Actor Actor
	Item  *Item
}

type StopUseEvent struct {
	Actor       Actor
	Item        *Item
	UseDuration int
}

type HitEntityEvent struct {
	Attacker Entity
	Target   Entity
}

type HitBlockEvent struct {
	Attacker Entity
	Block    BlockHit
}

type HealthChangedEvent struct {
	Entity   Entity
	OldValue float64
	NewValue float64
}

type DieEvent struct {
	Entity Entity
	Source DamageSource
}

type HurtEvent struct {
	Entity Entity
	Damage float64
	Source DamageSource
}

type ProjectileHitEntityEvent struct {
	Projectile Entity
	Target     Entity
}

type ProjectileHitBlockEvent struct {
	Projectile Entity
	Block      BlockHit
}

// EntityTriggerEvent is a data-driven trigger fired by an entity definition,
// e.g. a projectile's lifetime timeout.
type EntityTriggerEvent struct {
	Entity Entity
	Name   string
}

type EntityRemovedEvent struct {
	EntityID string
	TypeID   string
}

// Trigger names shared with entity definitions
const TriggerTimeout = "timeout"
