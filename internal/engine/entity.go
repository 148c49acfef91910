// Package engine defines the boundary between the combat core and the host
// game engine. Everything here is an interface or a plain value; the host (or
// the in-memory sim used by tests) supplies the implementation.
package engine

import (
	"errors"
	"fmt"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// Boundary failures. Callers treat any of these as "the sub-operation did not
// happen" and carry on.
var (
	ErrEntityInvalid = errors.New("entity is no longer valid")
	ErrCommandFailed = errors.New("engine command failed")
)

// IsTransient reports whether err came from an engine-boundary call.
func IsTransient(err error) bool {
	return errors.Is(err, ErrEntityInvalid) || errors.Is(err, ErrCommandFailed)
}

// InvalidEntity wraps ErrEntityInvalid with the entity id.
func InvalidEntity(id string) error {
	return fmt.Errorf("%w: %s", ErrEntityInvalid, id)
}

// GameMode of a player-like actor
type GameMode uint8

const (
	GameModeSurvival GameMode = iota
	GameModeCreative
	GameModeAdventure
	GameModeSpectator
)

func (m GameMode) String() string {
	switch m {
	case GameModeSurvival:
		return "survival"
	case GameModeCreative:
		return "creative"
	case GameModeAdventure:
		return "adventure"
	case GameModeSpectator:
		return "spectator"
	default:
		return "unknown"
	}
}

// DamageSource describes who dealt damage and how.
type DamageSource struct {
	Cause   string
	Damager Entity
}

// Common damage causes
const (
	CauseOverride     = "override"
	CauseEntityAttack = "entity_attack"
	CauseProjectile   = "projectile"
	CauseMaceSmash    = "mace_smash"
)

// Entity is any live object in a dimension.
type Entity interface {
	ID() string
	TypeID() string
	IsValid() bool
	Dimension() Dimension

	Families() []string
	HasFamily(family string) bool
	HasTag(tag string) bool

	Location() vec.Vec3
	HeadLocation() vec.Vec3
	Velocity() vec.Vec3
	ViewDirection() vec.Vec3
	Rotation() vec.Vec2
	IsOnGround() bool
	IsFalling() bool

	// Health returns current and max health. Entities without health return
	// an error.
	Health() (current, max float64, err error)
	Equipment() Equipment

	ApplyImpulse(v vec.Vec3) error
	ClearVelocity() error
	// Teleport moves the entity. When facing is non-nil the entity turns to
	// look at that point.
	Teleport(loc vec.Vec3, facing *vec.Vec3) error
	AddEffect(effect string, duration, amplifier int) error
	RemoveEffect(effect string) error
	ApplyDamage(amount float64, src DamageSource) (bool, error)
	TriggerEvent(name string) error
	SetProperty(key string, value any) error
	Property(key string) any
	Remove() error
}

// Actor is a player-like entity that holds items and receives input.
type Actor interface {
	Entity

	Name() string
	GameMode() GameMode
	SelectedSlot() int
	Mainhand() *Item
	SetMainhand(item *Item) error

	IsSneaking() bool
	IsJumping() bool
	IsGliding() bool
	// MovementVector is the raw movement input. Y is forward.
	MovementVector() vec.Vec2

	StartCooldown(category string, ticks int) error
	CooldownRemaining(category string) int
	PlayAnimation(name string) error
	// PlaySound plays a sound only this actor can hear.
	PlaySound(id string, opts SoundOptions) error
	ShakeCamera(intensity, seconds float64, kind string) error
	ShowActionBar(text string) error
}

// IsCreativeOrSpectator reports whether an actor cannot take combat damage.
func IsCreativeOrSpectator(a Actor) bool {
	m := a.GameMode()
	return m == GameModeCreative || m == GameModeSpectator
}

// AsActor returns e as an Actor when it is player-like.
func AsActor(e Entity) (Actor, bool) {
	a, ok := e.(Actor)
	return a, ok
}

// SoundOptions for positional and direct playback
type SoundOptions struct {
	Volume   float64
	Pitch    float64
	Location *vec.Vec3
}

// Sound applies defaults for unset volume and pitch.
func Sound(volume, pitch float64) SoundOptions {
	if volume <= 0 {
		volume = 1
	}
	if pitch <= 0 {
		pitch = 1
	}
	return SoundOptions{Volume: volume, Pitch: pitch}
}
