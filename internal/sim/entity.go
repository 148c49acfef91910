package sim

import (
	"math"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// Physics constants, per tick
const (
	Gravity       = 0.08
	AirDrag       = 0.91
	GroundDrag    = 0.6
	VerticalDrag  = 0.98
	ResistanceCap = 1.0
)

// Effect is an active status effect.
type Effect struct {
	Duration  int `json:"duration"`
	Amplifier int `json:"amplifier"`
}

// DamageRecord is one successful ApplyDamage call.
type DamageRecord struct {
	Tick      uint64  `json:"tick"`
	Amount    float64 `json:"amount"`
	Cause     string  `json:"cause"`
	DamagerID string  `json:"damagerId,omitempty"`
}

// Body is the sim's implementation of engine.Entity. Players embed it.
type Body struct {
	w    *World
	self engine.Entity

	id       string
	typeID   string
	families []string
	tags     map[string]struct{}
	props    map[string]any

	pos       vec.Vec3
	vel       vec.Vec3
	rot       vec.Vec2
	width     float64
	height    float64
	eyeHeight float64
	onGround  bool
	noGravity bool

	hasHealth bool
	health    float64
	maxHealth float64
	valid     bool

	effects  map[string]Effect
	armor    map[engine.ArmorSlot]*engine.Item
	triggers []string
	damage   []DamageRecord

	proj *projectile
}

// BodySpec describes a non-player entity to spawn.
type BodySpec struct {
	TypeID    string
	Families  []string
	Tags      []string
	Health    float64 // 0 means no health component
	Width     float64
	Height    float64
	EyeHeight float64
	NoGravity bool
}

func newBody(w *World, id string, spec BodySpec, loc vec.Vec3) *Body {
	b := &Body{
		w:         w,
		id:        id,
		typeID:    spec.TypeID,
		families:  append([]string(nil), spec.Families...),
		tags:      make(map[string]struct{}),
		props:     make(map[string]any),
		pos:       loc,
		width:     spec.Width,
		height:    spec.Height,
		eyeHeight: spec.EyeHeight,
		noGravity: spec.NoGravity,
		hasHealth: spec.Health > 0,
		health:    spec.Health,
		maxHealth: spec.Health,
		valid:     true,
		effects:   make(map[string]Effect),
		armor:     make(map[engine.ArmorSlot]*engine.Item),
	}
	if b.width <= 0 {
		b.width = 0.6
	}
	if b.height <= 0 {
		b.height = 1.8
	}
	if b.eyeHeight <= 0 {
		b.eyeHeight = b.height * 0.85
	}
	for _, t := range spec.Tags {
		b.tags[t] = struct{}{}
	}
	b.self = b
	b.onGround = loc.Y <= w.surfaceAt(loc)+1e-6
	return b
}

func (b *Body) ID() string     { return b.id }
func (b *Body) TypeID() string { return b.typeID }
func (b *Body) IsValid() bool  { return b.valid }

func (b *Body) Dimension() engine.Dimension {
	return b.w.dim
}

func (b *Body) Families() []string {
	return append([]string(nil), b.families...)
}

func (b *Body) HasFamily(family string) bool {
	for _, f := range b.families {
		if f == family {
			return true
		}
	}
	return false
}

func (b *Body) HasTag(tag string) bool {
	_, ok := b.tags[tag]
	return ok
}

// AddTag adds a scoreboard-style tag.
func (b *Body) AddTag(tag string) { b.tags[tag] = struct{}{} }

// RemoveTag removes a tag.
func (b *Body) RemoveTag(tag string) { delete(b.tags, tag) }

func (b *Body) Location() vec.Vec3 { return b.pos }

func (b *Body) HeadLocation() vec.Vec3 {
	return b.pos.Add(vec.New(0, b.eyeHeight, 0))
}

func (b *Body) Velocity() vec.Vec3 { return b.vel }

func (b *Body) ViewDirection() vec.Vec3 {
	return vec.DirectionFromRotation(b.rot)
}

func (b *Body) Rotation() vec.Vec2 { return b.rot }

// SetRotation turns the body.
func (b *Body) SetRotation(rot vec.Vec2) { b.rot = rot }

// SetLocation moves the body without events.
func (b *Body) SetLocation(loc vec.Vec3) {
	b.pos = loc
	b.onGround = loc.Y <= b.w.surfaceAt(loc)+1e-6
	b.w.gridDirty = true
}

// SetVelocity overwrites velocity.
func (b *Body) SetVelocity(v vec.Vec3) {
	b.vel = v
	if v.Y > 0 {
		b.onGround = false
	}
}

func (b *Body) IsOnGround() bool { return b.onGround }

func (b *Body) IsFalling() bool { return !b.onGround && b.vel.Y < 0 }

func (b *Body) Health() (float64, float64, error) {
	if !b.valid {
		return 0, 0, engine.InvalidEntity(b.id)
	}
	if !b.hasHealth {
		return 0, 0, engine.ErrCommandFailed
	}
	return b.health, b.maxHealth, nil
}

// SetHealth overwrites current health without events.
func (b *Body) SetHealth(v float64) {
	b.health = math.Max(0, math.Min(v, b.maxHealth))
}

func (b *Body) Equipment() engine.Equipment {
	return bodyEquipment{b}
}

// Equip puts an armor item on the body.
func (b *Body) Equip(slot engine.ArmorSlot, item *engine.Item) {
	b.armor[slot] = item.Clone()
}

type bodyEquipment struct{ b *Body }

func (e bodyEquipment) Armor(slot engine.ArmorSlot) *engine.Item {
	return e.b.armor[slot].Clone()
}

func (b *Body) ApplyImpulse(v vec.Vec3) error {
	if !b.valid {
		return engine.InvalidEntity(b.id)
	}
	b.vel = b.vel.Add(v)
	if v.Y > 0 {
		b.onGround = false
	}
	return nil
}

func (b *Body) ClearVelocity() error {
	if !b.valid {
		return engine.InvalidEntity(b.id)
	}
	b.vel = vec.Zero
	return nil
}

func (b *Body) Teleport(loc vec.Vec3, facing *vec.Vec3) error {
	if !b.valid {
		return engine.InvalidEntity(b.id)
	}
	b.SetLocation(loc)
	if facing != nil {
		dir := facing.Sub(b.HeadLocation())
		if !dir.IsZero() {
			b.rot = vec.RotationFromDirection(dir)
		}
	}
	return nil
}

func (b *Body) AddEffect(effect string, duration, amplifier int) error {
	if !b.valid {
		return engine.InvalidEntity(b.id)
	}
	if duration <= 0 {
		return nil
	}
	b.effects[effect] = Effect{Duration: duration, Amplifier: amplifier}
	return nil
}

func (b *Body) RemoveEffect(effect string) error {
	if !b.valid {
		return engine.InvalidEntity(b.id)
	}
	delete(b.effects, effect)
	return nil
}

// Effect returns an active effect.
func (b *Body) Effect(id string) (Effect, bool) {
	e, ok := b.effects[id]
	return e, ok
}

func (b *Body) ApplyDamage(amount float64, src engine.DamageSource) (bool, error) {
	if !b.valid {
		return false, engine.InvalidEntity(b.id)
	}
	if !b.hasHealth || amount <= 0 || b.health <= 0 {
		return false, nil
	}
	if p, ok := b.self.(*Player); ok && engine.IsCreativeOrSpectator(p) {
		return false, nil
	}
	if r, ok := b.effects["resistance"]; ok {
		amount *= 1 - math.Min(ResistanceCap, 0.2*float64(r.Amplifier+1))
		if amount <= 0 {
			return false, nil
		}
	}

	old := b.health
	b.health = math.Max(0, b.health-amount)

	rec := DamageRecord{Tick: b.w.tick, Amount: amount, Cause: src.Cause}
	if src.Damager != nil {
		rec.DamagerID = src.Damager.ID()
	}
	b.damage = append(b.damage, rec)

	b.w.emit(func(h *Handlers) {
		if h.Hurt != nil {
			h.Hurt(engine.HurtEvent{Entity: b.self, Damage: amount, Source: src})
		}
	})
	b.w.emit(func(h *Handlers) {
		if h.HealthChanged != nil {
			h.HealthChanged(engine.HealthChangedEvent{Entity: b.self, OldValue: old, NewValue: b.health})
		}
	})
	if b.health <= 0 {
		b.w.emit(func(h *Handlers) {
			if h.Die != nil {
				h.Die(engine.DieEvent{Entity: b.self, Source: src})
			}
		})
		if _, isPlayer := b.self.(*Player); !isPlayer {
			b.remove()
		}
	}
	return true, nil
}

// DamageTaken lists successful hits in order.
func (b *Body) DamageTaken() []DamageRecord {
	return append([]DamageRecord(nil), b.damage...)
}

// TotalDamage sums every successful hit.
func (b *Body) TotalDamage() float64 {
	var sum float64
	for _, d := range b.damage {
		sum += d.Amount
	}
	return sum
}

func (b *Body) TriggerEvent(name string) error {
	if !b.valid {
		return engine.InvalidEntity(b.id)
	}
	b.triggers = append(b.triggers, name)
	return nil
}

// Triggers lists data-driven events fired on this body.
func (b *Body) Triggers() []string {
	return append([]string(nil), b.triggers...)
}

func (b *Body) SetProperty(key string, value any) error {
	if !b.valid {
		return engine.InvalidEntity(b.id)
	}
	b.props[key] = value
	return nil
}

func (b *Body) Property(key string) any {
	return b.props[key]
}

func (b *Body) Remove() error {
	if !b.valid {
		return engine.InvalidEntity(b.id)
	}
	b.remove()
	return nil
}

func (b *Body) remove() {
	if !b.valid {
		return
	}
	b.valid = false
	b.w.detach(b)
}

// aabb returns the body's bounds.
func (b *Body) aabb() (min, max vec.Vec3) {
	hw := b.width / 2
	return vec.New(b.pos.X-hw, b.pos.Y, b.pos.Z-hw),
		vec.New(b.pos.X+hw, b.pos.Y+b.height, b.pos.Z+hw)
}

// step integrates one tick of motion for non-projectiles.
func (b *Body) step() {
	for id, e := range b.effects {
		e.Duration--
		if e.Duration <= 0 {
			delete(b.effects, id)
			continue
		}
		b.effects[id] = e
	}

	if !b.noGravity && (!b.onGround || b.vel.Y > 0) {
		b.vel.Y -= Gravity
	}
	if b.vel.IsZero() {
		return
	}

	b.pos = b.pos.Add(b.vel)
	surface := b.w.surfaceAt(b.pos)
	if b.pos.Y <= surface {
		b.pos.Y = surface
		if b.vel.Y < 0 {
			b.vel.Y = 0
		}
		b.onGround = true
	} else {
		b.onGround = false
	}

	drag := AirDrag
	if b.onGround {
		drag = GroundDrag
	}
	b.vel.X *= drag
	b.vel.Z *= drag
	b.vel.Y *= VerticalDrag
	if math.Abs(b.vel.X) < 1e-4 {
		b.vel.X = 0
	}
	if math.Abs(b.vel.Z) < 1e-4 {
		b.vel.Z = 0
	}
	if b.onGround && math.Abs(b.vel.Y) < 1e-4 {
		b.vel.Y = 0
	}
	b.w.gridDirty = true
}
