// Package slasher implements the Slasher weapon: a per-session state graph
// (idle, quick attack, charging, charged attack, lock-on, plunge, storm) and
// the slash beams it fires.
package slasher

import (
	"math/rand"
	"time"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/damage"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/session"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/targeting"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// Attack names reported to observers
const (
	AttackQuickSweep  = "quick_sweep"
	AttackCharged     = "charged"
	AttackLockon      = "lockon"
	AttackPlunge      = "plunge"
	AttackStorm       = "storm"
	AttackFastBeam    = "fast_beam"
	AttackChargedBeam = "charged_beam"
)

// ShakeRotational is the only camera shake kind the weapon uses.
const ShakeRotational = "rotational"

// Observer receives combat notifications. Calls happen on the tick thread.
type Observer interface {
	StateChanged(actor engine.Actor, from, to string)
	Damaged(attacker, target engine.Entity, amount float64, attack string)
}

type nopObserver struct{}

func (nopObserver) StateChanged(engine.Actor, string, string)                 {}
func (nopObserver) Damaged(engine.Entity, engine.Entity, float64, string) {}

// Deps are shared by every Slasher session.
type Deps struct {
	Tuning   *Tuning
	Beams    *BeamSystem
	Armor    damage.ArmorTable
	Rand     *rand.Rand
	Observer Observer
}

func (d Deps) withDefaults() Deps {
	if d.Tuning == nil {
		d.Tuning = DefaultTuning()
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	return d
}

// Handler is the session handler for one Slasher instance.
type Handler struct {
	session.BaseHandler

	tuning   *Tuning
	beams    *BeamSystem
	armor    damage.ArmorTable
	rng      *rand.Rand
	observer Observer

	state             State
	pendingDurability int
}

// NewHandler creates a handler and enters Idle.
func NewHandler(ctx *session.Context, deps Deps) *Handler {
	deps = deps.withDefaults()
	h := &Handler{
		BaseHandler: session.NewBaseHandler(ctx),
		tuning:      deps.Tuning,
		beams:       deps.Beams,
		armor:       deps.Armor,
		rng:         deps.Rand,
		observer:    deps.Observer,
	}
	h.state = newIdle(h)
	h.state.Enter()
	return h
}

// ChangeState exits the current state and enters next.
func (h *Handler) ChangeState(next State) {
	if next == nil {
		return
	}
	prev := h.state
	prev.Exit()
	h.state = next
	h.observer.StateChanged(h.Actor(), prev.Name(), next.Name())
	next.Enter()
}

// State returns the current state.
func (h *Handler) State() State { return h.state }

// StateName reports the current state for session snapshots.
func (h *Handler) StateName() string { return h.state.Name() }

// Tuning returns the balance values in use.
func (h *Handler) Tuning() *Tuning { return h.tuning }

func (h *Handler) OnCreate() {
	h.SetCooldown("slasher_pick", 2)
}

func (h *Handler) CanStartUse(ev engine.StartUseEvent) bool {
	if ev.Item.NeedsRepair() {
		return false
	}
	return h.state.CanStartUse(ev)
}

// OnTick runs the state body, then advances that state's counter even if the
// body changed state.
func (h *Handler) OnTick(item *engine.Item) {
	s := h.state
	defer s.base().advance()
	s.OnTick(item)
}

func (h *Handler) OnStartUse(ev engine.StartUseEvent)   { h.state.OnStartUse(ev) }
func (h *Handler) OnStopUse(ev engine.StopUseEvent)     { h.state.OnStopUse(ev) }
func (h *Handler) OnHitBlock(ev engine.HitBlockEvent)   { h.state.OnHitBlock(ev) }
func (h *Handler) OnHitEntity(ev engine.HitEntityEvent) { h.state.OnHitEntity(ev) }

// SetCooldown starts an item cooldown category. Zero ticks clears it.
func (h *Handler) SetCooldown(category string, ticks int) {
	_ = h.Actor().StartCooldown(category, ticks)
}

func (h *Handler) ShakeCamera(intensity, seconds float64) {
	_ = h.Actor().ShakeCamera(intensity, seconds, ShakeRotational)
}

func (h *Handler) PlayAnimation(name string) {
	_ = h.Actor().PlayAnimation(name)
}

func (h *Handler) ActionBar(text string) {
	_ = h.Actor().ShowActionBar(text)
}

// AddEffect applies a status effect to the wielder.
func (h *Handler) AddEffect(effect string, duration, amplifier int) {
	_ = h.Actor().AddEffect(effect, duration, amplifier)
}

// HeadFront is one block ahead of the eyes.
func (h *Handler) HeadFront() vec.Vec3 {
	a := h.Actor()
	return a.HeadLocation().Add(a.ViewDirection())
}

// BodyLocation is halfway between feet and eyes.
func (h *Handler) BodyLocation() vec.Vec3 {
	a := h.Actor()
	return vec.Midpoint(a.Location(), a.HeadLocation())
}

func (h *Handler) IsSneaking() bool { return h.Actor().IsSneaking() }

// PlaySoundAtHeadFront plays a positional sound just ahead of the wielder.
func (h *Handler) PlaySoundAtHeadFront(id string, opts engine.SoundOptions) {
	dim := h.Actor().Dimension()
	if dim == nil {
		return
	}
	_ = dim.PlaySound(id, h.HeadFront(), opts)
}

// PlaySound3DAnd2D plays id+".2d" to the wielder and the positional id to
// every other player within maxDist of the wielder's head.
func (h *Handler) PlaySound3DAnd2D(id string, maxDist float64, opts engine.SoundOptions) {
	a := h.Actor()
	_ = a.PlaySound(id+".2d", opts)

	dim := a.Dimension()
	if dim == nil {
		return
	}
	head := a.HeadLocation()
	for _, listener := range dim.Players(engine.EntityQuery{Location: head, MaxDistance: maxDist}) {
		if listener.ID() == a.ID() {
			continue
		}
		o := opts
		o.Location = &head
		_ = listener.PlaySound(id, o)
	}
}

// AddDurabilityDamage queues damage for the next idle tick.
func (h *Handler) AddDurabilityDamage(n int) {
	if n > 0 {
		h.pendingDurability += n
	}
}

// PendingDurability is the queued durability damage.
func (h *Handler) PendingDurability() int { return h.pendingDurability }

// ProcessDurability writes queued durability damage to the mainhand. The
// queue is always cleared; creative wielders and broken items take nothing.
// It reports whether the item was written back.
func (h *Handler) ProcessDurability(item *engine.Item) bool {
	n := h.pendingDurability
	if n <= 0 {
		return false
	}
	h.pendingDurability = 0

	a := h.Actor()
	if a.GameMode() == engine.GameModeCreative {
		return false
	}
	if item == nil || item.MaxDurability <= 0 || item.NeedsRepair() {
		return false
	}

	updated := item.Clone()
	updated.Damage += min(updated.RemainingDurability(), n)
	return a.SetMainhand(updated) == nil
}

// Defer runs fn on the next tick if the wielder is still around.
func (h *Handler) Defer(fn func()) {
	h.After(1, fn)
}

// After runs fn after ticks ticks if the wielder is still around.
func (h *Handler) After(ticks int, fn func()) engine.TaskHandle {
	a := h.Actor()
	return h.World().RunTimeout(func() {
		if _, ok := targeting.Lookup(a); !ok {
			return
		}
		fn()
	}, ticks)
}

// Hurt applies damage from the wielder and reports it.
func (h *Handler) Hurt(target engine.Entity, amount float64, cause, attack string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	damaged, err := target.ApplyDamage(amount, engine.DamageSource{Cause: cause, Damager: h.Actor()})
	if err != nil || !damaged {
		return false
	}
	h.observer.Damaged(h.Actor(), target, amount, attack)
	return true
}

// FinalDamage runs the damage model with the configured armor table.
func (h *Handler) FinalDamage(base float64, target engine.Entity) int {
	return damage.FinalDamage(base, target, h.armor)
}

// Shoot fires a beam profile if a beam system is wired.
func (h *Handler) Shoot(profile BeamProfile, attack string) {
	if h.beams == nil {
		return
	}
	h.beams.Shoot(h.Actor(), profile, attack)
}

func (h *Handler) randF(lo, hi float64) float64 { return vec.RandF(h.rng, lo, hi) }

func (h *Handler) randI(lo, hi int) int { return vec.RandI(h.rng, lo, hi) }
