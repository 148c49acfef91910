package slasher

import (
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/damage"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/targeting"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// Beam entity properties and effects
const (
	PropRotationX = "lc:rotation_x"
	PropRotationY = "lc:rotation_y"
	PropRotationZ = "lc:rotation_z"
	PropBit       = "lc:bit"
	PropVisible   = "lc:is_visible"

	ParticleBeamTimeout = "lc:slasher_beam_timeout_emitter"
	SoundHitmarker      = "slasher.beam.hitmarker"
)

const (
	// MaxBeams caps tracked beams; Shoot drops launches past it.
	MaxBeams = 128

	visibleAfter = 2   // ticks before the post-launch check
	stallSpeed   = 0.1 // beams slower than this at the check vanish
)

// BeamInfo is an immutable view of one tracked beam.
type BeamInfo struct {
	ID         string    `json:"id"`
	TypeID     string    `json:"typeId"`
	OwnerID    string    `json:"ownerId"`
	Attack     string    `json:"attack"`
	Index      int       `json:"index"`
	Visible    bool      `json:"visible"`
	Hits       int       `json:"hits"`
	LaunchTick uint64    `json:"launchTick"`
	LaunchedAt time.Time `json:"launchedAt"`
}

type beam struct {
	info    BeamInfo
	profile BeamProfile
	entity  engine.Entity
	hit     map[string]struct{}
	count   int // beams fired in the same volley
}

// BeamConfig for a BeamSystem
type BeamConfig struct {
	World    engine.World
	Armor    damage.ArmorTable
	Rand     *rand.Rand
	Observer Observer
	Logger   *log.Logger
}

// BeamSystem tracks live slash beams and resolves their hits. Engine calls
// happen on the tick thread; the lock only guards the beam map so debug
// readers can call Snapshot concurrently.
type BeamSystem struct {
	mu    sync.RWMutex
	beams map[string]*beam

	world    engine.World
	armor    damage.ArmorTable
	rng      *rand.Rand
	observer Observer
	logger   *log.Logger

	launched uint64
	dropped  uint64
}

// NewBeamSystem creates an empty beam system.
func NewBeamSystem(cfg BeamConfig) *BeamSystem {
	b := &BeamSystem{
		beams:    make(map[string]*beam),
		world:    cfg.World,
		armor:    cfg.Armor,
		rng:      cfg.Rand,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if b.observer == nil {
		b.observer = nopObserver{}
	}
	if b.logger == nil {
		b.logger = log.Default()
	}
	return b
}

// SetObserver replaces the damage observer.
func (b *BeamSystem) SetObserver(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o == nil {
		o = nopObserver{}
	}
	b.observer = o
}

// Shoot launches one beam per profile offset from owner's head along its view.
func (b *BeamSystem) Shoot(owner engine.Actor, profile BeamProfile, attack string) []string {
	dim := owner.Dimension()
	if dim == nil {
		return nil
	}

	head := owner.HeadLocation()
	dir := owner.ViewDirection()
	rot := owner.Rotation()
	vel := owner.Velocity()
	force := vec.ChangeDir(vec.Forward.Scale(profile.Force), dir)

	var ids []string
	for i, offset := range profile.Offsets {
		if b.Len() >= MaxBeams {
			b.mu.Lock()
			b.dropped++
			b.mu.Unlock()
			break
		}

		origin := vec.RelativeToHead(head, dir, offset).Add(vel)
		e, err := dim.SpawnEntity(profile.TypeID, origin)
		if err != nil {
			b.logger.Printf("⚠️ beam spawn %s failed: %v", profile.TypeID, err)
			continue
		}

		_ = e.SetProperty(PropRotationX, rot.X)
		_ = e.SetProperty(PropRotationY, rot.Y)
		_ = e.SetProperty(PropRotationZ, profile.RotationZ)
		if len(profile.Offsets) > 1 {
			_ = e.SetProperty(PropBit, i)
		}
		_ = e.ApplyImpulse(force)

		tracked := &beam{
			info: BeamInfo{
				ID:         e.ID(),
				TypeID:     profile.TypeID,
				OwnerID:    owner.ID(),
				Attack:     attack,
				Index:      i,
				LaunchTick: b.world.CurrentTick(),
				LaunchedAt: time.Now(),
			},
			profile: profile,
			entity:  e,
			hit:     make(map[string]struct{}),
			count:   len(profile.Offsets),
		}

		b.mu.Lock()
		b.beams[tracked.info.ID] = tracked
		b.launched++
		b.mu.Unlock()

		ids = append(ids, tracked.info.ID)
		b.world.RunTimeout(func() { b.checkLaunch(tracked) }, visibleAfter)
	}
	return ids
}

// checkLaunch vanishes beams that stalled right after spawning and reveals
// the rest.
func (b *BeamSystem) checkLaunch(t *beam) {
	if _, ok := targeting.Lookup(t.entity); !ok {
		return
	}
	if b.owner(t) == nil {
		b.discard(t)
		return
	}
	if t.entity.Velocity().Length() <= stallSpeed {
		b.vanish(t, false)
		return
	}
	_ = t.entity.SetProperty(PropVisible, true)

	b.mu.Lock()
	t.info.Visible = true
	b.mu.Unlock()
}

// OnProjectileHitEntity resolves a beam striking an entity. Each beam
// damages a given entity at most once.
func (b *BeamSystem) OnProjectileHitEntity(ev engine.ProjectileHitEntityEvent) {
	defer b.guard("hit entity")

	t := b.lookup(ev.Projectile)
	if t == nil || ev.Target == nil {
		return
	}
	if _, ok := targeting.Lookup(t.entity); !ok {
		return
	}

	// beams never deal ownerless damage
	owner := b.owner(t)
	if owner == nil {
		b.discard(t)
		return
	}
	// ineligible targets let the beam fly through
	if !targeting.CanHurt(b.world, owner, ev.Target) {
		return
	}

	id := ev.Target.ID()
	b.mu.Lock()
	if _, done := t.hit[id]; done {
		b.mu.Unlock()
		return
	}
	t.hit[id] = struct{}{}
	b.mu.Unlock()

	p := t.profile
	amount := p.Damage
	if p.UseDamageModel {
		amount = float64(damage.FinalDamage(p.Damage, ev.Target, b.armor))
	}
	if p.Slowness > 0 {
		_ = ev.Target.AddEffect("slowness", p.Slowness, 0)
	}

	damaged, err := ev.Target.ApplyDamage(amount, engine.DamageSource{Cause: engine.CauseOverride, Damager: owner})
	damaged = damaged && err == nil

	if damaged {
		b.mu.Lock()
		t.info.Hits++
		b.mu.Unlock()

		if p.ClearVelocity {
			_ = ev.Target.ClearVelocity()
		}
		b.hitmarker(owner, ev.Target, p.HitmarkerVolume)
		b.observer.Damaged(owner, ev.Target, amount, t.info.Attack)
	}

	if !damaged && p.KeepOnMiss {
		return
	}
	b.vanish(t, false)
}

// OnProjectileHitBlock vanishes a beam that struck terrain.
func (b *BeamSystem) OnProjectileHitBlock(ev engine.ProjectileHitBlockEvent) {
	defer b.guard("hit block")

	if t := b.lookup(ev.Projectile); t != nil {
		b.vanish(t, false)
	}
}

// OnTrigger handles the beam lifetime timeout.
func (b *BeamSystem) OnTrigger(ev engine.EntityTriggerEvent) {
	defer b.guard("trigger")

	if ev.Name != engine.TriggerTimeout {
		return
	}
	if t := b.lookup(ev.Entity); t != nil {
		b.vanish(t, true)
	}
}

// OnEntityRemoved forgets beams the engine removed on its own.
func (b *BeamSystem) OnEntityRemoved(ev engine.EntityRemovedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.beams, ev.EntityID)
}

// DropOwner discards every beam fired by ownerID and reports how many were
// live. Call it when the owner leaves the world.
func (b *BeamSystem) DropOwner(ownerID string) int {
	b.mu.RLock()
	var owned []*beam
	for _, t := range b.beams {
		if t.info.OwnerID == ownerID {
			owned = append(owned, t)
		}
	}
	b.mu.RUnlock()

	for _, t := range owned {
		b.discard(t)
	}
	return len(owned)
}

// Len is the number of tracked beams.
func (b *BeamSystem) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.beams)
}

// Info returns a copy of one beam's record.
func (b *BeamSystem) Info(id string) (BeamInfo, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.beams[id]
	if !ok {
		return BeamInfo{}, false
	}
	return t.info, true
}

// Snapshot returns every tracked beam ordered by launch.
func (b *BeamSystem) Snapshot() []BeamInfo {
	b.mu.RLock()
	out := make([]BeamInfo, 0, len(b.beams))
	for _, t := range b.beams {
		out = append(out, t.info)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LaunchTick != out[j].LaunchTick {
			return out[i].LaunchTick < out[j].LaunchTick
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// GetStats returns counters for the debug API.
func (b *BeamSystem) GetStats() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return map[string]interface{}{
		"active":   len(b.beams),
		"launched": b.launched,
		"dropped":  b.dropped,
	}
}

func (b *BeamSystem) lookup(e engine.Entity) *beam {
	if e == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.beams[e.ID()]
}

func (b *BeamSystem) owner(t *beam) engine.Actor {
	e, ok := b.world.Entity(t.info.OwnerID)
	if !ok {
		return nil
	}
	a, ok := engine.AsActor(e)
	if !ok || !a.IsValid() {
		return nil
	}
	return a
}

// hitmarker plays the confirm sound one block from the owner's head toward
// the target.
func (b *BeamSystem) hitmarker(owner engine.Actor, target engine.Entity, volume float64) {
	head := owner.HeadLocation()
	loc := head.Add(target.Location().Add(vec.Up).Sub(head).Normalize())
	opts := engine.Sound(volume, vec.RandF(b.rng, 0.95, 1.05))
	opts.Location = &loc
	_ = owner.PlaySound(SoundHitmarker, opts)
}

// vanish spawns the vanish particle and removes the beam. On timeout only
// the middle beam of a volley leaves a particle.
func (b *BeamSystem) vanish(t *beam, timeout bool) {
	b.mu.Lock()
	delete(b.beams, t.info.ID)
	b.mu.Unlock()

	e := t.entity
	if _, ok := targeting.Lookup(e); !ok {
		return
	}

	if dim := e.Dimension(); dim != nil {
		switch {
		case timeout && (t.count <= 1 || t.info.Index == t.count/2):
			_ = dim.SpawnParticle(ParticleBeamTimeout, e.Location())
		case !timeout && t.profile.HitParticle != "":
			_ = dim.SpawnParticle(t.profile.HitParticle, e.Location())
		}
	}
	_ = e.Remove()
}

// discard removes a beam without any effects.
func (b *BeamSystem) discard(t *beam) {
	b.mu.Lock()
	delete(b.beams, t.info.ID)
	b.mu.Unlock()

	if _, ok := targeting.Lookup(t.entity); ok {
		_ = t.entity.Remove()
	}
}

func (b *BeamSystem) guard(what string) {
	if r := recover(); r != nil {
		b.logger.Printf("⚠️ beam %s handler panicked: %v", what, r)
	}
}
