package slasher

import (
	"math"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/targeting"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// GroundImpactSpawner marks a heavy landing for the host's particle effects.
const GroundImpactSpawner = "lc:ground_impact_particle_spawner"

type plungeWindupState struct {
	baseState
}

func newPlungeWindup(h *Handler) *plungeWindupState {
	return &plungeWindupState{baseState{h: h}}
}

func (s *plungeWindupState) Name() string { return StatePlungeWindup }

func (s *plungeWindupState) Enter() {
	t := s.h.tuning.Plunge
	s.h.AddEffect("weakness", t.WindupDuration+2, 255)
	s.h.AddEffect("resistance", t.WindupDuration+5, 255)

	s.h.Defer(func() { _ = s.h.Actor().ApplyImpulse(t.RiseForce) })

	s.h.PlaySound3DAnd2D("slasher.plunge_windup", 15, engine.Sound(1.7, 1.2))
	s.h.SetCooldown("slasher_plunge_windup", 2)
	s.h.PlayAnimation("animation.slasher.tp.plunge_windup")
}

func (s *plungeWindupState) OnTick(*engine.Item) {
	if s.tick < s.h.tuning.Plunge.WindupDuration {
		return
	}
	s.h.ChangeState(newPlungeFall(s.h, s.h.Actor().Location().Y))
}

// plungeFallState drives the wielder down until the ground is close.
type plungeFallState struct {
	baseState
	startHeight float64
}

func newPlungeFall(h *Handler, startHeight float64) *plungeFallState {
	return &plungeFallState{baseState: baseState{h: h}, startHeight: startHeight}
}

func (s *plungeFallState) Name() string { return StatePlungeFall }

func (s *plungeFallState) Enter() {
	s.addEffects()
	s.h.PlaySound3DAnd2D("slasher.charged_atk", 12, engine.Sound(1.3, s.h.randF(0.8, 0.9)))
	_ = s.h.Actor().ApplyImpulse(s.h.tuning.Plunge.FallForce)
	s.h.SetCooldown("slasher_plunge_fall", 2)
	s.h.PlayAnimation("animation.slasher.tp.plunge_fall")
}

func (s *plungeFallState) OnTick(*engine.Item) {
	if s.tick%3 == 0 {
		s.addEffects()
	}
	if s.tick == 0 {
		return
	}
	if s.tick%5 == 0 {
		s.h.PlayAnimation("animation.slasher.tp.plunge_fall_hold")
	}

	a := s.h.Actor()
	vy := a.Velocity().Y
	found := false
	if dim := a.Dimension(); dim != nil {
		_, found = dim.RaycastBlock(a.Location(), vec.Down, math.Abs(vy*2))
	}
	if !found && vy < -0.5 {
		return
	}
	s.h.ChangeState(newPlungeImpact(s.h, s.startHeight))
}

func (s *plungeFallState) addEffects() {
	s.h.AddEffect("resistance", 6, 255)
	s.h.AddEffect("weakness", 10, 255)
}

// plungeImpactState lands the smash. Damage and radius grow with the depth
// fallen since the windup ended.
type plungeImpactState struct {
	baseState
	depth float64
}

func newPlungeImpact(h *Handler, startHeight float64) *plungeImpactState {
	return &plungeImpactState{
		baseState: baseState{h: h},
		depth:     startHeight - h.Actor().Location().Y,
	}
}

func (s *plungeImpactState) Name() string { return StatePlungeImpact }

// Depth is the fallen distance in blocks.
func (s *plungeImpactState) Depth() float64 { return s.depth }

func (s *plungeImpactState) highFall() bool {
	return s.depth >= s.h.tuning.Plunge.HighFall
}

func (s *plungeImpactState) Enter() {
	t := s.h.tuning.Plunge
	a := s.h.Actor()
	s.h.AddEffect("weakness", 8, 255)

	if s.depth <= t.MinDepth || (!a.IsFalling() && !a.IsOnGround()) {
		s.h.PlaySoundAtHeadFront("mace.smash_air", engine.Sound(1.1, 1))
		return
	}

	s.h.AddDurabilityDamage(int(math.Ceil(s.depth / 2)))

	impact := s.impactLocation()
	s.h.Defer(func() { s.hurtNearby(impact) })

	dim := a.Dimension()
	if s.highFall() {
		s.h.PlaySoundAtHeadFront("mace.heavy_smash_ground", engine.Sound(1.1, 1))
		s.h.PlaySound3DAnd2D("slasher.plunge_impact", 20, engine.Sound(1.8, s.impactPitch()))
		if dim != nil {
			_, _ = dim.SpawnEntity(GroundImpactSpawner, impact)
		}
	} else {
		s.h.PlaySoundAtHeadFront("mace.smash_ground", engine.Sound(1.1, 1))
		s.h.PlaySoundAtHeadFront("slasher.critical", engine.Sound(1.4, 1))
	}

	s.h.SetCooldown("slasher_plunge_impact", 2)
	if dim != nil {
		_ = dim.SpawnParticle(ParticleSpark, impact.Add(vec.New(0, 0.9, 0)))
		for _, p := range dim.Players(engine.EntityQuery{Location: impact, MaxDistance: t.ShakeRadius}) {
			_ = p.ShakeCamera(0.3, 0.35, ShakeRotational)
		}
	}
	s.h.PlayAnimation("animation.slasher.tp.plunge_impact")
}

func (s *plungeImpactState) impactPitch() float64 {
	switch {
	case s.depth > 50:
		return 0.7
	case s.depth > 20:
		return s.h.randF(0.85, 0.95)
	default:
		return 1
	}
}

// impactLocation is the ground surface under the wielder.
func (s *plungeImpactState) impactLocation() vec.Vec3 {
	a := s.h.Actor()
	dim := a.Dimension()
	if dim == nil {
		return a.Location()
	}
	hit, ok := dim.RaycastBlock(a.Location().Add(vec.New(0, -1, 0)), vec.Down, s.h.tuning.Plunge.ImpactRay)
	if !ok {
		return a.Location()
	}
	return hit.Location.Add(hit.FaceLocation).Add(vec.New(0, 0.1, 0))
}

// PlungeDamage is the smash damage for a fall of depth blocks.
func (t PlungeTuning) PlungeDamage(depth float64) float64 {
	return math.Round(depth * t.DamagePerDepth)
}

func (s *plungeImpactState) hurtNearby(impact vec.Vec3) {
	t := s.h.tuning.Plunge
	a := s.h.Actor()
	dim := a.Dimension()
	if dim == nil {
		return
	}
	dmg := t.PlungeDamage(s.depth)
	raised := impact.Add(vec.New(0, 2, 0))

	for _, e := range targeting.Nearby(s.h.World(), a, impact, t.PlungeRadius(s.depth), t.Closest, t.Filter) {
		loc := e.Location()
		dist := loc.Distance(impact)

		if dist >= 2 && !e.IsOnGround() {
			continue
		}
		// farther targets need a clear line from the impact
		if dist >= 3 && !targeting.RayHits(dim, impact, loc.Sub(impact), 0, e) &&
			!targeting.RayHits(dim, raised, loc.Sub(raised), 0, e) {
			continue
		}

		s.h.Hurt(e, dmg, engine.CauseMaceSmash, AttackPlunge)
		_ = e.AddEffect("slowness", t.Slowness, t.SlownessLevel)
	}
}

func (s *plungeImpactState) OnTick(*engine.Item) {
	t := s.h.tuning.Plunge
	if s.tick >= t.Unlock && s.h.IsUsing() {
		s.h.ChangeState(newCharging(s.h))
		return
	}
	if s.tick >= t.End {
		s.h.ChangeState(newIdle(s.h))
		s.h.SetCooldown("slasher_pick", 2)
	}
}

func (s *plungeImpactState) OnHitEntity(engine.HitEntityEvent) { s.breakOut() }

func (s *plungeImpactState) OnHitBlock(engine.HitBlockEvent) { s.breakOut() }

func (s *plungeImpactState) breakOut() {
	if s.tick < s.h.tuning.Plunge.Unlock {
		return
	}
	s.h.ChangeState(mustQuickAttack(s.h, 0))
}
