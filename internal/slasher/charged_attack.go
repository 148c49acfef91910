package slasher

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/targeting"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// chargedAttackState is the full-charge slash: an optional dash on the first
// tick, then a damaging window probing in front of the wielder.
type chargedAttackState struct {
	baseState

	weakness bool
	start    int
	hit      map[string]struct{}
}

func newChargedAttack(h *Handler) *chargedAttackState {
	return &chargedAttackState{
		baseState: baseState{h: h},
		weakness:  true,
		hit:       make(map[string]struct{}),
	}
}

func (s *chargedAttackState) Name() string { return StateChargedAttack }

func (s *chargedAttackState) during() bool {
	return s.tick >= s.start && s.tick < s.start+s.h.tuning.ChargedAttack.Damaging
}

func (s *chargedAttackState) after() bool {
	return s.tick >= s.start+s.h.tuning.ChargedAttack.Damaging
}

func (s *chargedAttackState) OnTick(*engine.Item) {
	t := s.h.tuning.ChargedAttack

	if s.weakness && s.tick%2 == 0 {
		s.h.AddEffect("weakness", 3, 255)
	}

	if s.tick == 0 {
		s.dash()
	}

	if s.during() {
		s.attack(s.tick - s.start)
		if s.h.state != State(s) {
			return
		}
	}

	if !s.after() {
		return
	}
	s.weakness = false

	if s.h.IsUsing() {
		s.h.ChangeState(newCharging(s.h))
		return
	}
	if s.tick >= s.start+t.Total {
		s.h.ChangeState(newIdle(s.h))
	}
}

func (s *chargedAttackState) OnHitEntity(engine.HitEntityEvent) {
	if s.after() {
		s.h.ChangeState(mustQuickAttack(s.h, 0))
	}
}

func (s *chargedAttackState) OnHitBlock(engine.HitBlockEvent) {
	if s.after() {
		s.h.ChangeState(mustQuickAttack(s.h, 0))
	}
}

func (s *chargedAttackState) dash() {
	t := s.h.tuning.ChargedAttack
	a := s.h.Actor()
	if a.MovementVector().Y <= t.DashInput {
		return
	}

	impulse := vec.ChangeDir(vec.Forward.Scale(t.AirDashForce), a.ViewDirection())
	s.start = t.AirDashStart
	if a.IsOnGround() {
		impulse = impulse.Flatten().Normalize().Scale(t.GroundDashForce)
		s.start = t.GroundDashStart
	}
	_ = a.ApplyImpulse(impulse)

	s.h.SetCooldown("slasher_dash", 2)
	s.h.PlaySound3DAnd2D("slasher.dash", 10, engine.Sound(1.3, 1))
	s.h.ShakeCamera(0.05, 0.08)
	s.h.PlayAnimation("animation.slasher.tp.charging_hold")
}

func (s *chargedAttackState) attack(atkTick int) {
	t := s.h.tuning.ChargedAttack
	lockon := atkTick == 0 && s.h.IsSneaking()
	targets := s.targets(lockon)

	switch atkTick {
	case 0:
		s.h.PlaySound3DAnd2D("slasher.charged_atk", 10, engine.Sound(1.3, 1))
		s.h.PlayAnimation("animation.slasher.tp.charged_atk_start")

		if lockon && len(targets) > 0 {
			s.h.ChangeState(newLockon(s.h, targets))
			return
		}

		s.h.SetCooldown("slasher_charged_atk_continue", 4)
		s.h.SetCooldown("slasher_charged_atk_start", 2)
		s.h.ShakeCamera(0.07, 0.08)
	case 1:
		s.h.Shoot(s.h.tuning.ChargedBeam, AttackChargedBeam)
		s.h.PlayAnimation("animation.slasher.tp.charged_atk_end")
	}

	for i, target := range targets {
		id := target.ID()
		if _, done := s.hit[id]; done {
			continue
		}

		dmg := s.h.FinalDamage(t.Damage, target)
		if !s.h.Hurt(target, float64(dmg), engine.CauseOverride, AttackCharged) {
			continue
		}
		_ = target.TriggerEvent(EventChainsawed)
		s.hit[id] = struct{}{}
		s.h.AddDurabilityDamage(2)

		if i >= t.CritFeedback {
			continue
		}
		s.critFeedback(target, i)
	}
}

func (s *chargedAttackState) critFeedback(target engine.Entity, delay int) {
	a := s.h.Actor()
	if dim := a.Dimension(); dim != nil {
		_ = dim.SpawnParticle(ParticleSpark, vec.Midpoint(a.HeadLocation(), target.HeadLocation()))
	}
	s.h.ShakeCamera(0.13, 0.26)

	opts := engine.Sound(1.1, s.h.randF(1, 1.08))
	play := func() { s.h.PlaySoundAtHeadFront("slasher.critical", opts) }
	if delay == 0 {
		play()
		return
	}
	s.h.After(delay, play)
}

func (s *chargedAttackState) targets(lockon bool) []engine.Entity {
	t := s.h.tuning.ChargedAttack
	filter := t.AttackFilter
	if lockon {
		filter = filter.Merge(t.LockonFilter)
	}
	return targeting.Acquire(s.h.World(), s.h.Actor(), t.Probes, targeting.Options{
		Filter:         filter,
		RequireRaycast: true,
		HeadFront:      s.h.HeadFront(),
	})
}
