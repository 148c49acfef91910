package slasher

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/targeting"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// Storm slash: a glide charge released into a long forward strike.

type stormWindupState struct {
	baseState
	untilStrike int
}

func newStormWindup(h *Handler) *stormWindupState {
	return &stormWindupState{baseState: baseState{h: h}, untilStrike: h.tuning.Storm.Windup}
}

func (s *stormWindupState) Name() string { return StateStormWindup }

func (s *stormWindupState) Enter() {
	s.h.ShakeCamera(0.04, 0.3)
	s.h.SetCooldown("slasher_storm_slash_windup", 2)
	s.h.PlaySound3DAnd2D("slasher.storm_slash_windup", 15, engine.Sound(1.5, 1))
}

func (s *stormWindupState) OnTick(*engine.Item) {
	if s.untilStrike > 0 {
		s.untilStrike--
		return
	}
	if s.h.Actor().IsGliding() {
		s.h.ChangeState(newStormStrike(s.h))
		return
	}
	s.h.SetCooldown("slasher_pick", 2)
	s.h.ChangeState(newIdle(s.h))
}

type stormStrikeState struct {
	baseState
	untilFinish int
}

func newStormStrike(h *Handler) *stormStrikeState {
	return &stormStrikeState{baseState: baseState{h: h}, untilFinish: h.tuning.Storm.StrikeTicks}
}

func (s *stormStrikeState) Name() string { return StateStormStrike }

func (s *stormStrikeState) Enter() {
	a := s.h.Actor()
	s.addEffects()
	_ = a.ApplyImpulse(vec.ChangeDir(vec.New(0, 0, s.h.tuning.Storm.StrikeForce), a.ViewDirection()))

	s.h.ShakeCamera(0.1, 0.04)
	s.h.SetCooldown("slasher_storm_slash_strike", 2)
	s.h.PlaySound3DAnd2D("slasher.storm_slash_strike", 15, engine.Sound(1.5, s.h.randF(0.94, 1.03)))
}

func (s *stormStrikeState) OnTick(*engine.Item) {
	if s.untilFinish > 0 {
		s.untilFinish--
	} else {
		s.h.ChangeState(newStormFinish(s.h))
		return
	}

	if s.shouldImpact() {
		s.h.ChangeState(newStormImpact(s.h))
		return
	}

	s.addEffects()
	_ = s.h.Actor().ApplyImpulse(s.forwardForce())
	s.h.ShakeCamera(0.08, 0.05)
}

// forwardForce pushes harder the further velocity strays from the view.
func (s *stormStrikeState) forwardForce() vec.Vec3 {
	t := s.h.tuning.Storm
	a := s.h.Actor()
	view := a.ViewDirection()
	angle := vec.Angle(a.Velocity().Normalize(), view)
	force := max(t.MinForce, angle/t.AngleDivisor)
	return vec.ChangeDir(vec.New(0, 0, force), view)
}

func (s *stormStrikeState) shouldImpact() bool {
	a := s.h.Actor()
	if !a.IsGliding() {
		return true
	}
	speed := a.Velocity().Length()
	if speed < 0.1 {
		return true
	}
	dim := a.Dimension()
	if dim == nil {
		return false
	}
	_, blocked := dim.RaycastBlock(a.HeadLocation(), a.ViewDirection(), max(1, speed))
	return blocked
}

func (s *stormStrikeState) addEffects() {
	s.h.AddEffect("resistance", 12, 255)
	s.h.AddEffect("weakness", 12, 255)
}

type stormImpactState struct {
	baseState
	untilExit int
}

func newStormImpact(h *Handler) *stormImpactState {
	return &stormImpactState{baseState: baseState{h: h}, untilExit: h.tuning.Storm.ImpactTicks}
}

func (s *stormImpactState) Name() string { return StateStormImpact }

func (s *stormImpactState) Enter() {
	t := s.h.tuning.Storm
	s.h.SetCooldown("slasher_storm_slash_impact", 2)
	s.h.PlaySound3DAnd2D("slasher.storm_slash_impact", 15, engine.Sound(1.6, 1))
	s.h.ShakeCamera(0.2, 0.3)

	filter := targeting.Filter{ExcludeTypes: targeting.NonCombatTypes}
	for _, e := range targeting.Nearby(s.h.World(), s.h.Actor(), s.h.BodyLocation(), t.ImpactRadius, 0, filter) {
		dmg := s.h.FinalDamage(t.ImpactDamage, e)
		if s.h.Hurt(e, float64(dmg), engine.CauseEntityAttack, AttackStorm) {
			s.h.AddDurabilityDamage(1)
		}
	}
}

func (s *stormImpactState) OnTick(*engine.Item) {
	if s.untilExit > 0 {
		s.untilExit--
	} else {
		s.h.SetCooldown("slasher_pick", 2)
		s.h.ChangeState(newIdle(s.h))
		return
	}
	if s.tick == 1 {
		_ = s.h.Actor().ClearVelocity()
	}
}

// stormFinishState is the strike running out without hitting anything.
type stormFinishState struct {
	baseState
	untilExit int
}

func newStormFinish(h *Handler) *stormFinishState {
	return &stormFinishState{baseState: baseState{h: h}, untilExit: h.tuning.Storm.ImpactTicks}
}

func (s *stormFinishState) Name() string { return StateStormFinish }

func (s *stormFinishState) Enter() {
	s.h.PlaySound3DAnd2D("slasher.power_slash", 15, engine.Sound(1.3, 1.04))
}

func (s *stormFinishState) OnTick(*engine.Item) {
	if s.untilExit > 0 {
		s.untilExit--
		return
	}
	s.h.SetCooldown("slasher_pick", 2)
	s.h.ChangeState(newIdle(s.h))
}
