package slasher

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
)

var chargeFrames = []string{
	">    X    <",
	">   X   <",
	">  X  <",
	"> X <",
	">X<",
}

const (
	stormFrame     = "> >X< <"
	stormFullFrame = ">>X<<"
)

// chargingState holds the use button. Releasing before the threshold falls
// back to a quick attack; releasing after it picks the charged attack, the
// plunge or, while gliding, the storm slash.
type chargingState struct {
	baseState
	storm bool
}

func newCharging(h *Handler) *chargingState {
	return &chargingState{baseState: baseState{h: h}}
}

func (s *chargingState) Name() string { return StateCharging }

func (s *chargingState) Enter() {
	s.storm = s.h.Actor().IsGliding()
}

func (s *chargingState) OnTick(*engine.Item) {
	t := s.h.tuning.Charging
	a := s.h.Actor()

	if s.storm && !a.IsGliding() {
		s.storm = false
	}

	// a stop-use we never saw still ends the charge
	if !s.h.IsUsing() {
		s.release()
		return
	}

	s.h.ActionBar(s.frame())

	if s.tick == 0 {
		s.h.SetCooldown("slasher_charging_start", 2)
		s.h.PlayAnimation("animation.slasher.tp.charging_start")
	}
	if s.tick > 0 && s.tick%t.HoldAnimEvery == 0 {
		s.h.PlayAnimation("animation.slasher.tp.charging_hold")
	}
	if s.tick == 1 || (s.tick != 0 && s.tick%t.LoopSoundEvery == 0) {
		s.h.PlaySoundAtHeadFront("slasher.charge_loop", engine.Sound(1, 1))
	}
	if s.storm && s.tick == t.StormThreshold-1 {
		_ = a.PlaySound("slasher.charged_storm_slash", engine.Sound(1, 1))
		s.h.SetCooldown("slasher_charge_dash", 2)
	}
}

func (s *chargingState) OnStopUse(engine.StopUseEvent) {
	s.release()
}

func (s *chargingState) frame() string {
	t := s.h.tuning.Charging
	last := len(chargeFrames) - 1

	if s.tick < t.Threshold {
		i := min(s.tick*len(chargeFrames)/t.Threshold, last)
		return "§c" + chargeFrames[i]
	}
	if s.storm {
		if s.tick < t.StormThreshold {
			return "§c" + stormFrame
		}
		if s.tick%2 == 0 {
			return "§l§b" + stormFullFrame
		}
		return "§l§d" + stormFullFrame
	}
	if s.tick%2 == 0 {
		return "§d" + chargeFrames[last]
	}
	return "§b" + chargeFrames[last]
}

func (s *chargingState) release() {
	t := s.h.tuning.Charging

	if s.tick < t.Threshold {
		s.h.ChangeState(mustQuickAttack(s.h, 0))
		s.h.Defer(func() { s.h.ActionBar("§8---") })
		return
	}

	if s.storm && s.tick >= t.StormThreshold {
		s.h.ActionBar("§l§c< < X > >")
		s.h.ChangeState(newStormWindup(s.h))
		return
	}

	a := s.h.Actor()
	if !a.IsOnGround() && a.Rotation().X > t.PlungeMinPitch && a.IsJumping() {
		s.h.ChangeState(newPlungeWindup(s.h))
		return
	}

	s.h.ActionBar("§c< X >")
	s.h.ChangeState(newChargedAttack(s.h))
}
