package slasher

import (
	"fmt"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/targeting"
)

var quickAttackAnims = [2]string{
	"animation.slasher.tp.fast_atk_1",
	"animation.slasher.tp.fast_atk_2",
}

var quickAttackCooldowns = [2]string{
	"slasher_fast_atk_1",
	"slasher_fast_atk_2",
}

// quickAttackState chains fast slashes. Each queued swing sweeps the area in
// front of the head and fires the fast beams.
type quickAttackState struct {
	baseState

	untilExit int
	cooldown  int
	queued    bool
	nextAnim  int
}

func newQuickAttack(h *Handler, animSlot int) (*quickAttackState, error) {
	if animSlot < 0 || animSlot >= len(quickAttackAnims) {
		return nil, fmt.Errorf("%w: animation slot %d", ErrInvalidTransitionArgument, animSlot)
	}
	return &quickAttackState{
		baseState: baseState{h: h},
		untilExit: h.tuning.QuickAttack.Lifespan,
		queued:    true,
		nextAnim:  animSlot,
	}, nil
}

func mustQuickAttack(h *Handler, animSlot int) *quickAttackState {
	s, err := newQuickAttack(h, animSlot)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *quickAttackState) Name() string { return StateQuickAttack }

func (s *quickAttackState) OnTick(*engine.Item) {
	t := s.h.tuning.QuickAttack

	if s.untilExit <= 0 {
		s.h.ChangeState(newIdle(s.h))
		return
	}

	if s.untilExit < t.PreventCharge && s.h.IsUsing() {
		s.resetAnimationCooldowns()
		s.h.ChangeState(newCharging(s.h))
		return
	}

	s.untilExit--

	if s.cooldown > 0 {
		s.cooldown--
		return
	}
	if !s.queued {
		return
	}

	defer func() { s.queued = false }()
	s.swing()
}

func (s *quickAttackState) OnHitEntity(engine.HitEntityEvent) { s.queued = true }

func (s *quickAttackState) OnHitBlock(engine.HitBlockEvent) { s.queued = true }

func (s *quickAttackState) OnStopUse(engine.StopUseEvent) { s.queued = true }

func (s *quickAttackState) resetAnimationCooldowns() {
	for _, c := range quickAttackCooldowns {
		s.h.SetCooldown(c, 0)
	}
}

func (s *quickAttackState) swing() {
	t := s.h.tuning.QuickAttack
	s.untilExit = t.Lifespan
	s.cooldown += t.SwingCooldown

	slot := s.nextAnim
	s.h.SetCooldown(quickAttackCooldowns[slot], t.Lifespan)
	s.h.SetCooldown(quickAttackCooldowns[1-slot], 0)
	s.h.PlayAnimation(quickAttackAnims[slot])
	s.nextAnim = 1 - slot

	s.h.ShakeCamera(0.05, 0.09)
	s.h.PlaySoundAtHeadFront("slasher.fast_atk", engine.Sound(1, 1))

	s.h.Defer(func() {
		s.h.Shoot(s.h.tuning.FastBeam, AttackFastBeam)
		s.sweep()
	})
}

// sweep hurts everything close to the head front.
func (s *quickAttackState) sweep() {
	t := s.h.tuning.QuickAttack
	filter := targeting.Filter{ExcludeTypes: targeting.NonCombatTypes}
	targets := targeting.Nearby(s.h.World(), s.h.Actor(), s.h.HeadFront(), t.SweepRadius, t.SweepClosest, filter)

	for _, e := range targets {
		dmg := max(1, s.h.FinalDamage(t.SwingDamage, e))
		if s.h.Hurt(e, float64(dmg), engine.CauseEntityAttack, AttackQuickSweep) {
			s.h.AddDurabilityDamage(1)
		}
	}
}
