package slasher

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
)

type idleState struct {
	baseState
}

func newIdle(h *Handler) *idleState {
	return &idleState{baseState{h: h}}
}

func (s *idleState) Name() string { return StateIdle }

func (s *idleState) OnTick(item *engine.Item) {
	if item.NeedsRepair() {
		s.h.ActionBar("slasher.repairNeeded")
		return
	}
	if s.h.ProcessDurability(item) {
		return
	}
	if !s.h.IsUsing() {
		return
	}
	s.h.ChangeState(newCharging(s.h))
}

func (s *idleState) OnStartUse(engine.StartUseEvent) {
	_ = s.h.Actor().PlaySound("random.click", engine.Sound(0.8, 1.4))
}

func (s *idleState) OnHitEntity(engine.HitEntityEvent) {
	s.h.ChangeState(mustQuickAttack(s.h, 0))
}

func (s *idleState) OnHitBlock(engine.HitBlockEvent) {
	s.h.ChangeState(mustQuickAttack(s.h, 0))
}
