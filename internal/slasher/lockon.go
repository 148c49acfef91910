package slasher

import (
	"fmt"
	"math"
	"strings"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/targeting"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// Shared effect ids
const (
	EventChainsawed = "lc:on_getting_chainsawed"
	ParticleSpark   = "lc:slasher_spark_particle"
)

// lockonState anchors the wielder next to its first target and saws every
// locked target each tick while sneak is held.
type lockonState struct {
	baseState

	targets     []engine.Entity
	attackerLoc vec.Vec3
	facing      vec.Vec3
	lockLoc     vec.Vec3
	nextCrit    int
	endingStart int
	unlocked    bool
}

func newLockon(h *Handler, targets []engine.Entity) *lockonState {
	return &lockonState{
		baseState:   baseState{h: h},
		targets:     append([]engine.Entity(nil), targets...),
		endingStart: -1,
	}
}

func (s *lockonState) Name() string { return StateLockon }

// Targets returns the entities still locked.
func (s *lockonState) Targets() []engine.Entity {
	return append([]engine.Entity(nil), s.targets...)
}

func (s *lockonState) Enter() {
	s.h.SetCooldown("slasher_charged_atk_hold", 2)
	s.h.SetCooldown("slasher_charged_atk_start", 2)

	if len(s.targets) == 0 {
		return
	}

	a := s.h.Actor()
	first := s.targets[0].Location()
	s.attackerLoc = first.Add(a.Location().Sub(first).Normalize())
	s.facing = first
	s.lockLoc = first
	_ = a.Teleport(s.attackerLoc, &s.facing)

	t := s.h.tuning.Lockon
	s.nextCrit = s.h.randI(t.FirstCritMin, t.FirstCritMax)
}

func (s *lockonState) OnTick(*engine.Item) {
	if len(s.targets) == 0 {
		if s.endingStart == -1 {
			s.endingStart = s.tick
		}
		s.tickEnding()
		return
	}
	s.tickLocked()
}

func (s *lockonState) OnHitEntity(engine.HitEntityEvent) { s.breakOut() }

func (s *lockonState) OnHitBlock(engine.HitBlockEvent) { s.breakOut() }

func (s *lockonState) breakOut() {
	if !s.unlocked {
		return
	}
	_ = s.h.Actor().RemoveEffect("weakness")
	s.h.ChangeState(mustQuickAttack(s.h, 0))
}

func (s *lockonState) tickEnding() {
	t := s.h.tuning.Lockon
	e := s.tick - s.endingStart

	switch e {
	case 0:
		s.h.SetCooldown("slasher_charged_atk_end", 2)
		s.h.PlaySound3DAnd2D("slasher.charged_atk", 10, engine.Sound(1.3, 1))
		s.h.PlayAnimation("animation.slasher.tp.charged_atk_end")
	case t.EndUnlock:
		s.unlocked = true
	}

	if s.unlocked && s.h.IsUsing() {
		s.h.ChangeState(newCharging(s.h))
		return
	}
	if e >= t.EndDuration {
		s.h.SetCooldown("slasher_pick", 2)
		s.h.ChangeState(newIdle(s.h))
	}
}

func (s *lockonState) tickLocked() {
	if !s.h.IsSneaking() {
		s.h.PlaySound3DAnd2D("slasher.chainsaw.finish", 10, engine.Sound(1.2, 1))
		s.targets = nil
		return
	}

	if s.tick%2 == 0 {
		s.h.AddEffect("weakness", 3, 255)
	}
	if s.tick%8 == 0 {
		s.h.PlaySound3DAnd2D("slasher.chainsaw.loop", 15, engine.Sound(1, 1))
	}

	s.saw()
}

func (s *lockonState) saw() {
	t := s.h.tuning.Lockon
	a := s.h.Actor()
	_ = a.Teleport(s.attackerLoc, &s.facing)

	if s.tick == s.nextCrit {
		loc := a.HeadLocation().Add(vec.ChangeDir(vec.Forward.Scale(0.45), a.ViewDirection()))
		if dim := a.Dimension(); dim != nil {
			_ = dim.SpawnParticle(ParticleSpark, loc)
		}
		_ = a.PlaySound("slasher.critical", engine.Sound(0.4, s.h.randF(0.98, 1.08)))
		s.nextCrit += s.h.randI(t.CritIntervalLo, t.CritIntervalHi)
	}

	s.h.ShakeCamera(0.08, 0.1)
	if s.tick%3 == 0 {
		s.h.PlayAnimation("animation.slasher.tp.charged_atk_hold")
	}

	// the first held target is primary even if this tick kills it
	primaryDone := false
	live := s.targets[:0]
	for _, target := range s.targets {
		if !s.holds(target) {
			continue
		}
		primary := !primaryDone
		primaryDone = true

		_ = target.Teleport(s.lockLoc, nil)
		_ = target.ClearVelocity()

		var name string
		var maxHealth float64
		if primary {
			name = EntityName(target)
			_, maxHealth, _ = target.Health()
		}

		if s.h.Hurt(target, t.Damage, engine.CauseOverride, AttackLockon) {
			_ = target.AddEffect("slowness", t.Slowness, 0)
			_ = target.TriggerEvent(EventChainsawed)

			if primary {
				if s.tick%2 == 0 {
					s.h.AddDurabilityDamage(1)
				}
				s.showHealth(target, name, maxHealth)
			}
		}

		// a target this tick killed is dropped right away
		if s.holds(target) {
			live = append(live, target)
		}
	}
	for i := len(live); i < len(s.targets); i++ {
		s.targets[i] = nil
	}
	s.targets = live
}

// holds reports whether target can stay locked.
func (s *lockonState) holds(target engine.Entity) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if _, valid := targeting.Lookup(target); !valid {
		return false
	}
	for _, tag := range s.h.tuning.ChargedAttack.LockonFilter.ExcludeTags {
		if target.HasTag(tag) {
			return false
		}
	}
	cur, _, err := target.Health()
	return err != nil || cur > 0
}

// showHealth reads 0 for a target the saw just removed.
func (s *lockonState) showHealth(target engine.Entity, name string, maxHealth float64) {
	cur, _, err := target.Health()
	if err != nil {
		cur = 0
	}

	color := "§e"
	switch {
	case cur <= 0:
		color = "§c"
	case cur <= s.h.tuning.Lockon.LowHealth:
		color = "§d"
		if s.h.World().CurrentTick()%2 == 0 {
			color = "§b"
		}
	}

	s.h.ActionBar(fmt.Sprintf("%s%s - ❤ %d / %d", color, name, int(math.Floor(cur)), int(math.Floor(maxHealth))))
}

// EntityName is a display name: the player name, or the type id without its
// namespace.
func EntityName(e engine.Entity) string {
	if a, ok := engine.AsActor(e); ok {
		return a.Name()
	}
	id := e.TypeID()
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[i+1:]
	}
	return strings.ReplaceAll(id, "_", " ")
}
