package slasher

import (
	"errors"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
)

// ErrInvalidTransitionArgument is returned by state constructors given an
// out-of-range discriminator.
var ErrInvalidTransitionArgument = errors.New("invalid state transition argument")

// State names
const (
	StateIdle          = "idle"
	StateQuickAttack   = "quick_attack"
	StateCharging      = "charging"
	StateChargedAttack = "charged_attack"
	StateLockon        = "lockon"
	StatePlungeWindup  = "plunge_windup"
	StatePlungeFall    = "plunge_fall"
	StatePlungeImpact  = "plunge_impact"
	StateStormWindup   = "storm_windup"
	StateStormStrike   = "storm_strike"
	StateStormImpact   = "storm_impact"
	StateStormFinish   = "storm_finish"
)

// State is one node of the weapon graph. Only Handler.ChangeState swaps the
// current state.
type State interface {
	Name() string
	Enter()
	Exit()
	// OnTick is the body for one tick. CurrentTick counts the ticks that
	// completed before this call.
	OnTick(item *engine.Item)
	CanStartUse(ev engine.StartUseEvent) bool
	OnStartUse(ev engine.StartUseEvent)
	OnStopUse(ev engine.StopUseEvent)
	OnHitBlock(ev engine.HitBlockEvent)
	OnHitEntity(ev engine.HitEntityEvent)

	base() *baseState
}

// baseState defaults every hook. Embed it by value.
type baseState struct {
	h    *Handler
	tick int
}

func (b *baseState) base() *baseState { return b }

func (b *baseState) advance() { b.tick++ }

// CurrentTick is the number of completed ticks in this state.
func (b *baseState) CurrentTick() int { return b.tick }

func (b *baseState) Enter() {}

func (b *baseState) Exit() {}

func (b *baseState) OnTick(*engine.Item) {}

func (b *baseState) CanStartUse(engine.StartUseEvent) bool { return true }

func (b *baseState) OnStartUse(engine.StartUseEvent) {}

func (b *baseState) OnStopUse(engine.StopUseEvent) {}

func (b *baseState) OnHitBlock(engine.HitBlockEvent) {}

func (b *baseState) OnHitEntity(engine.HitEntityEvent) {}
