package session

import (
	"log"

	"github.com/oklog/ulid/v2"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
)

// Handler is the per-session behavior for one item type.
type Handler interface {
	OnCreate()
	OnRemove()
	IsValid(item *engine.Item) bool
	OnTick(item *engine.Item)

	CanStartUse(ev engine.StartUseEvent) bool
	OnStartUse(ev engine.StartUseEvent)
	OnStopUse(ev engine.StopUseEvent)
	OnHitBlock(ev engine.HitBlockEvent)
	OnHitEntity(ev engine.HitEntityEvent)
	OnHealthChanged(ev engine.HealthChangedEvent)
	OnDie(ev engine.DieEvent)
	OnHurt(ev engine.HurtEvent)
}

// StateReporter is implemented by handlers that expose a current state name.
type StateReporter interface {
	StateName() string
}

// Context is what a handler knows about its session. The manager owns the
// clock and using flag; handlers only read them.
type Context struct {
	ID          ulid.ULID
	ItemType    string
	Actor       engine.Actor
	World       engine.World
	InitialSlot int
	InitialItem *engine.Item
	Logger      *log.Logger

	state *sessionState
}

type sessionState struct {
	clock uint64
	using bool
}

// Clock is the number of ticks the session has completed.
func (c *Context) Clock() uint64 {
	return c.state.clock
}

// IsUsing is true between an accepted start-use and the next stop-use.
func (c *Context) IsUsing() bool {
	return c.state.using
}

// Dimension is the actor's current dimension.
func (c *Context) Dimension() engine.Dimension {
	return c.Actor.Dimension()
}

// NewTestContext builds a detached context for handler unit tests.
func NewTestContext(actor engine.Actor, world engine.World, item *engine.Item) (*Context, *TestControls) {
	st := &sessionState{}
	ctx := &Context{
		ID:          ulid.Make(),
		Actor:       actor,
		World:       world,
		InitialItem: item.Clone(),
		Logger:      log.Default(),
		state:       st,
	}
	if item != nil {
		ctx.ItemType = item.TypeID
	}
	if actor != nil {
		ctx.InitialSlot = actor.SelectedSlot()
	}
	return ctx, &TestControls{state: st}
}

// TestControls drives a detached context's clock and using flag.
type TestControls struct {
	state *sessionState
}

func (t *TestControls) SetUsing(v bool) { t.state.using = v }

func (t *TestControls) Advance() { t.state.clock++ }

// BaseHandler supplies default hooks. Embed it and override what you need.
type BaseHandler struct {
	ctx *Context
}

// NewBaseHandler binds the defaults to ctx.
func NewBaseHandler(ctx *Context) BaseHandler {
	return BaseHandler{ctx: ctx}
}

func (b *BaseHandler) Context() *Context { return b.ctx }

func (b *BaseHandler) Actor() engine.Actor { return b.ctx.Actor }

func (b *BaseHandler) World() engine.World { return b.ctx.World }

func (b *BaseHandler) CurrentTick() uint64 { return b.ctx.Clock() }

func (b *BaseHandler) IsUsing() bool { return b.ctx.IsUsing() }

func (b *BaseHandler) OnCreate() {}

func (b *BaseHandler) OnRemove() {}

func (b *BaseHandler) IsValid(item *engine.Item) bool { return true }

func (b *BaseHandler) OnTick(item *engine.Item) {}

func (b *BaseHandler) CanStartUse(ev engine.StartUseEvent) bool { return true }

func (b *BaseHandler) OnStartUse(ev engine.StartUseEvent) {}

func (b *BaseHandler) OnStopUse(ev engine.StopUseEvent) {}

func (b *BaseHandler) OnHitBlock(ev engine.HitBlockEvent) {}

func (b *BaseHandler) OnHitEntity(ev engine.HitEntityEvent) {}

func (b *BaseHandler) OnHealthChanged(ev engine.HealthChangedEvent) {}

func (b *BaseHandler) OnDie(ev engine.DieEvent) {}

func (b *BaseHandler) OnHurt(ev engine.HurtEvent) {}
