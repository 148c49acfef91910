package session

import (
	"errors"
	"io"
	"log"
	"testing"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/sim"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

const testItem = "test:sword"

// recorder logs every hook it receives into a shared journal.
type recorder struct {
	BaseHandler
	name    string
	journal *[]string

	acceptUse bool
	invalid   bool
	panicOn   string
}

func (r *recorder) note(s string) {
	*r.journal = append(*r.journal, r.name+":"+s)
	if r.panicOn == s {
		panic(s + " failed")
	}
}

func (r *recorder) OnCreate()                                { r.note("create") }
func (r *recorder) OnRemove()                                { r.note("remove") }
func (r *recorder) IsValid(*engine.Item) bool                { return !r.invalid }
func (r *recorder) OnTick(*engine.Item)                      { r.note("tick") }
func (r *recorder) CanStartUse(engine.StartUseEvent) bool    { return r.acceptUse }
func (r *recorder) OnStartUse(engine.StartUseEvent)          { r.note("start") }
func (r *recorder) OnStopUse(engine.StopUseEvent)            { r.note("stop") }
func (r *recorder) OnHitEntity(engine.HitEntityEvent)        { r.note("hit") }
func (r *recorder) OnHurt(engine.HurtEvent)                  { r.note("hurt") }
func (r *recorder) OnHealthChanged(engine.HealthChangedEvent) {}

type recObserver struct {
	created int
	removed []RemovalReason
	failed  []string

	// panics makes every callback panic after recording
	panics bool
}

func (o *recObserver) SessionCreated(Info) { o.created++ }
func (o *recObserver) SessionRemoved(_ Info, r RemovalReason) {
	o.removed = append(o.removed, r)
	if o.panics {
		panic("observer removed failed")
	}
}
func (o *recObserver) HookFailed(_ Info, hook string, _ error) {
	o.failed = append(o.failed, hook)
	if o.panics {
		panic("observer failure failed")
	}
}

type harness struct {
	world    *sim.World
	manager  *Manager
	observer *recObserver
	journal  []string
	handlers []*recorder

	// configure is applied to every new recorder
	configure func(*recorder)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		world:    sim.NewWorld(sim.Config{Seed: 1}),
		observer: &recObserver{},
	}
	reg := NewRegistry()
	err := reg.Register(testItem, func(ctx *Context) Handler {
		r := &recorder{
			BaseHandler: NewBaseHandler(ctx),
			name:        ctx.InitialItem.NameTag,
			journal:     &h.journal,
			acceptUse:   true,
		}
		if h.configure != nil {
			h.configure(r)
		}
		h.handlers = append(h.handlers, r)
		return r
	})
	if err != nil {
		t.Fatal(err)
	}

	h.manager = NewManager(Config{
		World:    h.world,
		Registry: reg,
		Observer: h.observer,
		Logger:   log.New(io.Discard, "", 0),
	})
	m := h.manager
	h.world.SetHandlers(sim.Handlers{
		Tick:          m.Tick,
		StartUse:      m.OnStartUse,
		StopUse:       m.OnStopUse,
		HitEntity:     m.OnHitEntity,
		HitBlock:      m.OnHitBlock,
		HealthChanged: m.OnHealthChanged,
		Die:           m.OnDie,
		Hurt:          m.OnHurt,
		ActorLeave:    func(id string) { _ = m.OnActorLeave(id) },
		Shutdown:      m.Shutdown,
	})
	return h
}

func sword(tag string) *engine.Item {
	return &engine.Item{TypeID: testItem, NameTag: tag, Amount: 1, MaxDurability: 100}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestNoSessionWithoutRegisteredItem tests that only registered items create sessions
func TestNoSessionWithoutRegisteredItem(t *testing.T) {
	h := newHarness(t)
	p := h.world.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, &engine.Item{TypeID: "minecraft:stick", Amount: 1})

	h.world.Steps(3)
	if h.manager.Len() != 0 {
		t.Errorf("Expected no sessions, got %d", h.manager.Len())
	}

	p.SetSlot(0, sword("a"))
	h.world.Step()
	if h.manager.Len() != 1 {
		t.Fatalf("Expected 1 session, got %d", h.manager.Len())
	}
	if want := []string{"a:create", "a:tick"}; !equal(h.journal, want) {
		t.Errorf("Expected %v, got %v", want, h.journal)
	}

	s, ok := h.manager.Session(p.ID())
	if !ok {
		t.Fatal("Expected session lookup by actor id")
	}
	if s.Context().Clock() != 1 {
		t.Errorf("Expected clock 1 after one tick, got %d", s.Context().Clock())
	}
}

// TestSlotSwitchReplacesSession tests teardown and recreation in the same tick
func TestSlotSwitchReplacesSession(t *testing.T) {
	h := newHarness(t)
	p := h.world.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, sword("a"))
	p.SetSlot(1, sword("b"))

	h.world.Steps(2)
	p.SelectSlot(1)
	h.world.Step()

	want := []string{"a:create", "a:tick", "a:tick", "a:remove", "b:create", "b:tick"}
	if !equal(h.journal, want) {
		t.Errorf("Expected %v, got %v", want, h.journal)
	}
	if len(h.observer.removed) != 1 || h.observer.removed[0] != RemovedSlotChanged {
		t.Errorf("Expected one slot_changed removal, got %v", h.observer.removed)
	}

	s, _ := h.manager.Session(p.ID())
	if s.Context().InitialSlot != 1 || s.Context().Clock() != 1 {
		t.Errorf("Expected fresh session on slot 1, got slot %d clock %d", s.Context().InitialSlot, s.Context().Clock())
	}
}

// TestItemChangeRemovesSession tests identity checks on the held item
func TestItemChangeRemovesSession(t *testing.T) {
	tests := []struct {
		name   string
		change func(p *sim.Player)
		want   []RemovalReason
	}{
		{"emptied hand", func(p *sim.Player) { p.SetMainhand(nil) }, []RemovalReason{RemovedItemChanged}},
		{"other item", func(p *sim.Player) { p.SetMainhand(&engine.Item{TypeID: "minecraft:stick"}) }, []RemovalReason{RemovedItemChanged}},
		{"renamed", func(p *sim.Player) { p.SetMainhand(sword("b")) }, []RemovalReason{RemovedItemChanged}},
		{"damaged only", func(p *sim.Player) {
			it := p.Mainhand()
			it.Damage = 5
			p.SetMainhand(it)
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			p := h.world.AddPlayer("Steve", vec.Zero)
			p.SetSlot(0, sword("a"))
			h.world.Step()

			tt.change(p)
			h.world.Step()

			if len(h.observer.removed) != len(tt.want) {
				t.Fatalf("Expected removals %v, got %v", tt.want, h.observer.removed)
			}
			for i := range tt.want {
				if h.observer.removed[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want[i], h.observer.removed[i])
				}
			}
		})
	}
}

// TestUsingFlag tests the start and stop use rules
func TestUsingFlag(t *testing.T) {
	h := newHarness(t)
	h.configure = func(r *recorder) { r.acceptUse = false }
	p := h.world.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, sword("a"))
	h.world.Step()
	s, _ := h.manager.Session(p.ID())

	h.world.StartUse(p)
	if s.Context().IsUsing() {
		t.Error("Rejected start-use should not set the using flag")
	}

	h.handlers[0].acceptUse = true
	h.world.StartUse(p)
	if !s.Context().IsUsing() {
		t.Error("Accepted start-use should set the using flag")
	}

	h.world.StopUse(p, 10)
	if s.Context().IsUsing() {
		t.Error("Stop-use should clear the using flag")
	}
	h.world.StopUse(p, 0)
	if s.Context().IsUsing() {
		t.Error("Using flag should stay clear")
	}

	want := []string{"a:create", "a:tick", "a:start", "a:stop", "a:stop"}
	if !equal(h.journal, want) {
		t.Errorf("Expected %v, got %v", want, h.journal)
	}
}

// TestPanickingHookStillRemoves tests that a failing OnRemove cannot leak a session
func TestPanickingHookStillRemoves(t *testing.T) {
	h := newHarness(t)
	h.configure = func(r *recorder) { r.panicOn = "remove" }
	p := h.world.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, sword("a"))
	h.world.Step()

	p.SetMainhand(nil)
	h.world.Step()

	if h.manager.Len() != 0 {
		t.Errorf("Expected session removed despite panic, got %d", h.manager.Len())
	}
	if len(h.observer.failed) != 1 || h.observer.failed[0] != "OnRemove" {
		t.Errorf("Expected one OnRemove failure, got %v", h.observer.failed)
	}
	if len(h.observer.removed) != 1 {
		t.Errorf("Expected one removal, got %d", len(h.observer.removed))
	}
}

// TestPanickingTickIsolated tests that one actor's failure does not stop others
func TestPanickingTickIsolated(t *testing.T) {
	h := newHarness(t)
	h.configure = func(r *recorder) {
		if r.name == "bad" {
			r.panicOn = "tick"
		}
	}
	bad := h.world.AddPlayer("Bad", vec.Zero)
	bad.SetSlot(0, sword("bad"))
	good := h.world.AddPlayer("Good", vec.New(5, 0, 0))
	good.SetSlot(0, sword("good"))

	h.world.Steps(3)

	s, ok := h.manager.Session(good.ID())
	if !ok || s.Context().Clock() != 3 {
		t.Errorf("Expected healthy session to tick 3 times")
	}
	if _, ok := h.manager.Session(bad.ID()); !ok {
		t.Error("A panicking OnTick should not remove the session")
	}
	if len(h.observer.failed) != 3 {
		t.Errorf("Expected 3 failures, got %v", h.observer.failed)
	}
}

// TestHandlerInvalidRemoves tests the handler veto
func TestHandlerInvalidRemoves(t *testing.T) {
	h := newHarness(t)
	p := h.world.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, sword("a"))
	h.world.Step()

	h.handlers[0].invalid = true
	h.world.Step()

	if len(h.observer.removed) != 1 || h.observer.removed[0] != RemovedHandlerInvalid {
		t.Errorf("Expected handler_invalid removal, got %v", h.observer.removed)
	}
	if len(h.handlers) != 2 {
		t.Errorf("Expected a replacement session in the same tick, got %d handlers", len(h.handlers))
	}
}

// TestDeathEndsSession tests removal on death and recreation after respawn
func TestDeathEndsSession(t *testing.T) {
	h := newHarness(t)
	p := h.world.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, sword("a"))
	h.world.Step()

	p.ApplyDamage(100, engine.DamageSource{Cause: engine.CauseOverride})
	h.world.Steps(3)

	if h.manager.Len() != 0 {
		t.Fatal("Dead actor should have no session")
	}
	if h.observer.removed[0] != RemovedActorDead {
		t.Errorf("Expected actor_dead, got %v", h.observer.removed[0])
	}

	p.Respawn(vec.Zero)
	h.world.Step()
	if h.manager.Len() != 1 {
		t.Error("Expected a new session after respawn")
	}
}

// TestEventsRouteToAttacker tests event forwarding
func TestEventsRouteToAttacker(t *testing.T) {
	h := newHarness(t)
	p := h.world.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, sword("a"))
	mob := h.world.AddMob(sim.BodySpec{TypeID: "minecraft:zombie", Health: 20}, vec.New(0, 0, 1))
	h.world.Step()
	h.journal = nil

	h.world.HitEntity(p, mob)
	h.world.Input(func() { mob.ApplyDamage(2, engine.DamageSource{Cause: engine.CauseEntityAttack, Damager: p}) })
	h.world.Input(func() { p.ApplyDamage(2, engine.DamageSource{Cause: engine.CauseEntityAttack, Damager: mob}) })

	want := []string{"a:hit", "a:hurt"}
	if !equal(h.journal, want) {
		t.Errorf("Expected %v, got %v", want, h.journal)
	}
}

// TestLeaveAndShutdown tests draining and idempotent teardown
func TestLeaveAndShutdown(t *testing.T) {
	h := newHarness(t)
	a := h.world.AddPlayer("A", vec.Zero)
	a.SetSlot(0, sword("a"))
	b := h.world.AddPlayer("B", vec.New(3, 0, 0))
	b.SetSlot(0, sword("b"))
	h.world.Step()

	h.world.Leave(a)
	if _, ok := h.manager.Session(a.ID()); ok {
		t.Error("Leaving actor should lose its session")
	}
	if err := h.manager.OnActorLeave(a.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	h.world.Shutdown()
	if h.manager.Len() != 0 {
		t.Errorf("Expected no sessions after shutdown, got %d", h.manager.Len())
	}
	want := []RemovalReason{RemovedActorLeft, RemovedShutdown}
	if len(h.observer.removed) != 2 || h.observer.removed[0] != want[0] || h.observer.removed[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, h.observer.removed)
	}

	h.manager.Shutdown()
	if len(h.observer.removed) != 2 {
		t.Error("Second shutdown should be a no-op")
	}
}

// TestLeaveContainsPanics tests that a panicking OnRemove and observer during
// leave stay inside the manager
func TestLeaveContainsPanics(t *testing.T) {
	h := newHarness(t)
	h.configure = func(r *recorder) { r.panicOn = "remove" }
	p := h.world.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, sword("a"))
	h.world.Step()
	h.observer.panics = true

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Expected leave to contain the panic, got %v", r)
			}
		}()
		err = h.manager.OnActorLeave(p.ID())
	}()

	if err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	if h.manager.Len() != 0 {
		t.Errorf("Expected the session removed, got %d", h.manager.Len())
	}
	if len(h.observer.failed) != 1 || h.observer.failed[0] != "OnRemove" {
		t.Errorf("Expected one OnRemove failure, got %v", h.observer.failed)
	}
	if len(h.observer.removed) != 1 || h.observer.removed[0] != RemovedActorLeft {
		t.Errorf("Expected one leave removal, got %v", h.observer.removed)
	}
	if got := h.manager.GetStats()["hookFailures"].(uint64); got != 1 {
		t.Errorf("Expected 1 hook failure, got %d", got)
	}

	h.world.Leave(p)
	if err := h.manager.OnActorLeave(p.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

// TestSnapshotAndStats tests the read-only views
func TestSnapshotAndStats(t *testing.T) {
	h := newHarness(t)
	p := h.world.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, sword("a"))
	h.world.Steps(2)

	infos := h.manager.Snapshot()
	if len(infos) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(infos))
	}
	if infos[0].ActorName != "Steve" || infos[0].ItemType != testItem || infos[0].Clock != 2 {
		t.Errorf("Unexpected info %+v", infos[0])
	}

	stats := h.manager.GetStats()
	if stats["active"].(int) != 1 || stats["created"].(uint64) != 1 {
		t.Errorf("Unexpected stats %v", stats)
	}
}
