package session

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
)

// RemovalReason says why a session ended.
type RemovalReason uint8

const (
	RemovedActorInvalid RemovalReason = iota
	RemovedActorDead
	RemovedSlotChanged
	RemovedItemChanged
	RemovedHandlerInvalid
	RemovedActorLeft
	RemovedShutdown
)

func (r RemovalReason) String() string {
	switch r {
	case RemovedActorInvalid:
		return "actor_invalid"
	case RemovedActorDead:
		return "actor_dead"
	case RemovedSlotChanged:
		return "slot_changed"
	case RemovedItemChanged:
		return "item_changed"
	case RemovedHandlerInvalid:
		return "handler_invalid"
	case RemovedActorLeft:
		return "actor_left"
	case RemovedShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Info is an immutable view of one session.
type Info struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actorId"`
	ActorName string    `json:"actorName"`
	ItemType  string    `json:"itemType"`
	Slot      int       `json:"slot"`
	Clock     uint64    `json:"clock"`
	Using     bool      `json:"using"`
	State     string    `json:"state,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Observer is notified of session lifecycle changes. Calls happen on the tick
// thread and must not block.
type Observer interface {
	SessionCreated(info Info)
	SessionRemoved(info Info, reason RemovalReason)
	HookFailed(info Info, hook string, err error)
}

type nopObserver struct{}

func (nopObserver) SessionCreated(Info)                {}
func (nopObserver) SessionRemoved(Info, RemovalReason) {}
func (nopObserver) HookFailed(Info, string, error)     {}

// Session is the live binding between one actor and one item instance.
type Session struct {
	ctx       *Context
	handler   Handler
	actorID   string
	actorName string
	removed   bool
	createdAt time.Time
}

// Handler returns the session's handler.
func (s *Session) Handler() Handler { return s.handler }

// Context returns the session's context.
func (s *Session) Context() *Context { return s.ctx }

func (s *Session) info() Info {
	in := Info{
		ID:        s.ctx.ID.String(),
		ActorID:   s.actorID,
		ActorName: s.actorName,
		ItemType:  s.ctx.ItemType,
		Slot:      s.ctx.InitialSlot,
		Clock:     s.ctx.state.clock,
		Using:     s.ctx.state.using,
		CreatedAt: s.createdAt,
	}
	if r, ok := s.handler.(StateReporter); ok {
		func() {
			defer func() { _ = recover() }()
			in.State = r.StateName()
		}()
	}
	return in
}

// Config for a Manager
type Config struct {
	World    engine.World
	Registry *Registry // nil uses DefaultRegistry
	Observer Observer
	Logger   *log.Logger
}

// Manager owns the actor to session map. Tick and the event methods are the
// only mutators and are expected to run on the engine's tick thread; the
// lock lets debug readers take snapshots concurrently.
type Manager struct {
	mu       sync.RWMutex
	world    engine.World
	registry *Registry
	observer Observer
	logger   *log.Logger
	sessions map[string]*Session

	hookFailures uint64 // atomic
	created      uint64 // atomic
	removed      uint64 // atomic
}

// NewManager creates a manager with no sessions.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		world:    cfg.World,
		registry: cfg.Registry,
		observer: cfg.Observer,
		logger:   cfg.Logger,
		sessions: make(map[string]*Session),
	}
	if m.registry == nil {
		m.registry = DefaultRegistry()
	}
	if m.observer == nil {
		m.observer = nopObserver{}
	}
	if m.logger == nil {
		m.logger = log.Default()
	}
	return m
}

// SetObserver replaces the lifecycle observer.
func (m *Manager) SetObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o == nil {
		o = nopObserver{}
	}
	m.observer = o
}

// Tick runs one engine tick for every live actor.
func (m *Manager) Tick() {
	actors, err := m.enumerate()
	if err != nil {
		m.logger.Printf("⚠️ Session tick skipped: %v", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range actors {
		m.tickActor(a)
	}
}

func (m *Manager) enumerate() (actors []engine.Actor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: actor enumeration: %v", ErrHookPanicked, r)
		}
	}()
	return m.world.Actors()
}

// tickActor is the per-actor failure boundary.
func (m *Manager) tickActor(a engine.Actor) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("⚠️ Session tick for actor failed: %v", r)
			atomic.AddUint64(&m.hookFailures, 1)
		}
	}()

	if a == nil {
		return
	}
	id := a.ID()
	valid, alive := actorStatus(a)
	var item *engine.Item
	if valid {
		item = a.Mainhand()
	}

	s := m.sessions[id]
	if s != nil {
		if reason, ok := m.validate(s, a, valid, alive, item); !ok {
			m.teardown(s, reason)
			s = nil
		}
	}

	if item == nil {
		return
	}

	if s == nil && alive {
		if factory, ok := m.registry.Lookup(item.TypeID); ok {
			s = m.create(a, item, factory)
		}
	}
	if s == nil {
		return
	}

	m.call(s, "OnTick", func() { s.handler.OnTick(item) })
	s.ctx.state.clock++
}

func actorStatus(a engine.Actor) (valid, alive bool) {
	defer func() {
		if recover() != nil {
			valid, alive = false, false
		}
	}()
	if !a.IsValid() {
		return false, false
	}
	cur, _, err := a.Health()
	if err != nil {
		// no health component means nothing can kill it
		return true, true
	}
	return true, cur > 0
}

func (m *Manager) validate(s *Session, a engine.Actor, valid, alive bool, item *engine.Item) (RemovalReason, bool) {
	switch {
	case !valid:
		return RemovedActorInvalid, false
	case !alive:
		return RemovedActorDead, false
	case item == nil:
		return RemovedItemChanged, false
	case a.SelectedSlot() != s.ctx.InitialSlot:
		return RemovedSlotChanged, false
	case !s.ctx.InitialItem.SameIdentity(item):
		return RemovedItemChanged, false
	}

	ok := false
	m.call(s, "IsValid", func() { ok = s.handler.IsValid(item) })
	if !ok {
		return RemovedHandlerInvalid, false
	}
	return 0, true
}

func (m *Manager) create(a engine.Actor, item *engine.Item, factory Factory) *Session {
	ctx := &Context{
		ID:          ulid.Make(),
		ItemType:    item.TypeID,
		Actor:       a,
		World:       m.world,
		InitialSlot: a.SelectedSlot(),
		InitialItem: item.Clone(),
		Logger:      m.logger,
		state:       &sessionState{},
	}

	var h Handler
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Printf("⚠️ Handler factory for %s panicked: %v", item.TypeID, r)
				atomic.AddUint64(&m.hookFailures, 1)
				h = nil
			}
		}()
		h = factory(ctx)
	}()
	if h == nil {
		return nil
	}

	s := &Session{
		ctx:       ctx,
		handler:   h,
		actorID:   a.ID(),
		actorName: a.Name(),
		createdAt: time.Now(),
	}
	m.sessions[s.actorID] = s
	atomic.AddUint64(&m.created, 1)

	m.call(s, "OnCreate", h.OnCreate)
	m.observer.SessionCreated(s.info())
	return s
}

// teardown fires OnRemove at most once and always deletes the map entry.
func (m *Manager) teardown(s *Session, reason RemovalReason) {
	if s == nil || s.removed {
		return
	}
	s.removed = true

	defer func() {
		if cur, ok := m.sessions[s.actorID]; ok && cur == s {
			delete(m.sessions, s.actorID)
		}
		atomic.AddUint64(&m.removed, 1)
		m.notify("SessionRemoved", func() { m.observer.SessionRemoved(s.info(), reason) })
	}()

	m.call(s, "OnRemove", s.handler.OnRemove)
}

// call runs one handler hook, converting a panic into a logged failure.
func (m *Manager) call(s *Session, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %s: %v", ErrHookPanicked, hook, r)
			atomic.AddUint64(&m.hookFailures, 1)
			m.logger.Printf("⚠️ Session %s: %v", s.ctx.ID, err)
			m.notify("HookFailed", func() { m.observer.HookFailed(s.info(), hook, err) })
		}
	}()
	fn()
}

// notify runs one observer callback. Observer panics are logged and dropped.
func (m *Manager) notify(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("⚠️ Session observer %s panicked: %v", what, r)
		}
	}()
	fn()
}

func (m *Manager) lookup(e engine.Entity) *Session {
	if e == nil {
		return nil
	}
	if _, ok := engine.AsActor(e); !ok {
		return nil
	}
	var id string
	func() {
		defer func() { _ = recover() }()
		id = e.ID()
	}()
	if id == "" {
		return nil
	}
	return m.sessions[id]
}

// OnStartUse sets the using flag when the handler accepts the use.
func (m *Manager) OnStartUse(ev engine.StartUseEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.lookup(ev.Actor)
	if s == nil {
		return
	}
	accept := false
	m.call(s, "CanStartUse", func() { accept = s.handler.CanStartUse(ev) })
	if !accept {
		return
	}
	s.ctx.state.using = true
	m.call(s, "OnStartUse", func() { s.handler.OnStartUse(ev) })
}

// OnStopUse always clears the using flag.
func (m *Manager) OnStopUse(ev engine.StopUseEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.lookup(ev.Actor)
	if s == nil {
		return
	}
	s.ctx.state.using = false
	m.call(s, "OnStopUse", func() { s.handler.OnStopUse(ev) })
}

func (m *Manager) OnHitBlock(ev engine.HitBlockEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.lookup(ev.Attacker); s != nil {
		m.call(s, "OnHitBlock", func() { s.handler.OnHitBlock(ev) })
	}
}

func (m *Manager) OnHitEntity(ev engine.HitEntityEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.lookup(ev.Attacker); s != nil {
		m.call(s, "OnHitEntity", func() { s.handler.OnHitEntity(ev) })
	}
}

func (m *Manager) OnHealthChanged(ev engine.HealthChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.lookup(ev.Entity); s != nil {
		m.call(s, "OnHealthChanged", func() { s.handler.OnHealthChanged(ev) })
	}
}

func (m *Manager) OnDie(ev engine.DieEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.lookup(ev.Entity); s != nil {
		m.call(s, "OnDie", func() { s.handler.OnDie(ev) })
	}
}

func (m *Manager) OnHurt(ev engine.HurtEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.lookup(ev.Entity); s != nil {
		m.call(s, "OnHurt", func() { s.handler.OnHurt(ev) })
	}
}

// OnActorLeave drains the leaving actor's session. It returns
// ErrSessionNotFound when there was nothing to remove and never panics.
func (m *Manager) OnActorLeave(actorID string) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: leave %s: %v", ErrHookPanicked, actorID, r)
			m.logger.Printf("⚠️ Session leave: %v", err)
		}
	}()

	s, ok := m.sessions[actorID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, actorID)
	}
	m.teardown(s, RemovedActorLeft)
	return nil
}

// Shutdown removes every live session. It never panics.
func (m *Manager) Shutdown() {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("⚠️ Session shutdown: %v", r)
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	for _, id := range ids {
		m.teardown(m.sessions[id], RemovedShutdown)
	}
	if len(ids) > 0 {
		m.logger.Printf("🛑 Drained %d item sessions", len(ids))
	}
}

// Session returns the live session for actorID.
func (m *Manager) Session(actorID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[actorID]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Snapshot returns every live session ordered by actor id.
func (m *Manager) Snapshot() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.info())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out
}

// GetStats returns lifecycle counters for monitoring.
func (m *Manager) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"active":       m.Len(),
		"created":      atomic.LoadUint64(&m.created),
		"removed":      atomic.LoadUint64(&m.removed),
		"hookFailures": atomic.LoadUint64(&m.hookFailures),
		"itemTypes":    m.registry.ItemTypes(),
	}
}
