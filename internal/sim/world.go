// Package sim is an in-memory host engine. It implements the engine
// interfaces with simple physics so the combat core can run headless in the
// sandbox and in tests.
package sim

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/sim/spatial"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// GroundBlock is reported for hits on the ground plane.
const GroundBlock = "minecraft:grass_block"

// maxEventsPerFlush stops handler feedback loops from spinning forever.
const maxEventsPerFlush = 10000

// Handlers receives world events. Every field is optional.
//
// Events are queued while the world steps and dispatched after each phase,
// so a handler may freely call back into engine interfaces.
type Handlers struct {
	BeforeTick func()
	Tick       func()
	AfterTick  func(took time.Duration)

	StartUse      func(engine.StartUseEvent)
	StopUse       func(engine.StopUseEvent)
	HitEntity     func(engine.HitEntityEvent)
	HitBlock      func(engine.HitBlockEvent)
	HealthChanged func(engine.HealthChangedEvent)
	Die           func(engine.DieEvent)
	Hurt          func(engine.HurtEvent)

	ProjectileHitEntity func(engine.ProjectileHitEntityEvent)
	ProjectileHitBlock  func(engine.ProjectileHitBlockEvent)
	Trigger             func(engine.EntityTriggerEvent)
	EntityRemoved       func(engine.EntityRemovedEvent)

	ActorLeave func(actorID string)
	Shutdown   func()
}

// Config configures a World.
type Config struct {
	TickRate    int
	PvP         bool
	GroundY     float64
	Seed        int64
	Projectiles map[string]ProjectileSpec
	Mobs        map[string]BodySpec
	Logger      *log.Logger
}

type blockKey struct{ x, y, z int }

type task struct {
	handle engine.TaskHandle
	due    uint64
	fn     func()
}

// World implements engine.World.
type World struct {
	mu sync.Mutex

	tick     uint64
	tickRate int
	pvp      bool
	groundY  float64
	dim      *Dimension
	logger   *log.Logger
	rng      *rand.Rand

	bodies  map[string]*Body
	players map[string]*Player
	order   []string
	nextID  uint64

	blocks  map[blockKey]string
	columns map[[2]int][]int

	projectiles map[string]ProjectileSpec
	mobs        map[string]BodySpec

	grid       *spatial.Grid
	gridBodies []*Body
	gridDirty  bool

	tasks      []*task
	nextHandle engine.TaskHandle

	handlers Handlers
	pending  []func(*Handlers)

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	snapshot atomic.Pointer[Snapshot]
}

// NewWorld creates an empty flat world.
func NewWorld(cfg Config) *World {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 20
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	w := &World{
		tickRate:    cfg.TickRate,
		pvp:         cfg.PvP,
		groundY:     cfg.GroundY,
		logger:      cfg.Logger,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		bodies:      make(map[string]*Body),
		players:     make(map[string]*Player),
		blocks:      make(map[blockKey]string),
		columns:     make(map[[2]int][]int),
		projectiles: make(map[string]ProjectileSpec),
		mobs:        make(map[string]BodySpec),
		grid:        spatial.NewGrid(8),
		stopChan:    make(chan struct{}),
	}
	w.dim = &Dimension{w: w, id: "minecraft:overworld"}
	for id, spec := range cfg.Projectiles {
		w.projectiles[id] = spec
	}
	for id, spec := range cfg.Mobs {
		w.mobs[id] = spec
	}
	w.snapshot.Store(&Snapshot{})
	return w
}

// SetHandlers replaces the event handlers.
func (w *World) SetHandlers(h Handlers) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = h
}

// Rand is the world's deterministic RNG. Only use it from the tick goroutine.
func (w *World) Rand() *rand.Rand { return w.rng }

// Dim returns the concrete dimension for recorder access.
func (w *World) Dim() *Dimension { return w.dim }

// AddPlayer spawns a survival player.
func (w *World) AddPlayer(name string, loc vec.Vec3) *Player {
	w.mu.Lock()
	defer w.mu.Unlock()

	b := w.spawnBody(BodySpec{
		TypeID:    PlayerTypeID,
		Families:  []string{"player"},
		Health:    20,
		Width:     0.6,
		Height:    1.8,
		EyeHeight: 1.62,
	}, loc)
	p := &Player{
		Body:      b,
		name:      name,
		mode:      engine.GameModeSurvival,
		cooldowns: make(map[string]int),
	}
	b.self = p
	w.players[b.id] = p
	return p
}

// AddMob spawns a non-player entity.
func (w *World) AddMob(spec BodySpec, loc vec.Vec3) *Body {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawnBody(spec, loc)
}

// DefineMob registers the spec SpawnEntity uses for typeID.
func (w *World) DefineMob(spec BodySpec) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mobs[spec.TypeID] = spec
}

// DefineProjectile registers typeID as a projectile for SpawnEntity.
func (w *World) DefineProjectile(typeID string, spec ProjectileSpec) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.projectiles[typeID] = spec
}

// SetBlock places a solid block. An empty id clears it.
func (w *World) SetBlock(x, y, z int, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	k := blockKey{x, y, z}
	col := [2]int{x, z}
	if id == "" {
		delete(w.blocks, k)
		ys := w.columns[col][:0]
		for _, v := range w.columns[col] {
			if v != y {
				ys = append(ys, v)
			}
		}
		w.columns[col] = ys
		return
	}
	if _, exists := w.blocks[k]; !exists {
		w.columns[col] = append(w.columns[col], y)
	}
	w.blocks[k] = id
}

// SetPvP toggles player versus player damage.
func (w *World) SetPvP(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pvp = on
}

// StartUse raises a start-use event for p's mainhand item.
func (w *World) StartUse(p *Player) {
	w.Input(func() { w.QueueStartUse(p) })
}

// StopUse raises a stop-use event for p's mainhand item.
func (w *World) StopUse(p *Player, useDuration int) {
	w.Input(func() { w.QueueStopUse(p, useDuration) })
}

// HitEntity raises a melee hit by p on target.
func (w *World) HitEntity(p *Player, target engine.Entity) {
	w.Input(func() { w.QueueHitEntity(p, target) })
}

// HitBlock raises a block punch by p.
func (w *World) HitBlock(p *Player, block string) {
	w.Input(func() { w.QueueHitBlock(p, block) })
}

// QueueStartUse is StartUse for callers already inside a tick hook.
func (w *World) QueueStartUse(p *Player) {
	item := p.Mainhand()
	w.emit(func(h *Handlers) {
		if h.StartUse != nil {
			h.StartUse(engine.StartUseEvent{Actor: p, Item: item})
		}
	})
}

// QueueStopUse is StopUse for callers already inside a tick hook.
func (w *World) QueueStopUse(p *Player, useDuration int) {
	item := p.Mainhand()
	w.emit(func(h *Handlers) {
		if h.StopUse != nil {
			h.StopUse(engine.StopUseEvent{Actor: p, Item: item, UseDuration: useDuration})
		}
	})
}

// QueueHitEntity is HitEntity for callers already inside a tick hook.
func (w *World) QueueHitEntity(p *Player, target engine.Entity) {
	w.emit(func(h *Handlers) {
		if h.HitEntity != nil {
			h.HitEntity(engine.HitEntityEvent{Attacker: p, Target: target})
		}
	})
}

// QueueHitBlock is HitBlock for callers already inside a tick hook.
func (w *World) QueueHitBlock(p *Player, block string) {
	w.emit(func(h *Handlers) {
		if h.HitBlock != nil {
			h.HitBlock(engine.HitBlockEvent{Attacker: p, Block: engine.BlockHit{Block: block, Location: p.Location()}})
		}
	})
}

// Leave disconnects p. The leave hook runs before p becomes invalid.
func (w *World) Leave(p *Player) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.flush()
	if w.handlers.ActorLeave != nil {
		w.safe("ActorLeave", func() { w.handlers.ActorLeave(p.id) })
	}
	p.remove()
	w.flush()
}

// Shutdown runs the shutdown hook.
func (w *World) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.flush()
	if w.handlers.Shutdown != nil {
		w.safe("Shutdown", w.handlers.Shutdown)
	}
	w.flush()
}

// Input runs fn under the world lock, then dispatches the events it raised.
func (w *World) Input(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn()
	w.flush()
}

// Start begins the tick loop
func (w *World) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.ticker = time.NewTicker(time.Second / time.Duration(w.tickRate))
	w.mu.Unlock()

	go func() {
		for {
			select {
			case <-w.ticker.C:
				w.Step()
			case <-w.stopChan:
				return
			}
		}
	}()

	w.logger.Printf("🎮 Sim world started at %d TPS", w.tickRate)
}

// Stop stops the tick loop
func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	if w.ticker != nil {
		w.ticker.Stop()
	}
	close(w.stopChan)
	w.logger.Println("🛑 Sim world stopped")
}

// Steps runs n ticks synchronously.
func (w *World) Steps(n int) {
	for i := 0; i < n; i++ {
		w.Step()
	}
}

// Step advances the world by one tick.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	w.tick++
	w.flush()
	w.runTasks()
	w.flush()

	if w.handlers.BeforeTick != nil {
		w.safe("BeforeTick", w.handlers.BeforeTick)
		w.flush()
	}
	if w.handlers.Tick != nil {
		w.safe("Tick", w.handlers.Tick)
		w.flush()
	}

	w.physics()
	w.flush()

	w.storeSnapshot()

	if w.handlers.AfterTick != nil {
		took := time.Since(start)
		w.safe("AfterTick", func() { w.handlers.AfterTick(took) })
	}
}

func (w *World) physics() {
	ids := append([]string(nil), w.order...)
	for _, id := range ids {
		b := w.bodies[id]
		if b == nil || !b.valid {
			continue
		}
		if b.proj != nil {
			w.stepProjectile(b)
			continue
		}
		b.step()
		if p, ok := b.self.(*Player); ok {
			p.tickCooldowns()
		}
	}
}

func (w *World) runTasks() {
	if len(w.tasks) == 0 {
		return
	}
	var due []*task
	keep := w.tasks[:0]
	for _, t := range w.tasks {
		if t.due <= w.tick {
			due = append(due, t)
		} else {
			keep = append(keep, t)
		}
	}
	w.tasks = keep
	sort.SliceStable(due, func(i, j int) bool { return due[i].handle < due[j].handle })
	for _, t := range due {
		w.safe("timeout", t.fn)
	}
}

// RunTimeout schedules fn to run after ticks ticks, at least one.
func (w *World) RunTimeout(fn func(), ticks int) engine.TaskHandle {
	if ticks < 1 {
		ticks = 1
	}
	w.nextHandle++
	w.tasks = append(w.tasks, &task{handle: w.nextHandle, due: w.tick + uint64(ticks), fn: fn})
	return w.nextHandle
}

// ClearRun cancels a scheduled task. Unknown handles are ignored.
func (w *World) ClearRun(h engine.TaskHandle) {
	for i, t := range w.tasks {
		if t.handle == h {
			w.tasks = append(w.tasks[:i], w.tasks[i+1:]...)
			return
		}
	}
}

// PendingTasks counts scheduled tasks.
func (w *World) PendingTasks() int { return len(w.tasks) }

// Actors returns every valid player in join order.
func (w *World) Actors() ([]engine.Actor, error) {
	out := make([]engine.Actor, 0, len(w.players))
	for _, id := range w.order {
		if p, ok := w.players[id]; ok && p.valid {
			out = append(out, p)
		}
	}
	return out, nil
}

func (w *World) Entity(id string) (engine.Entity, bool) {
	b, ok := w.bodies[id]
	if !ok || !b.valid {
		return nil, false
	}
	return b.self, true
}

func (w *World) PvPEnabled() bool { return w.pvp }

func (w *World) CurrentTick() uint64 { return w.tick }

// surfaceAt is the top of the highest solid below or just above p.
func (w *World) surfaceAt(p vec.Vec3) float64 {
	surface := w.groundY
	col := [2]int{int(math.Floor(p.X)), int(math.Floor(p.Z))}
	for _, y := range w.columns[col] {
		top := float64(y + 1)
		if top <= p.Y+0.6 && top > surface {
			surface = top
		}
	}
	return surface
}

func (w *World) blockAt(p vec.Vec3) (string, bool) {
	if p.Y < w.groundY {
		return GroundBlock, true
	}
	k := blockKey{int(math.Floor(p.X)), int(math.Floor(p.Y)), int(math.Floor(p.Z))}
	id, ok := w.blocks[k]
	return id, ok
}

func (w *World) emit(fn func(h *Handlers)) {
	w.pending = append(w.pending, fn)
}

func (w *World) flush() {
	for i := 0; i < len(w.pending); i++ {
		if i >= maxEventsPerFlush {
			w.logger.Printf("⚠️ Event flush limit hit, dropping %d events", len(w.pending)-i)
			break
		}
		fn := w.pending[i]
		w.safe("event", func() { fn(&w.handlers) })
	}
	w.pending = w.pending[:0]
}

func (w *World) safe(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Printf("❌ Sim %s handler panicked: %v", name, r)
		}
	}()
	fn()
}

func (w *World) spawnBody(spec BodySpec, loc vec.Vec3) *Body {
	w.nextID++
	id := fmt.Sprintf("%d", w.nextID)
	b := newBody(w, id, spec, loc)
	w.bodies[id] = b
	w.order = append(w.order, id)
	w.gridDirty = true
	return b
}

func (w *World) detach(b *Body) {
	delete(w.bodies, b.id)
	delete(w.players, b.id)
	for i, id := range w.order {
		if id == b.id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.gridDirty = true

	id, typeID := b.id, b.typeID
	w.emit(func(h *Handlers) {
		if h.EntityRemoved != nil {
			h.EntityRemoved(engine.EntityRemovedEvent{EntityID: id, TypeID: typeID})
		}
	})
}

func (w *World) rebuildGrid() {
	if !w.gridDirty {
		return
	}
	w.grid.Clear()
	w.gridBodies = w.gridBodies[:0]
	for _, id := range w.order {
		b := w.bodies[id]
		if b == nil || !b.valid {
			continue
		}
		w.grid.Insert(uint32(len(w.gridBodies)), b.pos.X, b.pos.Z)
		w.gridBodies = append(w.gridBodies, b)
	}
	w.gridDirty = false
}
