package main

import (
	"log"
	"math"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/sim"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/slasher"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

const (
	respawnDelay   = 40 // ticks a dead dummy stays gone
	itemDurability = 600
	itemName       = "Sandbox Slasher"
)

// move is one scripted action. It runs once and the director waits hold
// ticks before the next one.
type move struct {
	name string
	hold int
	run  func(d *director)
}

type slot struct {
	home    vec.Vec3
	mob     engine.Entity
	respawn int
}

// director plays the sandbox player through every attack in a loop and
// keeps the dummy ring populated. It runs in BeforeTick, so it only uses
// the queueing inputs of the world.
type director struct {
	world   *sim.World
	player  *sim.Player
	spec    sim.BodySpec
	slots   []*slot
	moves   []move
	next    int
	wait    int
	enabled bool
	logger  *log.Logger
}

func newDirector(w *sim.World, p *sim.Player, spec sim.BodySpec, count int, radius float64, enabled bool, logger *log.Logger) *director {
	d := &director{
		world:   w,
		player:  p,
		spec:    spec,
		enabled: enabled,
		logger:  logger,
	}
	for _, home := range vec.CirclePoints(vec.Zero, radius, count, vec.Up) {
		d.slots = append(d.slots, &slot{home: home})
	}
	d.moves = []move{
		{"approach", 2, (*director).approach},
		{"quick attack", 6, func(d *director) { d.hitTarget() }},
		{"quick attack chain", 12, func(d *director) { d.hitTarget() }},
		{"approach", 2, (*director).approach},
		{"charge", 12, (*director).startUse},
		{"charged attack", 34, func(d *director) { d.stopUse(12) }},
		{"rise", 1, (*director).rise},
		{"charge in air", 8, (*director).startUse},
		{"plunge", 30, func(d *director) { d.stopUse(8) }},
		{"glide", 1, (*director).glide},
		{"storm charge", 32, (*director).startUse},
		{"storm", 60, func(d *director) { d.stopUse(32) }},
		{"land", 20, (*director).land},
	}
	return d
}

// spawnRing places the initial dummies. Call it before the world starts.
func (d *director) spawnRing() {
	for _, s := range d.slots {
		s.mob = d.world.AddMob(d.spec, s.home)
	}
}

// tick is the BeforeTick hook.
func (d *director) tick() {
	d.keepRing()
	d.keepItem()
	if !d.enabled || !d.player.IsValid() {
		return
	}

	if d.wait > 0 {
		d.wait--
		return
	}
	m := d.moves[d.next]
	d.next = (d.next + 1) % len(d.moves)
	d.wait = m.hold
	m.run(d)
}

func (d *director) keepRing() {
	for _, s := range d.slots {
		if s.mob != nil && s.mob.IsValid() {
			continue
		}
		if s.mob != nil {
			s.mob = nil
			s.respawn = respawnDelay
		}
		if s.respawn > 0 {
			s.respawn--
			continue
		}
		e, err := d.world.Dim().SpawnEntity(d.spec.TypeID, s.home)
		if err != nil {
			d.logger.Printf("⚠️ Dummy respawn failed: %v", err)
			continue
		}
		s.mob = e
	}
}

// keepItem hands the player a fresh blade once the old one needs repair.
func (d *director) keepItem() {
	if !d.player.IsValid() {
		return
	}
	item := d.player.Mainhand()
	if item != nil && !item.NeedsRepair() {
		return
	}
	_ = d.player.SetMainhand(slasher.NewItem(itemName, itemDurability))
}

func (d *director) target() engine.Entity {
	var best engine.Entity
	bestDist := math.Inf(1)
	loc := d.player.Location()
	for _, s := range d.slots {
		if s.mob == nil || !s.mob.IsValid() {
			continue
		}
		if dist := loc.Distance(s.mob.Location()); dist < bestDist {
			best, bestDist = s.mob, dist
		}
	}
	return best
}

func (d *director) face(target vec.Vec3) {
	dir := target.Sub(d.player.HeadLocation())
	d.player.SetRotation(vec.RotationFromDirection(dir))
}

// approach stands the player two blocks from the nearest dummy, facing it.
func (d *director) approach() {
	t := d.target()
	if t == nil {
		return
	}
	tl := t.Location()
	away := d.player.Location().Sub(tl).Flatten().Normalize()
	if away.Length() == 0 {
		away = vec.Forward
	}
	_ = d.player.Teleport(tl.Add(away.Scale(2)), nil)
	d.face(tl.Add(vec.Up))
}

func (d *director) hitTarget() {
	t := d.target()
	if t == nil {
		d.world.QueueHitBlock(d.player, sim.GroundBlock)
		return
	}
	d.face(t.Location().Add(vec.Up))
	d.world.QueueHitEntity(d.player, t)
}

func (d *director) startUse() {
	d.world.QueueStartUse(d.player)
}

func (d *director) stopUse(held int) {
	d.world.QueueStopUse(d.player, held)
}

// rise lifts the player above the nearest dummy, looking down, for a plunge.
func (d *director) rise() {
	over := vec.Zero
	if t := d.target(); t != nil {
		over = t.Location()
	}
	_ = d.player.Teleport(over.Add(vec.New(0, 8, 0)), nil)
	d.player.SetJumping(true)
	d.player.SetRotation(vec.Vec2{X: 80, Y: d.player.Rotation().Y})
}

func (d *director) glide() {
	d.player.SetJumping(false)
	_ = d.player.Teleport(vec.New(0, 14, -12), nil)
	d.player.SetGliding(true)
	d.player.SetRotation(vec.Vec2{X: 25, Y: 0})
}

func (d *director) land() {
	d.player.SetGliding(false)
	d.player.SetJumping(false)
	_ = d.player.Teleport(vec.Zero, nil)
	d.player.SetRotation(vec.Vec2{})
}
