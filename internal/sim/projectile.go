package sim

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// ProjectileSpec describes how a projectile entity type flies.
type ProjectileSpec struct {
	Lifetime int     // ticks until the timeout trigger fires
	Gravity  float64 // per tick
	Radius   float64 // hit radius added to target bounds
	Drag     float64 // velocity multiplier per tick, 0 means 0.99
}

// DefaultProjectile is used for projectile types registered without a spec.
var DefaultProjectile = ProjectileSpec{Lifetime: 20, Radius: 0.25, Drag: 0.99}

type projectile struct {
	spec     ProjectileSpec
	age      int
	stuck    bool
	timedOut bool
	hit      map[string]struct{}
}

func (w *World) spawnProjectile(typeID string, spec ProjectileSpec, loc vec.Vec3) *Body {
	if spec.Drag <= 0 {
		spec.Drag = 0.99
	}
	b := w.spawnBody(BodySpec{
		TypeID:    typeID,
		Families:  []string{"projectile", "inanimate"},
		Width:     spec.Radius * 2,
		Height:    spec.Radius * 2,
		EyeHeight: spec.Radius,
		NoGravity: true,
	}, loc)
	b.onGround = false
	b.proj = &projectile{spec: spec, hit: make(map[string]struct{})}
	return b
}

// stepProjectile moves one projectile and queues hit and timeout events.
func (w *World) stepProjectile(b *Body) {
	p := b.proj
	p.age++

	if !p.stuck && !b.vel.IsZero() {
		from := b.pos
		dir := b.vel.Normalize()
		segment := b.vel.Length()

		blockHit, hitBlock := w.dim.RaycastBlock(from, dir, segment)
		if hitBlock {
			segment = blockHit.Location.Add(blockHit.FaceLocation).Distance(from)
		}

		for _, id := range w.order {
			t := w.bodies[id]
			if t == nil || t == b || !t.valid || t.proj != nil {
				continue
			}
			if _, done := p.hit[id]; done {
				continue
			}
			lo, hi := t.aabb()
			r := vec.New(p.spec.Radius, p.spec.Radius, p.spec.Radius)
			if dist, ok := rayAABB(from, dir, lo.Sub(r), hi.Add(r)); ok && dist <= segment {
				// start-inside overlaps are ignored so a shooter never hits itself
				if dist == 0 && insideAABB(from, lo, hi) {
					continue
				}
				p.hit[id] = struct{}{}
				target := t.self
				w.emit(func(h *Handlers) {
					if h.ProjectileHitEntity != nil {
						h.ProjectileHitEntity(engine.ProjectileHitEntityEvent{Projectile: b, Target: target})
					}
				})
			}
		}

		if hitBlock {
			b.pos = blockHit.Location.Add(blockHit.FaceLocation)
			b.vel = vec.Zero
			p.stuck = true
			w.emit(func(h *Handlers) {
				if h.ProjectileHitBlock != nil {
					h.ProjectileHitBlock(engine.ProjectileHitBlockEvent{Projectile: b, Block: blockHit})
				}
			})
		} else {
			b.pos = from.Add(b.vel)
			b.vel = b.vel.Scale(p.spec.Drag)
			b.vel.Y -= p.spec.Gravity
		}
		w.gridDirty = true
	}

	if p.spec.Lifetime > 0 && p.age >= p.spec.Lifetime && !p.timedOut {
		p.timedOut = true
		w.emit(func(h *Handlers) {
			if h.Trigger != nil {
				h.Trigger(engine.EntityTriggerEvent{Entity: b, Name: engine.TriggerTimeout})
			}
		})
	}
}

func insideAABB(p, lo, hi vec.Vec3) bool {
	return p.X >= lo.X && p.X <= hi.X && p.Y >= lo.Y && p.Y <= hi.Y && p.Z >= lo.Z && p.Z <= hi.Z
}
