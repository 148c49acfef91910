package sim

import (
	"math"
	"sort"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// ParticleRecord is one spawned particle.
type ParticleRecord struct {
	Tick     uint64   `json:"tick"`
	ID       string   `json:"id"`
	Location vec.Vec3 `json:"location"`
}

// raycast sampling step in blocks
const rayStep = 0.05

// Dimension is the sim's single engine.Dimension.
type Dimension struct {
	w         *World
	id        string
	sounds    []SoundRecord
	particles []ParticleRecord
}

func (d *Dimension) ID() string { return d.id }

// EntitiesNear returns matching valid entities by distance from the query
// location to their feet, closest first.
func (d *Dimension) EntitiesNear(q engine.EntityQuery) []engine.Entity {
	w := d.w
	w.rebuildGrid()

	type hit struct {
		e    engine.Entity
		dist float64
	}
	var candidates []*Body
	if q.MaxDistance > 0 {
		for _, idx := range w.grid.QueryRadius(q.Location.X, q.Location.Z, q.MaxDistance) {
			if int(idx) < len(w.gridBodies) {
				candidates = append(candidates, w.gridBodies[idx])
			}
		}
	} else {
		candidates = w.gridBodies
	}

	var hits []hit
	for _, b := range candidates {
		if !b.valid {
			continue
		}
		dist := b.pos.Distance(q.Location)
		if q.MaxDistance > 0 && dist > q.MaxDistance {
			continue
		}
		if !q.Matches(b.self) {
			continue
		}
		hits = append(hits, hit{b.self, dist})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	if q.Closest > 0 && len(hits) > q.Closest {
		hits = hits[:q.Closest]
	}

	out := make([]engine.Entity, len(hits))
	for i, h := range hits {
		out[i] = h.e
	}
	return out
}

func (d *Dimension) Players(q engine.EntityQuery) []engine.Actor {
	var out []engine.Actor
	for _, e := range d.EntitiesNear(q) {
		if p, ok := e.(*Player); ok {
			out = append(out, p)
		}
	}
	return out
}

// RaycastEntities returns entities whose bounds the ray crosses before any
// solid block, nearest first.
func (d *Dimension) RaycastEntities(origin, dir vec.Vec3, maxDist float64) []engine.Entity {
	dir = dir.Normalize()
	if dir.IsZero() {
		return nil
	}
	if hit, ok := d.RaycastBlock(origin, dir, maxDist); ok {
		maxDist = math.Min(maxDist, hit.Location.Add(hit.FaceLocation).Distance(origin))
	}

	type hit struct {
		e engine.Entity
		t float64
	}
	var hits []hit
	for _, id := range d.w.order {
		b := d.w.bodies[id]
		if b == nil || !b.valid || b.proj != nil {
			continue
		}
		lo, hi := b.aabb()
		if t, ok := rayAABB(origin, dir, lo, hi); ok && t <= maxDist {
			hits = append(hits, hit{b.self, t})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].t < hits[j].t })

	out := make([]engine.Entity, len(hits))
	for i, h := range hits {
		out[i] = h.e
	}
	return out
}

// RaycastBlock marches the ray and reports the first solid block.
func (d *Dimension) RaycastBlock(origin, dir vec.Vec3, maxDist float64) (engine.BlockHit, bool) {
	dir = dir.Normalize()
	if dir.IsZero() || maxDist <= 0 {
		return engine.BlockHit{}, false
	}

	prev := origin
	if _, solid := d.w.blockAt(origin); solid {
		// started inside a block: back up to where the ray entered it
		for s := rayStep; s <= 4; s += rayStep {
			q := origin.Sub(dir.Scale(s))
			if _, solid := d.w.blockAt(q); !solid {
				prev = q
				break
			}
		}
	}
	for t := 0.0; t <= maxDist; t += rayStep {
		p := origin.Add(dir.Scale(t))
		if id, solid := d.w.blockAt(p); solid {
			bx, by, bz := math.Floor(p.X), math.Floor(p.Y), math.Floor(p.Z)
			blockLoc := vec.New(bx, by, bz)
			entry := refineEntry(d.w, prev, p)
			return engine.BlockHit{
				Block:        id,
				Location:     blockLoc,
				FaceLocation: entry.Sub(blockLoc),
			}, true
		}
		prev = p
	}
	return engine.BlockHit{}, false
}

// refineEntry bisects between an open point and a solid point.
func refineEntry(w *World, open, solid vec.Vec3) vec.Vec3 {
	for i := 0; i < 12; i++ {
		mid := vec.Midpoint(open, solid)
		if _, s := w.blockAt(mid); s {
			solid = mid
		} else {
			open = mid
		}
	}
	return solid
}

// rayAABB is the slab test. It returns the entry distance along a unit ray.
func rayAABB(o, d, lo, hi vec.Vec3) (float64, bool) {
	tmin, tmax := 0.0, math.Inf(1)
	axes := [3][4]float64{
		{o.X, d.X, lo.X, hi.X},
		{o.Y, d.Y, lo.Y, hi.Y},
		{o.Z, d.Z, lo.Z, hi.Z},
	}
	for _, a := range axes {
		orig, dir, min, max := a[0], a[1], a[2], a[3]
		if math.Abs(dir) < 1e-12 {
			if orig < min || orig > max {
				return 0, false
			}
			continue
		}
		t1 := (min - orig) / dir
		t2 := (max - orig) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

func (d *Dimension) PlaySound(id string, loc vec.Vec3, opts engine.SoundOptions) error {
	d.sounds = append(d.sounds, SoundRecord{Tick: d.w.tick, ID: id, Volume: opts.Volume, Pitch: opts.Pitch, Location: loc})
	return nil
}

func (d *Dimension) SpawnParticle(id string, loc vec.Vec3) error {
	d.particles = append(d.particles, ParticleRecord{Tick: d.w.tick, ID: id, Location: loc})
	return nil
}

// SpawnEntity spawns a registered projectile or mob type. Unknown types
// become inert markers without health.
func (d *Dimension) SpawnEntity(typeID string, loc vec.Vec3) (engine.Entity, error) {
	if spec, ok := d.w.projectiles[typeID]; ok {
		return d.w.spawnProjectile(typeID, spec, loc), nil
	}
	spec, ok := d.w.mobs[typeID]
	if !ok {
		spec = BodySpec{TypeID: typeID, Families: []string{"inanimate"}, NoGravity: true}
	}
	spec.TypeID = typeID
	return d.w.spawnBody(spec, loc), nil
}

// Sounds played positionally in the dimension.
func (d *Dimension) Sounds() []SoundRecord { return append([]SoundRecord(nil), d.sounds...) }

// Particles spawned in the dimension.
func (d *Dimension) Particles() []ParticleRecord {
	return append([]ParticleRecord(nil), d.particles...)
}

// PlayedSound reports whether id was played positionally.
func (d *Dimension) PlayedSound(id string) bool {
	for _, s := range d.sounds {
		if s.ID == id {
			return true
		}
	}
	return false
}

// SpawnedParticle reports whether id was spawned.
func (d *Dimension) SpawnedParticle(id string) bool {
	for _, p := range d.particles {
		if p.ID == id {
			return true
		}
	}
	return false
}
