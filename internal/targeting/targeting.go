// Package targeting turns "volumes in front of the attacker" into the set of
// entities an attack may hurt.
package targeting

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// DefaultPointBlank is the distance under which line of sight is not checked.
const DefaultPointBlank = 1.5

// Types that are never combat targets
var NonCombatTypes = []string{"minecraft:item", "minecraft:xp_orb"}

// Filter excludes candidates by type, family or tag.
type Filter struct {
	ExcludeTypes    []string `yaml:"exclude_types"`
	ExcludeFamilies []string `yaml:"exclude_families"`
	ExcludeTags     []string `yaml:"exclude_tags"`
}

// Merge returns a filter excluding everything either filter excludes.
func (f Filter) Merge(o Filter) Filter {
	return Filter{
		ExcludeTypes:    concat(f.ExcludeTypes, o.ExcludeTypes),
		ExcludeFamilies: concat(f.ExcludeFamilies, o.ExcludeFamilies),
		ExcludeTags:     concat(f.ExcludeTags, o.ExcludeTags),
	}
}

// Excludes reports whether e matches any exclusion.
func (f Filter) Excludes(e engine.Entity) bool {
	return !f.query(vec.Zero, 0, 0).Matches(e)
}

func (f Filter) query(loc vec.Vec3, radius float64, closest int) engine.EntityQuery {
	return engine.EntityQuery{
		Location:        loc,
		MaxDistance:     radius,
		Closest:         closest,
		ExcludeTypes:    f.ExcludeTypes,
		ExcludeFamilies: f.ExcludeFamilies,
		ExcludeTags:     f.ExcludeTags,
	}
}

// Probe is one sampled volume. Offset is in view space relative to the head:
// X right, Y up, Z forward. Filter adds to the attack-wide filter for this
// volume only.
type Probe struct {
	Offset  vec.Vec3 `yaml:"offset"`
	Radius  float64  `yaml:"radius"`
	Closest int      `yaml:"closest"`
	Filter  Filter   `yaml:"filter,omitempty"`
}

// Options for Acquire
type Options struct {
	Filter         Filter
	RequireRaycast bool
	// PointBlank overrides DefaultPointBlank when positive.
	PointBlank float64
	// HeadFront is the attack-front origin for the second visibility ray.
	// Zero means "use the head location".
	HeadFront vec.Vec3
}

// Acquire samples every probe around attacker and returns the deduplicated
// eligible entities in discovery order. A probe that fails is skipped.
func Acquire(w engine.World, attacker engine.Actor, probes []Probe, opts Options) []engine.Entity {
	var (
		result []engine.Entity
		seen   = make(map[string]struct{})
	)

	head, view, dim, ok := pose(attacker)
	if !ok {
		return nil
	}
	front := opts.HeadFront
	if front.IsZero() {
		front = head
	}
	pointBlank := opts.PointBlank
	if pointBlank <= 0 {
		pointBlank = DefaultPointBlank
	}

	for _, p := range probes {
		loc := vec.RelativeToHead(head, view, p.Offset)
		candidates := query(dim, opts.Filter.Merge(p.Filter).query(loc, p.Radius, p.Closest))

		for _, e := range candidates {
			id, ok := safeID(e)
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			if !CanHurt(w, attacker, e) {
				continue
			}
			if opts.RequireRaycast && !withinPointBlank(head, e, pointBlank) && !IsVisible(dim, head, front, e) {
				continue
			}
			seen[id] = struct{}{}
			result = append(result, e)
		}
	}

	return result
}

// Nearby runs a single radius query around loc and keeps eligible entities.
func Nearby(w engine.World, attacker engine.Actor, loc vec.Vec3, radius float64, closest int, f Filter) []engine.Entity {
	dim := attacker.Dimension()
	if dim == nil {
		return nil
	}
	var out []engine.Entity
	for _, e := range query(dim, f.query(loc, radius, closest)) {
		if CanHurt(w, attacker, e) {
			out = append(out, e)
		}
	}
	return out
}

// CanHurt applies the self, validity and PvP eligibility rules.
func CanHurt(w engine.World, attacker, target engine.Entity) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if target == nil || !target.IsValid() {
		return false
	}
	if attacker != nil && target.ID() == attacker.ID() {
		return false
	}
	if p, isActor := engine.AsActor(target); isActor {
		if !w.PvPEnabled() {
			return false
		}
		if engine.IsCreativeOrSpectator(p) {
			return false
		}
	}
	return true
}

// Lookup returns e only while it is still valid.
func Lookup(e engine.Entity) (engine.Entity, bool) {
	if e == nil {
		return nil, false
	}
	valid := false
	func() {
		defer func() { _ = recover() }()
		valid = e.IsValid()
	}()
	if !valid {
		return nil, false
	}
	return e, true
}

func pose(a engine.Actor) (head, view vec.Vec3, dim engine.Dimension, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if a == nil || !a.IsValid() {
		return head, view, nil, false
	}
	dim = a.Dimension()
	return a.HeadLocation(), a.ViewDirection(), dim, dim != nil
}

func query(dim engine.Dimension, q engine.EntityQuery) (out []engine.Entity) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	return dim.EntitiesNear(q)
}

func safeID(e engine.Entity) (id string, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if e == nil {
		return "", false
	}
	return e.ID(), true
}

func withinPointBlank(head vec.Vec3, e engine.Entity, d float64) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return head.Distance(e.Location()) <= d
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
