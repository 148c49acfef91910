package targeting

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// rays without an explicit range
const defaultRayDistance = 32.0

// IsVisible checks line of sight from head to the target body, then from
// front to the target head, then to a point just above the head.
func IsVisible(dim engine.Dimension, head, front vec.Vec3, target engine.Entity) bool {
	loc, targetHead, ok := targetPoints(target)
	if !ok {
		return false
	}
	if RayHits(dim, head, loc.Sub(head), 0, target) {
		return true
	}
	if RayHits(dim, front, targetHead.Sub(head), 0, target) {
		return true
	}
	above := targetHead.Add(vec.New(0, 0.3, 0))
	return RayHits(dim, front, above.Sub(front), 0, target)
}

// RayHits reports whether a ray from origin along dir reaches target before
// anything solid. maxDist <= 0 uses a default range.
func RayHits(dim engine.Dimension, origin, dir vec.Vec3, maxDist float64, target engine.Entity) (hit bool) {
	defer func() {
		if recover() != nil {
			hit = false
		}
	}()

	if dir.IsZero() {
		return false
	}
	if maxDist <= 0 {
		maxDist = defaultRayDistance
	}
	id := target.ID()
	for _, e := range dim.RaycastEntities(origin, dir.Normalize(), maxDist) {
		if e != nil && e.ID() == id {
			return true
		}
	}
	return false
}

func targetPoints(e engine.Entity) (loc, head vec.Vec3, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if e == nil || !e.IsValid() {
		return loc, head, false
	}
	return e.Location(), e.HeadLocation(), true
}
