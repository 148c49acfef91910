package engine

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

// EntityQuery selects entities around a point. Results are ordered closest
// first and truncated to Closest when it is positive.
type EntityQuery struct {
	Location        vec.Vec3
	MaxDistance     float64
	Closest         int
	Families        []string
	ExcludeTypes    []string
	ExcludeFamilies []string
	ExcludeTags     []string
}

// Matches applies the type, family and tag filters of q to e. Distance is not
// checked.
func (q EntityQuery) Matches(e Entity) bool {
	for _, t := range q.ExcludeTypes {
		if e.TypeID() == t {
			return false
		}
	}
	for _, f := range q.ExcludeFamilies {
		if e.HasFamily(f) {
			return false
		}
	}
	for _, tag := range q.ExcludeTags {
		if e.HasTag(tag) {
			return false
		}
	}
	for _, f := range q.Families {
		if !e.HasFamily(f) {
			return false
		}
	}
	return true
}

// BlockHit is the result of a block raycast.
type BlockHit struct {
	Block        string
	Location     vec.Vec3
	FaceLocation vec.Vec3
}

// Dimension is one simulated space with its own entities and blocks.
type Dimension interface {
	ID() string
	EntitiesNear(q EntityQuery) []Entity
	Players(q EntityQuery) []Actor
	RaycastEntities(origin, dir vec.Vec3, maxDist float64) []Entity
	RaycastBlock(origin, dir vec.Vec3, maxDist float64) (BlockHit, bool)
	PlaySound(id string, loc vec.Vec3, opts SoundOptions) error
	SpawnParticle(id string, loc vec.Vec3) error
	SpawnEntity(typeID string, loc vec.Vec3) (Entity, error)
}

// TaskHandle identifies a scheduled callback.
type TaskHandle uint64

// Scheduler runs callbacks on later ticks. Callbacks run on the tick thread.
type Scheduler interface {
	RunTimeout(fn func(), ticks int) TaskHandle
	ClearRun(h TaskHandle)
}

// World is the process-wide view of the host engine.
type World interface {
	Scheduler

	Actors() ([]Actor, error)
	Entity(id string) (Entity, bool)
	PvPEnabled() bool
	CurrentTick() uint64
}
