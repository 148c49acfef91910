package main

import (
	"io"
	"log"
	"testing"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/session"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/sim"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/slasher"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

var testDummy = sim.BodySpec{
	TypeID:    "minecraft:zombie",
	Families:  []string{"zombie", "monster", "mob"},
	Health:    60,
	Width:     0.6,
	Height:    1.95,
	EyeHeight: 1.74,
}

func newTestWorld() (*sim.World, *log.Logger) {
	quiet := log.New(io.Discard, "", 0)
	w := sim.NewWorld(sim.Config{
		Seed:   1,
		Logger: quiet,
		Mobs:   map[string]sim.BodySpec{testDummy.TypeID: testDummy},
	})
	return w, quiet
}

// TestDirectorKeepsRing tests dummy respawns and item replacement
func TestDirectorKeepsRing(t *testing.T) {
	w, quiet := newTestWorld()
	p := w.AddPlayer("Steve", vec.Zero)
	d := newDirector(w, p, testDummy, 4, 4, false, quiet)
	d.spawnRing()
	w.SetHandlers(sim.Handlers{BeforeTick: d.tick})

	if len(d.slots) != 4 {
		t.Fatalf("Expected 4 slots, got %d", len(d.slots))
	}
	for i, s := range d.slots {
		if dist := s.home.Length(); dist < 3.99 || dist > 4.01 {
			t.Errorf("Slot %d: expected radius 4, got %v", i, dist)
		}
	}

	w.Steps(1)
	if item := p.Mainhand(); item == nil || item.TypeID != slasher.ItemType {
		t.Fatalf("Expected a slasher in hand, got %+v", item)
	}

	old := d.slots[0].mob
	w.Input(func() { _ = old.Remove() })

	w.Steps(respawnDelay)
	if d.slots[0].mob != nil {
		t.Fatalf("Expected the slot to wait %d ticks", respawnDelay)
	}
	w.Steps(1)
	mob := d.slots[0].mob
	if mob == nil || !mob.IsValid() || mob.ID() == old.ID() {
		t.Errorf("Expected a fresh dummy, got %v", mob)
	}
	if mob != nil && mob.Location().Distance(d.slots[0].home) > 0.01 {
		t.Errorf("Expected the dummy at %v, got %v", d.slots[0].home, mob.Location())
	}
}

// TestDirectorScript tests the scripted player driving a live session
func TestDirectorScript(t *testing.T) {
	w, quiet := newTestWorld()
	tuning := slasher.DefaultTuning()
	beams := slasher.NewBeamSystem(slasher.BeamConfig{World: w, Rand: w.Rand(), Logger: quiet})
	reg := session.NewRegistry()
	if err := slasher.Register(reg, slasher.Deps{Tuning: tuning, Beams: beams, Rand: w.Rand()}); err != nil {
		t.Fatal(err)
	}
	mgr := session.NewManager(session.Config{World: w, Registry: reg, Logger: quiet})

	p := w.AddPlayer("Steve", vec.Zero)
	d := newDirector(w, p, testDummy, 3, 4, true, quiet)
	d.spawnRing()
	w.SetHandlers(sim.Handlers{
		BeforeTick:          d.tick,
		Tick:                mgr.Tick,
		StartUse:            mgr.OnStartUse,
		StopUse:             mgr.OnStopUse,
		HitEntity:           mgr.OnHitEntity,
		HitBlock:            mgr.OnHitBlock,
		ProjectileHitEntity: beams.OnProjectileHitEntity,
		ProjectileHitBlock:  beams.OnProjectileHitBlock,
		Trigger:             beams.OnTrigger,
		EntityRemoved:       beams.OnEntityRemoved,
	})

	w.Steps(100)
	if mgr.Len() != 1 {
		t.Fatalf("Expected one session, got %d", mgr.Len())
	}
	if len(p.Animations()) == 0 {
		t.Error("Expected the script to play attack animations")
	}
	if d.next == 0 {
		t.Error("Expected the script to advance")
	}
}
