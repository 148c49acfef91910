package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/config"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/debug"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/session"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/sim"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/slasher"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/telemetry"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🗡️ ================================")
	log.Println("🗡️  SLASHER - COMBAT SANDBOX")
	log.Println("🗡️ ================================")

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}
	simCfg := appConfig.Sim

	tuning := slasher.DefaultTuning()
	if path := appConfig.Tuning.Path; path != "" {
		if tuning, err = slasher.LoadTuning(path); err != nil {
			log.Fatalf("❌ Tuning: %v", err)
		}
		log.Printf("⚖️ Tuning loaded from %s", path)
	}

	dummy := sim.BodySpec{
		TypeID:    "minecraft:zombie",
		Families:  []string{"zombie", "undead", "monster", "mob"},
		Health:    simCfg.MobHealth,
		Width:     0.6,
		Height:    1.95,
		EyeHeight: 1.74,
	}
	world := sim.NewWorld(sim.Config{
		TickRate: simCfg.TickRate,
		PvP:      simCfg.PvP,
		Seed:     simCfg.Seed,
		Projectiles: map[string]sim.ProjectileSpec{
			tuning.FastBeam.TypeID:    beamSpec(tuning.FastBeam),
			tuning.ChargedBeam.TypeID: beamSpec(tuning.ChargedBeam),
		},
		Mobs: map[string]sim.BodySpec{dummy.TypeID: dummy},
	})
	log.Printf("🎮 Config: %d TPS, PvP %v, %d dummies", simCfg.TickRate, simCfg.PvP, simCfg.Mobs)

	// Telemetry
	telCfg := appConfig.Telemetry
	eventLog := telemetry.NewEventLog(telemetry.EventLogConfig{
		BufferSize: telCfg.EventBuffer,
		GlobalRate: telCfg.EventsPerSec,
		ActorRate:  telCfg.EventsPerActor,
	})
	if telCfg.EventLogPath != "" {
		err = eventLog.Start(telCfg.EventLogPath)
	} else {
		err = eventLog.StartWriter(nil)
	}
	if err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else if telCfg.EventLogPath != "" {
		log.Printf("📝 Event log: %s", telCfg.EventLogPath)
	}
	metrics := telemetry.NewMetrics()
	metrics.WatchEventLog(eventLog)
	recorder := telemetry.NewRecorder(eventLog, metrics, world.CurrentTick)

	// Combat core
	beams := slasher.NewBeamSystem(slasher.BeamConfig{
		World:    world,
		Rand:     world.Rand(),
		Observer: recorder,
	})
	metrics.WatchBeams(beams.Len)

	registry := session.NewRegistry()
	if err := slasher.Register(registry, slasher.Deps{
		Tuning:   tuning,
		Beams:    beams,
		Rand:     world.Rand(),
		Observer: recorder,
	}); err != nil {
		log.Fatalf("❌ %v", err)
	}
	mgr := session.NewManager(session.Config{
		World:    world,
		Registry: registry,
		Observer: recorder,
	})

	player := world.AddPlayer("Steve", vec.Zero)
	player.SetSlot(0, slasher.NewItem(itemName, itemDurability))
	director := newDirector(world, player, dummy, simCfg.Mobs, simCfg.MobRadius, simCfg.Script, log.Default())
	director.spawnRing()

	world.SetHandlers(sim.Handlers{
		BeforeTick: director.tick,
		Tick:       mgr.Tick,
		AfterTick:  metrics.ObserveTick,

		StartUse:      mgr.OnStartUse,
		StopUse:       mgr.OnStopUse,
		HitEntity:     mgr.OnHitEntity,
		HitBlock:      mgr.OnHitBlock,
		HealthChanged: mgr.OnHealthChanged,
		Die:           mgr.OnDie,
		Hurt:          mgr.OnHurt,

		ProjectileHitEntity: beams.OnProjectileHitEntity,
		ProjectileHitBlock:  beams.OnProjectileHitBlock,
		Trigger:             beams.OnTrigger,
		EntityRemoved:       beams.OnEntityRemoved,

		ActorLeave: func(actorID string) {
			if n := beams.DropOwner(actorID); n > 0 {
				log.Printf("🧹 Dropped %d beams of %s", n, actorID)
			}
			if err := mgr.OnActorLeave(actorID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
				log.Printf("⚠️ Leave %s: %v", actorID, err)
			}
		},
		Shutdown: mgr.Shutdown,
	})

	// Debug surface
	debugCfg := appConfig.Debug
	var srv *debug.Server
	if debugCfg.Enabled {
		srv = debug.NewServer(debug.ServerConfig{
			RouterConfig: debug.RouterConfig{
				Sessions: mgr,
				Beams:    beams,
				Events:   eventLog,
				Tuning:   tuning,
				World: debug.RenderFunc(func(out io.Writer) error {
					return renderAround(world, player.ID(), out, appConfig.Snapshot)
				}),
				ThrottleConfig: &debug.ThrottleConfig{
					Default:   debug.RequestBudget{PerSecond: debugCfg.RequestRate, Burst: debugCfg.RequestBurst},
					Render:    debug.RequestBudget{PerSecond: debugCfg.RenderRate, Burst: debugCfg.RenderBurst},
					IdleAfter: debug.DefaultThrottleConfig.IdleAfter,
				},
				CORSOrigins: debugCfg.CORSOrigins,
				Registerer:  metrics.Registry(),
			},
			Feed: eventLog,
		})
		go func() {
			if err := srv.Start(debugCfg.Addr); err != nil {
				log.Fatalf("Failed to start debug server: %v", err)
			}
		}()
	} else {
		log.Println("⚠️ Debug API disabled (SLASHER_DEBUG=false)")
	}

	obs := debug.StartObservabilityServer(debug.ObservabilityConfig{
		Enabled:       debugCfg.Enabled,
		ListenAddr:    debugCfg.ObservabilityAddr,
		AllowExternal: debugCfg.ObservabilityExternal,
		BasicAuthUser: debugCfg.BasicAuthUser,
		BasicAuthPass: debugCfg.BasicAuthPass,
	}, metrics.Handler(), log.Default())

	world.Start()
	log.Println("✅ World started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if snap := appConfig.Snapshot; snap.Dir != "" {
		go snapshotLoop(ctx, world, player.ID(), snap)
		log.Printf("🖼️ Snapshots every %s in %s", snap.Interval, snap.Dir)
	}

	log.Println("✅ Sandbox ready! Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("🛑 Shutting down...")
	world.Stop()
	world.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️ Debug API shutdown: %v", err)
		}
	}
	if obs != nil {
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️ Observability shutdown: %v", err)
		}
	}
	eventLog.Stop()

	stats := mgr.GetStats()
	log.Printf("📊 Sessions created %v, removed %v", stats["created"], stats["removed"])
	log.Println("👋 Goodbye!")
}

func beamSpec(p slasher.BeamProfile) sim.ProjectileSpec {
	return sim.ProjectileSpec{
		Lifetime: p.Lifetime,
		Radius:   0.25,
		Drag:     1,
	}
}

// renderAround draws the latest snapshot centred on the body with id, or on
// the origin once it is gone.
func renderAround(w *sim.World, id string, out io.Writer, cfg config.SnapshotConfig) error {
	s := w.Snapshot()
	center := vec.Zero
	for _, b := range s.Bodies {
		if b.ID == id {
			center = b.Location
			break
		}
	}
	return s.RenderPNG(out, sim.RenderOptions{
		Width:  cfg.Size,
		Height: cfg.Size,
		Center: center,
		Scale:  cfg.Scale,
	})
}

func snapshotLoop(ctx context.Context, w *sim.World, id string, cfg config.SnapshotConfig) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		log.Printf("⚠️ Snapshots disabled: %v", err)
		return
	}
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			path := filepath.Join(cfg.Dir, fmt.Sprintf("tick-%08d.png", w.Snapshot().Tick))
			if err := writeSnapshot(w, id, path, cfg); err != nil {
				log.Printf("⚠️ Snapshot %s: %v", path, err)
			}
		}
	}
}

func writeSnapshot(w *sim.World, id, path string, cfg config.SnapshotConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := renderAround(w, id, f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
