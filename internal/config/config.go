// Package config provides centralized configuration for the sandbox.
//
// Every section has a DefaultX constructor and an XFromEnv variant that
// overlays SLASHER_* environment variables. Load assembles all sections.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrInvalidConfig is returned when a value parses but is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// ParseEnv overlays environment variables onto target. Fields whose
// variable is unset keep their current value.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// =============================================================================
// SIMULATION
// =============================================================================

// SimConfig controls the in-memory world the sandbox runs.
type SimConfig struct {
	TickRate  int     `env:"SLASHER_TICK_RATE"`  // ticks per second
	Seed      int64   `env:"SLASHER_SEED"`       // 0 picks a time based seed
	PvP       bool    `env:"SLASHER_PVP"`        // players can hurt players
	Mobs      int     `env:"SLASHER_MOBS"`       // dummies spawned around the player
	MobRadius float64 `env:"SLASHER_MOB_RADIUS"` // ring radius in blocks
	MobHealth float64 `env:"SLASHER_MOB_HEALTH"`
	Script    bool    `env:"SLASHER_SCRIPT"` // drive the player with the demo script
}

// DefaultSim returns the default world settings.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:  20,
		PvP:       false,
		Mobs:      8,
		MobRadius: 4,
		MobHealth: 60,
		Script:    true,
	}
}

// SimFromEnv returns world settings with environment overrides.
func SimFromEnv() (SimConfig, error) {
	cfg := DefaultSim()
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.TickRate <= 0 || cfg.TickRate > 200 {
		return cfg, fmt.Errorf("%w: SLASHER_TICK_RATE %d", ErrInvalidConfig, cfg.TickRate)
	}
	if cfg.Mobs < 0 {
		return cfg, fmt.Errorf("%w: SLASHER_MOBS %d", ErrInvalidConfig, cfg.Mobs)
	}
	return cfg, nil
}

// =============================================================================
// WEAPON TUNING
// =============================================================================

// TuningConfig points at an optional YAML overlay of the weapon tuning.
type TuningConfig struct {
	Path string `env:"SLASHER_TUNING_PATH"` // empty uses the built-in values
}

// DefaultTuning returns the default tuning settings.
func DefaultTuning() TuningConfig {
	return TuningConfig{}
}

// TuningFromEnv returns tuning settings with environment overrides.
func TuningFromEnv() (TuningConfig, error) {
	cfg := DefaultTuning()
	err := ParseEnv(&cfg)
	return cfg, err
}

// =============================================================================
// TELEMETRY
// =============================================================================

// TelemetryConfig controls the combat event log.
type TelemetryConfig struct {
	EventLogPath   string `env:"SLASHER_EVENT_LOG"` // JSONL file; empty keeps events in memory
	EventBuffer    int    `env:"SLASHER_EVENT_BUFFER"`
	EventsPerSec   int    `env:"SLASHER_EVENTS_PER_SEC"`
	EventsPerActor int    `env:"SLASHER_EVENTS_PER_ACTOR"`
}

// DefaultTelemetry returns the default telemetry settings.
func DefaultTelemetry() TelemetryConfig {
	return TelemetryConfig{
		EventBuffer:    1024,
		EventsPerSec:   10000,
		EventsPerActor: 200,
	}
}

// TelemetryFromEnv returns telemetry settings with environment overrides.
func TelemetryFromEnv() (TelemetryConfig, error) {
	cfg := DefaultTelemetry()
	err := ParseEnv(&cfg)
	return cfg, err
}

// =============================================================================
// DEBUG SERVER
// =============================================================================

// DebugConfig holds the debug API and the pprof/metrics listener.
type DebugConfig struct {
	Enabled      bool     `env:"SLASHER_DEBUG"`
	Addr         string   `env:"SLASHER_DEBUG_ADDR"`
	CORSOrigins  []string `env:"SLASHER_CORS_ORIGINS" envSeparator:","`
	RequestRate  float64  `env:"SLASHER_DEBUG_RPS"`
	RequestBurst int      `env:"SLASHER_DEBUG_BURST"`
	RenderRate   float64  `env:"SLASHER_DEBUG_RENDER_RPS"`
	RenderBurst  int      `env:"SLASHER_DEBUG_RENDER_BURST"`

	ObservabilityAddr     string `env:"SLASHER_PPROF_ADDR"`
	ObservabilityExternal bool   `env:"SLASHER_PPROF_EXTERNAL"`
	BasicAuthUser         string `env:"SLASHER_DEBUG_USER"`
	BasicAuthPass         string `env:"SLASHER_DEBUG_PASS"`
}

// DefaultDebug returns the default debug settings. Both listeners bind to
// loopback.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:           true,
		Addr:              "127.0.0.1:8080",
		RequestRate:       20,
		RequestBurst:      40,
		RenderRate:        2,
		RenderBurst:       4,
		ObservabilityAddr: "127.0.0.1:6060",
	}
}

// DebugFromEnv returns debug settings with environment overrides.
func DebugFromEnv() (DebugConfig, error) {
	cfg := DefaultDebug()
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.RequestRate <= 0 || cfg.RequestBurst <= 0 {
		return cfg, fmt.Errorf("%w: debug rate limit %v/%d", ErrInvalidConfig, cfg.RequestRate, cfg.RequestBurst)
	}
	if cfg.RenderRate <= 0 || cfg.RenderBurst <= 0 {
		return cfg, fmt.Errorf("%w: debug render limit %v/%d", ErrInvalidConfig, cfg.RenderRate, cfg.RenderBurst)
	}
	return cfg, nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// SnapshotConfig controls periodic PNG renders of the world.
type SnapshotConfig struct {
	Dir      string        `env:"SLASHER_SNAPSHOT_DIR"` // empty disables periodic snapshots
	Interval time.Duration `env:"SLASHER_SNAPSHOT_INTERVAL"`
	Size     int           `env:"SLASHER_SNAPSHOT_SIZE"` // square image, pixels
	Scale    float64       `env:"SLASHER_SNAPSHOT_SCALE"` // pixels per block
}

// DefaultSnapshot returns the default snapshot settings.
func DefaultSnapshot() SnapshotConfig {
	return SnapshotConfig{
		Interval: 5 * time.Second,
		Size:     512,
		Scale:    24,
	}
}

// SnapshotFromEnv returns snapshot settings with environment overrides.
func SnapshotFromEnv() (SnapshotConfig, error) {
	cfg := DefaultSnapshot()
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Dir != "" && cfg.Interval <= 0 {
		return cfg, fmt.Errorf("%w: SLASHER_SNAPSHOT_INTERVAL %s", ErrInvalidConfig, cfg.Interval)
	}
	return cfg, nil
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete sandbox configuration.
type AppConfig struct {
	Sim       SimConfig
	Tuning    TuningConfig
	Telemetry TelemetryConfig
	Debug     DebugConfig
	Snapshot  SnapshotConfig
}

// Load returns the complete configuration with environment overrides.
func Load() (AppConfig, error) {
	var (
		cfg AppConfig
		err error
	)
	if cfg.Sim, err = SimFromEnv(); err != nil {
		return cfg, err
	}
	if cfg.Tuning, err = TuningFromEnv(); err != nil {
		return cfg, err
	}
	if cfg.Telemetry, err = TelemetryFromEnv(); err != nil {
		return cfg, err
	}
	if cfg.Debug, err = DebugFromEnv(); err != nil {
		return cfg, err
	}
	if cfg.Snapshot, err = SnapshotFromEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
