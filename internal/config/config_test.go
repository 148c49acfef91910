package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port int `env:"SLASHER_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Errorf("Expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("SLASHER_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Errorf("Expected a parse env error, got %v", err)
	}
}

// TestLoadDefaults tests that an empty environment yields the defaults
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sim != DefaultSim() {
		t.Errorf("Expected default sim, got %+v", cfg.Sim)
	}
	if cfg.Debug.Addr != "127.0.0.1:8080" || cfg.Debug.ObservabilityAddr != "127.0.0.1:6060" {
		t.Errorf("Expected loopback listeners, got %+v", cfg.Debug)
	}
	if cfg.Tuning.Path != "" {
		t.Errorf("Expected no tuning file, got %q", cfg.Tuning.Path)
	}
	if cfg.Snapshot.Interval != 5*time.Second {
		t.Errorf("Expected 5s snapshots, got %s", cfg.Snapshot.Interval)
	}
}

// TestLoadOverrides tests environment overrides per section
func TestLoadOverrides(t *testing.T) {
	t.Setenv("SLASHER_TICK_RATE", "40")
	t.Setenv("SLASHER_PVP", "true")
	t.Setenv("SLASHER_MOBS", "3")
	t.Setenv("SLASHER_TUNING_PATH", "/etc/slasher/tuning.yaml")
	t.Setenv("SLASHER_EVENT_LOG", "combat.jsonl")
	t.Setenv("SLASHER_CORS_ORIGINS", "http://localhost:*,https://tools.example")
	t.Setenv("SLASHER_SNAPSHOT_DIR", "/tmp/frames")
	t.Setenv("SLASHER_SNAPSHOT_INTERVAL", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sim.TickRate != 40 || !cfg.Sim.PvP || cfg.Sim.Mobs != 3 {
		t.Errorf("Unexpected sim %+v", cfg.Sim)
	}
	if cfg.Sim.MobRadius != DefaultSim().MobRadius {
		t.Errorf("Expected mob radius kept, got %v", cfg.Sim.MobRadius)
	}
	if cfg.Tuning.Path != "/etc/slasher/tuning.yaml" {
		t.Errorf("Unexpected tuning path %q", cfg.Tuning.Path)
	}
	if cfg.Telemetry.EventLogPath != "combat.jsonl" || cfg.Telemetry.EventBuffer != 1024 {
		t.Errorf("Unexpected telemetry %+v", cfg.Telemetry)
	}
	if len(cfg.Debug.CORSOrigins) != 2 || cfg.Debug.CORSOrigins[1] != "https://tools.example" {
		t.Errorf("Unexpected origins %v", cfg.Debug.CORSOrigins)
	}
	if cfg.Snapshot.Dir != "/tmp/frames" || cfg.Snapshot.Interval != 250*time.Millisecond {
		t.Errorf("Unexpected snapshot %+v", cfg.Snapshot)
	}
}

// TestLoadInvalid tests range checks
func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"zero tick rate", "SLASHER_TICK_RATE", "0"},
		{"huge tick rate", "SLASHER_TICK_RATE", "1000"},
		{"negative mobs", "SLASHER_MOBS", "-1"},
		{"zero rps", "SLASHER_DEBUG_RPS", "0"},
		{"zero render burst", "SLASHER_DEBUG_RENDER_BURST", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	t.Run("snapshot interval", func(t *testing.T) {
		t.Setenv("SLASHER_SNAPSHOT_DIR", "/tmp/frames")
		t.Setenv("SLASHER_SNAPSHOT_INTERVAL", "0s")
		if _, err := SnapshotFromEnv(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("unparsable", func(t *testing.T) {
		t.Setenv("SLASHER_SEED", "abc")
		if _, err := Load(); err == nil || errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected a parse error, got %v", err)
		}
	})
}
