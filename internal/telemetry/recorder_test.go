package telemetry

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/session"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/sim"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/slasher"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/vec"
)

var (
	_ session.Observer = (*Recorder)(nil)
	_ slasher.Observer = (*Recorder)(nil)
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func expectMetric(t *testing.T, body, line string) {
	t.Helper()
	if !strings.Contains(body, line+"\n") {
		t.Errorf("Expected metric line %q", line)
	}
}

// TestRecorderCombat tests state and damage callbacks
func TestRecorderCombat(t *testing.T) {
	w := sim.NewWorld(sim.Config{Seed: 1, Logger: log.New(io.Discard, "", 0)})
	p := w.AddPlayer("Steve", vec.Zero)
	mob := w.AddMob(sim.BodySpec{TypeID: "minecraft:zombie", Health: 20}, vec.New(0, 0, 2))

	el := quietLog(EventLogConfig{})
	el.running.Store(true)
	m := NewMetrics()
	r := NewRecorder(el, m, w.CurrentTick)

	r.StateChanged(p, slasher.StateIdle, slasher.StateCharging)
	r.StateChanged(p, slasher.StateCharging, slasher.StateChargedAttack)
	r.Damaged(p, mob, 14, slasher.AttackCharged)
	r.Damaged(nil, mob, 0, slasher.AttackChargedBeam)

	body := scrape(t, m)
	expectMetric(t, body, `slasher_state_transitions_total{to="charging"} 1`)
	expectMetric(t, body, `slasher_state_transitions_total{to="charged_attack"} 1`)
	expectMetric(t, body, `slasher_damage_dealt_total{attack="charged"} 14`)
	expectMetric(t, body, `slasher_hits_total{attack="charged_beam"} 1`)

	el.Flush()
	events := el.Recent(0)
	if len(events) != 4 {
		t.Fatalf("Expected 4 events, got %d", len(events))
	}
	if events[2].Type != EventTypeDamage || events[2].ActorID != p.ID() {
		t.Errorf("Expected a damage event from the player, got %+v", events[2])
	}
	if !bytes.Contains(events[2].Payload, []byte(`"targetType":"minecraft:zombie"`)) {
		t.Errorf("Expected the target type in the payload, got %s", events[2].Payload)
	}
}

// TestRecorderHookFailed tests panic accounting
func TestRecorderHookFailed(t *testing.T) {
	m := NewMetrics()
	r := NewRecorder(nil, m, nil)
	r.HookFailed(session.Info{ID: "s1"}, "OnTick", errors.New("boom"))
	r.HookFailed(session.Info{ID: "s1"}, "OnTick", nil)

	expectMetric(t, scrape(t, m), `slasher_hook_panics_total{hook="OnTick"} 2`)
}

// TestRecorderSessionLifecycle tests the recorder wired into a live manager
func TestRecorderSessionLifecycle(t *testing.T) {
	quiet := log.New(io.Discard, "", 0)
	w := sim.NewWorld(sim.Config{Seed: 1, Logger: quiet})

	var buf bytes.Buffer
	el := quietLog(EventLogConfig{})
	if err := el.StartWriter(&buf); err != nil {
		t.Fatal(err)
	}
	m := NewMetrics()
	m.WatchEventLog(el)
	r := NewRecorder(el, m, w.CurrentTick)

	reg := session.NewRegistry()
	if err := slasher.Register(reg, slasher.Deps{Observer: r}); err != nil {
		t.Fatal(err)
	}
	mgr := session.NewManager(session.Config{World: w, Registry: reg, Observer: r, Logger: quiet})
	w.SetHandlers(sim.Handlers{
		Tick:       mgr.Tick,
		AfterTick:  m.ObserveTick,
		ActorLeave: func(id string) { _ = mgr.OnActorLeave(id) },
	})

	p := w.AddPlayer("Steve", vec.Zero)
	p.SetSlot(0, slasher.NewItem("", 100))
	w.Steps(2)

	body := scrape(t, m)
	expectMetric(t, body, `slasher_sessions_created_total 1`)
	expectMetric(t, body, `slasher_sessions_active 1`)
	expectMetric(t, body, `slasher_tick_duration_seconds_count 2`)

	w.Leave(p)
	el.Stop()

	body = scrape(t, m)
	expectMetric(t, body, `slasher_sessions_removed_total{reason="actor_left"} 1`)
	expectMetric(t, body, `slasher_sessions_active 0`)
	expectMetric(t, body, `slasher_event_log_total 2`)

	events := decodeLines(t, &buf)
	if len(events) != 2 {
		t.Fatalf("Expected 2 logged events, got %d", len(events))
	}
	if events[0].Type != EventTypeSessionCreated || events[1].Type != EventTypeSessionRemoved {
		t.Errorf("Expected created then removed, got %s then %s", events[0].Type, events[1].Type)
	}
	if !bytes.Contains(events[1].Payload, []byte(`"reason":"actor_left"`)) {
		t.Errorf("Expected the removal reason, got %s", events[1].Payload)
	}
}

// TestWatchBeamsOnce tests that the beam gauge registers a single time
func TestWatchBeamsOnce(t *testing.T) {
	m := NewMetrics()
	m.WatchBeams(func() int { return 3 })
	m.WatchBeams(func() int { return 9 })
	m.ObserveTick(time.Millisecond)

	expectMetric(t, scrape(t, m), `slasher_beams_active 3`)
}
