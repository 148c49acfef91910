package telemetry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func quietLog(cfg EventLogConfig) *EventLog {
	cfg.Logger = log.New(io.Discard, "", 0)
	return NewEventLog(cfg)
}

func decodeLines(t *testing.T, r io.Reader) []Event {
	t.Helper()
	var out []Event
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("Expected JSON line, got %q: %v", sc.Text(), err)
		}
		out = append(out, ev)
	}
	return out
}

// TestEventTypeString tests the event type names
func TestEventTypeString(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventTypeSessionCreated, "session_created"},
		{EventTypeSessionRemoved, "session_removed"},
		{EventTypeHookFailed, "hook_failed"},
		{EventTypeStateChanged, "state_changed"},
		{EventTypeDamage, "damage"},
		{EventType(200), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

// TestNewEvent tests IDs and payload encoding
func TestNewEvent(t *testing.T) {
	a := NewEvent(EventTypeDamage, 12, "p1", DamagePayload{TargetID: "m1", Amount: 8, Attack: "charged"})
	b := NewEvent(EventTypeDamage, 12, "p1", nil)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.Version != EventVersion || a.TickNum != 12 || a.ActorID != "p1" {
		t.Errorf("Unexpected event header %+v", a)
	}
	var p DamagePayload
	if err := json.Unmarshal(a.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Amount != 8 || p.Attack != "charged" {
		t.Errorf("Expected the payload round trip, got %+v", p)
	}
}

// TestEventLogNotRunning tests that Emit refuses events before Start
func TestEventLogNotRunning(t *testing.T) {
	el := quietLog(EventLogConfig{})
	if el.EmitSimple(EventTypeDamage, 0, "", nil) {
		t.Error("Expected Emit to fail before Start")
	}
}

// TestEventLogWritesJSONL tests sequencing and the final flush on Stop
func TestEventLogWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	el := quietLog(EventLogConfig{})
	if err := el.StartWriter(&buf); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if !el.EmitSimple(EventTypeStateChanged, uint64(i), "p1", StatePayload{From: "idle", To: "charging"}) {
			t.Fatalf("Expected event %d accepted", i)
		}
	}
	el.Stop()
	el.Stop()

	events := decodeLines(t, &buf)
	if len(events) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(events))
	}
	for i, ev := range events {
		if ev.Sequence != uint64(i+1) {
			t.Errorf("Expected sequence %d, got %d", i+1, ev.Sequence)
		}
		if ev.Type != EventTypeStateChanged {
			t.Errorf("Expected state_changed, got %s", ev.Type)
		}
	}
	if got := el.GetTotalCount(); got != 3 {
		t.Errorf("Expected total 3, got %d", got)
	}
}

// TestEventLogFile tests appending to a file path
func TestEventLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combat.jsonl")
	for run := 0; run < 2; run++ {
		el := quietLog(EventLogConfig{})
		if err := el.Start(path); err != nil {
			t.Fatal(err)
		}
		el.EmitSimple(EventTypeDamage, 1, "", DamagePayload{Amount: 1})
		el.Stop()
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if got := len(decodeLines(t, f)); got != 2 {
		t.Errorf("Expected 2 appended lines, got %d", got)
	}
}

// TestEventLogBackpressure tests that a full buffer drops the oldest events
func TestEventLogBackpressure(t *testing.T) {
	el := quietLog(EventLogConfig{BufferSize: 4, GlobalRate: 100000})
	// running without the writer goroutines so nothing drains behind our back
	el.running.Store(true)

	for i := 0; i < 10; i++ {
		el.EmitSimple(EventTypeDamage, uint64(i), "", nil)
	}
	if got := el.GetDroppedCount(); got != 6 {
		t.Errorf("Expected 6 dropped, got %d", got)
	}
	if got := el.GetStats()["pending"].(uint64); got != 4 {
		t.Errorf("Expected 4 pending, got %d", got)
	}

	el.Flush()
	recent := el.Recent(0)
	if len(recent) != 4 {
		t.Fatalf("Expected 4 recent events, got %d", len(recent))
	}
	if recent[0].TickNum != 6 || recent[3].TickNum != 9 {
		t.Errorf("Expected ticks 6..9 kept, got %d..%d", recent[0].TickNum, recent[3].TickNum)
	}
}

// TestEventLogActorRateLimit tests that one actor cannot flood the log
func TestEventLogActorRateLimit(t *testing.T) {
	el := quietLog(EventLogConfig{ActorRate: 50})
	el.running.Store(true)

	accepted := 0
	for i := 0; i < 100; i++ {
		if el.EmitSimple(EventTypeDamage, 0, "spammer", nil) {
			accepted++
		}
	}
	if accepted >= 100 || el.GetDroppedCount() == 0 {
		t.Errorf("Expected the actor limiter to drop events, accepted %d", accepted)
	}
	if !el.EmitSimple(EventTypeDamage, 0, "someone-else", nil) {
		t.Error("Expected another actor to be unaffected")
	}
}

// TestEventLogRecentWraps tests the recent window keeps the newest events
func TestEventLogRecentWraps(t *testing.T) {
	el := quietLog(EventLogConfig{RecentEvents: 3, GlobalRate: 100000})
	el.running.Store(true)
	for i := 0; i < 5; i++ {
		el.EmitSimple(EventTypeDamage, uint64(i), "", nil)
	}
	el.Flush()

	got := el.Recent(2)
	if len(got) != 2 || got[0].TickNum != 3 || got[1].TickNum != 4 {
		t.Errorf("Expected ticks 3 and 4, got %+v", got)
	}
}

// TestEventLogSubscribe tests fan-out to subscribers
func TestEventLogSubscribe(t *testing.T) {
	el := quietLog(EventLogConfig{})
	el.running.Store(true)

	var mu sync.Mutex
	var seen []uint64
	cancel := el.Subscribe(func(ev Event) {
		mu.Lock()
		seen = append(seen, ev.Sequence)
		mu.Unlock()
	})

	el.EmitSimple(EventTypeDamage, 0, "", nil)
	el.Flush()
	cancel()
	el.EmitSimple(EventTypeDamage, 0, "", nil)
	el.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != 1 {
		t.Errorf("Expected only the first event delivered, got %v", seen)
	}
}

// TestEventLogCleanup tests that idle actor limiters are evicted
func TestEventLogCleanup(t *testing.T) {
	el := quietLog(EventLogConfig{})
	el.running.Store(true)
	el.EmitSimple(EventTypeDamage, 0, "p1", nil)

	el.cleanupActorLimiters(time.Now().Add(time.Minute))
	if _, ok := el.actorLimiters.Load("p1"); ok {
		t.Error("Expected the idle limiter evicted")
	}
}
