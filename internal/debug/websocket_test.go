package debug

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/telemetry"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dial(t *testing.T, ts *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

// TestCombatFeed tests events flowing from the log to a websocket client
func TestCombatFeed(t *testing.T) {
	quiet := log.New(io.Discard, "", 0)
	el := telemetry.NewEventLog(telemetry.EventLogConfig{Logger: quiet})
	if err := el.StartWriter(nil); err != nil {
		t.Fatal(err)
	}
	defer el.Stop()

	cfg := testConfig()
	s := NewServer(ServerConfig{RouterConfig: cfg, Feed: el, Logger: quiet})
	s.StartWorkers()
	defer s.Shutdown(context.Background())

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	conn, _, err := dial(t, ts, "http://localhost:3000")
	if err != nil {
		t.Fatalf("Expected the upgrade to succeed, got %v", err)
	}
	defer conn.Close()
	waitFor(t, "client registration", func() bool { return s.Hub().ClientCount() == 1 })

	el.EmitSimple(telemetry.EventTypeStateChanged, 9, "p1", telemetry.StatePayload{From: "idle", To: "charging"})
	el.Flush()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var msg struct {
		Event string          `json:"event"`
		Data  telemetry.Event `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != "state_changed" || msg.Data.TickNum != 9 {
		t.Errorf("Unexpected message %s", data)
	}
}

// TestWebSocketOriginRejected tests the upgrader origin check
func TestWebSocketOriginRejected(t *testing.T) {
	quiet := log.New(io.Discard, "", 0)
	s := NewServer(ServerConfig{RouterConfig: testConfig(), Logger: quiet})
	s.StartWorkers()
	defer s.Shutdown(context.Background())

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	_, resp, err := dial(t, ts, "https://evil.example")
	if err == nil {
		t.Fatal("Expected the upgrade to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %v", resp)
	}
	waitFor(t, "slot release", func() bool { return s.Hub().slots.count("127.0.0.1") == 0 })
}

// TestHubDisconnect tests that closed clients are dropped
func TestHubDisconnect(t *testing.T) {
	quiet := log.New(io.Discard, "", 0)
	s := NewServer(ServerConfig{RouterConfig: testConfig(), Logger: quiet})
	s.StartWorkers()
	defer s.Shutdown(context.Background())

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	conn, _, err := dial(t, ts, "http://127.0.0.1:9000")
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, "client registration", func() bool { return s.Hub().ClientCount() == 1 })

	conn.Close()
	waitFor(t, "client removal", func() bool { return s.Hub().ClientCount() == 0 })
}
