// Package telemetry records combat events to a bounded JSONL log and exports
// Prometheus metrics for the session manager and the Slasher state graph.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeSessionCreated
	EventTypeSessionRemoved
	EventTypeHookFailed
	EventTypeStateChanged
	EventTypeDamage
)

// EventVersion for backwards compatibility of the log format
const EventVersion uint8 = 1

// Event is one entry of the combat log
type Event struct {
	ID        string          `json:"id"`        // ULID, sortable by creation time
	Version   uint8           `json:"version"`   // Schema version
	Type      EventType       `json:"type"`      // Event type
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence, set by EventLog
	TickNum   uint64          `json:"tickNum"`   // Engine tick this occurred in
	ActorID   string          `json:"actorId"`   // Source actor (for rate limiting)
	Payload   json.RawMessage `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeSessionCreated:
		return "session_created"
	case EventTypeSessionRemoved:
		return "session_removed"
	case EventTypeHookFailed:
		return "hook_failed"
	case EventTypeStateChanged:
		return "state_changed"
	case EventTypeDamage:
		return "damage"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// SessionPayload describes a session being created or removed
type SessionPayload struct {
	SessionID string `json:"sessionId"`
	ItemType  string `json:"itemType"`
	ActorName string `json:"actorName"`
	Slot      int    `json:"slot"`
	Clock     uint64 `json:"clock"`
	Reason    string `json:"reason,omitempty"`
}

// HookPayload describes a recovered handler panic
type HookPayload struct {
	SessionID string `json:"sessionId"`
	Hook      string `json:"hook"`
	Error     string `json:"error"`
}

// StatePayload is a weapon state transition
type StatePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DamagePayload is one landed hit
type DamagePayload struct {
	AttackerID string  `json:"attackerId,omitempty"`
	TargetID   string  `json:"targetId"`
	TargetType string  `json:"targetType"`
	Amount     float64 `json:"amount"`
	Attack     string  `json:"attack"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with a fresh ID and the current timestamp
func NewEvent(eventType EventType, tickNum uint64, actorID string, payload interface{}) Event {
	now := time.Now()
	return Event{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: now.UnixNano(),
		TickNum:   tickNum,
		ActorID:   actorID,
		Payload:   EncodePayload(payload),
	}
}
