package telemetry

import (
	"github.com/lc-studios-mc/slasher-sword-addon/internal/engine"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/session"
)

// Recorder turns session lifecycle and weapon callbacks into log events and
// metric updates. It satisfies both session.Observer and slasher.Observer.
type Recorder struct {
	log     *EventLog
	metrics *Metrics
	clock   func() uint64
}

// NewRecorder wires a recorder. Either sink may be nil; clock supplies the
// current engine tick.
func NewRecorder(log *EventLog, metrics *Metrics, clock func() uint64) *Recorder {
	if clock == nil {
		clock = func() uint64 { return 0 }
	}
	return &Recorder{log: log, metrics: metrics, clock: clock}
}

func (r *Recorder) emit(t EventType, actorID string, payload interface{}) {
	if r.log != nil {
		r.log.EmitSimple(t, r.clock(), actorID, payload)
	}
}

// SessionCreated implements session.Observer.
func (r *Recorder) SessionCreated(info session.Info) {
	if r.metrics != nil {
		r.metrics.sessionsCreated.Inc()
		r.metrics.activeSessions.Inc()
	}
	r.emit(EventTypeSessionCreated, info.ActorID, sessionPayload(info, ""))
}

// SessionRemoved implements session.Observer.
func (r *Recorder) SessionRemoved(info session.Info, reason session.RemovalReason) {
	if r.metrics != nil {
		r.metrics.sessionsRemoved.WithLabelValues(reason.String()).Inc()
		r.metrics.activeSessions.Dec()
	}
	r.emit(EventTypeSessionRemoved, info.ActorID, sessionPayload(info, reason.String()))
}

// HookFailed implements session.Observer.
func (r *Recorder) HookFailed(info session.Info, hook string, err error) {
	if r.metrics != nil {
		r.metrics.hookPanics.WithLabelValues(hook).Inc()
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.emit(EventTypeHookFailed, info.ActorID, HookPayload{SessionID: info.ID, Hook: hook, Error: msg})
}

// StateChanged implements slasher.Observer.
func (r *Recorder) StateChanged(actor engine.Actor, from, to string) {
	if r.metrics != nil {
		r.metrics.stateTransitions.WithLabelValues(to).Inc()
	}
	r.emit(EventTypeStateChanged, entityID(actor), StatePayload{From: from, To: to})
}

// Damaged implements slasher.Observer.
func (r *Recorder) Damaged(attacker, target engine.Entity, amount float64, attack string) {
	if r.metrics != nil {
		if amount > 0 {
			r.metrics.damageDealt.WithLabelValues(attack).Add(amount)
		}
		r.metrics.hits.WithLabelValues(attack).Inc()
	}
	p := DamagePayload{
		AttackerID: entityID(attacker),
		TargetID:   entityID(target),
		Amount:     amount,
		Attack:     attack,
	}
	if target != nil {
		p.TargetType = target.TypeID()
	}
	r.emit(EventTypeDamage, p.AttackerID, p)
}

func sessionPayload(info session.Info, reason string) SessionPayload {
	return SessionPayload{
		SessionID: info.ID,
		ItemType:  info.ItemType,
		ActorName: info.ActorName,
		Slot:      info.Slot,
		Clock:     info.Clock,
		Reason:    reason,
	}
}

func entityID(e engine.Entity) string {
	if e == nil {
		return ""
	}
	return e.ID()
}
