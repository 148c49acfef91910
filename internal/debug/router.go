// Package debug serves a read-only HTTP view of the combat core: live
// sessions, beams in flight, the combat event log, the active tuning and a
// websocket feed of combat events.
package debug

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/session"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/slasher"
	"github.com/lc-studios-mc/slasher-sword-addon/internal/telemetry"
)

// SessionSource is the part of session.Manager the API reads.
type SessionSource interface {
	Snapshot() []session.Info
	GetStats() map[string]interface{}
}

// BeamSource is the part of slasher.BeamSystem the API reads.
type BeamSource interface {
	Snapshot() []slasher.BeamInfo
	GetStats() map[string]interface{}
}

// EventSource is the part of telemetry.EventLog the API reads.
type EventSource interface {
	Recent(n int) []telemetry.Event
	GetStats() map[string]interface{}
}

// WorldRenderer draws the current world as a PNG.
type WorldRenderer interface {
	RenderPNG(out io.Writer) error
}

// RenderFunc adapts a function to WorldRenderer.
type RenderFunc func(out io.Writer) error

func (f RenderFunc) RenderPNG(out io.Writer) error { return f(out) }

// RouterConfig contains the dependencies of the debug router. Every source
// is optional; a missing one answers 503.
type RouterConfig struct {
	Sessions SessionSource
	Beams    BeamSource
	Events   EventSource
	Tuning   *slasher.Tuning
	World    WorldRenderer

	// Hub serves /ws when set.
	Hub *Hub

	// Throttle is an optional shared throttle. If nil, one is created from
	// ThrottleConfig or DefaultThrottleConfig.
	Throttle       *Throttle
	ThrottleConfig *ThrottleConfig

	// CORSOrigins defaults to DefaultOrigins.
	CORSOrigins []string

	// Registerer receives the HTTP metrics. Nil disables them.
	Registerer prometheus.Registerer

	// DisableLogging disables the request logger middleware.
	DisableLogging bool
}

type routerHandlers struct {
	sessions SessionSource
	beams    BeamSource
	events   EventSource
	tuning   *slasher.Tuning
	world    WorldRenderer
}

// NewRouter constructs the debug router. It starts no goroutines and opens
// no listeners, so it is safe to use with httptest.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	metrics := newHTTPMetrics(cfg.Registerer)

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metrics.middleware)

	throttle := cfg.Throttle
	if throttle == nil {
		tc := DefaultThrottleConfig
		if cfg.ThrottleConfig != nil {
			tc = *cfg.ThrottleConfig
		}
		throttle = NewThrottle(tc)
	}
	throttle.onReject = metrics.rejected
	r.Use(throttle.Middleware)

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = DefaultOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{
		sessions: cfg.Sessions,
		beams:    cfg.Beams,
		events:   cfg.Events,
		tuning:   cfg.Tuning,
		world:    cfg.World,
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions", h.handleGetSessions)
		r.Get("/sessions/stats", h.handleSessionStats)
		r.Get("/sessions/{actorID}", h.handleGetSession)

		r.Get("/beams", h.handleGetBeams)
		r.Get("/beams/stats", h.handleBeamStats)

		r.Get("/events", h.handleGetEvents)
		r.Get("/events/stats", h.handleEventStats)

		r.Get("/tuning", h.handleGetTuning)
		r.Get("/throttle", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, throttle.GetStats())
		})
		r.Get("/world.png", h.handleWorldPNG)
	})

	if cfg.Hub != nil {
		cfg.Hub.metrics = metrics
		r.Get("/ws", cfg.Hub.HandleWebSocket)
	}

	return r
}
