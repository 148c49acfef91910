package debug

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lc-studios-mc/slasher-sword-addon/internal/telemetry"
)

// Feed is an event stream the server can forward to websocket clients.
type Feed interface {
	Subscribe(fn func(telemetry.Event)) (cancel func())
}

// ServerConfig is RouterConfig plus the live event feed.
type ServerConfig struct {
	RouterConfig
	Feed   Feed
	Logger *log.Logger
}

// Server is the debug HTTP API with the websocket combat feed.
type Server struct {
	router   *chi.Mux
	hub      *Hub
	throttle *Throttle
	feed     Feed
	logger   *log.Logger

	mu       sync.Mutex
	srv      *http.Server
	unsub    func()
	started  bool
	stopOnce sync.Once
}

// NewServer builds the server. Background workers do not start until Start,
// so Router can be used with httptest on its own.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Server{
		hub:    NewHub(cfg.CORSOrigins, cfg.Logger),
		feed:   cfg.Feed,
		logger: cfg.Logger,
	}

	s.throttle = cfg.Throttle
	if s.throttle == nil {
		tc := DefaultThrottleConfig
		if cfg.ThrottleConfig != nil {
			tc = *cfg.ThrottleConfig
		}
		s.throttle = NewThrottle(tc)
	}

	rc := cfg.RouterConfig
	rc.Throttle = s.throttle
	rc.Hub = s.hub
	s.router = NewRouter(rc)
	return s
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// StartWorkers runs the hub and forwards the event feed to it. Start calls
// it; tests that only need the websocket feed can call it directly.
func (s *Server) StartWorkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	go s.hub.Run()
	if s.feed != nil {
		s.unsub = s.feed.Subscribe(func(ev telemetry.Event) {
			s.hub.Broadcast(ev.Type.String(), ev)
		})
	}
}

// Start starts the workers and serves addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.StartWorkers()

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.srv
	s.mu.Unlock()

	s.logger.Printf("🌐 Debug API starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the listener, the feed and the background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		srv, unsub := s.srv, s.unsub
		s.mu.Unlock()

		if unsub != nil {
			unsub()
		}
		if srv != nil {
			err = srv.Shutdown(ctx)
		}
		s.hub.Stop()
	})
	return err
}
