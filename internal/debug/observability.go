package debug

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// httpMetrics are the debug surface's own collectors. Labels are bounded:
// route patterns, never raw URLs. A nil *httpMetrics records nothing.
type httpMetrics struct {
	requestLatency      *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	connectionRejected  *prometheus.CounterVec
	wsConnectionsActive prometheus.Gauge
	wsMessagesTotal     prometheus.Counter
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &httpMetrics{
		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "debug_http_request_duration_seconds",
			Help:    "Debug API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		requestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debug_http_requests_total",
			Help: "Debug API requests",
		}, []string{"method", "endpoint", "status"}),
		connectionRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debug_connection_rejected_total",
			Help: "Connections rejected by rate limiter or origin check",
		}, []string{"reason"}), // "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"
		wsConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "debug_websocket_connections_active",
			Help: "Currently connected combat feed clients",
		}),
		wsMessagesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "debug_websocket_messages_total",
			Help: "Combat feed messages broadcast",
		}),
	}
}

func (m *httpMetrics) rejected(reason string) {
	if m != nil {
		m.connectionRejected.WithLabelValues(reason).Inc()
	}
}

func (m *httpMetrics) wsClients(n int) {
	if m != nil {
		m.wsConnectionsActive.Set(float64(n))
	}
}

func (m *httpMetrics) wsMessage() {
	if m != nil {
		m.wsMessagesTotal.Inc()
	}
}

// middleware records latency per chi route pattern
func (m *httpMetrics) middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	})
}

// ObservabilityConfig configures the pprof and metrics server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // keep on loopback unless AllowExternal
	AllowExternal bool
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// NewObservabilityHandler builds the pprof, metrics and health mux.
func NewObservabilityHandler(cfg ObservabilityConfig, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartObservabilityServer serves pprof and metrics in the background. The
// address is forced onto loopback unless AllowExternal is set. It returns
// nil when disabled.
func StartObservabilityServer(cfg ObservabilityConfig, metrics http.Handler, logger *log.Logger) *http.Server {
	if logger == nil {
		logger = log.Default()
	}
	if !cfg.Enabled {
		logger.Println("📊 Observability server disabled")
		return nil
	}

	if !cfg.AllowExternal && !isLoopback(cfg.ListenAddr) {
		logger.Println("⚠️ Observability server forced to localhost")
		cfg.ListenAddr = DefaultObservabilityConfig().ListenAddr
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewObservabilityHandler(cfg, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Printf("📊 Observability server starting on %s", cfg.ListenAddr)
		logger.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		logger.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("⚠️ Observability server error: %v", err)
		}
	}()
	return srv
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
