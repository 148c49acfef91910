package debug

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RequestBudget is a token bucket: PerSecond refill with Burst capacity.
type RequestBudget struct {
	PerSecond float64
	Burst     int
}

func (b RequestBudget) valid() bool { return b.PerSecond > 0 && b.Burst > 0 }

// ThrottleConfig sets the request budgets of the debug API. Every client gets
// one bucket per endpoint group, so a dashboard polling /api/sessions does
// not starve its own /api/beams calls. The world render encodes a PNG per
// call and has its own budget.
type ThrottleConfig struct {
	Default RequestBudget
	Render  RequestBudget
	// IdleAfter evicts buckets unused for this long.
	IdleAfter time.Duration
}

// DefaultThrottleConfig is sized for a handful of dashboards polling
var DefaultThrottleConfig = ThrottleConfig{
	Default:   RequestBudget{PerSecond: 20, Burst: 40},
	Render:    RequestBudget{PerSecond: 2, Burst: 4},
	IdleAfter: 10 * time.Minute,
}

const groupRender = "world"

type bucketKey struct {
	client string
	group  string
}

type bucket struct {
	limiter *rate.Limiter
	used    time.Time
}

// Throttle rejects debug requests once a client has spent its budget for an
// endpoint group. Idle buckets are swept from Allow.
type Throttle struct {
	mu       sync.Mutex
	cfg      ThrottleConfig
	buckets  map[bucketKey]*bucket
	swept    time.Time
	now      func() time.Time
	onReject func(reason string)

	allowed  map[string]uint64
	rejected map[string]uint64
}

// NewThrottle creates a throttle. Invalid budgets fall back to the defaults.
func NewThrottle(cfg ThrottleConfig) *Throttle {
	if !cfg.Default.valid() {
		cfg.Default = DefaultThrottleConfig.Default
	}
	if !cfg.Render.valid() {
		cfg.Render = DefaultThrottleConfig.Render
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultThrottleConfig.IdleAfter
	}
	return &Throttle{
		cfg:      cfg,
		buckets:  make(map[bucketKey]*bucket),
		now:      time.Now,
		allowed:  make(map[string]uint64),
		rejected: make(map[string]uint64),
	}
}

// Allow spends one request from client's budget for group.
func (t *Throttle) Allow(client, group string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.swept.IsZero() {
		t.swept = now
	} else if now.Sub(t.swept) >= t.cfg.IdleAfter {
		t.sweep(now.Add(-t.cfg.IdleAfter))
		t.swept = now
	}

	key := bucketKey{client: client, group: group}
	b, ok := t.buckets[key]
	if !ok {
		budget := t.cfg.Default
		if group == groupRender {
			budget = t.cfg.Render
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(budget.PerSecond), budget.Burst)}
		t.buckets[key] = b
	}
	b.used = now

	if !b.limiter.AllowN(now, 1) {
		t.rejected[group]++
		return false
	}
	t.allowed[group]++
	return true
}

func (t *Throttle) sweep(cutoff time.Time) {
	for key, b := range t.buckets {
		if b.used.Before(cutoff) {
			delete(t.buckets, key)
		}
	}
}

// Len is the number of live buckets.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

// Middleware answers 429 once the caller's budget for the requested group is
// spent.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Allow(ClientAddr(r), endpointGroup(r.URL.Path)) {
			if t.onReject != nil {
				t.onReject("rate_limit")
			}
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStats returns the bucket count and per-group decisions.
func (t *Throttle) GetStats() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := make(map[string]uint64, len(t.allowed))
	for g, n := range t.allowed {
		allowed[g] = n
	}
	rejected := make(map[string]uint64, len(t.rejected))
	for g, n := range t.rejected {
		rejected[g] = n
	}
	return map[string]interface{}{
		"buckets":  len(t.buckets),
		"allowed":  allowed,
		"rejected": rejected,
	}
}

// endpointGroup maps a path to its budget group: the first segment under
// /api, or the whole top-level path.
func endpointGroup(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return strings.Trim(path, "/")
	}
	group, _, _ := strings.Cut(rest, "/")
	return strings.TrimSuffix(group, ".png")
}

// ClientAddr identifies the caller. Forwarding headers count only when the
// direct peer is on loopback, which is where a local reverse proxy sits.
func ClientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return host
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		return xr
	}
	return host
}

// connSlots caps concurrent websocket connections per client.
type connSlots struct {
	mu    sync.Mutex
	held  map[string]int
	limit int
}

func newConnSlots(limit int) *connSlots {
	return &connSlots{held: make(map[string]int), limit: limit}
}

// acquire reserves a slot for client.
func (c *connSlots) acquire(client string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held[client] >= c.limit {
		return false
	}
	c.held[client]++
	return true
}

// release frees a slot taken by acquire.
func (c *connSlots) release(client string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch n := c.held[client]; {
	case n > 1:
		c.held[client] = n - 1
	case n == 1:
		delete(c.held, client)
	}
}

func (c *connSlots) count(client string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held[client]
}

// DefaultOrigins are the browser origins allowed by CORS and the websocket
// upgrader when none are configured.
var DefaultOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// IsAllowedOrigin matches origin against patterns. A pattern may end in
// ":*" to allow any port.
func IsAllowedOrigin(origin string, patterns []string) bool {
	if origin == "" {
		return false
	}
	for _, p := range patterns {
		if p == "*" || p == origin {
			return true
		}
		if base, ok := strings.CutSuffix(p, ":*"); ok {
			if origin == base || strings.HasPrefix(origin, base+":") {
				return true
			}
		}
	}
	return false
}
