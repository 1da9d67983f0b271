package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig tunes the per-IP request limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration // idle visitors are evicted after 2x this
}

// DefaultRateLimitConfig is the limiter setup used when the server config
// does not override it.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	CleanupInterval:   5 * time.Minute,
}

// visitor is the token bucket for one client IP.
type visitor struct {
	bucket   *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// IPRateLimiter hands each client IP its own token bucket and evicts buckets
// that go quiet, so a scanner sweeping source addresses cannot grow the map
// without bound.
type IPRateLimiter struct {
	visitors sync.Map // ip -> *visitor
	cfg      RateLimitConfig
	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a limiter and starts its eviction janitor.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	rl := &IPRateLimiter{
		cfg:  cfg,
		stop: make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Stop ends the janitor goroutine. Safe to call more than once.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow reports whether a request from ip fits its bucket right now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	v, ok := rl.visitors.Load(ip)
	if !ok {
		fresh := &visitor{
			bucket: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		}
		v, _ = rl.visitors.LoadOrStore(ip, fresh)
	}
	vis := v.(*visitor)
	vis.lastSeen.Store(time.Now().UnixNano())
	return vis.bucket.Allow()
}

// Middleware rejects over-limit requests with 429 before they reach the
// router. The Retry-After hint matches the refill rate.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(ClientIP(r)) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *IPRateLimiter) janitor() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * rl.cfg.CleanupInterval).UnixNano()
			rl.visitors.Range(func(key, value any) bool {
				if value.(*visitor).lastSeen.Load() < cutoff {
					rl.visitors.Delete(key)
				}
				return true
			})
		}
	}
}

// ClientIP extracts the client address from a request, preferring the proxy
// headers. X-Forwarded-For is only trustworthy behind a proxy that sets it.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// ipConnQuota caps concurrent websocket connections per client IP.
type ipConnQuota struct {
	mu    sync.Mutex
	conns map[string]int
	max   int
}

func newIPConnQuota(max int) *ipConnQuota {
	return &ipConnQuota{conns: make(map[string]int), max: max}
}

// Acquire reserves a connection slot for ip, reporting whether one was free.
func (q *ipConnQuota) Acquire(ip string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.conns[ip] >= q.max {
		return false
	}
	q.conns[ip]++
	return true
}

// Release frees a slot previously taken with Acquire.
func (q *ipConnQuota) Release(ip string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n := q.conns[ip]; n <= 1 {
		delete(q.conns, ip)
	} else {
		q.conns[ip] = n - 1
	}
}

// originPolicy is the browser origin allow-list shared by CORS and the
// websocket upgrade check. Entries ending in "*" match as prefixes.
type originPolicy []string

// allows reports whether origin may connect. An empty origin means a
// non-browser client, which is let through; browsers always send one.
func (p originPolicy) allows(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range p {
		if pre, ok := strings.CutSuffix(allowed, "*"); ok {
			if strings.HasPrefix(origin, pre) {
				return true
			}
		} else if origin == allowed {
			return true
		}
	}
	return false
}
