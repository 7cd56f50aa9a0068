package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client key.
type Limiter struct {
	mu       sync.Mutex
	clients  map[string]*clientEntry
	perSec   rate.Limit
	burst    int
	perMin   int
	ttl      time.Duration
	interval time.Duration

	hits atomic.Int64

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Config struct {
	RequestsPerMinute int
	Burst             int
	CleanupInterval   time.Duration
	// ClientTTL is how long an idle client's bucket is kept.
	ClientTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Burst:             10,
		CleanupInterval:   5 * time.Minute,
		ClientTTL:         10 * time.Minute,
	}
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = def.Burst
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	if config.ClientTTL <= 0 {
		config.ClientTTL = def.ClientTTL
	}

	rl := &Limiter{
		clients:     make(map[string]*clientEntry),
		perSec:      rate.Limit(float64(config.RequestsPerMinute) / 60.0),
		burst:       config.Burst,
		perMin:      config.RequestsPerMinute,
		ttl:         config.ClientTTL,
		interval:    config.CleanupInterval,
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// Allow reports whether a request from key may proceed now.
func (rl *Limiter) Allow(key string) bool {
	allowed := rl.entry(key).Allow()
	if !allowed {
		rl.hits.Add(1)
	}
	return allowed
}

// RetryAfter estimates how long key must wait for its next token.
func (rl *Limiter) RetryAfter(key string) time.Duration {
	r := rl.entry(key).Reserve()
	defer r.Cancel()
	d := r.Delay()
	if d < time.Second {
		return time.Second
	}
	return d
}

func (rl *Limiter) entry(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.clients[key]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(rl.perSec, rl.burst)}
		rl.clients[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := rl.cleanupStaleEntries(time.Now()); n > 0 {
				slog.Debug("Cleaned up stale rate limiters", "removed", n)
			}
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *Limiter) cleanupStaleEntries(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, e := range rl.clients {
		if now.Sub(e.lastSeen) > rl.ttl {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Hits is the number of rejected requests.
func (rl *Limiter) Hits() int64 {
	return rl.hits.Load()
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Middleware limits requests for which applies returns true. A nil applies
// limits every request; a nil onLimit answers 429 with plain text.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, applies func(*http.Request) bool, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applies != nil && !applies(r) {
				next.ServeHTTP(w, r)
				return
			}
			clientIP := extractIP(r)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perMin))
			if !rl.Allow(clientIP) {
				retry := rl.RetryAfter(clientIP)
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second).Seconds())))
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", clientIP,
					"method", r.Method,
					"path", r.URL.Path)
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WritesOnly limits state-changing methods.
func WritesOnly(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
