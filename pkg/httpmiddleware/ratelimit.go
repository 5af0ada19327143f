package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per Window. It is also the burst
	// size of the underlying token bucket.
	Max int
	// Window is the interval over which Max requests are allowed.
	Window time.Duration
	// KeyFunc derives the limiter key from a request. Defaults to the client
	// IP taken from X-Forwarded-For, X-Real-IP, or the remote address.
	KeyFunc func(*http.Request) string
}

// clientLimiter pairs a token bucket with its last-use time so stale clients
// can be evicted.
type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

type limiterPool struct {
	cfg     RateLimitConfig
	limit   rate.Limit
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func newLimiterPool(cfg RateLimitConfig) *limiterPool {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	return &limiterPool{
		cfg:     cfg,
		limit:   rate.Every(cfg.Window / time.Duration(cfg.Max)),
		clients: make(map[string]*clientLimiter),
	}
}

func (p *limiterPool) get(key string, now time.Time) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.clients[key]
	if !ok {
		c = &clientLimiter{bucket: rate.NewLimiter(p.limit, p.cfg.Max)}
		p.clients[key] = c
	}
	c.lastSeen = now
	return c.bucket
}

// evictStale drops clients idle for longer than one full window. An idle
// client's bucket is full again anyway.
func (p *limiterPool) evictStale(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, c := range p.clients {
		if now.Sub(c.lastSeen) > p.cfg.Window {
			delete(p.clients, key)
		}
	}
}

// RateLimit returns a middleware that limits each client to cfg.Max requests
// per cfg.Window using a token bucket. Rejected requests get a 429 with a
// Retry-After hint. Stale client state is never evicted; prefer
// RateLimitWithCleanup for long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return limitWith(newLimiterPool(cfg))
}

// RateLimitWithCleanup is RateLimit plus a background goroutine that evicts
// idle clients every window. The goroutine exits when ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	p := newLimiterPool(cfg)
	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				p.evictStale(now)
			}
		}
	}()
	return limitWith(p)
}

func limitWith(p *limiterPool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			bucket := p.get(p.cfg.KeyFunc(r), now)

			res := bucket.ReserveN(now, 1)
			if delay := res.DelayFrom(now); delay > 0 {
				res.CancelAt(now)
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(p.cfg.Max))
				w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":429,"message":"rate limit exceeded"}`))
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(p.cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(bucket.TokensAt(now))))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller's address, trusting proxy headers first.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
