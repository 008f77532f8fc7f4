// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpmw

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bureau-foundation/notionbot/lib/clock"
)

// LimiterConfig describes one rate-limit class.
type LimiterConfig struct {
	// Name distinguishes classes in keys and logs ("api", "bot").
	Name string

	// Limit requests are allowed per Window, refilled continuously.
	Limit  int
	Window time.Duration

	// TrustedProxies are the reverse proxies whose X-Forwarded-For is
	// used to key buckets. Empty keys every bucket on the remote
	// address, so clients cannot choose their own bucket.
	TrustedProxies TrustedProxies

	Clock  clock.Clock
	Logger *slog.Logger
}

// Limiter holds a token bucket per client key. Buckets idle for a full
// window are swept, since a full bucket carries no state.
type Limiter struct {
	name    string
	limit   int
	window  time.Duration
	every   rate.Limit
	proxies TrustedProxies
	clock   clock.Clock
	logger  *slog.Logger

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

func NewLimiter(cfg LimiterConfig) *Limiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Limiter{
		name:      cfg.Name,
		limit:     cfg.Limit,
		window:    cfg.Window,
		every:     rate.Limit(float64(cfg.Limit) / cfg.Window.Seconds()),
		proxies:   cfg.TrustedProxies,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		buckets:   make(map[string]*bucket),
		lastSweep: cfg.Clock.Now(),
	}
}

// Allow spends one token from key's bucket.
func (l *Limiter) Allow(key string) Decision {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweepLocked(now)
	}

	entry, ok := l.buckets[key]
	if !ok {
		entry = &bucket{limiter: rate.NewLimiter(l.every, l.limit)}
		l.buckets[key] = entry
	}
	entry.lastSeen = now

	decision := Decision{Limit: l.limit}
	if entry.limiter.AllowN(now, 1) {
		decision.Allowed = true
		decision.Remaining = int(math.Floor(entry.limiter.TokensAt(now)))
		return decision
	}

	reservation := entry.limiter.ReserveN(now, 1)
	decision.RetryAfter = reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return decision
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweepLocked(now time.Time) {
	for key, entry := range l.buckets {
		if now.Sub(entry.lastSeen) >= l.window {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects requests over the limiter's budget with 429. The
// bucket key is the client IP within the limiter's class, resolved
// through the limiter's trusted proxies.
func RateLimit(limiter *Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := limiter.proxies.ClientIP(r)
			decision := limiter.Allow(limiter.name + ":" + clientIP)

			header := w.Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			retrySeconds := int(decision.RetryAfter.Round(time.Second) / time.Second)
			if retrySeconds < 1 {
				retrySeconds = 1
			}
			header.Set("Retry-After", strconv.Itoa(retrySeconds))
			limiter.logger.Warn("rate limit exceeded",
				"class", limiter.name,
				"remote_ip", clientIP,
				"path", r.URL.Path,
				"request_id", RequestIDFromContext(r.Context()),
			)
			header.Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":    "rate-limited",
					"message": "Too many requests. Try again later.",
					"details": map[string]int{"retryAfter": retrySeconds},
				},
			})
		})
	}
}
