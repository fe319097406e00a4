package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter stores per-IP rate limiters with periodic cleanup so the
// map cannot grow without bound under address churn.
type clientLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(r rate.Limit, burst int) *clientLimiter {
	cl := &clientLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
	}
	go cl.cleanup()
	return cl
}

func (cl *clientLimiter) get(ip string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	entry, exists := cl.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(cl.rate, cl.burst)
		cl.limiters[ip] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	entry.lastSeen = time.Now()
	return entry.limiter
}

// cleanup drops entries not seen for 10 minutes, every 5 minutes.
func (cl *clientLimiter) cleanup() {
	for {
		time.Sleep(5 * time.Minute)
		cl.mu.Lock()
		for ip, entry := range cl.limiters {
			if time.Since(entry.lastSeen) > 10*time.Minute {
				delete(cl.limiters, ip)
			}
		}
		cl.mu.Unlock()
	}
}

// RateLimit returns middleware that limits requests per client IP.
// Used on the auth endpoints to slow credential stuffing, e.g.
// RateLimit(rate.Every(12*time.Second), 5) for ~5 attempts/minute.
func RateLimit(r rate.Limit, burst int) func(http.Handler) http.Handler {
	cl := newClientLimiter(r, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cl.get(clientIP(r)).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the originating IP, honoring X-Forwarded-For when the
// app runs behind a reverse proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	return r.RemoteAddr
}
