package httphandler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"gameshelf/internal/auth"
)

const idleEvictAfter = time.Hour

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter applies a continuous-refill token bucket per client address.
// A missing bucket is equivalent to a full one, so idle clients can be
// evicted at any time.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rate    rate.Limit
	burst   int
}

func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		clients: make(map[string]*clientLimiter),
		rate:    rate.Limit(perSecond),
		burst:   burst,
	}
}

func (l *Limiter) Allow(addr string) bool {
	l.mu.Lock()
	entry, ok := l.clients[addr]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[addr] = entry
	}
	entry.lastSeen = time.Now()
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.Allow()
}

// Run periodically evicts buckets that have not been seen for a while.
func (l *Limiter) Run(ctx context.Context, sweepInterval time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := time.Now().Add(-idleEvictAfter)
	for addr, entry := range l.clients {
		if entry.lastSeen.Before(threshold) {
			delete(l.clients, addr)
		}
	}
}

// RateLimit admits or rejects requests before any handler work happens.
func RateLimit(l *Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	log = log.With(slog.String("middleware", "RateLimit"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			if !l.Allow(addr) {
				log.Warn("Rate limit exceeded", slog.String("client", addr))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BasicAuth guards a route group with the configured credential set. It is
// only mounted when a user set exists; public mode bypasses it entirely.
func BasicAuth(settings *auth.Settings, log *slog.Logger) func(http.Handler) http.Handler {
	log = log.With(slog.String("middleware", "BasicAuth"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !settings.Enabled() {
				next.ServeHTTP(w, r)

				return
			}

			username, password, ok := auth.ParseBasicAuth(r.Header.Get("Authorization"))
			if !ok || !settings.Authorized(username, password) {
				log.Warn("Unauthorized request",
					slog.String("client", clientAddr(r)),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("WWW-Authenticate", `Basic realm="gameshelf"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID tags every request with an id for log correlation.
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			log.Debug("Request",
				slog.String("request_id", id),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("client", clientAddr(r)),
			)

			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
