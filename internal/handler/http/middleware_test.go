package httphandler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gameshelf/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLimiterBurst(t *testing.T) {
	l := NewLimiter(1, 3)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("10.0.0.1"), "request %d within burst", i)
	}
	require.False(t, l.Allow("10.0.0.1"))

	// Other clients have their own bucket.
	require.True(t, l.Allow("10.0.0.2"))
}

func TestLimiterSweep(t *testing.T) {
	l := NewLimiter(1, 1)
	require.True(t, l.Allow("10.0.0.1"))

	l.mu.Lock()
	l.clients["10.0.0.1"].lastSeen = time.Now().Add(-2 * idleEvictAfter)
	l.mu.Unlock()

	l.sweep()

	l.mu.Lock()
	_, ok := l.clients["10.0.0.1"]
	l.mu.Unlock()
	require.False(t, ok)

	// A fresh bucket means a full burst again.
	require.True(t, l.Allow("10.0.0.1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewLimiter(1, 1)
	handler := RateLimit(l, testLogger())(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:12345"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestBasicAuthMiddleware(t *testing.T) {
	settings := auth.FromUsers([]auth.User{{Username: "alice", Password: "secret"}})
	handler := BasicAuth(settings, testLogger())(okHandler())

	t.Run("missing credentials", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		require.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("valid credentials", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.SetBasicAuth("alice", "secret")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.SetBasicAuth("alice", "wrong")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bearer scheme rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer sometoken")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestID(testLogger())(okHandler())

	t.Run("generated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("passthrough", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "fixed-id")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
	})
}
