package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jgodboutprospector/canmp-sub003/internal/infra"
)

func newTestLimiter(rps float64, burst int, clock *time.Time) *RateLimiter {
	l := NewRateLimiter(rps, burst)
	l.now = func() time.Time { return *clock }
	return l
}

func TestRateLimiter_Allow(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(1, 2, &clock)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// 別の接続元は独立して数える
	assert.True(t, l.Allow("10.0.0.2"))

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(1, 1, &clock)

	l.Allow("10.0.0.1")
	clock = clock.Add(rateLimiterExpiry + time.Second)
	l.Allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Contains(t, l.visitors, "10.0.0.2")
}

func TestRateLimiter_Middleware(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newTestLimiter(1, 1, &clock)
	metrics := infra.NewMetrics(prometheus.NewRegistry())
	h := l.Middleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/decrypt", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve("127.0.0.1:1000").Code)

	// ポートが違っても同じ接続元として扱う
	rec := serve("127.0.0.1:2000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RateLimited))
}
