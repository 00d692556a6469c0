package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jgodboutprospector/canmp-sub003/internal/infra"
	"github.com/jgodboutprospector/canmp-sub003/pkg/httputil"
)

const rateLimiterExpiry = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter は接続元IPごとのトークンバケットを管理する。
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	expiresIn time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter は新しいRateLimiterを生成する。
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Limit(ratePerSecond),
		burst:     burst,
		expiresIn: rateLimiterExpiry,
		now:       time.Now,
	}
}

// Allow は key のリクエストを許可するかを返す。
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep は期限切れの訪問者を削除する。呼び出し元でロックを保持すること。
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.expiresIn {
		return
	}
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.expiresIn {
			delete(l.visitors, k)
		}
	}
	l.lastSweep = now
}

// Middleware は上限を超えたリクエストに429を返すミドルウェアを返す。
func (l *RateLimiter) Middleware(metrics *infra.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}
			if !l.Allow(key) {
				metrics.IncRateLimited()
				w.Header().Set("Retry-After", "1")
				httputil.Error(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
