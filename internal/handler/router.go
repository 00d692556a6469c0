package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jgodboutprospector/canmp-sub003/config"
	"github.com/jgodboutprospector/canmp-sub003/internal/infra"
	"github.com/jgodboutprospector/canmp-sub003/internal/middleware"
)

// RouterConfig はルーターの構成要素。
type RouterConfig struct {
	Allow          middleware.AddressPredicate
	RateLimiter    *middleware.RateLimiter // nil の場合はレート制限なし
	Metrics        *infra.Metrics
	MetricsHandler http.Handler // nil の場合は /metrics を公開しない
	MaxBodyBytes   int64
}

// NewRouter はルーターを生成する。
func NewRouter(h *TokenHandler, cfg RouterConfig) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = config.MaxBodyBytes
	}
	if cfg.Allow == nil {
		prefixes, err := middleware.ParseCIDRs(config.DefaultAllowedCIDRs)
		if err != nil {
			panic(err)
		}
		cfg.Allow = middleware.CIDRAllowList(prefixes)
	}

	r := chi.NewRouter()

	// 境界制御は他のどの処理よりも先に行う
	r.Use(middleware.Perimeter(cfg.Allow, cfg.Metrics))
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Instrument(cfg.Metrics))
	r.Use(middleware.Recover)
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/health", h.Health)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware(cfg.Metrics))
		}
		r.Post("/decrypt", h.Decrypt)
		r.Post("/auth-token", h.AuthToken)
	})

	return r
}
