package middleware

import (
	"net/http"

	"github.com/jgodboutprospector/canmp-sub003/pkg/httputil"
)

// BodyLimit はリクエストボディを limit バイトに制限する。
// Content-Length が上限を超える場合は読み込まずに拒否し、
// それ以外は http.MaxBytesReader により超過時点で読み込みを打ち切る。
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Connection", "close")
				httputil.Error(w, http.StatusBadRequest, "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
