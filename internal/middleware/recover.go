package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jgodboutprospector/canmp-sub003/pkg/httputil"
)

// Recover はハンドラ内のpanicを捕捉し、JSONの500レスポンスに変換する。
// chi の Recoverer と異なり、レスポンスは必ず {"error": ...} 形式になる。
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.ErrorContext(r.Context(), "panic recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			httputil.Error(w, http.StatusInternalServerError, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
