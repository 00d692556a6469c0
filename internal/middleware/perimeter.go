package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"

	"github.com/jgodboutprospector/canmp-sub003/internal/infra"
	"github.com/jgodboutprospector/canmp-sub003/pkg/httputil"
)

// AddressPredicate は接続元アドレス（http.Request.RemoteAddr）を許可するかを判定する。
type AddressPredicate func(remoteAddr string) bool

// ParseCIDRs はCIDR文字列をプレフィックスに変換する。不正な値があればエラーを返す。
func ParseCIDRs(cidrs []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, s := range cidrs {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", s, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	return prefixes, nil
}

// CIDRAllowList は指定されたプレフィックスのいずれかに含まれるアドレスのみ許可する。
// IPv4射影IPv6アドレス（::ffff:127.0.0.1 など）はIPv4として判定する。
func CIDRAllowList(prefixes []netip.Prefix) AddressPredicate {
	return func(remoteAddr string) bool {
		addr, ok := remoteIP(remoteAddr)
		if !ok {
			return false
		}
		for _, p := range prefixes {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}
}

func remoteIP(remoteAddr string) (netip.Addr, bool) {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap().WithZone(""), true
}

// Perimeter は接続元アドレスでアクセスを制御する。
// 判定はリクエストごとに一度だけ行い、拒否時は後続の処理を一切実行せず403を返す。
// 認証ではなく閉域網を前提とした境界制御である。
func Perimeter(allow AddressPredicate, metrics *infra.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(r.RemoteAddr) {
				metrics.IncPerimeterRejected()
				slog.WarnContext(r.Context(), "request rejected by perimeter",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				w.Header().Set("Connection", "close")
				httputil.Error(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
