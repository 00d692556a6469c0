// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/jgodboutprospector/canmp-sub003/internal/domain"
)

// WriteAuditLog は監査ログを出力する。鍵・暗号文・平文は出力しない。
func WriteAuditLog(ctx context.Context, entry *domain.AuditEntry) {
	level := slog.LevelInfo
	if entry.Result != domain.AuditResultSuccess {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "token operation completed",
		"operation", entry.Operation,
		"remote_addr", entry.RemoteAddr,
		"request_id", entry.RequestID,
		"result", string(entry.Result),
		"reason", entry.Reason,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
