package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jgodboutprospector/canmp-sub003/internal/domain"
)

const (
	defaultAuditListLimit = 50
	maxAuditListLimit     = 1000
)

// AuditRepository は監査ログの永続化インターフェース。
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	FindRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error)
}

// AuditService は監査ログの永続化を提供する。
// repo が nil の場合は永続化を行わない（構造化ログのみ）。
type AuditService struct {
	repo AuditRepository
	now  func() time.Time
}

// NewAuditService は新しいAuditServiceを生成する。
func NewAuditService(repo AuditRepository) *AuditService {
	return &AuditService{
		repo: repo,
		now:  time.Now,
	}
}

// Enabled は永続化先が設定されているかを返す。
func (s *AuditService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Record は監査ログを保存する。保存に失敗してもリクエストは失敗させない。
func (s *AuditService) Record(ctx context.Context, entry *domain.AuditEntry) {
	if !s.Enabled() {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to persist audit entry",
			"operation", entry.Operation,
			"error", err,
		)
	}
}

// ListRecent は新しい順に監査ログを取得する。
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	if s.repo == nil {
		return nil, domain.ErrAuditStoreNotConfigured
	}
	if limit <= 0 {
		limit = defaultAuditListLimit
	}
	if limit > maxAuditListLimit {
		limit = maxAuditListLimit
	}

	entries, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("finding audit entries: %w", err)
	}
	return entries, nil
}
