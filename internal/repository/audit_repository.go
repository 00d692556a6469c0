// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jgodboutprospector/canmp-sub003/internal/domain"
)

// TokenAuditLogModel はgorm用のモデル定義。
type TokenAuditLogModel struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	Operation  string    `gorm:"type:varchar(32);not null;index:idx_operation_result"`
	RemoteAddr string    `gorm:"type:varchar(64);not null"`
	RequestID  string    `gorm:"type:varchar(64);not null;default:''"`
	Result     string    `gorm:"type:varchar(16);not null;index:idx_operation_result"`
	Reason     string    `gorm:"type:varchar(128);not null;default:''"`
	CreatedAt  time.Time `gorm:"not null;index:idx_created_at"`
}

// TableName はテーブル名を返す。
func (TokenAuditLogModel) TableName() string {
	return "token_audit_logs"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *TokenAuditLogModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

func (m *TokenAuditLogModel) toDomain() *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:         m.ID,
		Operation:  m.Operation,
		RemoteAddr: m.RemoteAddr,
		RequestID:  m.RequestID,
		Result:     domain.AuditResult(m.Result),
		Reason:     m.Reason,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditRepository は監査ログのデータアクセスを提供する。
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository は新しいAuditRepositoryを生成する。
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create は監査ログを保存し、採番されたIDを entry に反映する。
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	model := &TokenAuditLogModel{
		ID:         entry.ID,
		Operation:  entry.Operation,
		RemoteAddr: entry.RemoteAddr,
		RequestID:  entry.RequestID,
		Result:     string(entry.Result),
		Reason:     entry.Reason,
		CreatedAt:  entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		slog.ErrorContext(ctx, "failed to create audit entry",
			"operation", "create_audit_entry",
			"audit_operation", entry.Operation,
			"error", err,
		)
		return err
	}

	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}

// FindRecent は新しい順に最大 limit 件の監査ログを取得する。
func (r *AuditRepository) FindRecent(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	var models []TokenAuditLogModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find recent audit entries",
			"operation", "find_recent_audit_entries",
			"limit", limit,
			"error", err,
		)
		return nil, err
	}

	entries := make([]*domain.AuditEntry, len(models))
	for i := range models {
		entries[i] = models[i].toDomain()
	}
	return entries, nil
}
