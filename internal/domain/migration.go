package domain

import "time"

// MigrationStatus は監査スキーマのマイグレーション適用状態。
type MigrationStatus string

const (
	MigrationStatusPending MigrationStatus = "pending"
	MigrationStatusApplied MigrationStatus = "applied"
)

// Migration は migrations/ 配下の {version}_{name}.sql 1ファイルに対応する。
// Version は数字のみで、数値として比較される。
type Migration struct {
	Version   string
	Name      string
	File      string // マイグレーションFS内のパス
	Status    MigrationStatus
	AppliedAt *time.Time
}

// Applied は適用済みかを返す。
func (m *Migration) Applied() bool {
	return m.Status == MigrationStatusApplied
}

// AppliedAtString は表示用の適用日時を返す。未適用なら "-"。
func (m *Migration) AppliedAtString() string {
	if m.AppliedAt == nil {
		return "-"
	}
	return m.AppliedAt.UTC().Format(time.DateTime)
}
