package domain

import "time"

// AuditResult は監査対象操作の結果を表す。
type AuditResult string

const (
	AuditResultSuccess AuditResult = "SUCCESS"
	AuditResultFailed  AuditResult = "FAILED"
	AuditResultDenied  AuditResult = "DENIED"
)

// 監査対象の操作名。
const (
	OperationDecrypt   = "DECRYPT"
	OperationAuthToken = "AUTH_TOKEN"
)

// AuditEntry はトークン操作の監査記録を表す。
// 鍵・暗号文・平文は一切保持しない。
type AuditEntry struct {
	ID         string
	Operation  string
	RemoteAddr string
	RequestID  string
	Result     AuditResult
	Reason     string
	CreatedAt  time.Time
}
