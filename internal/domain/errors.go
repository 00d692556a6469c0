package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotConfigured は秘密鍵が未設定または読み込みに失敗している場合のエラー。
	ErrKeyNotConfigured = errors.New("private key not configured")

	// ErrInvalidPrivateKey は秘密鍵のフォーマットが不正な場合のエラー。
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrCredentialsNotConfigured はAplosのクライアントIDまたは秘密鍵が未設定の場合のエラー。
	ErrCredentialsNotConfigured = errors.New("aplos credentials not configured")

	// ErrInvalidCiphertext は暗号文がBase64として不正な場合のエラー。
	ErrInvalidCiphertext = errors.New("invalid ciphertext encoding")

	// ErrDecryptionFailed は全てのパディング方式で復号に失敗した場合のエラー。
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrUpstreamStatus はAplos認証APIが200以外を返した場合のエラー。
	ErrUpstreamStatus = errors.New("upstream returned non-200 status")

	// ErrUpstreamTimeout はAplos認証APIがタイムアウトした場合のエラー。
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrUpstreamUnavailable はAplos認証APIに接続できない場合のエラー。
	ErrUpstreamUnavailable = errors.New("upstream request failed")

	// ErrUpstreamInvalidJSON はAplos認証APIのレスポンスがJSONとして不正な場合のエラー。
	ErrUpstreamInvalidJSON = errors.New("upstream returned invalid JSON")

	// ErrNoTokenInResponse はAplos認証APIのレスポンスにトークンが含まれない場合のエラー。
	ErrNoTokenInResponse = errors.New("no token in response")

	// ErrAuditStoreNotConfigured は監査ログの保存先が未設定の場合のエラー。
	ErrAuditStoreNotConfigured = errors.New("audit store not configured")

	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrMigrationFileNotFound はマイグレーションファイルが見つからない場合のエラー。
	ErrMigrationFileNotFound = errors.New("migration file not found")

	// ErrInvalidMigrationFile はマイグレーションファイルのフォーマットが不正な場合のエラー。
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)

// UpstreamStatusError はAplos認証APIのステータスコードを保持する。
type UpstreamStatusError struct {
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("aplos auth failed: %d", e.StatusCode)
}

// Unwrap は ErrUpstreamStatus を返す。
func (e *UpstreamStatusError) Unwrap() error {
	return ErrUpstreamStatus
}
