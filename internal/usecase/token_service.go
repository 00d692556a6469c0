// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jgodboutprospector/canmp-sub003/internal/domain"
)

// Decryptor はRSA復号のインターフェース。
type Decryptor interface {
	Decrypt(ciphertext []byte) (plaintext []byte, scheme string, err error)
	Configured() bool
}

// UpstreamClient はAplos認証APIのインターフェース。
type UpstreamClient interface {
	FetchAuthToken(ctx context.Context) (domain.EncryptedToken, error)
	Configured() bool
}

// DecryptObserver は復号結果の記録先。
type DecryptObserver interface {
	ObserveDecrypt(result, scheme string)
}

// TokenService はトークンの取得と復号に関するビジネスロジックを提供する。
type TokenService struct {
	decryptor Decryptor
	upstream  UpstreamClient
	observer  DecryptObserver
}

// NewTokenService は新しいTokenServiceを生成する。observer は nil でもよい。
func NewTokenService(decryptor Decryptor, upstream UpstreamClient, observer DecryptObserver) *TokenService {
	return &TokenService{
		decryptor: decryptor,
		upstream:  upstream,
		observer:  observer,
	}
}

// base64Encodings は受け付けるBase64の種類。標準形式を優先する。
var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

func decodeCiphertext(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, domain.ErrInvalidCiphertext
	}
	for _, enc := range base64Encodings {
		if b, err := enc.DecodeString(s); err == nil && len(b) > 0 {
			return b, nil
		}
	}
	return nil, domain.ErrInvalidCiphertext
}

// Decrypt はBase64エンコードされた暗号文を復号し、UTF-8文字列として返す。
func (s *TokenService) Decrypt(ctx context.Context, token domain.EncryptedToken) (domain.DecryptedToken, error) {
	if !s.decryptor.Configured() {
		return "", domain.ErrKeyNotConfigured
	}

	ciphertext, err := decodeCiphertext(string(token))
	if err != nil {
		s.observe("invalid_input", "")
		return "", err
	}

	plaintext, scheme, err := s.decryptor.Decrypt(ciphertext)
	if err != nil {
		s.observe("failed", "")
		// 呼び出し元には方式ごとの失敗理由を返さない
		slog.WarnContext(ctx, "all padding schemes exhausted",
			"operation", "decrypt",
			"ciphertext_bytes", len(ciphertext),
		)
		return "", err
	}

	s.observe("success", scheme)
	slog.DebugContext(ctx, "token decrypted",
		"operation", "decrypt",
		"scheme", scheme,
	)
	return domain.DecryptedToken(strings.ToValidUTF8(string(plaintext), "\uFFFD")), nil
}

// FetchUpstreamToken はAplos認証APIから暗号化トークンを取得する。
func (s *TokenService) FetchUpstreamToken(ctx context.Context) (domain.EncryptedToken, error) {
	if !s.upstream.Configured() {
		return "", domain.ErrCredentialsNotConfigured
	}
	token, err := s.upstream.FetchAuthToken(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching upstream token: %w", err)
	}
	return token, nil
}

// AuthTokenFlow は暗号化トークンを取得して復号する。最初に発生したエラーを返す。
func (s *TokenService) AuthTokenFlow(ctx context.Context) (domain.DecryptedToken, error) {
	if !s.upstream.Configured() || !s.decryptor.Configured() {
		return "", domain.ErrCredentialsNotConfigured
	}

	encrypted, err := s.FetchUpstreamToken(ctx)
	if err != nil {
		return "", err
	}

	plaintext, err := s.Decrypt(ctx, encrypted)
	if err != nil {
		// 上流から受け取った値が不正な場合も復号失敗として扱う
		if errors.Is(err, domain.ErrInvalidCiphertext) {
			return "", fmt.Errorf("decrypting upstream token: %w", domain.ErrDecryptionFailed)
		}
		return "", fmt.Errorf("decrypting upstream token: %w", err)
	}
	return plaintext, nil
}

func (s *TokenService) observe(result, scheme string) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveDecrypt(result, scheme)
}
