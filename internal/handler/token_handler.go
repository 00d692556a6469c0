// Package handler はHTTPハンドラを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jgodboutprospector/canmp-sub003/internal/domain"
	"github.com/jgodboutprospector/canmp-sub003/internal/middleware"
	"github.com/jgodboutprospector/canmp-sub003/internal/usecase"
	"github.com/jgodboutprospector/canmp-sub003/pkg/httputil"
)

// ServiceName はヘルスチェックで返すサービス名。
const ServiceName = "aplos-sidecar"

// TokenHandler はHTTPハンドラを提供する。
type TokenHandler struct {
	service *usecase.TokenService
	audit   *usecase.AuditService
}

// NewTokenHandler は新しいTokenHandlerを生成する。
func NewTokenHandler(service *usecase.TokenService, audit *usecase.AuditService) *TokenHandler {
	return &TokenHandler{
		service: service,
		audit:   audit,
	}
}

// HealthResponse はヘルスチェックのレスポンス形式。
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// DecryptRequest は復号リクエストの形式。
type DecryptRequest struct {
	EncryptedToken string `json:"encrypted_token"`
}

// TokenResponse は復号済みトークンのレスポンス形式。
type TokenResponse struct {
	Token string `json:"token"`
}

// Health はサービスの稼働状況を返す。鍵の設定有無に関わらず200を返す。
func (h *TokenHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: ServiceName,
	})
}

// Decrypt はリクエストの encrypted_token を復号する。
func (h *TokenHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	// ボディ全体を読み込んでからパースする（上限超過時はパースに到達しない）
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeAudit(r, domain.OperationDecrypt, domain.AuditResultFailed, "body_too_large")
			httputil.Error(w, http.StatusBadRequest, "Request body too large")
			return
		}
		h.writeAudit(r, domain.OperationDecrypt, domain.AuditResultFailed, "body_read_error")
		httputil.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var req DecryptRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeAudit(r, domain.OperationDecrypt, domain.AuditResultFailed, "invalid_json")
		httputil.Error(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.EncryptedToken == "" {
		h.writeAudit(r, domain.OperationDecrypt, domain.AuditResultFailed, "missing_field")
		httputil.Error(w, http.StatusBadRequest, "Missing encrypted_token")
		return
	}

	token, err := h.service.Decrypt(r.Context(), domain.EncryptedToken(req.EncryptedToken))
	if err != nil {
		resp := errorResponseFor(err)
		h.writeAudit(r, domain.OperationDecrypt, domain.AuditResultFailed, resp.reason)
		httputil.Error(w, resp.status, resp.message)
		return
	}

	h.writeAudit(r, domain.OperationDecrypt, domain.AuditResultSuccess, "")
	httputil.JSON(w, http.StatusOK, TokenResponse{Token: string(token)})
}

// AuthToken はAplos認証APIから暗号化トークンを取得して復号する。
func (h *TokenHandler) AuthToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.AuthTokenFlow(r.Context())
	if err != nil {
		resp := errorResponseFor(err)
		h.writeAudit(r, domain.OperationAuthToken, domain.AuditResultFailed, resp.reason)
		httputil.Error(w, resp.status, resp.message)
		return
	}

	h.writeAudit(r, domain.OperationAuthToken, domain.AuditResultSuccess, "")
	httputil.JSON(w, http.StatusOK, TokenResponse{Token: string(token)})
}

// NotFound は未定義ルートに対するレスポンス。
func NotFound(w http.ResponseWriter, r *http.Request) {
	httputil.Error(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed は未対応メソッドに対するレスポンス。
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}

type errorResponse struct {
	status  int
	message string
	reason  string
}

// errorResponseFor はドメインエラーをHTTPステータスとメッセージに変換する。
// 暗号処理の失敗は方式ごとの詳細を含めない。
func errorResponseFor(err error) errorResponse {
	var statusErr *domain.UpstreamStatusError
	switch {
	case errors.Is(err, domain.ErrCredentialsNotConfigured):
		return errorResponse{http.StatusInternalServerError, "Aplos credentials not configured", "credentials_not_configured"}
	case errors.Is(err, domain.ErrKeyNotConfigured):
		return errorResponse{http.StatusInternalServerError, "Private key not configured", "key_not_configured"}
	case errors.Is(err, domain.ErrInvalidCiphertext):
		return errorResponse{http.StatusBadRequest, "Invalid encrypted_token encoding", "invalid_base64"}
	case errors.Is(err, domain.ErrDecryptionFailed):
		return errorResponse{http.StatusInternalServerError, "Decryption failed", "decryption_failed"}
	case errors.As(err, &statusErr):
		return errorResponse{http.StatusBadGateway, fmt.Sprintf("Aplos auth failed: %d", statusErr.StatusCode), fmt.Sprintf("upstream_status_%d", statusErr.StatusCode)}
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return errorResponse{http.StatusBadGateway, "Aplos auth timed out", "upstream_timeout"}
	case errors.Is(err, domain.ErrUpstreamInvalidJSON):
		return errorResponse{http.StatusBadGateway, "Invalid response from Aplos auth", "upstream_invalid_json"}
	case errors.Is(err, domain.ErrNoTokenInResponse):
		return errorResponse{http.StatusBadGateway, "No token in Aplos auth response", "upstream_no_token"}
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return errorResponse{http.StatusBadGateway, "Aplos auth request failed", "upstream_unavailable"}
	default:
		return errorResponse{http.StatusInternalServerError, "Internal server error", "internal_error"}
	}
}

func (h *TokenHandler) writeAudit(r *http.Request, operation string, result domain.AuditResult, reason string) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	entry := &domain.AuditEntry{
		Operation:  operation,
		RemoteAddr: host,
		RequestID:  chimiddleware.GetReqID(r.Context()),
		Result:     result,
		Reason:     reason,
	}
	middleware.WriteAuditLog(r.Context(), entry)
	h.audit.Record(r.Context(), entry)
}
