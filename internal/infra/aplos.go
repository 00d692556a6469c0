package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jgodboutprospector/canmp-sub003/internal/domain"
)

// maxUpstreamBodyBytes はAplos認証レスポンスの読み込み上限。
const maxUpstreamBodyBytes = 1 << 20

// NewHTTPClient は外部API呼び出し用のHTTPクライアントを生成する。
// timeout はリクエスト全体（接続からボディ読み込みまで）に適用される。
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(tr),
		Timeout:   timeout,
	}
}

// AplosClient はAplos認証APIのクライアント。
type AplosClient struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	metrics    *Metrics
}

// NewAplosClient は新しいAplosClientを生成する。
func NewAplosClient(baseURL, clientID string, httpClient *http.Client, metrics *Metrics) *AplosClient {
	return &AplosClient{
		baseURL:    baseURL,
		clientID:   clientID,
		httpClient: httpClient,
		metrics:    metrics,
	}
}

// Configured はクライアントIDが設定されているかを返す。
func (c *AplosClient) Configured() bool {
	return c.clientID != ""
}

// FetchAuthToken は GET {base}/auth/{client_id} を呼び出し、暗号化トークンを取得する。
func (c *AplosClient) FetchAuthToken(ctx context.Context) (domain.EncryptedToken, error) {
	if c.clientID == "" {
		return "", domain.ErrCredentialsNotConfigured
	}

	endpoint := c.baseURL + "/auth/" + url.PathEscape(c.clientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeUpstream("error", time.Since(start))
		if isTimeout(err) {
			slog.WarnContext(ctx, "aplos auth request timed out", "operation", "fetch_auth_token")
			return "", domain.ErrUpstreamTimeout
		}
		slog.ErrorContext(ctx, "aplos auth request failed",
			"operation", "fetch_auth_token",
			"error", err,
		)
		return "", domain.ErrUpstreamUnavailable
	}
	defer resp.Body.Close()
	c.metrics.observeUpstream(fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUpstreamBodyBytes))
		slog.WarnContext(ctx, "aplos auth returned non-200",
			"operation", "fetch_auth_token",
			"status", resp.StatusCode,
		)
		return "", &domain.UpstreamStatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return "", domain.ErrUpstreamTimeout
		}
		return "", domain.ErrUpstreamUnavailable
	}

	var parsed domain.AuthTokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.WarnContext(ctx, "aplos auth returned invalid JSON", "operation", "fetch_auth_token")
		return "", domain.ErrUpstreamInvalidJSON
	}

	token, shape := parsed.Resolve()
	if shape == domain.TokenShapeNone {
		return "", domain.ErrNoTokenInResponse
	}
	slog.DebugContext(ctx, "aplos auth token received",
		"operation", "fetch_auth_token",
		"shape", string(shape),
	)
	return token, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
