// Package main はトークン復号サイドカーのエントリポイント。
package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jgodboutprospector/canmp-sub003/config"
	"github.com/jgodboutprospector/canmp-sub003/internal/handler"
	"github.com/jgodboutprospector/canmp-sub003/internal/infra"
	"github.com/jgodboutprospector/canmp-sub003/internal/middleware"
	"github.com/jgodboutprospector/canmp-sub003/internal/repository"
	"github.com/jgodboutprospector/canmp-sub003/internal/usecase"
)

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	cfg := config.Load()

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown tracer", "error", err)
			}
		}()
	}

	infra.SetupLogger(cfg)

	// 秘密鍵は起動時に一度だけ読み込み、以後変更しない
	privateKey := loadPrivateKey(ctx, cfg)

	prefixes, err := middleware.ParseCIDRs(cfg.AllowedCIDRs)
	if err != nil {
		slog.Error("invalid SIDECAR_ALLOWED_CIDRS", "error", err)
		os.Exit(1)
	}

	// 監査ログの永続化（任意）
	var auditRepo usecase.AuditRepository
	if cfg.DatabaseURL != "" {
		db, err := infra.NewDB(cfg.DatabaseURL, cfg.OtelEnabled)
		if err != nil {
			slog.Error("failed to init database", "error", err)
			os.Exit(1)
		}
		auditRepo = repository.NewAuditRepository(db)
	}

	reg := infra.NewRegistry()
	metrics := infra.NewMetrics(reg)

	// DI
	decryptor := infra.NewRSADecryptor(privateKey, nil)
	aplos := infra.NewAplosClient(cfg.AplosAPIBaseURL, cfg.AplosClientID, infra.NewHTTPClient(config.UpstreamTimeout), metrics)
	service := usecase.NewTokenService(decryptor, aplos, metrics)
	audit := usecase.NewAuditService(auditRepo)
	h := handler.NewTokenHandler(service, audit)
	router := handler.NewRouter(h, handler.RouterConfig{
		Allow:          middleware.CIDRAllowList(prefixes),
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		Metrics:        metrics,
		MetricsHandler: infra.MetricsHandler(reg),
		MaxBodyBytes:   config.MaxBodyBytes,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, handler.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// auth-token は上流呼び出し(最大30秒)を含む
		WriteTimeout: config.UpstreamTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server",
		"port", cfg.Port,
		"key_configured", privateKey != nil,
		"client_id_configured", cfg.AplosClientID != "",
		"audit_persistence", auditRepo != nil,
	)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// loadPrivateKey は秘密鍵を読み込む。
// 失敗してもヘルスチェックのため起動は継続し、復号処理は設定エラーとなる。
func loadPrivateKey(ctx context.Context, cfg *config.Config) *rsa.PrivateKey {
	if cfg.AplosPrivateKey == "" {
		slog.Warn("APLOS_PRIVATE_KEY is not set; decrypt operations will fail")
		return nil
	}

	var unwrapper infra.KeyUnwrapper
	if cfg.PrivateKeyKMSKeyName != "" {
		kmsClient, err := infra.NewKMSClient(ctx, cfg.PrivateKeyKMSKeyName)
		if err != nil {
			slog.Error("failed to init KMS client", "error", err)
			return nil
		}
		defer func() {
			if closeErr := kmsClient.Close(); closeErr != nil {
				slog.Error("failed to close KMS client", "error", closeErr)
			}
		}()
		unwrapper = kmsClient
	}

	key, err := infra.LoadPrivateKey(ctx, cfg.AplosPrivateKey, unwrapper)
	if err != nil {
		slog.Error("failed to load private key; decrypt operations will fail", "error", err)
		return nil
	}
	return key
}
