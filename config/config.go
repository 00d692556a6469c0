// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAplosAPIBaseURL はAplos APIのデフォルトベースURL。
	DefaultAplosAPIBaseURL = "https://app.aplos.com/hermes/api/v1"

	// UpstreamTimeout はAplos認証APIへのリクエストのタイムアウト。
	UpstreamTimeout = 30 * time.Second

	// MaxBodyBytes はリクエストボディの上限サイズ。
	MaxBodyBytes = 16 * 1024
)

// DefaultAllowedCIDRs はアクセスを許可するループバック・プライベートアドレス範囲。
var DefaultAllowedCIDRs = []string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fc00::/7",
}

// Config はアプリケーション設定を表す。
type Config struct {
	Port string

	AplosAPIBaseURL      string
	AplosClientID        string
	AplosPrivateKey      string
	PrivateKeyKMSKeyName string

	AllowedCIDRs []string
	RateLimit    float64
	RateBurst    int

	DatabaseURL string
	LogLevel    string

	GoogleCloudProject string
	OtelEnabled        bool
	OtelEndpoint       string
	OtelServiceName    string
	OtelSamplingRate   float64
}

// Load は環境変数から設定を読み込む。
func Load() *Config {
	return &Config{
		Port:                 getEnv("SIDECAR_PORT", "3001"),
		AplosAPIBaseURL:      strings.TrimRight(getEnv("APLOS_API_BASE_URL", DefaultAplosAPIBaseURL), "/"),
		AplosClientID:        os.Getenv("APLOS_CLIENT_ID"),
		AplosPrivateKey:      os.Getenv("APLOS_PRIVATE_KEY"),
		PrivateKeyKMSKeyName: os.Getenv("APLOS_PRIVATE_KEY_KMS_KEY_NAME"),
		AllowedCIDRs:         getEnvList("SIDECAR_ALLOWED_CIDRS", DefaultAllowedCIDRs),
		RateLimit:            getEnvFloat("SIDECAR_RATE_LIMIT", 10),
		RateBurst:            getEnvInt("SIDECAR_RATE_BURST", 20),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		LogLevel:             getEnv("LOG_LEVEL", "INFO"),
		GoogleCloudProject:   os.Getenv("GOOGLE_CLOUD_PROJECT"),
		OtelEnabled:          getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OtelServiceName:      getEnv("OTEL_SERVICE_NAME", "aplos-sidecar"),
		OtelSamplingRate:     getEnvFloat("OTEL_SAMPLING_RATE", 1.0),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f <= 0 {
		return defaultVal
	}
	return f
}

// getEnvList はカンマ区切りの環境変数をスライスとして返す。
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
