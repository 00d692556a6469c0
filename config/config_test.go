package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SIDECAR_PORT", "APLOS_API_BASE_URL", "APLOS_CLIENT_ID", "APLOS_PRIVATE_KEY",
		"SIDECAR_ALLOWED_CIDRS", "SIDECAR_RATE_LIMIT", "SIDECAR_RATE_BURST", "LOG_LEVEL", "OTEL_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, DefaultAplosAPIBaseURL, cfg.AplosAPIBaseURL)
	assert.Empty(t, cfg.AplosClientID)
	assert.Empty(t, cfg.AplosPrivateKey)
	assert.Equal(t, DefaultAllowedCIDRs, cfg.AllowedCIDRs)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.False(t, cfg.OtelEnabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SIDECAR_PORT", "4000")
	t.Setenv("APLOS_API_BASE_URL", "https://aplos.example.com/api/")
	t.Setenv("APLOS_CLIENT_ID", "client-1")
	t.Setenv("SIDECAR_ALLOWED_CIDRS", " 10.1.0.0/16, ,127.0.0.1/32 ")
	t.Setenv("SIDECAR_RATE_LIMIT", "2.5")
	t.Setenv("SIDECAR_RATE_BURST", "not-a-number")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "https://aplos.example.com/api", cfg.AplosAPIBaseURL)
	assert.Equal(t, "client-1", cfg.AplosClientID)
	assert.Equal(t, []string{"10.1.0.0/16", "127.0.0.1/32"}, cfg.AllowedCIDRs)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.True(t, cfg.OtelEnabled)
}

func TestConstants(t *testing.T) {
	assert.Equal(t, 16384, MaxBodyBytes)
	assert.Equal(t, "30s", UpstreamTimeout.String())
}
