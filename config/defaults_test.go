package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/sessionhandoff/handoff"
)

// --- DefaultConfig aggregate ---

func TestDefaultConfig_ContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, HostConfig{}, cfg.Host)
	assert.NotEqual(t, HandoffConfig{}, cfg.Handoff)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
	assert.NotEqual(t, TelemetryConfig{}, cfg.Telemetry)
}

// --- Individual Default*Config functions ---

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.WriteTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.AllowQueryAPIKey)
	assert.Empty(t, cfg.APIKeys)
	assert.False(t, cfg.JWT.Enabled())
	assert.Equal(t, 10, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}

func TestDefaultHostConfig(t *testing.T) {
	cfg := DefaultHostConfig()
	assert.Equal(t, "http://127.0.0.1:4096", cfg.BaseURL)
	assert.Empty(t, cfg.Directory)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.True(t, cfg.SubscribeEvents)
	assert.Equal(t, 2*time.Second, cfg.ReconnectDelay)
}

func TestDefaultHandoffConfig(t *testing.T) {
	cfg := DefaultHandoffConfig()
	assert.Equal(t, handoff.DefaultOptions(), cfg.Options())
	assert.Equal(t, "gpt-4o", cfg.TokenizerModel)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, "handoffd", cfg.ServiceName)
	assert.InDelta(t, 0.1, cfg.SampleRate, 0.001)
}

func TestJWTConfig_Enabled(t *testing.T) {
	assert.False(t, JWTConfig{Issuer: "x"}.Enabled())
	assert.True(t, JWTConfig{Secret: "s"}.Enabled())
	assert.True(t, JWTConfig{PublicKey: "pem"}.Enabled())
}
