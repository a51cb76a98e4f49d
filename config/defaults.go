// =============================================================================
// 📦 handoffd 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import (
	"time"

	"github.com/BaSui01/sessionhandoff/handoff"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Host:      DefaultHostConfig(),
		Handoff:   DefaultHandoffConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    5 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
	}
}

// DefaultHostConfig 返回默认宿主配置
func DefaultHostConfig() HostConfig {
	return HostConfig{
		BaseURL:         "http://127.0.0.1:4096",
		Timeout:         5 * time.Minute,
		SubscribeEvents: true,
		ReconnectDelay:  2 * time.Second,
	}
}

// DefaultHandoffConfig 返回默认交接配置
func DefaultHandoffConfig() HandoffConfig {
	o := handoff.DefaultOptions()
	return HandoffConfig{
		PendingTTL:     o.PendingTTL,
		DeliveryDelay:  o.DeliveryDelay,
		NotifyDelay:    o.NotifyDelay,
		ToastDuration:  o.ToastDuration,
		MaxTitleLength: o.MaxTitleLength,
		TokenizerModel: "gpt-4o",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		Insecure:     true,
		ServiceName:  "handoffd",
		SampleRate:   0.1,
	}
}
