// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器，实现 handoff.Observer
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 宿主调用指标
	hostRequestsTotal   *prometheus.CounterVec
	hostRequestDuration *prometheus.HistogramVec

	// 交接指标
	handoffsTotal        *prometheus.CounterVec
	handoffDuration      *prometheus.HistogramVec
	handoffPromptTokens  *prometheus.HistogramVec
	deliveriesTotal      *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	pendingHandoffs      prometheus.Gauge

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// 宿主调用指标
	c.hostRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_requests_total",
			Help:      "Total number of calls made to the host application",
		},
		[]string{"operation", "status"},
	)

	c.hostRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "host_request_duration_seconds",
			Help:      "Host call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	// 交接指标
	c.handoffsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoffs_total",
			Help:      "Total number of handoff requests",
		},
		[]string{"category", "status"},
	)

	c.handoffDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handoff_duration_seconds",
			Help:      "End-to-end handoff duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"category"},
	)

	c.handoffPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handoff_prompt_tokens",
			Help:      "Estimated token size of generated handoff prompts",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
		},
		[]string{"category"},
	)

	c.deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of pending handoff deliveries attempted",
		},
		[]string{"outcome"},
	)

	c.notificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Total number of swallowed notification failures",
		},
		[]string{"op"},
	)

	c.pendingHandoffs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_handoffs",
			Help:      "Number of handoff prompts waiting for their session",
		},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🔌 宿主调用指标记录
// =============================================================================

// RecordHostRequest 记录一次宿主 API 调用，status 为 HTTP 状态码，0 表示传输失败
func (c *Collector) RecordHostRequest(operation string, status int, duration time.Duration) {
	label := statusCode(status)
	if status == 0 {
		label = "error"
	}
	c.hostRequestsTotal.WithLabelValues(operation, label).Inc()
	c.hostRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// =============================================================================
// 🤝 交接指标记录
// =============================================================================

// RecordHandoff 记录一次交接请求
func (c *Collector) RecordHandoff(category, status string, duration time.Duration) {
	if category == "" {
		category = "unknown"
	}
	c.handoffsTotal.WithLabelValues(category, status).Inc()
	if status == "success" {
		c.handoffDuration.WithLabelValues(category).Observe(duration.Seconds())
	}
}

// RecordPromptTokens 记录交接提示词的 Token 数
func (c *Collector) RecordPromptTokens(category string, tokens int) {
	if tokens <= 0 {
		return
	}
	c.handoffPromptTokens.WithLabelValues(category).Observe(float64(tokens))
}

// RecordDelivery 记录投递结果
func (c *Collector) RecordDelivery(outcome string) {
	c.deliveriesTotal.WithLabelValues(outcome).Inc()
}

// RecordNotificationFailure 记录被吞掉的通知失败
func (c *Collector) RecordNotificationFailure(op string) {
	c.notificationFailures.WithLabelValues(op).Inc()
}

// SetPendingHandoffs 设置待投递数量
func (c *Collector) SetPendingHandoffs(n int) {
	c.pendingHandoffs.Set(float64(n))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
