package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/BaSui01/sessionhandoff/api/handlers"
	"github.com/BaSui01/sessionhandoff/config"
	"github.com/BaSui01/sessionhandoff/handoff"
	"github.com/BaSui01/sessionhandoff/host"
	"github.com/BaSui01/sessionhandoff/internal/metrics"
	"github.com/BaSui01/sessionhandoff/internal/server"
	"github.com/BaSui01/sessionhandoff/internal/tokenizer"
	"github.com/BaSui01/sessionhandoff/plugin"
)

// maxConcurrentHandoffs 限制同时进行的交接数（每个需要一次完整的 LLM 往返）；
// 激活事件不受此限制，也不会排在交接之后
const maxConcurrentHandoffs = 8

var (
	collectorOnce sync.Once
	collector     *metrics.Collector
)

// newCollector 返回进程级指标收集器（Prometheus 默认注册表只能注册一次）
func newCollector(logger *zap.Logger) *metrics.Collector {
	collectorOnce.Do(func() {
		collector = metrics.NewCollector("handoffd", logger)
	})
	return collector
}

// =============================================================================
// 🔗 交接流水线
// =============================================================================

// pipeline 持有宿主客户端、协调器与事件路由器
type pipeline struct {
	host        *host.Client
	coordinator *handoff.Coordinator
	router      *plugin.Router
}

// newPipeline 按配置组装流水线；collector 为 nil 时不记录指标
func newPipeline(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) (*pipeline, error) {
	hostOpts := []host.Option{host.WithLogger(logger)}
	coordOpts := []handoff.Option{
		handoff.WithOptions(cfg.Handoff.Options()),
		handoff.WithLogger(logger),
		handoff.WithTokenCounter(tokenizer.New(cfg.Handoff.TokenizerModel, logger)),
	}
	routerOpts := []plugin.RouterOption{plugin.WithToastDuration(cfg.Handoff.ToastDuration)}

	if collector != nil {
		hostOpts = append(hostOpts, host.WithRecorder(collector))
		coordOpts = append(coordOpts, handoff.WithObserver(collector))
		routerOpts = append(routerOpts, plugin.WithFailureHook(func(op string, _ error) {
			collector.RecordNotificationFailure(op)
		}))
	}

	client, err := host.New(host.Config{
		BaseURL:   cfg.Host.BaseURL,
		Directory: cfg.Host.Directory,
		Timeout:   cfg.Host.Timeout,
		CAFile:    cfg.Host.CAFile,
	}, hostOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create host client: %w", err)
	}

	coordinator := handoff.NewCoordinator(client, client, client, coordOpts...)
	return &pipeline{
		host:        client,
		coordinator: coordinator,
		router:      plugin.NewRouter(coordinator, client, logger, routerOpts...),
	}, nil
}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 handoffd 的主服务器
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	collector *metrics.Collector
	pipeline  *pipeline

	httpManager    *server.Manager
	metricsManager *server.Manager
}

// NewServer 创建服务器实例并组装全部组件
func NewServer(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := newPipeline(cfg, logger, collector)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		pipeline:  p,
	}

	s.httpManager = server.NewManager("http", s.Handler(), server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20, // 1 MB
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		TLSCertFile:     cfg.Server.TLSCertFile,
		TLSKeyFile:      cfg.Server.TLSKeyFile,
	}, logger)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	s.metricsManager = server.NewManager("metrics", metricsMux, server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.ReadTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	return s, nil
}

// skipAuthPaths 不需要认证的路径
var skipAuthPaths = []string{"/health", "/healthz", "/ready", "/version"}

// Handler 构建带中间件链的 HTTP 处理器
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	health := handlers.NewHealthHandler(s.logger)
	health.RegisterCheck(handlers.NewPingCheck("host", s.pipeline.host.Ping))
	health.ReportPending(s.pipeline.coordinator.Registry().Len)
	mux.HandleFunc("GET /health", health.HandleHealth)
	mux.HandleFunc("GET /healthz", health.HandleHealthz)
	mux.HandleFunc("GET /ready", health.HandleReady)
	mux.HandleFunc("GET /version", health.HandleVersion(Version, BuildTime, GitCommit))

	handlers.NewHandoffHandler(s.pipeline.coordinator, s.pipeline.router, s.logger).Register(mux)

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
	}
	if s.collector != nil {
		middlewares = append(middlewares, MetricsMiddleware(s.collector))
	}
	middlewares = append(middlewares, RateLimiter(float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, skipAuthPaths))

	switch {
	case s.cfg.Server.JWT.Enabled():
		middlewares = append(middlewares, JWTAuth(s.cfg.Server.JWT, skipAuthPaths, s.logger))
	case len(s.cfg.Server.APIKeys) > 0:
		middlewares = append(middlewares, APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.cfg.Server.AllowQueryAPIKey, s.logger))
	default:
		s.logger.Warn("no API keys or JWT configured, trigger endpoints are unauthenticated")
	}

	return Chain(mux, middlewares...)
}

// =============================================================================
// 🚀 运行
// =============================================================================

// Run 启动 HTTP 服务器、Metrics 服务器与宿主事件订阅，阻塞直到 ctx 取消
// 或任一组件失败；返回前完成优雅关闭
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.httpManager.Run(ctx) })
	g.Go(func() error { return s.metricsManager.Run(ctx) })
	if s.cfg.Host.SubscribeEvents {
		g.Go(func() error { return s.pumpEvents(ctx) })
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("host", s.cfg.Host.BaseURL),
		zap.Bool("subscribe_events", s.cfg.Host.SubscribeEvents),
	)

	return g.Wait()
}

// pumpEvents 订阅宿主事件流并并发分发，直到 ctx 取消
func (s *Server) pumpEvents(ctx context.Context) error {
	var events errgroup.Group
	handoffs := semaphore.NewWeighted(maxConcurrentHandoffs)

	err := s.pipeline.host.Listen(ctx, s.cfg.Host.ReconnectDelay, func(ctx context.Context, ev plugin.Event) {
		events.Go(func() error {
			if ev.Type == plugin.EventCommandExecuted {
				if err := handoffs.Acquire(ctx, 1); err != nil {
					return nil
				}
				defer handoffs.Release(1)
			}
			s.dispatch(ctx, ev)
			return nil
		})
	})
	_ = events.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// dispatch 路由单个宿主事件；失败已由路由器反馈给用户，这里只记录
func (s *Server) dispatch(ctx context.Context, ev plugin.Event) {
	res, err := s.pipeline.router.Handle(ctx, ev)
	switch {
	case err != nil:
		s.logger.Warn("host event failed", zap.String("event", ev.Type), zap.Error(err))
	case res.Ignored:
	case res.Handoff != nil:
		s.logger.Info("handoff created from host command",
			zap.String("new_session_id", res.Handoff.NewSessionID),
			zap.String("category", string(res.Handoff.Category)),
		)
	default:
		s.logger.Debug("activation handled",
			zap.String("event", ev.Type),
			zap.String("delivery", string(res.Delivery)),
		)
	}
}
