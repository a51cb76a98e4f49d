// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖
HTTP 入口、宿主调用与会话交接三大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
Collector 同时实现 handoff.Observer，由 Coordinator 直接驱动。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 宿主调用指标：按 operation 统计调用次数与耗时，传输失败记为 error。
  - 交接指标：handoffs_total{category,status}、交接耗时、提示词 Token 分布、
    deliveries_total{outcome}、notification_failures_total{op}
    以及 pending_handoffs Gauge。
*/
package metrics
