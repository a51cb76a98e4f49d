// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 handoffd HTTP API 的请求处理器实现。

# 概述

handlers 包实现交接触发接口、健康检查以及统一的响应/错误处理，
供无法建立事件流、只能主动推送的宿主使用。所有 Handler 均遵循
标准 net/http 接口，通过 Swagger 注解生成 API 文档。

# 核心类型

  - HandoffHandler   — 创建交接、激活会话、查询待投递记录、接收宿主事件
  - HealthHandler    — 服务健康检查（/health, /healthz, /ready）
  - Response         — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo        — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter   — 包装 http.ResponseWriter 以捕获状态码
  - HealthCheck      — 可插拔健康检查接口，PingCheck 用于宿主可达性

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteAnyError / WriteJSON
  - 请求验证：DecodeJSONBody（1 MB 限制 + 严格模式）、ValidateContentType
  - ErrorCode → HTTP 状态码自动映射：分析失败与会话创建失败映射为 502
*/
package handlers
