// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
包 host 是宿主运行时 HTTP API 的客户端，同时实现
handoff.CompletionService、handoff.SessionService 与 handoff.UIService。

# 端点

  - POST /session/{id}/message：在当前会话内执行一次补全
  - POST /session：创建子会话（parentID + title）
  - POST /tui/publish、/tui/show-toast、/tui/append-prompt：UI 操作
  - GET /event：SSE 事件流，由 Subscribe / Listen 解析为 plugin.Event
  - GET /config：可达性检查（Ping）

配置了 Directory 时所有请求都附带 directory 查询参数。
错误按状态码映射为 types.Error（401/403 → UNAUTHORIZED，404 → NOT_FOUND，
429 → RATE_LIMITED，5xx → UPSTREAM_ERROR 可重试，超时 → TIMEOUT）。
每次调用都会产生一个 host.<op> 客户端 span，并通过 Recorder 上报耗时。
*/
package host
