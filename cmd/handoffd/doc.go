// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
handoffd 是会话交接服务的命令行入口。

# 子命令

  - serve：启动 HTTP API、Metrics 端点，并（可选）订阅宿主事件流
  - run：执行一次交接并以 JSON 输出结果；--dry-run 只输出分类、标题与提示词，不访问宿主
  - health：请求运行中实例的 /ready
  - version：打印版本信息

# 中间件链

Recovery → RequestID → SecurityHeaders → OTelTracing → RequestLogger →
Metrics → RateLimiter → JWTAuth 或 APIKeyAuth。健康检查路径不做认证与限流。

# 配置

通过 --config 指定 YAML 文件，环境变量（HANDOFF_ 前缀）覆盖文件中的值，
例如 HANDOFF_HOST_BASE_URL、HANDOFF_SERVER_API_KEYS。
*/
package main
