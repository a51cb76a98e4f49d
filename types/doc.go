// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供会话交接服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 handoff、host、plugin、
api 等上层模块提供统一的错误与上下文契约，避免循环依赖。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码与 Retryable 标记
  - INVALID_INPUT / ANALYSIS_FAILED / SESSION_CREATION_FAILED — 交接硬失败
  - NOTIFICATION_FAILED — 仅在本地记录的非致命通知失败

# 主要能力

  - 错误链：WithCause + errors.As，GetErrorCode / IsCode 可穿透 fmt.Errorf 包装
  - Context 传播：WithTraceID / WithTenantID / WithUserID
*/
package types
