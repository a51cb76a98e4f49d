// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
包 handoff 提供会话交接（session handoff）流水线：把当前会话压缩成一段
交接提示词，创建子会话，并在用户切换到子会话时把提示词投递进去。

# 概述

handoff 解决的核心问题是：长会话上下文臃肿时，如何让一个全新的会话
立即接手下一步工作。流水线只做一次 LLM 往返，由宿主使用当前会话的
对话历史作为上下文，本包不持有任何对话状态。

# 核心模型

  - Category：交接类别 research / planning / impl / general
  - Classifier / Rule：按优先级 impl > planning > research 排序的规则表
  - BuildSystemPrompt / BuildUserPrompt：按类别生成的纯文本模板
  - Analyzer：一次补全请求，拼接 text 片段并裁剪空白
  - Registry / PendingHandoff：按会话 ID 存放待投递提示词，带过期时间
  - Coordinator：ExecuteHandoff 创建交接，Activate 在会话激活时投递
  - BestEffort：通知类调用的"尽力而为"策略，失败只记录不传播

# 错误语义

  - INVALID_INPUT：空目标或未知类别，发生在任何 I/O 之前
  - ANALYSIS_FAILED：补全服务无数据或返回空文本，不创建会话
  - SESSION_CREATION_FAILED：宿主未返回新会话，不登记待投递记录
  - NOTIFICATION_FAILED：仅本地记录，从不向调用方传播

# 与其他包协同

host 包实现 CompletionService / SessionService / UIService，
plugin 包把宿主事件路由到 ExecuteHandoff 与 Activate，
internal/metrics.Collector 实现 Observer。
*/
package handoff
