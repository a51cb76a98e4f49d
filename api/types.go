package api

import (
	"encoding/json"
	"time"
)

// =============================================================================
// 交接类型
// =============================================================================

// HandoffRequest 表示创建交接的请求。
// @Description 交接请求结构
type HandoffRequest struct {
	// 当前会话 ID
	SessionID string `json:"session_id" example:"ses_abc123" binding:"required"`
	// 新会话的目标
	Goal string `json:"goal" example:"implement the retry policy" binding:"required"`
	// 可选类别（research、planning、impl、general），为空时自动分类
	Category string `json:"category,omitempty" example:"impl"`
}

// HandoffResponse 表示已创建的交接。
// @Description 交接结果结构
type HandoffResponse struct {
	// 新会话 ID
	NewSessionID string `json:"new_session_id" example:"ses_def456"`
	// 新会话标题
	Title string `json:"title" example:"Impl: Implement the retry policy"`
	// 生效类别
	Category string `json:"category" example:"impl"`
	// 生成的交接提示词
	Prompt string `json:"prompt"`
	// 提示词中 @ 引用的文件
	FileReferences []string `json:"file_references"`
	// 提示词 token 数
	PromptTokens int `json:"prompt_tokens" example:"412"`
	// 待投递记录的过期时间
	ExpiresAt time.Time `json:"expires_at"`
	// 是否已投递（创建时恒为 false）
	Delivered bool `json:"delivered" example:"false"`
}

// ActivateResponse 表示一次会话激活的投递结果。
// @Description 激活结果结构
type ActivateResponse struct {
	// 会话 ID
	SessionID string `json:"session_id" example:"ses_def456"`
	// 投递结果（none、delivered、failed）
	Outcome string `json:"outcome" example:"delivered"`
}

// PendingResponse 表示一条待投递的交接。
// @Description 待投递交接结构
type PendingResponse struct {
	// 会话 ID
	SessionID string `json:"session_id" example:"ses_def456"`
	// 会话标题
	Title string `json:"title"`
	// 类别
	Category string `json:"category" example:"research"`
	// 提示词长度（字符）
	PromptLength int `json:"prompt_length" example:"1800"`
	// 创建时间
	CreatedAt time.Time `json:"created_at"`
	// 过期时间
	ExpiresAt time.Time `json:"expires_at"`
}

// =============================================================================
// 事件类型
// =============================================================================

// EventRequest 表示宿主推送的原始事件。
// @Description 宿主事件结构
type EventRequest struct {
	// 事件类型（command.executed、tui.session.select、session.idle）
	Type string `json:"type" example:"command.executed" binding:"required"`
	// 事件属性
	Properties json.RawMessage `json:"properties,omitempty"`
}

// EventResponse 表示事件的路由结果。
// @Description 事件结果结构
type EventResponse struct {
	// 事件类型
	Event string `json:"event"`
	// 是否被忽略
	Ignored bool `json:"ignored,omitempty"`
	// 交接结果（command.executed）
	Handoff *HandoffResponse `json:"handoff,omitempty"`
	// 投递结果（会话激活事件）
	Delivery string `json:"delivery,omitempty"`
}
