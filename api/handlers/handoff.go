package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/sessionhandoff/api"
	"github.com/BaSui01/sessionhandoff/handoff"
	"github.com/BaSui01/sessionhandoff/plugin"
	"github.com/BaSui01/sessionhandoff/types"
)

// =============================================================================
// 🔀 交接接口 Handler
// =============================================================================

// Coordinator 是 HandoffHandler 依赖的 handoff.Coordinator 能力
type Coordinator interface {
	plugin.Handoffer
	Registry() *handoff.Registry
}

// EventRouter 把宿主事件路由到交接操作，由 plugin.Router 实现
type EventRouter interface {
	Handle(ctx context.Context, ev plugin.Event) (*plugin.Result, error)
}

// HandoffHandler 交接接口处理器
type HandoffHandler struct {
	coordinator Coordinator
	router      EventRouter
	logger      *zap.Logger
}

// NewHandoffHandler 创建交接处理器
func NewHandoffHandler(coordinator Coordinator, router EventRouter, logger *zap.Logger) *HandoffHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandoffHandler{
		coordinator: coordinator,
		router:      router,
		logger:      logger.With(zap.String("component", "handoff_handler")),
	}
}

// Register 在 mux 上注册交接路由
func (h *HandoffHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/handoffs", h.HandleCreate)
	mux.HandleFunc("POST /v1/sessions/{id}/activate", h.HandleActivate)
	mux.HandleFunc("GET /v1/sessions/{id}/pending", h.HandlePending)
	mux.HandleFunc("POST /v1/events", h.HandleEvent)
}

// HandleCreate 创建交接
// @Summary 创建交接
// @Tags 交接
// @Accept json
// @Produce json
// @Param request body api.HandoffRequest true "交接请求"
// @Success 200 {object} api.HandoffResponse "交接结果"
// @Failure 400 {object} Response "无效请求"
// @Failure 502 {object} Response "分析或会话创建失败"
// @Security ApiKeyAuth
// @Router /v1/handoffs [post]
func (h *HandoffHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.HandoffRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	var category handoff.Category
	if strings.TrimSpace(req.Category) != "" {
		parsed, err := handoff.ParseCategory(req.Category)
		if err != nil {
			WriteAnyError(w, err, h.logger)
			return
		}
		category = parsed
	}

	result, err := h.coordinator.ExecuteHandoff(r.Context(), handoff.HandoffRequest{
		SessionID: req.SessionID,
		Goal:      req.Goal,
		Category:  category,
	})
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	WriteSuccess(w, toHandoffResponse(result))
}

// HandleActivate 投递会话的待交接提示词
// @Summary 激活会话
// @Tags 交接
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} api.ActivateResponse "投递结果"
// @Security ApiKeyAuth
// @Router /v1/sessions/{id}/activate [post]
func (h *HandoffHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	outcome := h.coordinator.Activate(r.Context(), sessionID)
	WriteSuccess(w, api.ActivateResponse{
		SessionID: sessionID,
		Outcome:   string(outcome),
	})
}

// HandlePending 查询会话的待交接记录
// @Summary 查询待投递交接
// @Tags 交接
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} api.PendingResponse "待投递交接"
// @Failure 404 {object} Response "无待投递交接或已过期"
// @Security ApiKeyAuth
// @Router /v1/sessions/{id}/pending [get]
func (h *HandoffHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	pending, found := h.coordinator.Registry().Get(sessionID)
	if !found {
		WriteErrorMessage(w, http.StatusNotFound, types.ErrNotFound, "no pending handoff for session", h.logger)
		return
	}

	WriteSuccess(w, api.PendingResponse{
		SessionID:    pending.SessionID,
		Title:        pending.Title,
		Category:     string(pending.Category),
		PromptLength: len([]rune(pending.Prompt)),
		CreatedAt:    pending.CreatedAt,
		ExpiresAt:    pending.ExpiresAt,
	})
}

// HandleEvent 接收宿主推送的原始事件
// @Summary 推送宿主事件
// @Tags 交接
// @Accept json
// @Produce json
// @Param request body api.EventRequest true "宿主事件"
// @Success 200 {object} api.EventResponse "路由结果"
// @Failure 400 {object} Response "无效事件"
// @Security ApiKeyAuth
// @Router /v1/events [post]
func (h *HandoffHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req api.EventRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Type) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "event type is required", h.logger)
		return
	}

	result, err := h.router.Handle(r.Context(), plugin.Event{Type: req.Type, Properties: req.Properties})
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	resp := api.EventResponse{
		Event:    result.Event,
		Ignored:  result.Ignored,
		Delivery: string(result.Delivery),
	}
	if result.Handoff != nil {
		converted := toHandoffResponse(result.Handoff)
		resp.Handoff = &converted
	}
	WriteSuccess(w, resp)
}

func (h *HandoffHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidInput, "session id is required", h.logger)
		return "", false
	}
	return id, true
}

func toHandoffResponse(r *handoff.HandoffResult) api.HandoffResponse {
	refs := r.FileReferences
	if refs == nil {
		refs = []string{}
	}
	return api.HandoffResponse{
		NewSessionID:   r.NewSessionID,
		Title:          r.Title,
		Category:       string(r.Category),
		Prompt:         r.Prompt,
		FileReferences: refs,
		PromptTokens:   r.PromptTokens,
		ExpiresAt:      r.ExpiresAt,
		Delivered:      r.Delivered,
	}
}
