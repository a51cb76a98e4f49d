// MockHost 宿主运行时的测试模拟实现。
//
// 同时实现 handoff.CompletionService、handoff.SessionService 与
// handoff.UIService，支持固定响应、调用记录与错误注入。
package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BaSui01/sessionhandoff/handoff"
)

// ErrMockHost 是 Fail* 系列方法注入的默认错误
var ErrMockHost = errors.New("mock host failure")

// --- MockHost 结构 ---

// MockHost 是宿主运行时的模拟实现
type MockHost struct {
	mu sync.RWMutex

	// 响应配置
	parts     []handoff.Part
	sessionID string

	// 错误注入
	promptErr  error
	createErr  error
	publishErr error
	toastErr   error
	appendErr  error

	// 行为控制
	delay time.Duration

	// 调用记录
	calls    []string
	prompts  []*handoff.PromptRequest
	sessions []*handoff.CreateSessionRequest
	events   []*handoff.TUIEvent
	toasts   []*handoff.Toast
	appends  []string
}

// --- 构造函数和 Builder 方法 ---

// NewMockHost 创建新的 MockHost，默认返回一段带文件引用的交接提示词
func NewMockHost() *MockHost {
	return &MockHost{
		parts: []handoff.Part{handoff.TextPart("@README.md\n\nThe goal is to continue the current work.")},
	}
}

// WithResponse 设置补全返回的文本
func (m *MockHost) WithResponse(text string) *MockHost {
	return m.WithParts(handoff.TextPart(text))
}

// WithParts 设置补全返回的完整片段
func (m *MockHost) WithParts(parts ...handoff.Part) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parts = parts
	return m
}

// WithSessionID 固定新会话 ID，默认每次生成 ses_<uuid>
func (m *MockHost) WithSessionID(id string) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = id
	return m
}

// WithDelay 设置每次调用的延迟
func (m *MockHost) WithDelay(d time.Duration) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithPromptError 设置补全错误
func (m *MockHost) WithPromptError(err error) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promptErr = err
	return m
}

// WithCreateError 设置创建会话错误
func (m *MockHost) WithCreateError(err error) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
	return m
}

// WithPublishError 设置发布事件错误
func (m *MockHost) WithPublishError(err error) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishErr = err
	return m
}

// WithToastError 设置提示错误
func (m *MockHost) WithToastError(err error) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toastErr = err
	return m
}

// WithAppendError 设置填充输入框错误
func (m *MockHost) WithAppendError(err error) *MockHost {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendErr = err
	return m
}

// --- 接口实现 ---

// Prompt 实现 handoff.CompletionService
func (m *MockHost) Prompt(ctx context.Context, req *handoff.PromptRequest) (*handoff.PromptResponse, error) {
	if err := m.enter(ctx, "prompt"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, req)
	if m.promptErr != nil {
		return nil, m.promptErr
	}
	parts := make([]handoff.Part, len(m.parts))
	copy(parts, m.parts)
	return &handoff.PromptResponse{MessageID: "msg_" + uuid.NewString(), Parts: parts}, nil
}

// CreateSession 实现 handoff.SessionService
func (m *MockHost) CreateSession(ctx context.Context, req *handoff.CreateSessionRequest) (*handoff.Session, error) {
	if err := m.enter(ctx, "create_session"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, req)
	if m.createErr != nil {
		return nil, m.createErr
	}
	id := m.sessionID
	if id == "" {
		id = "ses_" + uuid.NewString()
	}
	return &handoff.Session{ID: id, ParentID: req.ParentID, Title: req.Title}, nil
}

// Publish 实现 handoff.UIService
func (m *MockHost) Publish(ctx context.Context, ev *handoff.TUIEvent) error {
	if err := m.enter(ctx, "publish"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.publishErr
}

// ShowToast 实现 handoff.UIService
func (m *MockHost) ShowToast(ctx context.Context, t *handoff.Toast) error {
	if err := m.enter(ctx, "toast"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = append(m.toasts, t)
	return m.toastErr
}

// AppendPrompt 实现 handoff.UIService
func (m *MockHost) AppendPrompt(ctx context.Context, text string) error {
	if err := m.enter(ctx, "append_prompt"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends = append(m.appends, text)
	return m.appendErr
}

func (m *MockHost) enter(ctx context.Context, call string) error {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// --- 调用记录 ---

// Calls 返回按顺序记录的调用名
func (m *MockHost) Calls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.calls...)
}

// Prompts 返回所有补全请求
func (m *MockHost) Prompts() []*handoff.PromptRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*handoff.PromptRequest(nil), m.prompts...)
}

// Sessions 返回所有创建会话请求
func (m *MockHost) Sessions() []*handoff.CreateSessionRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*handoff.CreateSessionRequest(nil), m.sessions...)
}

// Events 返回所有发布的 TUI 事件
func (m *MockHost) Events() []*handoff.TUIEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*handoff.TUIEvent(nil), m.events...)
}

// Toasts 返回所有提示
func (m *MockHost) Toasts() []*handoff.Toast {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*handoff.Toast(nil), m.toasts...)
}

// LastToast 返回最后一条提示，没有时返回 nil
func (m *MockHost) LastToast() *handoff.Toast {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.toasts) == 0 {
		return nil
	}
	return m.toasts[len(m.toasts)-1]
}

// Appends 返回所有填充到输入框的文本
func (m *MockHost) Appends() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.appends...)
}

// Reset 清空调用记录，保留响应与错误配置
func (m *MockHost) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.prompts = nil
	m.sessions = nil
	m.events = nil
	m.toasts = nil
	m.appends = nil
}
