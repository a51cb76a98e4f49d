package handoff

import (
	"context"
	"time"
)

// PartType identifies the kind of a content segment returned by the host.
type PartType string

const (
	PartText      PartType = "text"
	PartReasoning PartType = "reasoning"
	PartTool      PartType = "tool"
	PartFile      PartType = "file"
)

// Part is one typed content segment of a prompt or completion.
type Part struct {
	Type PartType `json:"type"`
	Text string   `json:"text,omitempty"`
}

// TextPart builds a text segment.
func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

// PromptRequest asks the host to run one completion inside an existing session,
// so the session's conversation is the context being summarized.
type PromptRequest struct {
	SessionID string `json:"-"`
	System    string `json:"system,omitempty"`
	Parts     []Part `json:"parts"`
}

// PromptResponse is the ordered list of segments the host produced.
type PromptResponse struct {
	MessageID string `json:"message_id,omitempty"`
	Parts     []Part `json:"parts"`
}

// CompletionService runs one completion round-trip against a session.
// A nil response with a nil error means the host returned no data.
type CompletionService interface {
	Prompt(ctx context.Context, req *PromptRequest) (*PromptResponse, error)
}

// CreateSessionRequest describes a child session to create.
type CreateSessionRequest struct {
	ParentID string `json:"parentID,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Session is the subset of host session data the handoff flow needs.
type Session struct {
	ID       string `json:"id"`
	ParentID string `json:"parentID,omitempty"`
	Title    string `json:"title,omitempty"`
}

// SessionService creates host sessions.
// A nil session with a nil error means the host returned no data.
type SessionService interface {
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*Session, error)
}

// ToastVariant is the visual style of a toast.
type ToastVariant string

const (
	ToastInfo    ToastVariant = "info"
	ToastSuccess ToastVariant = "success"
	ToastWarning ToastVariant = "warning"
	ToastError   ToastVariant = "error"
)

// Toast is a transient UI notification.
type Toast struct {
	Title    string        `json:"title,omitempty"`
	Message  string        `json:"message"`
	Variant  ToastVariant  `json:"variant"`
	Duration time.Duration `json:"-"`
}

// TUI event and command names understood by the host.
const (
	EventTUICommandExecute = "tui.command.execute"
	CommandSessionList     = "session.list"
)

// TUIEvent is an event published onto the host UI bus.
type TUIEvent struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// UIService is the host's UI surface. All calls are best-effort from the
// coordinator's point of view.
type UIService interface {
	Publish(ctx context.Context, event *TUIEvent) error
	ShowToast(ctx context.Context, toast *Toast) error
	AppendPrompt(ctx context.Context, text string) error
}
