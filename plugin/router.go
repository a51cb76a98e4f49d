package plugin

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/sessionhandoff/handoff"
	"github.com/BaSui01/sessionhandoff/types"
)

// CommandName is the slash command that triggers a handoff.
const CommandName = "handoff"

const missingGoalMessage = "Please provide a goal: /handoff <your goal for the new session>"

// Handoffer is the part of handoff.Coordinator the router drives.
type Handoffer interface {
	ExecuteHandoff(ctx context.Context, req handoff.HandoffRequest) (*handoff.HandoffResult, error)
	Activate(ctx context.Context, sessionID string) handoff.DeliveryOutcome
}

// Result reports what the router did with an event.
type Result struct {
	Event    string                  `json:"event"`
	Ignored  bool                    `json:"ignored,omitempty"`
	Handoff  *handoff.HandoffResult  `json:"handoff,omitempty"`
	Delivery handoff.DeliveryOutcome `json:"delivery,omitempty"`
}

// Router maps host events onto handoff operations.
type Router struct {
	handoffs      Handoffer
	ui            handoff.UIService
	notify        handoff.BestEffort
	toastDuration time.Duration
	logger        *zap.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithToastDuration sets how long feedback toasts stay visible.
func WithToastDuration(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.toastDuration = d
		}
	}
}

// WithFailureHook receives swallowed toast failures, e.g. for metrics.
func WithFailureHook(fn func(op string, err error)) RouterOption {
	return func(r *Router) { r.notify.OnFailure = fn }
}

// NewRouter creates a router. ui is used for user-facing feedback only.
func NewRouter(handoffs Handoffer, ui handoff.UIService, logger *zap.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "handoff_router"))
	r := &Router{
		handoffs:      handoffs,
		ui:            ui,
		notify:        handoff.BestEffort{Logger: logger},
		toastDuration: handoff.DefaultOptions().ToastDuration,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle dispatches one event. Unrelated events are ignored. A failed handoff
// is reported to the user and returned; activation never fails.
func (r *Router) Handle(ctx context.Context, ev Event) (*Result, error) {
	switch ev.Type {
	case EventCommandExecuted:
		var cmd CommandExecuted
		if err := decodeProperties(ev, &cmd); err != nil {
			return nil, types.NewError(types.ErrInvalidInput, err.Error())
		}
		if cmd.Name != CommandName {
			return &Result{Event: ev.Type, Ignored: true}, nil
		}
		res, err := r.runCommand(ctx, cmd)
		return &Result{Event: ev.Type, Handoff: res}, err

	case EventTUISessionSelect, EventSessionIdle:
		var ref SessionRef
		if err := decodeProperties(ev, &ref); err != nil {
			return nil, types.NewError(types.ErrInvalidInput, err.Error())
		}
		if ref.SessionID == "" {
			return &Result{Event: ev.Type, Ignored: true}, nil
		}
		outcome := r.handoffs.Activate(ctx, ref.SessionID)
		return &Result{Event: ev.Type, Delivery: outcome}, nil
	}

	return &Result{Event: ev.Type, Ignored: true}, nil
}

func (r *Router) runCommand(ctx context.Context, cmd CommandExecuted) (*handoff.HandoffResult, error) {
	goal, category, err := ParseArguments(cmd.Arguments)
	if err != nil {
		r.toast(ctx, "toast_invalid_type", "Handoff Failed", errorMessage(err), handoff.ToastError)
		return nil, err
	}
	if goal == "" {
		r.toast(ctx, "toast_missing_goal", "Handoff Error", missingGoalMessage, handoff.ToastError)
		return nil, types.NewError(types.ErrInvalidInput, "handoff goal must not be empty")
	}

	r.toast(ctx, "toast_analyzing", "", "Analyzing session for handoff...", handoff.ToastInfo)

	res, err := r.handoffs.ExecuteHandoff(ctx, handoff.HandoffRequest{
		SessionID: cmd.SessionID,
		Goal:      goal,
		Category:  category,
	})
	if err != nil {
		r.logger.Warn("handoff command failed",
			zap.String("session_id", cmd.SessionID),
			zap.String("code", string(types.GetErrorCode(err))),
			zap.Error(err),
		)
		r.toast(ctx, "toast_failed", "Handoff Failed", errorMessage(err), handoff.ToastError)
		return nil, err
	}
	return res, nil
}

func (r *Router) toast(ctx context.Context, op, title, message string, variant handoff.ToastVariant) {
	r.notify.Do(ctx, op, func(ctx context.Context) error {
		return r.ui.ShowToast(ctx, &handoff.Toast{
			Title:    title,
			Message:  message,
			Variant:  variant,
			Duration: r.toastDuration,
		})
	})
}

// errorMessage prefers the structured message over the cause chain.
func errorMessage(err error) string {
	var e *types.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
