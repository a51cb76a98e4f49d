package handoff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/sessionhandoff/types"
)

// HandoffRequest asks for a handoff out of SessionID toward Goal.
// An empty Category means the goal is classified.
type HandoffRequest struct {
	SessionID string   `json:"session_id"`
	Goal      string   `json:"goal"`
	Category  Category `json:"category,omitempty"`
}

// Validate trims the goal in place and rejects unusable requests before any I/O.
func (r *HandoffRequest) Validate() error {
	r.Goal = strings.TrimSpace(r.Goal)
	r.SessionID = strings.TrimSpace(r.SessionID)
	if r.Goal == "" {
		return types.NewError(types.ErrInvalidInput, "handoff goal must not be empty")
	}
	if r.SessionID == "" {
		return types.NewError(types.ErrInvalidInput, "current session id must not be empty")
	}
	if r.Category != "" && !r.Category.Valid() {
		return types.Errorf(types.ErrInvalidInput, "unknown handoff category %q", r.Category)
	}
	return nil
}

// HandoffResult describes a created handoff. Delivered is always false:
// delivery happens when the new session is activated.
type HandoffResult struct {
	NewSessionID   string    `json:"new_session_id"`
	Title          string    `json:"title"`
	Category       Category  `json:"category"`
	Prompt         string    `json:"prompt"`
	FileReferences []string  `json:"file_references"`
	PromptTokens   int       `json:"prompt_tokens"`
	ExpiresAt      time.Time `json:"expires_at"`
	Delivered      bool      `json:"delivered"`
}

// DeliveryOutcome is the result of an activation event.
type DeliveryOutcome string

const (
	DeliveryNone      DeliveryOutcome = "none"
	DeliveryDelivered DeliveryOutcome = "delivered"
	DeliveryFailed    DeliveryOutcome = "failed"
)

// Observer receives handoff metrics. internal/metrics.Collector implements it.
type Observer interface {
	RecordHandoff(category, status string, duration time.Duration)
	RecordPromptTokens(category string, tokens int)
	RecordDelivery(outcome string)
	RecordNotificationFailure(op string)
	SetPendingHandoffs(n int)
}

type nopObserver struct{}

func (nopObserver) RecordHandoff(string, string, time.Duration) {}
func (nopObserver) RecordPromptTokens(string, int)              {}
func (nopObserver) RecordDelivery(string)                       {}
func (nopObserver) RecordNotificationFailure(string)            {}
func (nopObserver) SetPendingHandoffs(int)                      {}

// TokenCounter estimates the token size of a prompt.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// Options tunes the coordinator's timings and limits.
type Options struct {
	PendingTTL     time.Duration `yaml:"pending_ttl" json:"pending_ttl"`
	DeliveryDelay  time.Duration `yaml:"delivery_delay" json:"delivery_delay"`
	NotifyDelay    time.Duration `yaml:"notify_delay" json:"notify_delay"`
	ToastDuration  time.Duration `yaml:"toast_duration" json:"toast_duration"`
	MaxTitleLength int           `yaml:"max_title_length" json:"max_title_length"`
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		PendingTTL:     DefaultPendingTTL,
		DeliveryDelay:  150 * time.Millisecond,
		NotifyDelay:    100 * time.Millisecond,
		ToastDuration:  5 * time.Second,
		MaxTitleLength: DefaultMaxTitleLength,
	}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithOptions replaces the timing options. Zero TTL, toast duration and title
// length keep their defaults; delays are taken as given unless negative.
func WithOptions(o Options) Option {
	return func(c *Coordinator) {
		d := DefaultOptions()
		if o.PendingTTL > 0 {
			d.PendingTTL = o.PendingTTL
		}
		if o.DeliveryDelay >= 0 {
			d.DeliveryDelay = o.DeliveryDelay
		}
		if o.NotifyDelay >= 0 {
			d.NotifyDelay = o.NotifyDelay
		}
		if o.ToastDuration > 0 {
			d.ToastDuration = o.ToastDuration
		}
		if o.MaxTitleLength > 0 {
			d.MaxTitleLength = o.MaxTitleLength
		}
		c.opts = d
	}
}

// WithClock injects the clock used for expiry.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithTokenCounter sets the prompt token counter.
func WithTokenCounter(tc TokenCounter) Option {
	return func(c *Coordinator) { c.tokens = tc }
}

// WithClassifier replaces the default rule table.
func WithClassifier(cl *Classifier) Option {
	return func(c *Coordinator) { c.classifier = cl }
}

// WithSleep replaces the delay function; tests use it to skip real waits.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Coordinator) { c.sleep = sleep }
}

// Coordinator runs the handoff flow and owns the pending registry.
type Coordinator struct {
	analyzer   *Analyzer
	sessions   SessionService
	ui         UIService
	registry   *Registry
	classifier *Classifier
	clock      Clock
	tokens     TokenCounter
	observer   Observer
	notify     BestEffort
	sleep      func(ctx context.Context, d time.Duration) error
	opts       Options
	logger     *zap.Logger
}

// NewCoordinator wires a coordinator to the host collaborators.
func NewCoordinator(completion CompletionService, sessions SessionService, ui UIService, opts ...Option) *Coordinator {
	c := &Coordinator{
		sessions:   sessions,
		ui:         ui,
		classifier: defaultClassifier,
		clock:      SystemClock{},
		observer:   nopObserver{},
		sleep:      sleepContext,
		opts:       DefaultOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("component", "handoff_coordinator"))
	c.analyzer = NewAnalyzer(completion, c.logger)
	c.registry = NewRegistry(c.clock)
	c.notify = BestEffort{
		Logger:    c.logger,
		OnFailure: func(op string, _ error) { c.observer.RecordNotificationFailure(op) },
	}
	return c
}

// Registry exposes the pending registry for inspection.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// ExecuteHandoff analyzes the current session, creates a child session and
// parks the generated prompt until that session is activated. ANALYSIS_FAILED
// and SESSION_CREATION_FAILED are returned unchanged; notification failures
// are swallowed.
func (c *Coordinator) ExecuteHandoff(ctx context.Context, req HandoffRequest) (*HandoffResult, error) {
	start := c.clock.Now()
	if err := req.Validate(); err != nil {
		c.observer.RecordHandoff(string(req.Category), "invalid", 0)
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = c.classifier.Classify(req.Goal)
	}

	ctx, span := tracer.Start(ctx, "handoff.execute", trace.WithAttributes(
		attribute.String("handoff.session_id", req.SessionID),
		attribute.String("handoff.category", string(category)),
		attribute.Bool("handoff.category_override", req.Category != ""),
	))
	defer span.End()

	log := c.logger.With(append(callerFields(ctx),
		zap.String("session_id", req.SessionID),
		zap.String("category", string(category)),
	)...)
	log.Info("starting handoff", zap.Int("goal_chars", len(req.Goal)))

	prompt, err := c.analyzer.Analyze(ctx, req.SessionID, req.Goal, category)
	if err != nil {
		return nil, c.abort(span, category, start, err)
	}

	title := DeriveTitle(req.Goal, category, c.opts.MaxTitleLength)
	// Counting may load encoder data; nothing but pure work may sit between
	// CreateSession and the registry Put.
	tokens := c.countTokens(prompt)

	session, err := c.sessions.CreateSession(ctx, &CreateSessionRequest{ParentID: req.SessionID, Title: title})
	if err != nil {
		if !types.IsCode(err, types.ErrSessionCreationFailed) {
			err = types.NewError(types.ErrSessionCreationFailed, "failed to create new session").
				WithCause(err).
				WithRetryable(types.IsRetryable(err))
		}
		return nil, c.abort(span, category, start, err)
	}
	if session == nil || session.ID == "" {
		return nil, c.abort(span, category, start,
			types.NewError(types.ErrSessionCreationFailed, "failed to create new session: no data"))
	}

	now := c.clock.Now()
	pending := PendingHandoff{
		SessionID: session.ID,
		Prompt:    prompt,
		Title:     title,
		Category:  category,
		CreatedAt: now,
		ExpiresAt: now.Add(c.opts.PendingTTL),
	}
	if c.registry.Put(pending) {
		log.Warn("replaced pending handoff", zap.String("new_session_id", session.ID))
	}
	if swept := c.registry.Sweep(); swept > 0 {
		log.Debug("swept expired handoffs", zap.Int("count", swept))
	}
	c.observer.SetPendingHandoffs(c.registry.Len())
	refs := ExtractFileReferences(prompt)

	c.announce(ctx, title)

	duration := c.clock.Now().Sub(start)
	c.observer.RecordHandoff(string(category), "success", duration)
	c.observer.RecordPromptTokens(string(category), tokens)
	span.SetAttributes(
		attribute.String("handoff.new_session_id", session.ID),
		attribute.Int("handoff.file_references", len(refs)),
		attribute.Int("handoff.prompt_tokens", tokens),
	)
	log.Info("handoff ready",
		zap.String("new_session_id", session.ID),
		zap.String("title", title),
		zap.Int("file_references", len(refs)),
		zap.Int("prompt_tokens", tokens),
		zap.Time("expires_at", pending.ExpiresAt),
	)

	return &HandoffResult{
		NewSessionID:   session.ID,
		Title:          title,
		Category:       category,
		Prompt:         prompt,
		FileReferences: refs,
		PromptTokens:   tokens,
		ExpiresAt:      pending.ExpiresAt,
		Delivered:      false,
	}, nil
}

func (c *Coordinator) abort(span trace.Span, category Category, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	status := strings.ToLower(string(types.GetErrorCode(err)))
	if status == "" {
		status = "error"
	}
	c.observer.RecordHandoff(string(category), status, c.clock.Now().Sub(start))
	c.logger.Error("handoff failed", zap.String("category", string(category)), zap.Error(err))
	return err
}

// announce refreshes the session list and tells the user where to go next.
func (c *Coordinator) announce(ctx context.Context, title string) {
	c.notify.Do(ctx, "publish_session_list", func(ctx context.Context) error {
		return c.ui.Publish(ctx, &TUIEvent{
			Type:       EventTUICommandExecute,
			Properties: map[string]any{"command": CommandSessionList},
		})
	})

	if err := c.sleep(ctx, c.opts.NotifyDelay); err != nil {
		return
	}

	c.notify.Do(ctx, "toast_ready", func(ctx context.Context) error {
		return c.ui.ShowToast(ctx, &Toast{
			Title:    "Handoff Ready",
			Message:  fmt.Sprintf("Select %q to continue", title),
			Variant:  ToastSuccess,
			Duration: c.opts.ToastDuration,
		})
	})
}

// callerFields tags log lines with the request and principal carried by ctx.
func callerFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if id, ok := types.TraceID(ctx); ok {
		fields = append(fields, zap.String("request_id", id))
	}
	if id, ok := types.TenantID(ctx); ok {
		fields = append(fields, zap.String("tenant_id", id))
	}
	if id, ok := types.UserID(ctx); ok {
		fields = append(fields, zap.String("user_id", id))
	}
	return fields
}

func (c *Coordinator) countTokens(prompt string) int {
	if c.tokens == nil {
		return 0
	}
	n, err := c.tokens.CountTokens(prompt)
	if err != nil {
		c.logger.Debug("token count unavailable", zap.Error(err))
		return 0
	}
	return n
}

// Activate delivers the pending prompt for sessionID, if any, into the host
// input surface. The record is consumed before delivery is attempted, so a
// prompt is delivered at most once. Activate never fails the caller.
func (c *Coordinator) Activate(ctx context.Context, sessionID string) DeliveryOutcome {
	pending, ok := c.registry.Take(sessionID)
	if !ok {
		return DeliveryNone
	}
	c.observer.SetPendingHandoffs(c.registry.Len())

	ctx, span := tracer.Start(ctx, "handoff.deliver", trace.WithAttributes(
		attribute.String("handoff.session_id", sessionID),
		attribute.String("handoff.category", string(pending.Category)),
	))
	defer span.End()

	log := c.logger.With(append(callerFields(ctx), zap.String("session_id", sessionID))...)

	outcome := c.deliver(ctx, pending)
	span.SetAttributes(attribute.String("handoff.delivery", string(outcome)))
	c.observer.RecordDelivery(string(outcome))
	log.Info("handoff delivery finished", zap.String("outcome", string(outcome)))
	return outcome
}

func (c *Coordinator) deliver(ctx context.Context, pending PendingHandoff) (outcome DeliveryOutcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handoff delivery panicked", zap.Any("panic", r))
			c.warnManualCopy(ctx)
			outcome = DeliveryFailed
		}
	}()

	err := c.sleep(ctx, c.opts.DeliveryDelay)
	if err == nil {
		err = c.ui.AppendPrompt(ctx, pending.Prompt)
	}
	if err != nil {
		c.logger.Warn("could not fill prompt",
			zap.String("session_id", pending.SessionID),
			zap.Error(err),
		)
		c.observer.RecordNotificationFailure("append_prompt")
		c.warnManualCopy(ctx)
		return DeliveryFailed
	}

	c.notify.Do(ctx, "toast_delivered", func(ctx context.Context) error {
		return c.ui.ShowToast(ctx, &Toast{
			Message:  "Handoff ready - review and press Enter to start",
			Variant:  ToastSuccess,
			Duration: 4 * time.Second,
		})
	})
	return DeliveryDelivered
}

func (c *Coordinator) warnManualCopy(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	c.notify.Do(ctx, "toast_manual_copy", func(ctx context.Context) error {
		return c.ui.ShowToast(ctx, &Toast{
			Title:    "Handoff Error",
			Message:  "Could not fill prompt. Copy from previous session.",
			Variant:  ToastWarning,
			Duration: c.opts.ToastDuration,
		})
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
