package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/sessionhandoff/handoff"
	"github.com/BaSui01/sessionhandoff/internal/tlsutil"
	"github.com/BaSui01/sessionhandoff/types"
)

var tracer = otel.Tracer("sessionhandoff/host")

// Operation names used for metrics and spans.
const (
	OpPrompt        = "session.prompt"
	OpCreateSession = "session.create"
	OpPublish       = "tui.publish"
	OpShowToast     = "tui.show_toast"
	OpAppendPrompt  = "tui.append_prompt"
	OpPing          = "config.get"
	OpSubscribe     = "event.subscribe"
)

// Recorder receives per-call host metrics. internal/metrics.Collector
// implements it. status is 0 when no response was received.
type Recorder interface {
	RecordHostRequest(operation string, status int, duration time.Duration)
}

// Config configures a Client.
type Config struct {
	// BaseURL of the host HTTP API, e.g. http://127.0.0.1:4096.
	BaseURL string
	// Directory is passed as the directory query parameter when set.
	Directory string
	// Timeout bounds one request/response call. Defaults to 5m because a
	// prompt call spans a full LLM round trip.
	Timeout time.Duration
	// CAFile is an extra PEM bundle for hosts behind a private CA.
	CAFile string
}

// Client talks to the host runtime over HTTP. It implements
// handoff.CompletionService, handoff.SessionService and handoff.UIService.
type Client struct {
	baseURL   *url.URL
	directory string
	http      *http.Client
	stream    *http.Client
	recorder  Recorder
	logger    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the request/response client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithStreamClient replaces the client used for the event stream.
func WithStreamClient(c *http.Client) Option {
	return func(cl *Client) { cl.stream = c }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(cl *Client) { cl.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a host client.
func New(cfg Config, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, types.Errorf(types.ErrInvalidInput, "invalid host base URL %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	clients, err := tlsutil.NewClients(tlsutil.ClientOptions{CAFile: cfg.CAFile}, timeout, 30*time.Second)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidInput, "invalid host TLS settings").WithCause(err)
	}

	c := &Client{
		baseURL:   u,
		directory: cfg.Directory,
		http:      clients.Request,
		stream:    clients.Stream,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("component", "host_client"))
	return c, nil
}

// --- wire types ---

type wirePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type promptBody struct {
	System string     `json:"system,omitempty"`
	Parts  []wirePart `json:"parts"`
}

type promptReply struct {
	Info struct {
		ID string `json:"id"`
	} `json:"info"`
	Parts []wirePart `json:"parts"`
}

type toastBody struct {
	Title    string `json:"title,omitempty"`
	Message  string `json:"message"`
	Variant  string `json:"variant"`
	Duration int64  `json:"duration,omitempty"`
}

type appendBody struct {
	Text string `json:"text"`
}

// --- collaborator implementations ---

// Prompt sends one message into req.SessionID and waits for the assistant reply.
func (c *Client) Prompt(ctx context.Context, req *handoff.PromptRequest) (*handoff.PromptResponse, error) {
	if req == nil || req.SessionID == "" {
		return nil, types.NewError(types.ErrInvalidInput, "prompt requires a session id")
	}
	body := promptBody{System: req.System, Parts: make([]wirePart, 0, len(req.Parts))}
	for _, p := range req.Parts {
		body.Parts = append(body.Parts, wirePart{Type: string(p.Type), Text: p.Text})
	}

	var reply *promptReply
	path := "/session/" + url.PathEscape(req.SessionID) + "/message"
	if err := c.do(ctx, OpPrompt, http.MethodPost, path, body, &reply); err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, nil
	}

	resp := &handoff.PromptResponse{MessageID: reply.Info.ID, Parts: make([]handoff.Part, 0, len(reply.Parts))}
	for _, p := range reply.Parts {
		resp.Parts = append(resp.Parts, handoff.Part{Type: handoff.PartType(p.Type), Text: p.Text})
	}
	return resp, nil
}

// CreateSession creates a child session.
func (c *Client) CreateSession(ctx context.Context, req *handoff.CreateSessionRequest) (*handoff.Session, error) {
	var session *handoff.Session
	if err := c.do(ctx, OpCreateSession, http.MethodPost, "/session", req, &session); err != nil {
		return nil, err
	}
	return session, nil
}

// Publish posts an event onto the host's TUI bus.
func (c *Client) Publish(ctx context.Context, ev *handoff.TUIEvent) error {
	var ok *bool
	if err := c.do(ctx, OpPublish, http.MethodPost, "/tui/publish", ev, &ok); err != nil {
		return err
	}
	return rejected(OpPublish, ok)
}

// ShowToast shows a transient notification in the host UI.
func (c *Client) ShowToast(ctx context.Context, t *handoff.Toast) error {
	body := toastBody{
		Title:    t.Title,
		Message:  t.Message,
		Variant:  string(t.Variant),
		Duration: t.Duration.Milliseconds(),
	}
	var ok *bool
	if err := c.do(ctx, OpShowToast, http.MethodPost, "/tui/show-toast", body, &ok); err != nil {
		return err
	}
	return rejected(OpShowToast, ok)
}

// AppendPrompt appends text to the host's prompt input.
func (c *Client) AppendPrompt(ctx context.Context, text string) error {
	var ok *bool
	if err := c.do(ctx, OpAppendPrompt, http.MethodPost, "/tui/append-prompt", appendBody{Text: text}, &ok); err != nil {
		return err
	}
	return rejected(OpAppendPrompt, ok)
}

// Ping checks that the host API answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, OpPing, http.MethodGet, "/config", nil, nil)
}

// rejected turns an explicit false acknowledgement into an error.
func rejected(op string, ok *bool) error {
	if ok != nil && !*ok {
		return types.Errorf(types.ErrUpstreamError, "host rejected %s", op)
	}
	return nil
}

// --- transport ---

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if c.directory != "" {
		q := u.Query()
		q.Set("directory", c.directory)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if id, ok := types.TraceID(ctx); ok {
		req.Header.Set("X-Request-ID", id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

// do performs one JSON call. out may be nil to discard the body; a pointer to
// a pointer stays nil when the host answers with an empty body or null.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	ctx, span := tracer.Start(ctx, "host."+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.request.method", method), attribute.String("url.path", path)))
	start := time.Now()
	status := 0
	defer func() {
		c.record(op, status, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Debug("host call failed", zap.String("op", op), zap.Int("status", status), zap.Error(err))
		}
		span.End()
	}()

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return types.NewError(types.ErrInternalError, err.Error()).WithCause(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if resp.StatusCode >= 400 {
		return mapHTTPError(op, resp.StatusCode, readErrorMessage(resp.Body))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return types.Errorf(types.ErrUpstreamError, "%s: invalid response body", op).
			WithCause(err).
			WithHTTPStatus(http.StatusBadGateway)
	}
	return nil
}

func (c *Client) record(op string, status int, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordHostRequest(op, status, d)
	}
}

// transportError classifies failures where no usable response arrived.
func transportError(op string, err error) *types.Error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return types.Errorf(types.ErrTimeout, "%s: host did not answer in time", op).
			WithCause(err).
			WithHTTPStatus(http.StatusGatewayTimeout).
			WithRetryable(true)
	}
	return types.Errorf(types.ErrUpstreamError, "%s: host unreachable", op).
		WithCause(err).
		WithHTTPStatus(http.StatusBadGateway).
		WithRetryable(!errors.Is(err, context.Canceled))
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// mapHTTPError converts a host error status into a structured error.
func mapHTTPError(op string, status int, msg string) *types.Error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	message := fmt.Sprintf("%s: %s", op, msg)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return types.NewError(types.ErrUnauthorized, message).WithHTTPStatus(status)
	case status == http.StatusNotFound:
		return types.NewError(types.ErrNotFound, message).WithHTTPStatus(status)
	case status == http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimited, message).WithHTTPStatus(status).WithRetryable(true)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return types.NewError(types.ErrTimeout, message).WithHTTPStatus(status).WithRetryable(true)
	case status == http.StatusBadRequest:
		return types.NewError(types.ErrInvalidInput, message).WithHTTPStatus(status)
	case status >= 500:
		return types.NewError(types.ErrUpstreamError, message).WithHTTPStatus(status).WithRetryable(true)
	default:
		return types.NewError(types.ErrUpstreamError, message).WithHTTPStatus(status)
	}
}

// readErrorMessage extracts a message from common error body shapes and
// falls back to the raw text.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
		Data    struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil {
		switch e := errResp.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if m, ok := e["message"].(string); ok && m != "" {
				return m
			}
		}
		if errResp.Data.Message != "" {
			return errResp.Data.Message
		}
		if errResp.Message != "" {
			return errResp.Message
		}
	}
	return strings.TrimSpace(string(data))
}
