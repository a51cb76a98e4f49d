package handoff

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/sessionhandoff/types"
)

var tracer = otel.Tracer("sessionhandoff/handoff")

// Analyzer turns the conversation of a session into a handoff prompt with a
// single completion round-trip.
type Analyzer struct {
	completion CompletionService
	logger     *zap.Logger
}

// NewAnalyzer creates an analyzer backed by completion.
func NewAnalyzer(completion CompletionService, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		completion: completion,
		logger:     logger.With(zap.String("component", "handoff_analyzer")),
	}
}

// Analyze asks the completion service, in the context of sessionID, for a
// handoff prompt toward goal. There are no retries.
func (a *Analyzer) Analyze(ctx context.Context, sessionID, goal string, category Category) (string, error) {
	ctx, span := tracer.Start(ctx, "handoff.analyze", trace.WithAttributes(
		attribute.String("handoff.session_id", sessionID),
		attribute.String("handoff.category", string(category)),
	))
	defer span.End()

	req := &PromptRequest{
		SessionID: sessionID,
		System:    BuildSystemPrompt(category),
		Parts:     []Part{TextPart(BuildUserPrompt(goal, category))},
	}

	resp, err := a.completion.Prompt(ctx, req)
	if err != nil {
		return "", a.fail(span, types.NewError(types.ErrAnalysisFailed, "failed to get handoff analysis from LLM").
			WithCause(err).
			WithRetryable(types.IsRetryable(err)))
	}
	if resp == nil {
		return "", a.fail(span, types.NewError(types.ErrAnalysisFailed, "failed to get handoff analysis from LLM: no data"))
	}

	prompt, textParts := JoinText(resp.Parts)
	span.SetAttributes(
		attribute.Int("handoff.parts", len(resp.Parts)),
		attribute.Int("handoff.text_parts", textParts),
		attribute.Int("handoff.prompt_chars", len(prompt)),
	)
	if prompt == "" {
		return "", a.fail(span, types.NewError(types.ErrAnalysisFailed, "LLM returned an empty handoff prompt"))
	}

	a.logger.Debug("handoff analysis complete",
		zap.String("session_id", sessionID),
		zap.String("category", string(category)),
		zap.Int("text_parts", textParts),
		zap.Int("prompt_chars", len(prompt)),
	)
	return prompt, nil
}

func (a *Analyzer) fail(span trace.Span, err *types.Error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)
	a.logger.Warn("handoff analysis failed", zap.Error(err))
	return err
}

// JoinText concatenates the text segments of parts in order, separated by
// newlines, and trims the result. It also reports how many text segments it used.
func JoinText(parts []Part) (string, int) {
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Type == PartText {
			texts = append(texts, p.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), len(texts)
}
