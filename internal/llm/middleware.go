package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/store"
)

type purposeKey struct{}

// WithPurpose tags ctx so logged requests say what they were for.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}

type bounded struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout cancels each Complete call after d. Non-positive d returns p.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &bounded{inner: p, timeout: d}
}

func (b *bounded) Model() string { return b.inner.Model() }

func (b *bounded) Complete(ctx context.Context, pr Prompt) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.inner.Complete(ctx, pr)
}

type recorded struct {
	inner    Provider
	provider string
	events   store.EventRepo
	logger   *zap.Logger
}

// WithLogging logs every request and, when events is non-nil, appends it
// to the llm_requests table. A failed append is logged and otherwise
// ignored.
func WithLogging(p Provider, provider string, events store.EventRepo, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recorded{inner: p, provider: provider, events: events, logger: logger.Named("llm")}
}

func (r *recorded) Model() string { return r.inner.Model() }

func (r *recorded) Complete(ctx context.Context, pr Prompt) (*Completion, error) {
	start := time.Now()
	c, err := r.inner.Complete(ctx, pr)

	ev := store.LLMRequestEventData{
		Provider:  r.provider,
		Model:     r.inner.Model(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if c != nil {
		ev.InputTokens, ev.OutputTokens = c.Usage.InputTokens, c.Usage.OutputTokens
		if c.Model != "" {
			ev.Model = c.Model
		}
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	log := r.logger.With(
		zap.String("provider", ev.Provider),
		zap.String("model", ev.Model),
		zap.String("purpose", ev.Purpose),
		zap.Int64("latency_ms", ev.LatencyMs),
		zap.Int("tokens", ev.InputTokens+ev.OutputTokens),
	)
	if err != nil {
		log.Warn("llm request failed", zap.Error(err))
	} else {
		log.Debug("llm request")
	}

	if r.events != nil {
		if appendErr := r.events.AppendLLMRequest(ctx, ev); appendErr != nil {
			log.Warn("record llm request", zap.Error(appendErr))
		}
	}
	return c, err
}
