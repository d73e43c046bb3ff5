package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy shapes the exponential backoff between attempts.
type RetryPolicy struct {
	Attempts    int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy keeps waits short; a narrative nobody waits for is
// worse than the static fallback.
func DefaultRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		Attempts:    attempts,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     4 * time.Second,
		Multiplier:  2,
	}
}

type retrying struct {
	inner  Provider
	policy RetryPolicy
	logger *zap.Logger
}

// WithRetry retries transient failures of p. Rate limits, unavailable
// vendors and network errors are retried until the policy runs out; a
// schema-invalid reply is retried once; truncation and context errors are
// not retried.
func WithRetry(p Provider, policy RetryPolicy, logger *zap.Logger) Provider {
	if policy.Attempts <= 1 {
		return p
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retrying{inner: p, policy: policy, logger: logger.Named("llm")}
}

func (r *retrying) Model() string { return r.inner.Model() }

func (r *retrying) Complete(ctx context.Context, pr Prompt) (*Completion, error) {
	var (
		out         *Completion
		invalidSeen bool
	)
	hinted := &retryAfterBackOff{BackOff: &backoff.ExponentialBackOff{
		InitialInterval:     r.policy.InitialWait,
		RandomizationFactor: 0.2,
		Multiplier:          r.policy.Multiplier,
		MaxInterval:         r.policy.MaxWait,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}}
	b := backoff.WithContext(backoff.WithMaxRetries(hinted, uint64(r.policy.Attempts-1)), ctx)

	err := backoff.RetryNotify(func() error {
		c, err := r.inner.Complete(ctx, pr)
		if err == nil {
			out = c
			return nil
		}
		if !retryable(err, &invalidSeen) {
			return backoff.Permanent(err)
		}
		var rl *ErrRateLimit
		if errors.As(err, &rl) {
			hinted.after = rl.RetryAfter
		}
		return err
	}, b, func(err error, next time.Duration) {
		r.logger.Debug("retrying llm request", zap.Duration("in", next), zap.Error(err))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func retryable(err error, invalidSeen *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var truncated *ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return false
	}
	var invalid *ErrInvalidResponse
	if errors.As(err, &invalid) {
		if *invalidSeen {
			return false
		}
		*invalidSeen = true
	}
	return true
}

// retryAfterBackOff honours a vendor's Retry-After for the next wait only.
type retryAfterBackOff struct {
	backoff.BackOff
	after time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next != backoff.Stop && b.after > 0 {
		next = b.after
	}
	b.after = 0
	return next
}
