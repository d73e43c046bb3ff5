package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotConfigured means no provider was selected and no vendor key was
// found in the environment.
var ErrNotConfigured = errors.New("no LLM provider configured")

// ErrRateLimit is a 429 from the vendor.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse is a completion that is not valid JSON or does not
// match the prompt's schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers network failures and non-429 API errors.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded is a completion cut off at Prompt.MaxTokens.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// finish checks raw against the prompt's schema and builds the Completion.
// Providers call it once they have extracted text and usage.
func finish(p Prompt, raw string, truncated bool, usage Usage, model string) (*Completion, error) {
	content := json.RawMessage(raw)
	if truncated {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if p.Schema == nil {
		quoted, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		content = quoted
	} else if err := p.Schema.Check(content); err != nil {
		return nil, err
	}
	return &Completion{JSON: content, Usage: usage, Model: model}, nil
}
