package store

import (
	"context"
	"time"
)

// Result sources.
const (
	SourceTUI  = "tui"
	SourceCLI  = "cli"
	SourceHTTP = "http"
)

// QueryOpts configures result queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	Label  string    // only this label when set
	Source string    // only this source when set
	From   time.Time // created_at >= From
	To     time.Time // created_at <= To
}

// LabelScore is one entry of a stored probability distribution.
type LabelScore struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// ResultRecord is one completed quiz.
type ResultRecord struct {
	ID           int64
	Sequence     int64
	SessionID    string
	Answers      []int
	Label        string
	Confidence   float64
	Distribution []LabelScore
	PairID       string
	Source       string
	CreatedAt    time.Time
}

// LabelCount is the number of stored results with a label.
type LabelCount struct {
	Label string
	Count int
}

// ResultRepo stores completed quiz results.
type ResultRepo interface {
	// AppendResult records a result. ID, Sequence and a zero CreatedAt are
	// filled in.
	AppendResult(ctx context.Context, rec *ResultRecord) error

	// QueryResults returns results newest first.
	QueryResults(ctx context.Context, opts QueryOpts) ([]ResultRecord, error)

	// LabelCounts returns how often each label was the outcome, most
	// frequent first.
	LabelCounts(ctx context.Context) ([]LabelCount, error)

	// Clear deletes every result and returns how many were removed.
	Clear(ctx context.Context) (int64, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// EventRepo provides append access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// CountLLMRequests returns the number of recorded LLM requests with
	// the given purpose, or all of them when purpose is empty.
	CountLLMRequests(ctx context.Context, purpose string) (int, error)
}

// timeLayout keeps stored timestamps fixed-width so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
