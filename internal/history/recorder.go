package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/inference"
	"github.com/abhisek/persona/internal/store"
)

// Recorder appends completed results to the result store. Writes are best
// effort: a failure is logged and returned, and callers may ignore it.
type Recorder struct {
	repo   store.ResultRepo
	source string
	pairID string
	now    func() time.Time
	logger *zap.Logger
}

// NewRecorder creates a Recorder tagging results with source and the model
// pair ID that produced them. repo may be nil, in which case Record is a
// no-op.
func NewRecorder(repo store.ResultRepo, source, pairID string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		repo:   repo,
		source: source,
		pairID: pairID,
		now:    time.Now,
		logger: logger.Named("history"),
	}
}

// Record stores res under sessionID.
func (r *Recorder) Record(ctx context.Context, sessionID string, res *inference.Result) error {
	if r == nil || r.repo == nil || res == nil {
		return nil
	}
	rec := NewRecord(sessionID, r.source, r.pairID, res)
	rec.CreatedAt = r.now()
	if err := r.repo.AppendResult(ctx, rec); err != nil {
		r.logger.Warn("failed to record result",
			zap.String("session_id", sessionID),
			zap.String("source", r.source),
			zap.Error(err))
		return fmt.Errorf("record result: %w", err)
	}
	r.logger.Debug("result recorded",
		zap.String("session_id", sessionID),
		zap.String("label", res.Label),
		zap.Int64("sequence", rec.Sequence))
	return nil
}

// NewRecord converts a prediction into a store record.
func NewRecord(sessionID, source, pairID string, res *inference.Result) *store.ResultRecord {
	dist := make([]store.LabelScore, len(res.Distribution))
	for i, lp := range res.Distribution {
		dist[i] = store.LabelScore{Label: lp.Label, Probability: lp.Probability}
	}
	return &store.ResultRecord{
		SessionID:    sessionID,
		Answers:      append([]int(nil), res.Answers...),
		Label:        res.Label,
		Confidence:   res.Confidence,
		Distribution: dist,
		PairID:       pairID,
		Source:       source,
	}
}
