// Package trainer fits the quiz classifier from a labeled dataset and
// persists it together with its label codec.
package trainer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/dataset"
	"github.com/abhisek/persona/internal/model"
)

// Config holds the inputs of a training run.
type Config struct {
	DataPath string
	Paths    model.Paths
	Params   model.TreeParams

	// Now stamps the artifacts. Defaults to time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

// Report summarizes a completed training run.
type Report struct {
	Rows        int
	Classes     []string
	Accuracy    float64
	Depth       int
	Leaves      int
	Fingerprint string
	PairID      string
	TrainedAt   time.Time
	Paths       model.Paths
}

// Train loads the dataset, fits the codec and tree, and writes the artifact
// pair. A *dataset.DataLoadError is returned unwrapped and leaves existing
// artifacts untouched.
func Train(ctx context.Context, cfg Config) (*Report, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ds, err := dataset.Load(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded", zap.String("path", cfg.DataPath), zap.Int("rows", ds.Len()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	codec, err := model.FitLabelCodec(ds.Labels())
	if err != nil {
		return nil, fmt.Errorf("fit label codec: %w", err)
	}
	y, err := codec.EncodeAll(ds.Labels())
	if err != nil {
		return nil, fmt.Errorf("encode labels: %w", err)
	}
	X := ds.Features()

	tree, err := model.FitDecisionTree(X, y, codec.Len(), cfg.Params)
	if err != nil {
		return nil, err
	}
	accuracy, err := trainingAccuracy(tree, X, y)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trainedAt := now().UTC()
	fingerprint := ds.Fingerprint()
	meta := model.Metadata{
		PairID:             model.PairID(fingerprint, codec.Classes(), trainedAt),
		DatasetFingerprint: fingerprint,
		TrainedAt:          trainedAt,
	}
	bundle, err := model.NewBundle(tree, codec, meta)
	if err != nil {
		return nil, err
	}
	if err := model.SaveBundle(cfg.Paths, bundle); err != nil {
		return nil, err
	}

	report := &Report{
		Rows:        ds.Len(),
		Classes:     codec.Classes(),
		Accuracy:    accuracy,
		Depth:       tree.Depth(),
		Leaves:      tree.Leaves(),
		Fingerprint: fingerprint,
		PairID:      meta.PairID,
		TrainedAt:   trainedAt,
		Paths:       cfg.Paths,
	}
	logger.Info("model trained",
		zap.Int("rows", report.Rows),
		zap.Strings("classes", report.Classes),
		zap.Float64("accuracy", report.Accuracy),
		zap.Int("depth", report.Depth),
		zap.Int("leaves", report.Leaves),
		zap.String("pair_id", report.PairID),
	)
	return report, nil
}

func trainingAccuracy(c model.Classifier, X [][]int, y []int) (float64, error) {
	correct := 0
	for i, x := range X {
		got, err := c.Predict(x)
		if err != nil {
			return 0, fmt.Errorf("score training row %d: %w", i, err)
		}
		if got == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X)), nil
}
