package inference

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/persona/internal/model"
)

// stubClassifier returns fixed outputs per input vector.
type stubClassifier struct {
	classes int
	proba   map[string][]float64
	predict map[string]int
	calls   int
}

func key(x []int) string { return fmt.Sprint(x) }

func (s *stubClassifier) Kind() string     { return "stub" }
func (s *stubClassifier) NumFeatures() int { return model.FeatureCount }
func (s *stubClassifier) NumClasses() int  { return s.classes }

func (s *stubClassifier) PredictProba(x []int) ([]float64, error) {
	s.calls++
	p, ok := s.proba[key(x)]
	if !ok {
		p = make([]float64, s.classes)
		p[0] = 1
	}
	return slices.Clone(p), nil
}

func (s *stubClassifier) Predict(x []int) (int, error) {
	if c, ok := s.predict[key(x)]; ok {
		return c, nil
	}
	p, _ := s.PredictProba(x)
	best := 0
	for i := range p {
		if p[i] > p[best] {
			best = i
		}
	}
	return best, nil
}

func newTestPredictor(t *testing.T, clf model.Classifier, classes []string, opts ...Option) *Predictor {
	t.Helper()
	codec, err := model.NewLabelCodec(classes)
	require.NoError(t, err)
	bundle, err := model.NewBundle(clf, codec, model.Metadata{})
	require.NoError(t, err)
	return NewPredictor(bundle, opts...)
}

func TestPredict_IntrovertExample(t *testing.T) {
	clf := &stubClassifier{
		classes: 4,
		proba:   map[string][]float64{key([]int{0, 0, 1, 2, 0}): {0.7, 0.1, 0.1, 0.1}},
	}
	p := newTestPredictor(t, clf, []string{"Introvert", "Extrovert", "Ambivert", "Omnivert"})

	res, err := p.Predict([]int{0, 0, 1, 2, 0})
	require.NoError(t, err)

	assert.Equal(t, "Introvert", res.Label)
	assert.Equal(t, 0, res.Code)
	assert.InDelta(t, 0.70, res.Confidence, 1e-9)
	assert.Equal(t, "0.70", fmt.Sprintf("%.2f", res.Confidence))
	assert.Equal(t, []int{0, 0, 1, 2, 0}, res.Answers)
}

func TestPredict_DisplayOrderIndependentOfCodes(t *testing.T) {
	// Codec order as a label encoder would fit it.
	clf := &stubClassifier{
		classes: 4,
		proba:   map[string][]float64{key([]int{1, 1, 1, 1, 1}): {0.2, 0.5, 0.0, 0.3}},
	}
	p := newTestPredictor(t, clf, []string{"Ambivert", "Extrovert", "Introvert", "Omnivert"})

	res, err := p.Predict([]int{1, 1, 1, 1, 1})
	require.NoError(t, err)

	var labels []string
	for _, lp := range res.Distribution {
		labels = append(labels, lp.Label)
	}
	assert.Equal(t, []string{"Introvert", "Extrovert", "Ambivert", "Omnivert"}, labels)
	assert.Equal(t, 0.0, res.Probability("Introvert"))
	assert.Equal(t, "Extrovert", res.Label)
	assert.Equal(t, 1, res.Code)

	ranked := res.Ranked()
	assert.Equal(t, "Extrovert", ranked[0].Label)
	assert.Equal(t, "Omnivert", ranked[1].Label)
	assert.Equal(t, "Ambivert", ranked[2].Label)
	assert.Equal(t, "Introvert", ranked[3].Label)
}

func TestPredict_DistributionCoversCodecOnce(t *testing.T) {
	tests := []struct {
		name    string
		classes []string
		order   []string
		want    []string
	}{
		{
			name:    "default order",
			classes: []string{"Ambivert", "Extrovert", "Introvert", "Omnivert"},
			want:    []string{"Introvert", "Extrovert", "Ambivert", "Omnivert"},
		},
		{
			name:    "extra labels follow sorted",
			classes: []string{"Ambivert", "Zen", "Introvert", "Analyst"},
			want:    []string{"Introvert", "Ambivert", "Analyst", "Zen"},
		},
		{
			name:    "display labels missing from codec are omitted",
			classes: []string{"Extrovert", "Introvert"},
			want:    []string{"Introvert", "Extrovert"},
		},
		{
			name:    "custom order with duplicates",
			classes: []string{"A", "B", "C"},
			order:   []string{"C", "C", "A"},
			want:    []string{"C", "A", "B"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.order != nil {
				opts = append(opts, WithDisplayOrder(tt.order))
			}
			clf := &stubClassifier{classes: len(tt.classes)}
			p := newTestPredictor(t, clf, tt.classes, opts...)
			assert.Equal(t, tt.want, p.Labels())

			res, err := p.Predict([]int{0, 1, 2, 0, 1})
			require.NoError(t, err)
			require.Len(t, res.Distribution, len(tt.classes))

			seen := map[string]bool{}
			var sum float64
			for _, lp := range res.Distribution {
				assert.False(t, seen[lp.Label], "label %s repeated", lp.Label)
				seen[lp.Label] = true
				sum += lp.Probability
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
		})
	}
}

func TestPredict_NormalizesDistribution(t *testing.T) {
	clf := &stubClassifier{
		classes: 3,
		proba:   map[string][]float64{key([]int{2, 2, 2, 2, 2}): {1, 2, 1}},
	}
	p := newTestPredictor(t, clf, []string{"A", "B", "C"})

	res, err := p.Predict([]int{2, 2, 2, 2, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
	assert.InDelta(t, 0.25, res.Probability("A"), 1e-9)
}

func TestPredict_HeadlineComesFromPredict(t *testing.T) {
	x := []int{0, 0, 0, 0, 0}
	clf := &stubClassifier{
		classes: 2,
		proba:   map[string][]float64{key(x): {0.5, 0.5}},
		predict: map[string]int{key(x): 1},
	}
	p := newTestPredictor(t, clf, []string{"Extrovert", "Introvert"})

	res, err := p.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, "Introvert", res.Label)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
}

func TestPredict_InvalidVector(t *testing.T) {
	clf := &stubClassifier{classes: 2}
	p := newTestPredictor(t, clf, []string{"A", "B"})

	for _, answers := range [][]int{
		nil,
		{0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0},
		{0, 0, 3, 0, 0},
		{0, -1, 0, 0, 0},
	} {
		_, err := p.Predict(answers)
		var ive *InvalidVectorError
		assert.True(t, errors.As(err, &ive), "answers %v: got %v", answers, err)
	}
	assert.Zero(t, clf.calls, "classifier must not run on invalid input")
}

func TestPredict_CodecMismatch(t *testing.T) {
	x := []int{1, 0, 1, 0, 1}

	t.Run("code outside domain", func(t *testing.T) {
		clf := &stubClassifier{classes: 2, predict: map[string]int{key(x): 5}}
		p := newTestPredictor(t, clf, []string{"A", "B"})

		_, err := p.Predict(x)
		var mismatch *model.CodecMismatchError
		assert.True(t, errors.As(err, &mismatch))
	})

	t.Run("distribution length", func(t *testing.T) {
		clf := &stubClassifier{classes: 2, proba: map[string][]float64{key(x): {0.2, 0.3, 0.5}}}
		p := newTestPredictor(t, clf, []string{"A", "B"})

		_, err := p.Predict(x)
		var mismatch *model.CodecMismatchError
		assert.True(t, errors.As(err, &mismatch))
	})

	for name, proba := range map[string][]float64{
		"all zero":     {0, 0},
		"negative":     {-0.5, 0},
		"nan entry":    {math.NaN(), 1},
		"infinite one": {math.Inf(1), 0},
	} {
		t.Run(name, func(t *testing.T) {
			clf := &stubClassifier{
				classes: 2,
				proba:   map[string][]float64{key(x): proba},
				predict: map[string]int{key(x): 0},
			}
			p := newTestPredictor(t, clf, []string{"A", "B"})

			res, err := p.Predict(x)
			var mismatch *model.CodecMismatchError
			assert.True(t, errors.As(err, &mismatch), "got %v", err)
			assert.Nil(t, res)
		})
	}
}

func TestPredict_WithTrainedTree(t *testing.T) {
	X := [][]int{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1},
		{1, 1, 1, 1, 1},
		{2, 2, 2, 2, 2},
	}
	codec, err := model.FitLabelCodec([]string{"Introvert", "Introvert", "Extrovert", "Ambivert"})
	require.NoError(t, err)
	y, err := codec.EncodeAll([]string{"Introvert", "Introvert", "Extrovert", "Ambivert"})
	require.NoError(t, err)
	tree, err := model.FitDecisionTree(X, y, codec.Len(), model.DefaultTreeParams())
	require.NoError(t, err)
	bundle, err := model.NewBundle(tree, codec, model.Metadata{})
	require.NoError(t, err)

	res, err := NewPredictor(bundle).Predict([]int{0, 0, 0, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, "Introvert", res.Label)
	assert.Equal(t, 1.0, res.Confidence)

	var sum float64
	for _, lp := range res.Distribution {
		sum += lp.Probability
	}
	assert.LessOrEqual(t, math.Abs(sum-1), 1e-6)
}
