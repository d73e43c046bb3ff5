// Package inference turns a completed answer vector into a ranked
// personality prediction.
package inference

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/abhisek/persona/internal/model"
)

// DefaultDisplayOrder is the canonical order labels are presented in.
var DefaultDisplayOrder = []string{"Introvert", "Extrovert", "Ambivert", "Omnivert"}

// LabelProbability is one entry of a prediction distribution.
type LabelProbability struct {
	Label       string  `json:"label"`
	Code        int     `json:"code"`
	Probability float64 `json:"probability"`
}

// Result is the outcome of one prediction.
type Result struct {
	Label      string  `json:"label"`
	Code       int     `json:"code"`
	Confidence float64 `json:"confidence"`
	Answers    []int   `json:"answers"`

	// Distribution holds every codec label exactly once, in display order.
	Distribution []LabelProbability `json:"distribution"`
}

// Ranked returns the distribution sorted by descending probability. Equal
// probabilities keep display order.
func (r *Result) Ranked() []LabelProbability {
	out := slices.Clone(r.Distribution)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	return out
}

// Probability returns the probability reported for label, or 0.
func (r *Result) Probability(label string) float64 {
	for _, lp := range r.Distribution {
		if lp.Label == label {
			return lp.Probability
		}
	}
	return 0
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithDisplayOrder sets the labels listed first in a distribution. Codec
// labels it does not name follow in lexicographic order.
func WithDisplayOrder(labels []string) Option {
	return func(p *Predictor) {
		p.displayOrder = slices.Clone(labels)
	}
}

// Predictor runs the classifier of a model bundle. It holds no mutable state
// and is safe for concurrent use.
type Predictor struct {
	bundle       *model.Bundle
	displayOrder []string

	// order lists codec codes in display order.
	order []int
}

// NewPredictor creates a predictor over an immutable bundle.
func NewPredictor(bundle *model.Bundle, opts ...Option) *Predictor {
	p := &Predictor{
		bundle:       bundle,
		displayOrder: slices.Clone(DefaultDisplayOrder),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.order = displayCodes(bundle.Codec, p.displayOrder)
	return p
}

// Bundle returns the model bundle the predictor runs.
func (p *Predictor) Bundle() *model.Bundle { return p.bundle }

// Labels returns the codec labels in display order.
func (p *Predictor) Labels() []string {
	classes := p.bundle.Codec.Classes()
	out := make([]string, len(p.order))
	for i, code := range p.order {
		out[i] = classes[code]
	}
	return out
}

// Predict classifies a complete answer vector. The headline label is the
// classifier's own prediction; the distribution is reported in full.
func (p *Predictor) Predict(answers []int) (*Result, error) {
	clf := p.bundle.Classifier
	codec := p.bundle.Codec
	answers = slices.Clone(answers)

	if len(answers) != clf.NumFeatures() {
		return nil, &InvalidVectorError{
			Answers: answers,
			Reason:  fmt.Sprintf("has %d answers, want %d", len(answers), clf.NumFeatures()),
		}
	}
	for i, v := range answers {
		if v < 0 || v >= model.FeatureDomain {
			return nil, &InvalidVectorError{
				Answers: answers,
				Reason:  fmt.Sprintf("answer %d is %d, want a value in [0,%d)", i, v, model.FeatureDomain),
			}
		}
	}

	proba, err := clf.PredictProba(answers)
	if err != nil {
		return nil, &InvalidVectorError{Answers: answers, Reason: err.Error()}
	}
	if len(proba) != codec.Len() {
		return nil, &model.CodecMismatchError{
			Reason: fmt.Sprintf("distribution has %d entries, codec has %d labels", len(proba), codec.Len()),
		}
	}
	code, err := clf.Predict(answers)
	if err != nil {
		return nil, &InvalidVectorError{Answers: answers, Reason: err.Error()}
	}
	label, err := codec.Decode(code)
	if err != nil {
		return nil, err
	}

	var total float64
	for i, v := range proba {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &model.CodecMismatchError{Reason: fmt.Sprintf("probability of code %d is %v", i, v)}
		}
		if v > 0 {
			total += v
		}
	}
	if total <= 0 {
		return nil, &model.CodecMismatchError{Reason: "distribution has no positive mass"}
	}

	classes := codec.Classes()
	dist := make([]LabelProbability, len(p.order))
	for i, c := range p.order {
		prob := max(proba[c], 0) / total
		dist[i] = LabelProbability{Label: classes[c], Code: c, Probability: prob}
	}

	res := &Result{
		Label:        label,
		Code:         code,
		Answers:      answers,
		Distribution: dist,
	}
	res.Confidence = res.Probability(label)
	return res, nil
}

// displayCodes orders codec codes by the display order, then the remaining
// labels lexicographically. Display labels missing from the codec are
// skipped.
func displayCodes(codec *model.LabelCodec, displayOrder []string) []int {
	classes := codec.Classes()
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	order := make([]int, 0, len(classes))
	seen := make(map[int]bool, len(classes))
	for _, label := range displayOrder {
		code, ok := index[label]
		if !ok || seen[code] {
			continue
		}
		order = append(order, code)
		seen[code] = true
	}

	var rest []string
	for _, c := range classes {
		if !seen[index[c]] {
			rest = append(rest, c)
		}
	}
	slices.Sort(rest)
	for _, c := range rest {
		order = append(order, index[c])
	}
	return order
}
