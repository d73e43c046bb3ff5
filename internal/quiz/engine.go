// Package quiz runs a personality quiz session: it shows one question at a
// time in shuffled order, records canonical answers and runs inference once
// the last question is answered.
package quiz

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/abhisek/persona/internal/inference"
)

// NoSelection is the displayed index meaning nothing was chosen.
const NoSelection = -1

// Predictor classifies a complete answer vector.
type Predictor interface {
	Predict(answers []int) (*inference.Result, error)
}

// Phase is the coarse state of an Engine.
type Phase int

const (
	PhaseAwaitingAnswer Phase = iota // Waiting for the answer to State.Index
	PhaseComplete                    // All questions answered, result ready
	PhaseFailed                      // Inference failed; only Reset leaves this phase
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the engine position. Index is meaningful only while awaiting an
// answer.
type State struct {
	Phase Phase
	Index int
}

func (s State) String() string {
	if s.Phase == PhaseAwaitingAnswer {
		return fmt.Sprintf("AwaitingAnswer(%d)", s.Index)
	}
	return s.Phase.String()
}

// QuestionView is what the presentation layer may see of the current
// question. Options are in display order.
type QuestionView struct {
	Index   int
	Total   int
	Prompt  string
	Options []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithShuffler sets the source of display mappings.
func WithShuffler(s Shuffler) Option {
	return func(e *Engine) { e.shuffler = s }
}

// WithRand shuffles with r.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.shuffler = randShuffler{r: r} }
}

// Engine is one quiz session. It is not safe for concurrent use.
type Engine struct {
	questions QuestionSet
	predictor Predictor
	shuffler  Shuffler

	state   State
	answers []int
	mapping DisplayMapping
	result  *inference.Result
	err     error
}

// NewEngine starts a session at the first question.
func NewEngine(questions QuestionSet, predictor Predictor, opts ...Option) *Engine {
	e := &Engine{
		questions: questions,
		predictor: predictor,
		shuffler:  randShuffler{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// CurrentQuestion returns the question awaiting an answer. It never changes
// engine state.
func (e *Engine) CurrentQuestion() (QuestionView, error) {
	switch e.state.Phase {
	case PhaseComplete:
		return QuestionView{}, ErrQuizComplete
	case PhaseFailed:
		return QuestionView{}, ErrSessionAborted
	}
	q := e.questions.At(e.state.Index)
	return QuestionView{
		Index:   e.state.Index,
		Total:   e.questions.Len(),
		Prompt:  q.Prompt,
		Options: e.mapping.apply(q),
	}, nil
}

// Submit records the option shown at position displayed. NoSelection, or
// any position outside the options, returns a *NoSelectionError and leaves
// the state unchanged. Answering the last question runs inference exactly
// once; if it fails the engine moves to PhaseFailed and the error is
// returned.
func (e *Engine) Submit(displayed int) (State, error) {
	switch e.state.Phase {
	case PhaseComplete:
		return e.state, ErrQuizComplete
	case PhaseFailed:
		return e.state, ErrSessionAborted
	}

	canonical, ok := e.mapping.Canonical(displayed)
	if !ok {
		return e.state, &NoSelectionError{Question: e.state.Index, Displayed: displayed}
	}
	e.answers = append(e.answers, canonical)

	if next := e.state.Index + 1; next < e.questions.Len() {
		e.state = State{Phase: PhaseAwaitingAnswer, Index: next}
		e.mapping = newDisplayMapping(e.shuffler)
		return e.state, nil
	}

	result, err := e.predictor.Predict(slices.Clone(e.answers))
	if err != nil {
		e.state = State{Phase: PhaseFailed}
		e.err = fmt.Errorf("classify answers: %w", err)
		return e.state, e.err
	}
	e.state = State{Phase: PhaseComplete}
	e.result = result
	return e.state, nil
}

// Reset discards all answers and returns to the first question with a fresh
// display mapping. It may be called from any state.
func (e *Engine) Reset() {
	e.state = State{Phase: PhaseAwaitingAnswer, Index: 0}
	e.answers = make([]int, 0, e.questions.Len())
	e.result = nil
	e.err = nil
	e.mapping = newDisplayMapping(e.shuffler)
}

// Answers returns a copy of the canonical answers recorded so far.
func (e *Engine) Answers() []int {
	return slices.Clone(e.answers)
}

// Result returns the prediction once the quiz is complete.
func (e *Engine) Result() (*inference.Result, bool) {
	return e.result, e.state.Phase == PhaseComplete
}

// Err returns the inference error that moved the engine to PhaseFailed.
func (e *Engine) Err() error { return e.err }

// Progress returns answered and total question counts.
func (e *Engine) Progress() (answered, total int) {
	return len(e.answers), e.questions.Len()
}
