// Package quiz is the question-by-question quiz screen.
package quiz

import (
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/history"
	"github.com/abhisek/persona/internal/insight"
	engine "github.com/abhisek/persona/internal/quiz"
	"github.com/abhisek/persona/internal/router"
	"github.com/abhisek/persona/internal/screen"
	"github.com/abhisek/persona/internal/screens/result"
	"github.com/abhisek/persona/internal/ui/components"
	"github.com/abhisek/persona/internal/ui/layout"
	"github.com/abhisek/persona/internal/ui/theme"
)

// noSelectionWarning is shown when Enter is pressed without a choice.
const noSelectionWarning = "Please select an option."

// Deps holds what a quiz session needs. Questions and Predictor are
// required.
type Deps struct {
	Questions     engine.QuestionSet
	Predictor     engine.Predictor
	EngineOptions []engine.Option

	Recorder *history.Recorder
	Insight  *insight.Service
	ChartDir string
	Logger   *zap.Logger
}

// QuizScreen runs one quiz engine.
type QuizScreen struct {
	deps      Deps
	engine    *engine.Engine
	sessionID string

	question engine.QuestionView
	choices  components.Choices
	warning  string
	errMsg   string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// New starts a fresh quiz session.
func New(deps Deps) *QuizScreen {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &QuizScreen{
		deps:   deps,
		engine: engine.NewEngine(deps.Questions, deps.Predictor, deps.EngineOptions...),
	}
	s.sessionID = uuid.NewString()
	s.loadQuestion()
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	return nil
}

func (s *QuizScreen) Title() string {
	return "Personality Quiz"
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{
			{Key: "r", Description: "Start over"},
			{Key: "Esc", Description: "Home"},
		}
	}
	return []layout.KeyHint{
		{Key: "1-3", Description: "Answer"},
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Submit"},
		{Key: "r", Description: "Restart"},
		{Key: "Esc", Description: "Home"},
	}
}

// loadQuestion shows the engine's current question with no selection.
func (s *QuizScreen) loadQuestion() {
	q, err := s.engine.CurrentQuestion()
	if err != nil {
		return
	}
	s.question = q
	s.choices = components.NewChoices(q.Options)
}

// reset discards the session and starts a new one on the same engine.
func (s *QuizScreen) reset() {
	s.engine.Reset()
	s.sessionID = uuid.NewString()
	s.warning = ""
	s.errMsg = ""
	s.loadQuestion()
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch kmsg.String() {
	case "r":
		s.reset()
		return s, nil
	case "enter":
		return s, s.submit()
	}

	if s.errMsg != "" {
		return s, nil
	}
	before := s.choices.Selected
	s.choices = s.choices.Update(kmsg)
	if s.choices.Selected != before {
		s.warning = ""
	}
	// Number keys answer in one step; the cursor still needs Enter.
	if isOptionKey(kmsg.String(), len(s.choices.Options)) {
		return s, s.submit()
	}
	return s, nil
}

func isOptionKey(key string, options int) bool {
	return len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < options
}

// submit sends the highlighted option to the engine.
func (s *QuizScreen) submit() tea.Cmd {
	if s.errMsg != "" {
		return nil
	}

	state, err := s.engine.Submit(s.choices.Selected)
	if err != nil {
		var noSel *engine.NoSelectionError
		if errors.As(err, &noSel) {
			s.warning = noSelectionWarning
			return nil
		}
		s.deps.Logger.Error("quiz session failed",
			zap.String("session_id", s.sessionID),
			zap.Stringer("state", state),
			zap.Error(err))
		s.errMsg = err.Error()
		return nil
	}

	s.warning = ""
	if state.Phase == engine.PhaseComplete {
		res, _ := s.engine.Result()
		s.deps.Logger.Info("quiz completed",
			zap.String("session_id", s.sessionID),
			zap.String("label", res.Label),
			zap.Float64("confidence", res.Confidence))
		next := result.New(res, s.sessionID, result.Options{
			Recorder: s.deps.Recorder,
			Insight:  s.deps.Insight,
			ChartDir: s.deps.ChartDir,
			Retake: func() screen.Screen {
				s.reset()
				return s
			},
			Logger: s.deps.Logger,
		})
		return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
	}

	s.loadQuestion()
	return nil
}

func (s *QuizScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var body string
	if s.errMsg != "" {
		body = s.renderError(cw)
	} else {
		body = s.renderQuestion(cw)
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(body)
}

func (s *QuizScreen) renderQuestion(cw int) string {
	answered, total := s.engine.Progress()
	progress := components.ProgressBar{
		Label:   fmt.Sprintf("Question %d of %d", s.question.Index+1, total),
		Percent: float64(answered) / float64(max(total, 1)),
		Width:   cw,
		Suffix:  components.PercentSuffix,
	}

	prompt := lipgloss.NewStyle().
		Foreground(theme.Text).
		Bold(true).
		Width(cw - 6).
		Render(fmt.Sprintf("Q%d: %s", s.question.Index+1, s.question.Prompt))

	card := prompt + "\n\n" + s.choices.View()

	var b strings.Builder
	b.WriteString(progress.View())
	b.WriteString("\n\n")
	b.WriteString(components.Card(card, cw))
	b.WriteString("\n\n")
	if s.warning != "" {
		b.WriteString(components.Centered(theme.Warn.Render("⚠ "+s.warning), cw))
	} else {
		b.WriteString(components.Centered(theme.Hint.Render("Pick the option closest to you."), cw))
	}
	return b.String()
}

func (s *QuizScreen) renderError(cw int) string {
	msg := theme.Failure.Render("Something went wrong while reading your answers.")
	detail := lipgloss.NewStyle().Foreground(theme.TextDim).Width(cw - 6).Render(s.errMsg)
	hint := theme.Hint.Render("Press r to start over.")
	return components.Card(msg+"\n\n"+detail+"\n\n"+hint, cw)
}
