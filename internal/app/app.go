// Package app hosts the Bubble Tea program: it owns the router and draws the
// header and footer around the active screen.
package app

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/history"
	"github.com/abhisek/persona/internal/inference"
	"github.com/abhisek/persona/internal/insight"
	"github.com/abhisek/persona/internal/model"
	"github.com/abhisek/persona/internal/quiz"
	"github.com/abhisek/persona/internal/router"
	"github.com/abhisek/persona/internal/screen"
	"github.com/abhisek/persona/internal/screens/home"
	quizscreen "github.com/abhisek/persona/internal/screens/quiz"
	"github.com/abhisek/persona/internal/store"
	"github.com/abhisek/persona/internal/ui/layout"
)

// Options configures the TUI. Bundle and Questions are required.
type Options struct {
	Bundle    *model.Bundle
	Questions quiz.QuestionSet

	// Results stores completed quizzes. Nil disables history.
	Results store.ResultRepo

	// Insight adds LLM narratives to results when enabled.
	Insight *insight.Service

	// ChartDir receives exported charts. Empty disables export.
	ChartDir string

	EngineOptions []quiz.Option
	Logger        *zap.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	status string
	width  int
	height int
}

// newAppModel creates an AppModel showing the home screen.
func newAppModel(opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	predictor := inference.NewPredictor(opts.Bundle)

	deps := quizscreen.Deps{
		Questions:     opts.Questions,
		Predictor:     predictor,
		EngineOptions: opts.EngineOptions,
		Recorder:      history.NewRecorder(opts.Results, store.SourceTUI, opts.Bundle.Meta.PairID, opts.Logger),
		Insight:       opts.Insight,
		ChartDir:      opts.ChartDir,
		Logger:        opts.Logger.Named("tui"),
	}
	info := home.Info{
		Labels:    predictor.Labels(),
		Questions: opts.Questions.Len(),
		TrainedAt: opts.Bundle.Meta.TrainedAt,
		Insight:   opts.Insight.Enabled(),
	}

	status := ""
	if id := opts.Bundle.Meta.PairID; id != "" {
		status = "model " + id[:min(len(id), 8)]
	}

	return AppModel{
		router: router.New(home.New(deps, opts.Results, info)),
		status: status,
	}
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// footerHints returns the active screen's hints, or defaults by depth.
func (m AppModel) footerHints() []layout.KeyHint {
	if p, ok := m.router.Active().(screen.KeyHintProvider); ok {
		return p.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current terminal size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	title := ""
	if active := m.router.Active(); active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status, m.width)
	footer := layout.RenderFooter(m.footerHints(), m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	if opts.Bundle == nil {
		return fmt.Errorf("no model loaded")
	}
	p := tea.NewProgram(newAppModel(opts))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
