// Package result shows a completed prediction: the headline label, the
// confidence distribution and an optional narrative.
package result

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/chart"
	"github.com/abhisek/persona/internal/history"
	"github.com/abhisek/persona/internal/inference"
	"github.com/abhisek/persona/internal/insight"
	"github.com/abhisek/persona/internal/router"
	"github.com/abhisek/persona/internal/screen"
	"github.com/abhisek/persona/internal/ui/components"
	"github.com/abhisek/persona/internal/ui/layout"
	"github.com/abhisek/persona/internal/ui/theme"
)

type recordedMsg struct {
	Err error
}

type narrativeMsg struct {
	Narrative insight.Narrative
}

type chartExportedMsg struct {
	Path string
	Err  error
}

// Options wires the collaborators of the result screen. All are optional.
type Options struct {
	Recorder *history.Recorder
	Insight  *insight.Service

	// ChartDir receives exported charts. Empty disables export.
	ChartDir string

	// Retake builds the screen that replaces this one on "r".
	Retake func() screen.Screen

	Logger *zap.Logger
	Now    func() time.Time
}

// ResultScreen renders one inference result.
type ResultScreen struct {
	res       *inference.Result
	sessionID string
	opts      Options

	spinner   spinner.Model
	narrating bool
	narrative insight.Narrative
	notice    string
	failed    bool
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

// New creates a result screen for res, produced by quiz session sessionID.
func New(res *inference.Result, sessionID string, opts Options) *ResultScreen {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ResultScreen{
		res:       res,
		sessionID: sessionID,
		opts:      opts,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		narrative: insight.Static(res),
	}
}

// Init records the result and, when a provider is configured, starts the
// narrative request.
func (s *ResultScreen) Init() tea.Cmd {
	cmds := []tea.Cmd{s.recordCmd()}
	if s.opts.Insight.Enabled() {
		s.narrating = true
		cmds = append(cmds, s.spinner.Tick, s.narrateCmd())
	}
	return tea.Batch(cmds...)
}

func (s *ResultScreen) recordCmd() tea.Cmd {
	rec, res, id := s.opts.Recorder, s.res, s.sessionID
	return func() tea.Msg {
		return recordedMsg{Err: rec.Record(context.Background(), id, res)}
	}
}

func (s *ResultScreen) narrateCmd() tea.Cmd {
	svc, res := s.opts.Insight, s.res
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return narrativeMsg{Narrative: svc.Narrate(ctx, res)}
	}
}

func (s *ResultScreen) exportCmd() tea.Cmd {
	path := chart.ExportPath(s.opts.ChartDir, s.opts.Now())
	res := s.res
	return func() tea.Msg {
		err := chart.WriteFile(path, res, chart.DefaultTitle)
		return chartExportedMsg{Path: path, Err: err}
	}
}

func (s *ResultScreen) Title() string {
	return "Your Result"
}

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "r", Description: "Retake"}}
	if s.opts.ChartDir != "" {
		hints = append(hints, layout.KeyHint{Key: "c", Description: "Export chart"})
	}
	return append(hints,
		layout.KeyHint{Key: "Enter", Description: "Home"},
		layout.KeyHint{Key: "Ctrl+C", Description: "Quit"},
	)
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case recordedMsg:
		if msg.Err != nil {
			s.setNotice("Result not saved to history.", true)
		}
		return s, nil

	case narrativeMsg:
		s.narrating = false
		s.narrative = msg.Narrative
		return s, nil

	case chartExportedMsg:
		if msg.Err != nil {
			s.opts.Logger.Warn("chart export failed", zap.String("path", msg.Path), zap.Error(msg.Err))
			s.setNotice(fmt.Sprintf("Chart export failed: %v", msg.Err), true)
		} else {
			s.setNotice("Chart saved to "+msg.Path, false)
		}
		return s, nil

	case spinner.TickMsg:
		if !s.narrating {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			if s.opts.Retake != nil {
				next := s.opts.Retake()
				return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
			}
		case "c":
			if s.opts.ChartDir != "" {
				return s, s.exportCmd()
			}
		case "enter":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *ResultScreen) setNotice(text string, failed bool) {
	s.notice = text
	s.failed = failed
}

func (s *ResultScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var sections []string

	headline := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("Your Personality: ") +
		theme.LabelStyle(s.res.Label).Render(s.res.Label)
	sections = append(sections, components.Centered(headline, cw))

	desc := lipgloss.NewStyle().Foreground(theme.TextDim).Width(cw).Align(lipgloss.Center).
		Render(insight.Describe(s.res.Label))
	sections = append(sections, desc)

	sections = append(sections, components.Card(s.renderDistribution(cw-6), cw))

	if n := s.renderNarrative(cw); n != "" {
		sections = append(sections, n)
	}

	if s.notice != "" {
		style := theme.Hint
		if s.failed {
			style = theme.Warn
		}
		sections = append(sections, components.Centered(style.Render(s.notice), cw))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(sections, "\n\n"))
}

// renderDistribution draws one bar per label in display order.
func (s *ResultScreen) renderDistribution(width int) string {
	labelWidth := 0
	for _, lp := range s.res.Distribution {
		labelWidth = max(labelWidth, lipgloss.Width(lp.Label))
	}

	lines := []string{theme.Hint.Render("Prediction confidence")}
	for _, lp := range s.res.Distribution {
		bar := components.ProgressBar{
			Label:      lp.Label,
			LabelWidth: labelWidth,
			Percent:    lp.Probability,
			Width:      width,
			Suffix:     components.DecimalSuffix,
			Fill:       theme.LabelColor(lp.Label),
		}
		lines = append(lines, bar.View())
	}
	return strings.Join(lines, "\n")
}

func (s *ResultScreen) renderNarrative(cw int) string {
	if s.narrating {
		return components.Centered(s.spinner.View()+" "+theme.Hint.Render("Writing your insight..."), cw)
	}
	if !s.narrative.Generated {
		return ""
	}
	title := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(s.narrative.Headline)
	body := lipgloss.NewStyle().Foreground(theme.Text).Width(cw - 6).Render(s.narrative.Text)
	return components.Card(title+"\n\n"+body, cw)
}
