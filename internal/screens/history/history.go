// Package history lists past quiz results and how often each label came up.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/persona/internal/router"
	"github.com/abhisek/persona/internal/screen"
	"github.com/abhisek/persona/internal/store"
	"github.com/abhisek/persona/internal/ui/layout"
	"github.com/abhisek/persona/internal/ui/theme"
)

// pageSize is how many recent results are loaded.
const pageSize = 50

type historyLoadedMsg struct {
	Results []store.ResultRecord
	Counts  []store.LabelCount
	Err     error
}

// HistoryScreen displays past results.
type HistoryScreen struct {
	repo     store.ResultRepo
	results  []store.ResultRecord
	counts   []store.LabelCount
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen reading from repo.
func New(repo store.ResultRepo) *HistoryScreen {
	return &HistoryScreen{
		repo:     repo,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.repo
	return func() tea.Msg {
		if repo == nil {
			return historyLoadedMsg{Err: fmt.Errorf("history is not available")}
		}
		ctx := context.Background()

		results, err := repo.QueryResults(ctx, store.QueryOpts{Limit: pageSize})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		counts, err := repo.LabelCounts(ctx)
		if err != nil {
			return historyLoadedMsg{Results: results}
		}
		return historyLoadedMsg{Results: results, Counts: counts}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.results = msg.Results
			s.counts = msg.Counts
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.results)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.results) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No results yet. Take the quiz!")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderCounts()))
	b.WriteString("\n\n")

	for i, rec := range s.results {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s  %-10s %.2f  via %s",
			prefix, rec.CreatedAt.Local().Format("Jan 02, 2006 15:04"), rec.Label, rec.Confidence, rec.Source)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, renderDetails(rec)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderCounts renders one "Label ×n" tag per label, most frequent first.
func (s *HistoryScreen) renderCounts() string {
	tags := make([]string, 0, len(s.counts))
	for _, c := range s.counts {
		tags = append(tags, theme.LabelStyle(c.Label).Render(fmt.Sprintf("%s ×%d", c.Label, c.Count)))
	}
	return strings.Join(tags, "   ")
}

func renderDetails(rec store.ResultRecord) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	answers := make([]string, len(rec.Answers))
	for i, a := range rec.Answers {
		answers[i] = fmt.Sprintf("%d", a)
	}
	scores := make([]string, len(rec.Distribution))
	for i, ls := range rec.Distribution {
		scores[i] = fmt.Sprintf("%s %.2f", ls.Label, ls.Probability)
	}

	return dim.Render(fmt.Sprintf("    answers [%s]  %s", strings.Join(answers, ","), strings.Join(scores, "  ")))
}
