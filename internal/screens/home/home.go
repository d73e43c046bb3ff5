package home

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/persona/internal/router"
	"github.com/abhisek/persona/internal/screen"
	"github.com/abhisek/persona/internal/screens/history"
	quizscreen "github.com/abhisek/persona/internal/screens/quiz"
	"github.com/abhisek/persona/internal/store"
	"github.com/abhisek/persona/internal/ui/components"
)

// Info describes the loaded model for the home dashboard.
type Info struct {
	Labels    []string
	Questions int
	TrainedAt time.Time
	Insight   bool
}

// HomeScreen is the main menu.
type HomeScreen struct {
	menu components.Menu
	info Info
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen. A nil results repo disables HISTORY.
func New(deps quizscreen.Deps, results store.ResultRepo, info Info) *HomeScreen {
	items := []components.MenuItem{
		{Label: "TAKE QUIZ", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: quizscreen.New(deps)}
			}
		}},
		{Label: "HISTORY", Disabled: results == nil, Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(results)}
			}
		}},
		{Label: "EXIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	return &HomeScreen{
		menu: components.NewMenu(items),
		info: info,
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	// height excludes header (3) and footer (3) plus frame gaps
	compact := height+8 < 30 || width < 100
	cw := components.ContentWidth(width)

	sections := []string{
		renderTitle(cw, compact),
		renderModelBar(h.info, cw),
		components.Centered(h.menu.View(compact), cw),
	}

	return components.CabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
