// Package screen defines the contract between the router and the screens it
// stacks.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/persona/internal/ui/layout"
)

// Screen is one page of the TUI.
type Screen interface {
	// Init returns an initial command when the screen is pushed.
	Init() tea.Cmd

	// Update handles messages and returns the updated screen and command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content, excluding header and footer.
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens that want their own footer
// hints instead of the defaults.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}
