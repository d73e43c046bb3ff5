package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/persona/internal/ui/theme"
)

// NoChoice is the Selected value before the user picks an option.
const NoChoice = -1

// Choices is a single-select option list. Nothing is selected until the
// user moves the cursor or presses a number key.
type Choices struct {
	Options  []string
	Selected int
}

// NewChoices creates a list with no selection.
func NewChoices(options []string) Choices {
	return Choices{
		Options:  options,
		Selected: NoChoice,
	}
}

// Update handles cursor keys and the 1..n shortcuts.
func (c Choices) Update(msg tea.Msg) Choices {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(c.Options) == 0 {
		return c
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Selected == NoChoice {
			c.Selected = len(c.Options) - 1
		} else if c.Selected > 0 {
			c.Selected--
		}
	case "down", "j":
		if c.Selected < len(c.Options)-1 {
			c.Selected++
		}
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if n := int(key[0] - '1'); n < len(c.Options) {
				c.Selected = n
			}
		}
	}
	return c
}

// View renders the options numbered in display order.
func (c Choices) View() string {
	lines := make([]string, len(c.Options))
	for i, opt := range c.Options {
		prefix := "   "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == c.Selected {
			prefix = " ▸ "
			style = theme.Selected
		}
		lines[i] = style.Render(fmt.Sprintf("%s%d) %s", prefix, i+1, opt))
	}
	return strings.Join(lines, "\n")
}
