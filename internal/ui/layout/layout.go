// Package layout frames screen content between a header and a footer bar.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/persona/internal/ui/theme"
)

// The quiz needs room for a prompt, three options and a progress bar.
const (
	MinWidth  = 64
	MinHeight = 20
)

var dim = lipgloss.NewStyle().Foreground(theme.TextDim)

// KeyHint is one key binding shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall reports whether the terminal is below the minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage asks the user to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.Warning).
		Width(width).
		Height(height).
		Render(fmt.Sprintf("Terminal too small!\n\nPersona needs %d x %d, this is %d x %d.",
			MinWidth, MinHeight, width, height))
}

// bar draws one full-width rounded bar.
func bar(content string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderHeader shows the app name on the left, the screen title in the
// middle and status, usually the loaded model pair, on the right.
func RenderHeader(title, status string, width int) string {
	left := theme.Title.Render("  Persona")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)
	right := ""
	if status != "" {
		right = dim.Render(status + "  ")
	}

	// Two columns go to the border.
	inner := max(width-4, 0)
	lw, cw, rw := lipgloss.Width(left), lipgloss.Width(center), lipgloss.Width(right)
	leftGap := max((inner-cw)/2-lw, 1)
	rightGap := max(inner-lw-leftGap-cw-rw, 1)

	return bar(left+strings.Repeat(" ", leftGap)+center+strings.Repeat(" ", rightGap)+right, width)
}

// RenderFooter lists hints left to right, dropping trailing ones that do
// not fit.
func RenderFooter(hints []KeyHint, width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	room := width - 6
	var b strings.Builder
	b.WriteString("  ")
	for i, h := range hints {
		part := key.Render(h.Key) + " " + dim.Render(h.Description)
		if i > 0 {
			part = "   " + part
		}
		if lipgloss.Width(b.String())+lipgloss.Width(part) > room {
			break
		}
		b.WriteString(part)
	}
	return bar(b.String(), width)
}

// RenderFrame stacks header, content and footer, padding the content to
// fill the height left over.
func RenderFrame(header, content, footer string, width, height int) string {
	body := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Width(width).Height(body).Render(content),
		footer,
	)
}
