package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/persona/internal/ui/theme"
)

// ProgressBar displays a horizontal bar filled to Percent (0..1).
type ProgressBar struct {
	Label      string
	LabelWidth int
	Percent    float64
	Width      int

	// Suffix formats the trailing value. Nil shows nothing.
	Suffix func(percent float64) string

	// Fill colors the filled part. Nil uses theme.Secondary.
	Fill color.Color
}

// PercentSuffix renders a whole percentage, e.g. " 60%".
func PercentSuffix(p float64) string {
	return fmt.Sprintf("  %3d%%", int(p*100))
}

// DecimalSuffix renders a probability with two decimals, e.g. " 0.70".
func DecimalSuffix(p float64) string {
	return fmt.Sprintf("  %.2f", p)
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var out string

	if p.Label != "" {
		label := p.Label
		if pad := p.LabelWidth - lipgloss.Width(label); pad > 0 {
			label += strings.Repeat(" ", pad)
		}
		out += lipgloss.NewStyle().Foreground(theme.Text).Render(label) + "  "
	}

	suffix := ""
	if p.Suffix != nil {
		suffix = lipgloss.NewStyle().Foreground(theme.TextDim).Render(p.Suffix(p.Percent))
	}

	barWidth := p.Width - lipgloss.Width(out) - lipgloss.Width(suffix)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth)*p.Percent + 0.5)
	filled = min(max(filled, 0), barWidth)

	fill := theme.ProgressFilled
	if p.Fill != nil {
		fill = lipgloss.NewStyle().Background(p.Fill)
	}

	out += fill.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled)) +
		suffix
	return out
}
