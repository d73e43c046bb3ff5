package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/persona/internal/ui/theme"
)

const bannerFull = ` ██████╗ ███████╗██████╗ ███████╗ ██████╗ ███╗   ██╗ █████╗
 ██╔══██╗██╔════╝██╔══██╗██╔════╝██╔═══██╗████╗  ██║██╔══██╗
 ██████╔╝█████╗  ██████╔╝███████╗██║   ██║██╔██╗ ██║███████║
 ██╔═══╝ ██╔══╝  ██╔══██╗╚════██║██║   ██║██║╚██╗██║██╔══██║
 ██║     ███████╗██║  ██║███████║╚██████╔╝██║ ╚████║██║  ██║
 ╚═╝     ╚══════╝╚═╝  ╚═╝╚══════╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝  ╚═╝`

const bannerCompact = "P · E · R · S · O · N · A"

// renderTitle returns the block-letter title, or a one-line fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	art := bannerFull
	if compact || cw < lipgloss.Width(bannerFull) {
		art = bannerCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(art))
}

// renderModelBar summarizes the loaded model in a bordered strip.
func renderModelBar(info Info, cw int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	tags := make([]string, len(info.Labels))
	for i, l := range info.Labels {
		tags[i] = theme.LabelStyle(l).Render(l)
	}
	line := strings.Join(tags, dim.Render(" · "))

	meta := fmt.Sprintf("%d questions", info.Questions)
	if !info.TrainedAt.IsZero() {
		meta += "  ·  trained " + info.TrainedAt.Local().Format("Jan 02, 2006")
	}
	if info.Insight {
		meta += "  ·  AI insight on"
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw-2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(line + "\n" + dim.Render(meta))
}
