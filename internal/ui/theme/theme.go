package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#7C3AED") // Violet
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#FB923C") // Orange
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// labelColors tints each known personality label.
var labelColors = map[string]color.Color{
	"Introvert": lipgloss.Color("#60A5FA"),
	"Extrovert": lipgloss.Color("#F87171"),
	"Ambivert":  lipgloss.Color("#4ADE80"),
	"Omnivert":  lipgloss.Color("#C084FC"),
}

// LabelColor returns the color of a personality label. Unknown labels use
// Primary.
func LabelColor(label string) color.Color {
	if c, ok := labelColors[label]; ok {
		return c
	}
	return Primary
}

// LabelStyle returns the bold style for a personality label.
func LabelStyle(label string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(LabelColor(label)).Bold(true)
}

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Warn = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)

	Failure = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)
