package tui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorOrange  = lipgloss.Color("214")
	ColorRed     = lipgloss.Color("#FF0000")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")

	ColorAlpha = lipgloss.Color("111")
	ColorTheta = lipgloss.Color("42")
	ColorDelta = lipgloss.Color("203")
	ColorBeta  = lipgloss.Color("177")
)

// Base styles reused by the panels.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimGray).
			Padding(0, 1)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	PausedStyle = lipgloss.NewStyle().
			Foreground(ColorOrange).
			Bold(true)

	RMSStyle       = lipgloss.NewStyle().Foreground(ColorCyan)
	AttentionStyle = lipgloss.NewStyle().Foreground(ColorOrange)
)

// band describes one overlaid series in the band-power panel.
type band struct {
	name  string
	style lipgloss.Style
}

var bands = []band{
	{name: "alpha", style: lipgloss.NewStyle().Foreground(ColorAlpha)},
	{name: "theta", style: lipgloss.NewStyle().Foreground(ColorTheta)},
	{name: "delta", style: lipgloss.NewStyle().Foreground(ColorDelta)},
	{name: "beta", style: lipgloss.NewStyle().Foreground(ColorBeta)},
}
