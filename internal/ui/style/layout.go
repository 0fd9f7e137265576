package style

import (
	"github.com/charmbracelet/lipgloss"
)

var palette = DefaultPalette()

// Header styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true).
			Margin(1, 0)

	SubHeaderStyle = lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true)
)

// Layout styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted).
			Padding(0, 1)

	ActivePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(palette.Primary).
				Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(palette.TextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(palette.Text).
			Bold(true)
)

// Status styles
var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(palette.Success).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(palette.Warning).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(palette.Info)

	MutedStyle = lipgloss.NewStyle().
			Foreground(palette.TextMuted)
)

// Trading styles
var (
	LongStyle = lipgloss.NewStyle().
			Foreground(palette.Long).
			Bold(true)

	ShortStyle = lipgloss.NewStyle().
			Foreground(palette.Short).
			Bold(true)
)

// PnLStyle colors v by sign.
func PnLStyle(v float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(palette.PnLColor(v)).Bold(true)
}

// AdaptiveJoinHorizontal lays panels side by side, stacking them on narrow screens.
func AdaptiveJoinHorizontal(width int, panels ...string) string {
	if width < 100 {
		return lipgloss.JoinVertical(lipgloss.Left, panels...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

// AdaptiveWidth is the width for a panel that takes percentage of a wide
// screen. Narrow screens stack panels, so each gets the full width.
func AdaptiveWidth(width, percentage int) int {
	if width < 100 {
		return width - 4
	}
	return (width * percentage) / 100
}
