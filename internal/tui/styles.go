package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorDim       = lipgloss.Color("#6272a4")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorOrange    = lipgloss.Color("#ffb86c")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	listStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	listItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	listItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true)

	detailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	severityHighStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	severityMediumStyle = lipgloss.NewStyle().
				Foreground(colorOrange)

	severityLowStyle = lipgloss.NewStyle().
				Foreground(colorYellow)

	dispositionApplyStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	dispositionChangesStyle = lipgloss.NewStyle().
				Foreground(colorOrange)

	dispositionCommentStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	addedLineStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	removedLineStyle = lipgloss.NewStyle().
				Foreground(colorRed)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBorder)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)
)
