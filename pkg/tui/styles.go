package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPurple      = lipgloss.Color("#7D56F4")
	ColorGreen       = lipgloss.Color("#25A065")
	ColorBlue        = lipgloss.Color("#4285F4")
	ColorRed         = lipgloss.Color("#E05252")
	ColorYellow      = lipgloss.Color("#E5C07B")
	ColorGray        = lipgloss.Color("#626262")
	ColorGrayDim     = lipgloss.Color("#404040")
	ColorWhite       = lipgloss.Color("#FFFFFF")
	ColorOffWhite    = lipgloss.Color("#D0D0D0")
	ColorSelectionBg = lipgloss.Color("#2D3B4D")
	ColorCyan        = lipgloss.Color("#56B6C2")
	ColorActiveBg    = lipgloss.Color("#1F3A2E")
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	HeaderCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	StatusMsgStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	ErrorMsgStyle = lipgloss.NewStyle().
			Foreground(ColorRed)
)

// Task list styles
var (
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorSelectionBg)

	ActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen).
			Background(ColorActiveBg)

	CompleteStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	InProgressStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	TodoStyle = lipgloss.NewStyle().
			Foreground(ColorOffWhite)

	OverrunStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	BudgetStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

// Timer styles
var (
	WorkStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)

	BreakStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen)

	ClockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple)

	PhaseStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)
)

// Input styles
var (
	InputPromptStyle = lipgloss.NewStyle().
				Foreground(ColorPurple).
				Bold(true)

	SearchBarStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SearchCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)
)

// Status icons
const (
	IconComplete   = "✓"
	IconInProgress = "◐"
	IconTodo       = "○"
	IconActive     = "▶"
)

func statusStyle(s string) lipgloss.Style {
	switch s {
	case "completed":
		return CompleteStyle
	case "in-progress":
		return InProgressStyle
	default:
		return TodoStyle
	}
}
