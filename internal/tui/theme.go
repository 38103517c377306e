package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha
const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"
	colorMauve    lipgloss.Color = "#cba6f7"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
)

const (
	colorAccent  = colorMauve
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(colorSubtext0)
	activeTabStyle = tabStyle.Foreground(colorBase).Background(colorAccent).Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)
	focusedPanelStyle = panelStyle.BorderForeground(colorFocus)

	labelStyle   = lipgloss.NewStyle().Foreground(colorSubtext0)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorOverlay0)
	textStyle    = lipgloss.NewStyle().Foreground(colorText)
	balanceStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	upStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	downStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPeach)
	pendingStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	cursorStyle  = lipgloss.NewStyle().Foreground(colorBase).Background(colorBlue)

	liveBadge    = lipgloss.NewStyle().Padding(0, 1).Foreground(colorBase).Background(colorSuccess)
	offlineBadge = lipgloss.NewStyle().Padding(0, 1).Foreground(colorBase).Background(colorError)
	unknownBadge = lipgloss.NewStyle().Padding(0, 1).Foreground(colorText).Background(colorSurface0)

	toastSuccess = lipgloss.NewStyle().Padding(0, 1).Foreground(colorBase).Background(colorSuccess)
	toastError   = lipgloss.NewStyle().Padding(0, 1).Foreground(colorBase).Background(colorError)

	helpStyle = lipgloss.NewStyle().Foreground(colorOverlay0)
)
