package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomofocus/internal/tasks"
	"github.com/sadopc/pomofocus/internal/timer"
)

var (
	colorPrimary   = lipgloss.Color("#E5484D") // tomato
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

var (
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 2).
			Border(lipgloss.NormalBorder(), false, false, true, false).BorderForeground(colorPrimary)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 2)

	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSubtle).Padding(1, 2)
	activePanelStyle = panelStyle.BorderForeground(colorPrimary)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)
	successStyle   = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle   = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)

	normalItemStyle   = lipgloss.NewStyle().Foreground(colorFg)
	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	doneItemStyle     = lipgloss.NewStyle().Foreground(colorMuted).Strikethrough(true)
)

// sessionColor is the accent used for the countdown of each session type.
func sessionColor(t timer.SessionType) lipgloss.Color {
	switch t {
	case timer.ShortBreak:
		return colorSuccess
	case timer.LongBreak:
		return colorHighlight
	}
	return colorPrimary
}

func priorityColor(p tasks.Priority) lipgloss.Color {
	switch p {
	case tasks.PriorityUrgent:
		return colorError
	case tasks.PriorityHigh:
		return colorWarning
	case tasks.PriorityMedium:
		return colorSecondary
	}
	return colorMuted
}
