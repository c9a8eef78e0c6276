package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep the list readable on light terminals.
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#8B80F9"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#0E8A7E", Dark: "#3DD6C6"}
	colorWarning   = lipgloss.AdaptiveColor{Light: "#B26B00", Dark: "#F0A33A"}
	colorDanger    = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#F2665A"}
	colorSuccess   = lipgloss.AdaptiveColor{Light: "#1E8449", Dark: "#4ADE80"}
	colorText      = lipgloss.AdaptiveColor{Light: "#1F2335", Dark: "#C8D0F0"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#8A8FA3", Dark: "#6B7089"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#C9CCD8", Dark: "#3B4058"}
	colorInfo      = lipgloss.AdaptiveColor{Light: "#2F6FD6", Dark: "#82AAFF"}
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 2)

	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(1, 2)
	activePanelStyle = panelStyle.BorderForeground(colorPrimary)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	subtitleStyle  = lipgloss.NewStyle().Italic(true).Foreground(colorDim)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorDim)
	highlightStyle = lipgloss.NewStyle().Foreground(colorInfo)
	errorStyle     = lipgloss.NewStyle().Foreground(colorDanger)

	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorText)

	overdueStyle = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	snoozedStyle = lipgloss.NewStyle().Foreground(colorWarning).Italic(true)
)

// priorityStyles colors priorities 1 (highest) to 5.
var priorityStyles = map[int]lipgloss.Style{
	1: lipgloss.NewStyle().Bold(true).Foreground(colorDanger),
	2: lipgloss.NewStyle().Foreground(colorWarning),
	3: lipgloss.NewStyle().Foreground(colorInfo),
	4: lipgloss.NewStyle().Foreground(colorSecondary),
	5: lipgloss.NewStyle().Foreground(colorDim),
}

func priorityStyle(p int) lipgloss.Style {
	if st, ok := priorityStyles[p]; ok {
		return st
	}
	return normalItemStyle
}
