package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	pulseStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	headerStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("236"))
	settingsStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("236")).PaddingLeft(1)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	botLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	userBodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("25")).Padding(0, 1)
	thinkingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	inputStyle     = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("118"))
	launcherStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Background(lipgloss.Color("57")).Padding(0, 2)
)
