package ui

import "github.com/charmbracelet/lipgloss"

// Palette. Kept minimal so the app stays readable on light and dark terminals.
var (
	ColorAccent  = lipgloss.Color("39")  // blue
	ColorOK      = lipgloss.Color("42")  // green
	ColorWarn    = lipgloss.Color("214") // orange
	ColorError   = lipgloss.Color("203") // red
	ColorMuted   = lipgloss.Color("243") // gray
	ColorSurface = lipgloss.Color("236")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(ColorMuted)

	tabActiveStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(ColorAccent).
			Background(ColorSurface)

	statusStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	computingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarn)

	resultStyle = lipgloss.NewStyle().
			Foreground(ColorOK)

	issueErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	issueWarnStyle = lipgloss.NewStyle().
			Foreground(ColorWarn)

	dirtyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarn)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
