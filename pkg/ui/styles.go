// Package ui renders vkbackup's terminal output: styled status lines,
// per-phase progress bars and "N of M" summaries.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor  = lipgloss.Color("#5181B8") // VK blue
	successColor = lipgloss.Color("#85DCB0")
	warningColor = lipgloss.Color("#F6AE2D")
	errorColor   = lipgloss.Color("#E85D75")
	mutedColor   = lipgloss.Color("#9CA3AF")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	phaseStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Width(34)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 2)

	iconSuccess = "✓"
	iconWarning = "⚠"
	iconError   = "✗"
)
