// Package styles defines the visual styling for the watch dashboard.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the claude-watch theme.
var (
	Primary = lipgloss.Color("208") // Claude orange
	Subtle  = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for the dashboard heading.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// SectionStyle is used for section headings.
var SectionStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("63"))

// LabelStyle is used for row labels.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// ValueStyle is used for metric values.
var ValueStyle = lipgloss.NewStyle().
	Foreground(TextPrimary)

// MutedStyle is used for timestamps and footers.
var MutedStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// ErrorStyle is used for error banners.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

// SeverityStyle returns the style for a recommendation severity.
func SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "critical":
		return lipgloss.NewStyle().Foreground(Error).Bold(true)
	case "warning":
		return lipgloss.NewStyle().Foreground(Warning)
	default:
		return lipgloss.NewStyle().Foreground(Success)
	}
}

// PercentStyle returns the style for a utilization percentage.
func PercentStyle(percent float64) lipgloss.Style {
	switch {
	case percent >= 90:
		return lipgloss.NewStyle().Foreground(Error).Bold(true)
	case percent >= 75:
		return lipgloss.NewStyle().Foreground(Warning)
	default:
		return lipgloss.NewStyle().Foreground(Success)
	}
}
