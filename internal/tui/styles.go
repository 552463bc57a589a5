// Package tui renders the live watch screen for groups and upcoming
// birthdays.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette for the watch screen.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorToday     = lipgloss.Color("#EC4899") // Pink
	ColorBorder    = lipgloss.Color("#4B5563") // Dark gray
)

// Base styles.
var (
	// StyleTitle is used for section titles.
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// StyleSubtitle is used for secondary information.
	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StyleName is used for birthday names.
	StyleName = lipgloss.NewStyle().
			Bold(true)

	// StyleCount is used for per-group totals.
	StyleCount = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	// StyleToday highlights birthdays happening today.
	StyleToday = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorToday)

	// StyleSoon highlights birthdays within the next week.
	StyleSoon = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// StyleComment is used for birthday comments.
	StyleComment = lipgloss.NewStyle().
			Italic(true).
			Foreground(ColorMuted)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// StyleHelp is used for the help bar.
	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)

	StyleHelpKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	StyleHelpDesc = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// StyleMuted is an alias of StyleSubtitle.
var StyleMuted = StyleSubtitle

// Box styles for the screen sections.
var (
	StyleGroupsBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2).
			MarginBottom(1)

	StyleUpcomingBox = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorBorder).
				Padding(1, 2).
				MarginBottom(1)

	// StyleTodayBox replaces StyleUpcomingBox when someone's birthday
	// is today.
	StyleTodayBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorToday).
			Padding(1, 2).
			MarginBottom(1)
)

// GroupStyle renders text in the group's own color, falling back to the
// primary color when the group has none.
func GroupStyle(color string) lipgloss.Style {
	if color == "" {
		return lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
}

// DaysStyle picks the style for a "days until" label.
func DaysStyle(days int) lipgloss.Style {
	switch {
	case days == 0:
		return StyleToday
	case days <= 7:
		return StyleSoon
	default:
		return StyleSubtitle
	}
}
