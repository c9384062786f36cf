package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/co2viewer/internal/version"
)

// Application branding constants
const (
	AppName   = "CO2 VIEWER"
	GitHubURL = "github.com/muurk/co2viewer"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth  = 48
	MinTerminalHeight = 20
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple
	ErrorColor   = lipgloss.Color("#FF5555") // Red
	TextColor    = lipgloss.Color("#FFFFFF") // White
	SubtleColor  = lipgloss.Color("#626262") // Gray
	BorderColor  = lipgloss.Color("#7D56F4") // Purple (same as primary)
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	FocusedInputStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	// LabelStyle is the ppm label under the gauge
	LabelStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	FormBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)
)

// BuildHeaderContent creates header content with app name and version
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps a screen in the full-terminal frame:
// header on top, content centered, help footer pinned to the bottom.
func RenderApplicationContainer(content, footer string, width, height int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if height < MinTerminalHeight {
		height = MinTerminalHeight
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(width-4). // Leave room for outer border
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Foreground(SubtleColor).
		Width(width-4).
		Padding(0, 1)

	styledHeader := headerStyle.Render(BuildHeaderContent())
	styledFooter := footerStyle.Render(footer)

	bodyHeight := height - 2 - lipgloss.Height(styledHeader) - lipgloss.Height(styledFooter)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := lipgloss.Place(width-4, bodyHeight, lipgloss.Center, lipgloss.Center, content)

	inner := lipgloss.JoinVertical(lipgloss.Left, styledHeader, body, styledFooter)

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		Height(height - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)
}
