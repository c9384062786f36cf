package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/co2viewer/internal/discovery"
	"github.com/muurk/co2viewer/internal/gauge"
)

// RenderReadingCard draws the gauge, the label, and the reading details.
func RenderReadingCard(address, label string, r gauge.Reading, radius, width int) string {
	width = ClampWidth(width)

	ring := gauge.Render(r, radius)
	value := ReadingValueStyle.
		Foreground(lipgloss.Color(r.Level.Hex())).
		Render(label)

	details := []string{
		value,
		"",
		ResultKeyStyle.Render("Sensor:") + " " + ResultValueStyle.Render(address),
		ResultKeyStyle.Render("Level:") + " " + ResultValueStyle.Render(r.Level.String()),
		ResultKeyStyle.Render("Of scale:") + " " + ResultValueStyle.Render(fmt.Sprintf("%.1f%%", r.Percentage)),
	}

	body := lipgloss.JoinHorizontal(lipgloss.Center,
		ring,
		lipgloss.NewStyle().PaddingLeft(4).Render(strings.Join(details, "\n")),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(r.Level.Hex())).
		Width(width-2).
		Padding(1, 2).
		Render(body)
}

// RenderCompactReading is a single colored line, e.g. "● 1200 ppm (green)".
func RenderCompactReading(label string, r gauge.Reading) string {
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(r.Level.Hex())).Render("●")
	return fmt.Sprintf("%s %s (%s)", dot, label, r.Level)
}

// RenderDeviceList lists discovered sensors with the address to store.
func RenderDeviceList(devices []*discovery.Device, width int) string {
	width = ClampWidth(width)

	if len(devices) == 0 {
		return NewWarningResult("No sensors found",
			Field{Key: "Hint", Value: "enter the address manually: co2viewer address set <host>"},
		).SetWidth(width).Render()
	}

	lines := make([]string, 0, len(devices)*2)
	for i, d := range devices {
		lines = append(lines,
			fmt.Sprintf("%2d. %s", i+1, DeviceNameStyle.Render(d.Name())),
			"    "+DeviceAddressStyle.Render(d.Address())+"  "+
				lipgloss.NewStyle().Foreground(MutedColor).Render(strings.TrimSuffix(d.Hostname, ".")),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width-2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
