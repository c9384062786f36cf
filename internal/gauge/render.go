package gauge

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// TrackColor paints the transparent part of the ring.
	TrackColor = "#D3D3D3"

	fillGlyph  = "█"
	trackGlyph = "░"

	// holeRatio is the inner radius as a share of the outer radius.
	holeRatio = 0.55
)

// Render draws the donut for r with the given outer radius in rows. The
// ring is rebuilt from nothing on every call. Terminal cells are roughly
// twice as tall as wide, so each row spans two columns per unit of radius.
//
// The first segment starts at 12 o'clock and runs clockwise. Fill is clamped
// to the ring, so readings beyond the scale draw a full circle.
func Render(r Reading, radius int) string {
	if radius < 2 {
		radius = 2
	}

	fill := math.Max(0, math.Min(r.Percentage, 100)) / 100
	filled := lipgloss.NewStyle().Foreground(lipgloss.Color(r.Level.Hex()))
	track := lipgloss.NewStyle().Foreground(lipgloss.Color(TrackColor)).Faint(true)

	outer := float64(radius) + 0.5
	inner := float64(radius) * holeRatio
	width := 4*radius + 1

	var b strings.Builder
	for row := -radius; row <= radius; row++ {
		for col := 0; col < width; col++ {
			dx := (float64(col) - float64(2*radius)) / 2
			dy := float64(row)
			dist := math.Hypot(dx, dy)
			if dist > outer || dist < inner {
				b.WriteByte(' ')
				continue
			}
			if angleFraction(dx, dy) < fill {
				b.WriteString(filled.Render(fillGlyph))
			} else {
				b.WriteString(track.Render(trackGlyph))
			}
		}
		if row < radius {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// angleFraction returns the clockwise angle from 12 o'clock as a share of a
// full turn. dy grows downwards.
func angleFraction(dx, dy float64) float64 {
	a := math.Atan2(dx, -dy)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a / (2 * math.Pi)
}
