// Package gauge turns a ppm reading into the donut gauge shown by the
// monitor: a fill percentage of the 3500 ppm scale, a threshold color, and
// a character-cell rendering of the two-segment ring.
package gauge

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ScaleMax is the reading that fills the ring exactly once.
const ScaleMax = 3500.0

// Unit is appended to the numeric label after every render.
const Unit = " ppm"

// ErrNotANumber is returned by ParsePPM for non-numeric sensor output.
var ErrNotANumber = errors.New("reading is not a number")

// Level is a threshold band of the gauge.
type Level int

const (
	// LevelBlue is 1000 ppm and below.
	LevelBlue Level = iota
	// LevelGreen is above 1000 ppm.
	LevelGreen
	// LevelOrange is above 1500 ppm.
	LevelOrange
	// LevelRed is above 2500 ppm.
	LevelRed
	// LevelPurple is above 3500 ppm, past the end of the scale.
	LevelPurple
)

// String returns the color name of the level.
func (l Level) String() string {
	switch l {
	case LevelBlue:
		return "blue"
	case LevelGreen:
		return "green"
	case LevelOrange:
		return "orange"
	case LevelRed:
		return "red"
	case LevelPurple:
		return "purple"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Hex returns the fill color for the level.
func (l Level) Hex() string {
	switch l {
	case LevelGreen:
		return "#008000"
	case LevelOrange:
		return "#FFA500"
	case LevelRed:
		return "#FF0000"
	case LevelPurple:
		return "#800080"
	default:
		return "#0000FF"
	}
}

// Classify maps a reading onto its band. Bands are checked high to low and
// each lower bound is exclusive.
func Classify(ppm float64) Level {
	switch {
	case ppm > 3500:
		return LevelPurple
	case ppm > 2500:
		return LevelRed
	case ppm > 1500:
		return LevelOrange
	case ppm > 1000:
		return LevelGreen
	default:
		return LevelBlue
	}
}

// Percentage is the share of ScaleMax covered by ppm. It is not clamped:
// 7000 ppm is 200%.
func Percentage(ppm float64) float64 {
	return ppm / ScaleMax * 100
}

// Segment is one slice of the donut. Transparent segments are not painted.
type Segment struct {
	Percent     float64
	Color       string
	Transparent bool
}

// Reading is everything needed to draw one gauge frame.
type Reading struct {
	PPM        float64
	Percentage float64
	Level      Level
}

// NewReading derives the gauge values for ppm.
func NewReading(ppm float64) Reading {
	return Reading{
		PPM:        ppm,
		Percentage: Percentage(ppm),
		Level:      Classify(ppm),
	}
}

// Segments returns the filled segment followed by the transparent rest.
func (r Reading) Segments() [2]Segment {
	return [2]Segment{
		{Percent: r.Percentage, Color: r.Level.Hex()},
		{Percent: 100 - r.Percentage, Transparent: true},
	}
}

// ParsePPM parses the sensor's text response as a decimal number.
func ParsePPM(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, ErrNotANumber
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotANumber
	}
	return v, nil
}

// Label returns the reading text with the unit suffix.
func Label(raw string) string {
	return strings.TrimSpace(raw) + Unit
}
