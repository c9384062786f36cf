package ui

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/muurk/co2viewer/internal/discovery"
	"github.com/muurk/co2viewer/internal/gauge"
)

func TestClampWidth(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{10, MinTerminalWidth},
		{80, 80},
		{500, MaxContentWidth},
	}
	for _, tt := range tests {
		if got := ClampWidth(tt.in); got != tt.want {
			t.Errorf("ClampWidth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHeader_RenderKeepsParamOrder(t *testing.T) {
	out := NewHeader("co2 reading", "co2viewer read",
		Field{Key: "Sensor", Value: "10.0.0.7"},
		Field{Key: "Timeout", Value: "4s"},
	).SetWidth(80).Render()

	if !strings.Contains(out, "CO2 READING") {
		t.Error("title should be upper-cased")
	}
	sensor := strings.Index(out, "10.0.0.7")
	timeout := strings.Index(out, "4s")
	if sensor < 0 || timeout < 0 || sensor > timeout {
		t.Errorf("params missing or out of order:\n%s", out)
	}
}

func TestResult_Render(t *testing.T) {
	failure := NewFailureResult("Read failed", errors.New("connection refused"), []string{"Check power"}).
		SetWidth(80).Render()
	for _, want := range []string{"FAILED", "connection refused", "Troubleshooting:", "Check power"} {
		if !strings.Contains(failure, want) {
			t.Errorf("failure box missing %q", want)
		}
	}

	success := NewSuccessResult("Address saved").AddDetail("Address", "10.0.0.7").SetWidth(80).Render()
	if !strings.Contains(success, "SUCCESS") || !strings.Contains(success, "10.0.0.7") {
		t.Errorf("success box incomplete:\n%s", success)
	}
}

func TestHintLines(t *testing.T) {
	hint := "The sensor could not be reached.\nTroubleshooting:\n  • Check power\n  • Verify the address"
	want := []string{"The sensor could not be reached.", "Check power", "Verify the address"}
	if got := HintLines(hint); !reflect.DeepEqual(got, want) {
		t.Errorf("HintLines() = %q, want %q", got, want)
	}
}

func TestRenderReadingCard(t *testing.T) {
	r := gauge.NewReading(1200)
	out := RenderReadingCard("10.0.0.7", "1200 ppm", r, 5, 80)
	for _, want := range []string{"1200 ppm", "10.0.0.7", "green", "34.3%"} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCompactReading(t *testing.T) {
	out := RenderCompactReading("3600 ppm", gauge.NewReading(3600))
	if !strings.Contains(out, "3600 ppm (purple)") {
		t.Errorf("RenderCompactReading() = %q", out)
	}
}

func TestRenderDeviceList(t *testing.T) {
	empty := RenderDeviceList(nil, 80)
	if !strings.Contains(empty, "No sensors found") {
		t.Errorf("empty list should warn:\n%s", empty)
	}

	devices := []*discovery.Device{
		{Instance: "UD-CO2S kitchen", Hostname: "ud-co2s-1.local.", IP: "10.0.0.7", Port: 80},
		{Hostname: "ud-co2s-2.local.", IP: "10.0.0.8", Port: 8080},
	}
	out := RenderDeviceList(devices, 80)
	for _, want := range []string{"UD-CO2S kitchen", "10.0.0.7", "ud-co2s-2", "10.0.0.8:8080"} {
		if !strings.Contains(out, want) {
			t.Errorf("device list missing %q", want)
		}
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(70)
	if p.Width() != 70 {
		t.Errorf("Width() = %d, want 70", p.Width())
	}
	p.PrintSuccess("Address cleared")
	p.PrintError("Read failed", errors.New("boom"), "Troubleshooting:\n  • Try again")
	out := buf.String()
	if !strings.Contains(out, "Address cleared") || !strings.Contains(out, "Try again") {
		t.Errorf("printer output incomplete:\n%s", out)
	}
}
