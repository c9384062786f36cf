package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is Linux specific")
	}
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(base, "co2viewer"); dir != want {
		t.Errorf("GetConfigDir() = %v, want %v", dir, want)
	}
}

func TestGetAddressPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is Linux specific")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	path, err := GetAddressPath()
	if err != nil {
		t.Fatalf("GetAddressPath() error = %v", err)
	}
	if want := filepath.Join(base, "co2viewer", "address_data.txt"); path != want {
		t.Errorf("GetAddressPath() = %v, want %v", path, want)
	}

	logPath, err := GetLogPath()
	if err != nil {
		t.Fatalf("GetLogPath() error = %v", err)
	}
	if filepath.Dir(logPath) != filepath.Dir(path) {
		t.Errorf("log file %v should share the data directory with %v", logPath, path)
	}
}

func TestGetDataDir_HomeFallback(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is Linux specific")
	}
	home := t.TempDir()
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", home)

	dir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir() error = %v", err)
	}
	if want := filepath.Join(home, ".local", "share", "co2viewer"); dir != want {
		t.Errorf("GetDataDir() = %v, want %v", dir, want)
	}
}

func TestNewPreferences(t *testing.T) {
	p := NewPreferences()

	if p.Version != 1 {
		t.Errorf("Version = %d, want 1", p.Version)
	}
	if p.PollInterval() != 5*time.Second {
		t.Errorf("PollInterval() = %v, want 5s", p.PollInterval())
	}
	if p.RequestTimeout() != 4*time.Second {
		t.Errorf("RequestTimeout() = %v, want 4s", p.RequestTimeout())
	}
	if p.Relay == nil || p.Relay.Listen != ":8080" {
		t.Errorf("Relay.Listen = %+v, want :8080", p.Relay)
	}
	if p.Relay.MQTT.Broker != "" {
		t.Error("MQTT publishing should be disabled by default")
	}
}

func TestLoadPreferences_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	p, err := LoadPreferences(path)
	if err != nil {
		t.Fatalf("LoadPreferences() error = %v", err)
	}
	if p.PollIntervalSeconds != DefaultPollIntervalSeconds {
		t.Errorf("PollIntervalSeconds = %d, want default", p.PollIntervalSeconds)
	}
}

func TestPreferences_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	p := NewPreferences()
	p.PollIntervalSeconds = 10
	p.Relay.MQTT.Broker = "broker.local"
	p.Relay.MQTT.Topic = "home/office/co2"

	if err := p.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "# co2viewer preferences") {
		t.Error("saved file should start with the header comment")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}

	loaded, err := LoadPreferences(path)
	if err != nil {
		t.Fatalf("LoadPreferences() error = %v", err)
	}
	if loaded.PollIntervalSeconds != 10 {
		t.Errorf("PollIntervalSeconds = %d, want 10", loaded.PollIntervalSeconds)
	}
	if loaded.Relay.MQTT.Broker != "broker.local" {
		t.Errorf("MQTT.Broker = %q, want broker.local", loaded.Relay.MQTT.Broker)
	}
	if loaded.Relay.MQTT.Port != DefaultMQTTPort {
		t.Errorf("MQTT.Port = %d, want %d", loaded.Relay.MQTT.Port, DefaultMQTTPort)
	}
}

func TestLoadPreferences_PartialFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\ngauge_radius: 4\n"), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPreferences(path)
	if err != nil {
		t.Fatalf("LoadPreferences() error = %v", err)
	}
	if p.GaugeRadius != 4 {
		t.Errorf("GaugeRadius = %d, want 4", p.GaugeRadius)
	}
	if p.PollIntervalSeconds != DefaultPollIntervalSeconds {
		t.Errorf("PollIntervalSeconds = %d, want default", p.PollIntervalSeconds)
	}
}

func TestLoadPreferences_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unsupported version", "version: 2\n", "unsupported config version"},
		{"missing version", "gauge_radius: 3\n", "unsupported config version"},
		{"malformed yaml", "version: [1\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadPreferences(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadPreferences() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
