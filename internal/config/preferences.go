package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	currentVersion = 1

	// DefaultPollIntervalSeconds is the cadence of the monitor's fetch cycle.
	DefaultPollIntervalSeconds = 5
	// DefaultRequestTimeoutSeconds bounds a single sensor request.
	DefaultRequestTimeoutSeconds = 4
	// DefaultDiscoverTimeoutSeconds bounds an mDNS scan.
	DefaultDiscoverTimeoutSeconds = 3
	// DefaultGaugeRadius is the donut radius in terminal rows.
	DefaultGaugeRadius = 7
	// DefaultRelayListen is the relay's HTTP listen address.
	DefaultRelayListen = ":8080"
	// DefaultMQTTPort is the standard unencrypted MQTT port.
	DefaultMQTTPort = 1883
	// DefaultMQTTTopic is where the relay publishes readings.
	DefaultMQTTTopic = "co2viewer/ppm"
)

// fileMutex serializes writes to config.yaml.
var fileMutex sync.Mutex

// Preferences is the content of config.yaml.
type Preferences struct {
	Version                int         `yaml:"version"`
	PollIntervalSeconds    int         `yaml:"poll_interval_seconds"`
	RequestTimeoutSeconds  int         `yaml:"request_timeout_seconds"`
	DiscoverTimeoutSeconds int         `yaml:"discover_timeout_seconds"`
	GaugeRadius            int         `yaml:"gauge_radius"`
	Relay                  *RelayPrefs `yaml:"relay,omitempty"`
}

// RelayPrefs configures `co2viewer relay`.
type RelayPrefs struct {
	Listen string     `yaml:"listen"`
	MQTT   *MQTTPrefs `yaml:"mqtt,omitempty"`
}

// MQTTPrefs configures the optional MQTT publisher. An empty Broker
// disables publishing.
type MQTTPrefs struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id,omitempty"`
}

// NewPreferences returns preferences populated with defaults.
func NewPreferences() *Preferences {
	p := &Preferences{Version: currentVersion}
	p.applyDefaults()
	return p
}

func (p *Preferences) applyDefaults() {
	if p.PollIntervalSeconds <= 0 {
		p.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if p.RequestTimeoutSeconds <= 0 {
		p.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if p.DiscoverTimeoutSeconds <= 0 {
		p.DiscoverTimeoutSeconds = DefaultDiscoverTimeoutSeconds
	}
	if p.GaugeRadius <= 0 {
		p.GaugeRadius = DefaultGaugeRadius
	}
	if p.Relay == nil {
		p.Relay = &RelayPrefs{}
	}
	if p.Relay.Listen == "" {
		p.Relay.Listen = DefaultRelayListen
	}
	if p.Relay.MQTT == nil {
		p.Relay.MQTT = &MQTTPrefs{}
	}
	if p.Relay.MQTT.Port <= 0 {
		p.Relay.MQTT.Port = DefaultMQTTPort
	}
	if p.Relay.MQTT.Topic == "" {
		p.Relay.MQTT.Topic = DefaultMQTTTopic
	}
}

// PollInterval returns the poll cadence as a duration.
func (p *Preferences) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSeconds) * time.Second
}

// RequestTimeout returns the per-request sensor timeout.
func (p *Preferences) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds) * time.Second
}

// DiscoverTimeout returns the mDNS scan duration.
func (p *Preferences) DiscoverTimeout() time.Duration {
	return time.Duration(p.DiscoverTimeoutSeconds) * time.Second
}

// LoadPreferences reads preferences from path (or the default location when
// path is empty). A missing file yields defaults.
func LoadPreferences(path string) (*Preferences, error) {
	path, err := resolvePrefsPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewPreferences(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var prefs Preferences
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if prefs.Version != currentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", prefs.Version, currentVersion)
	}

	prefs.applyDefaults()
	return &prefs, nil
}

// Save writes preferences to path (or the default location) atomically.
func (p *Preferences) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	path, err := resolvePrefsPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# co2viewer preferences\n# Location: " + path + "\n\n")
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

func resolvePrefsPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	path, err := GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return path, nil
}
