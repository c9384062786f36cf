package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName         = "co2viewer"
	configFile      = "config.yaml"
	addressFile     = "address_data.txt"
	logFile         = "co2viewer.log"
	dataDirEnvVar   = "XDG_DATA_HOME"
	configDirEnvVar = "XDG_CONFIG_HOME"
)

// GetConfigDir returns the OS-appropriate configuration directory.
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		return windowsDir("LOCALAPPDATA", "Local")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, ".config", appName), nil
	default:
		return xdgDir(configDirEnvVar, ".config")
	}
}

// GetDataDir returns the OS-appropriate application data directory. This is
// where the persisted sensor address and the log file live.
func GetDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		return windowsDir("APPDATA", "Roaming")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	default:
		return xdgDir(dataDirEnvVar, filepath.Join(".local", "share"))
	}
}

// GetConfigPath returns the full path to config.yaml.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// GetAddressPath returns the full path to the persisted address file.
func GetAddressPath() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, addressFile), nil
}

// GetLogPath returns the log file used while the monitor owns the terminal.
func GetLogPath() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, logFile), nil
}

func xdgDir(envVar, homeRelative string) (string, error) {
	if base := os.Getenv(envVar); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, homeRelative, appName), nil
}

func windowsDir(envVar, appDataSub string) (string, error) {
	if base := os.Getenv(envVar); base != "" {
		return filepath.Join(base, appName), nil
	}
	profile := os.Getenv("USERPROFILE")
	if profile == "" {
		return "", fmt.Errorf("cannot determine user profile directory (%s and USERPROFILE not set)", envVar)
	}
	return filepath.Join(profile, "AppData", appDataSub, appName), nil
}
