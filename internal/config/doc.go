// Package config resolves co2viewer's on-disk locations and manages the
// YAML preferences file.
//
// # Locations
//
// Preferences follow the platform configuration conventions:
//   - Linux: $XDG_CONFIG_HOME/co2viewer/config.yaml or $HOME/.config/co2viewer/config.yaml
//   - macOS: $HOME/.config/co2viewer/config.yaml
//   - Windows: %LOCALAPPDATA%\co2viewer\config.yaml
//
// Application data (the persisted sensor address and the log file) lives in
// the data directory:
//   - Linux: $XDG_DATA_HOME/co2viewer or $HOME/.local/share/co2viewer
//   - macOS: $HOME/Library/Application Support/co2viewer
//   - Windows: %APPDATA%\co2viewer
//
// # Usage Example
//
//	prefs, err := config.LoadPreferences("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prefs.PollIntervalSeconds = 10
//	if err := prefs.Save(""); err != nil {
//	    log.Fatal(err)
//	}
//
// An empty path always means the default config.yaml location.
package config
