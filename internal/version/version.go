// Package version reports the build version of co2viewer.
//
// Release builds stamp the values through ldflags:
//
//	go build -ldflags="-X github.com/muurk/co2viewer/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/co2viewer/internal/version.Commit=abc1234"
//
// Local builds fall back to the VCS stamp embedded by the Go toolchain.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the short git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			fillFromSettings(info.Settings)
		}
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fillFromSettings derives Version and Commit from the vcs.* build settings.
func fillFromSettings(settings []debug.BuildSetting) {
	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}

	if Commit == "" {
		if rev := values["vcs.revision"]; rev != "" {
			if len(rev) > 7 {
				rev = rev[:7]
			}
			if values["vcs.modified"] == "true" {
				rev += "-dirty"
			}
			Commit = rev
		}
	}

	if Version == "" {
		if t, err := time.Parse(time.RFC3339, values["vcs.time"]); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the version together with the commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
