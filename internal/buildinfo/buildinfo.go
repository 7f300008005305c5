// Package buildinfo carries version stamps injected at link time.
package buildinfo

import "time"

// Set via -ldflags at build time
var (
	Version    = "dev"
	BuildTime  string // when the binary was compiled
	CommitHash string // short git commit hash
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC().Format(time.RFC3339)

// Info is the version block printed by `costingd version` and logged at startup
type Info struct {
	Version    string `json:"version"`
	BuildTime  string `json:"build_time,omitempty"`
	CommitHash string `json:"commit,omitempty"`
	StartTime  string `json:"started_at"`
}

// Get returns the stamped build information
func Get() Info {
	return Info{Version: Version, BuildTime: BuildTime, CommitHash: CommitHash, StartTime: StartTime}
}
