package metaspector

import "runtime"

// Version is the semantic version of the metaspector module.
const Version = "0.3.0"

// VersionInfo contains detailed version information.
type VersionInfo struct {
	Version   string
	GitCommit string // set via ldflags
	BuildTime string // set via ldflags
	GoVersion string
}

// GetVersionInfo returns version and build information.
//
// GitCommit and BuildTime are populated at build time:
//
//	go build -ldflags="-X github.com/simonhull/metaspector.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/simonhull/metaspector.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/metaspector
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// Variables populated at build time via -ldflags.
var (
	gitCommit = "unknown"
	buildTime = "unknown"
)
