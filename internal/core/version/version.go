// Package version reports build information stamped in with -ldflags
package version

import "runtime/debug"

// BuildInfo identifies the running binary
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Set with -ldflags "-X leadfunnel/internal/core/version.version=v0.1.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build info for service; VCS settings fill in a missing commit
func Info(service string) BuildInfo {
	bi := BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
	if info, ok := debug.ReadBuildInfo(); ok {
		bi.GoVersion = info.GoVersion
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "none":
				bi.Commit = s.Value
			case s.Key == "vcs.time" && bi.Date == "unknown":
				bi.Date = s.Value
			}
		}
	}
	return bi
}
