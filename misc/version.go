// Package misc keeps build identification.
package misc

import (
	"runtime/debug"
)

// Set with -ldflags "-X pstyle/misc.version=... -X pstyle/misc.githash=..."
var (
	version = "dev"
	githash = ""
)

const appName = "pstyle"

func GetAppName() string {
	return appName
}

// GetVersion returns version set at build time or module version when
// available.
func GetVersion() string {
	if version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// GetGitHash returns commit set at build time or recorded by go build.
func GetGitHash() string {
	if githash != "" {
		return githash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				if len(s.Value) > 7 {
					return s.Value[:7]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}
