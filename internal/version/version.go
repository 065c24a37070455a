// Package version reports the build version of the todod and todoctl
// binaries.
package version

import (
	"runtime/debug"
	"strings"
)

// Version is the current release version.
// This is a var (not const) so ldflags -X can override it at build time.
var Version = "dev"

// String returns the version with a single 'v' prefix for display.
func String() string {
	v := strings.TrimPrefix(Version, "v")
	return "v" + v
}

// Full returns String plus the VCS revision recorded by the Go toolchain,
// when one is available.
func Full() string {
	return withRevision(String(), readRevision())
}

func withRevision(v, rev string) string {
	if rev == "" {
		return v
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	return v + " (" + rev + ")"
}

func readRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
