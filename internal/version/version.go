// Package version reports build metadata set through -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the build metadata. A commit left unset by the linker is
// taken from the embedded VCS info when the binary was built from a checkout.
func String() string {
	commit := Commit
	if commit == "none" {
		commit = vcsRevision(debug.ReadBuildInfo)
	}
	return fmt.Sprintf("echonews %s (commit=%s, date=%s, go=%s)", Version, commit, Date, runtime.Version())
}

func vcsRevision(read func() (*debug.BuildInfo, bool)) string {
	info, ok := read()
	if !ok {
		return "none"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return "none"
}
