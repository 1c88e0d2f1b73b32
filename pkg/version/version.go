// Package version reports the build identity of the seedpyramid binary.
package version

import "runtime/debug"

// Set with -ldflags "-X github.com/Sumatoshi-tech/seedpyramid/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// InitBinaryVersion fills unset values from the module build info.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// String formats the version line printed by the CLI.
func String() string {
	return "seedpyramid " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
