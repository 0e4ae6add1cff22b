// Package version reports how the showcase binary was built. Release
// builds set the variables below with -ldflags; otherwise the commit and
// date come from the VCS stamp the go tool embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/HerbHall/showcase/internal/version.Version=...".
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// Build describes the running binary.
type Build struct {
	Version   string
	Commit    string
	Date      string
	Dirty     bool
	GoVersion string
	Platform  string
}

// Current returns the build description.
func Current() Build {
	b := Build{
		Version:   Version,
		Commit:    GitCommit,
		Date:      BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		b.fillVCS(info.Settings)
	}
	if b.Commit == "" {
		b.Commit = "unknown"
	}
	if b.Date == "" {
		b.Date = "unknown"
	}
	return b
}

// fillVCS copies the embedded VCS stamp into fields ldflags left empty.
func (b *Build) fillVCS(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
				if len(b.Commit) > 12 {
					b.Commit = b.Commit[:12]
				}
			}
		case "vcs.time":
			if b.Date == "" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		}
	}
}

// Info is the one-line `showcase version` output.
func Info() string {
	b := Current()
	commit := b.Commit
	if b.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("showcase %s (commit %s, built %s, %s %s)",
		b.Version, commit, b.Date, b.GoVersion, b.Platform)
}

// Short returns the release version, "dev" for local builds.
func Short() string {
	return Version
}

// Map is the build description for the health endpoint.
func Map() map[string]string {
	b := Current()
	return map[string]string{
		"version":    b.Version,
		"git_commit": b.Commit,
		"build_date": b.Date,
		"go_version": b.GoVersion,
		"platform":   b.Platform,
	}
}
