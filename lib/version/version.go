// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version, set manually for releases.
	Version = "0.1.0-dev"
)

// buildStamp is the subset of the binary's build info Info reports.
type buildStamp struct {
	commit string
	dirty  bool
	time   string
}

// readBuildStamp merges the ldflags values with the toolchain's VCS
// settings; injected values win.
func readBuildStamp(info *debug.BuildInfo, ok bool) buildStamp {
	stamp := buildStamp{commit: GitCommit, dirty: GitDirty == "true", time: BuildTime}
	if !ok || info == nil || GitCommit != "unknown" {
		return stamp
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			stamp.commit = setting.Value
			if len(stamp.commit) > 12 {
				stamp.commit = stamp.commit[:12]
			}
		case "vcs.modified":
			stamp.dirty = setting.Value == "true"
		case "vcs.time":
			if BuildTime == "unknown" {
				stamp.time = setting.Value
			}
		}
	}
	return stamp
}

func (stamp buildStamp) String() string {
	dirty := ""
	if stamp.dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, stamp.commit, dirty, stamp.time)
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return readBuildStamp(debug.ReadBuildInfo()).String()
}

// Full returns Info plus the Go version and platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Fprint writes "<binary> <full version>" to writer.
func Fprint(writer io.Writer, binary string) {
	fmt.Fprintf(writer, "%s %s\n", binary, Full())
}
