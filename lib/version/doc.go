// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for gridkit binaries.
//
// [Version], [GitCommit] and [BuildTime] may be injected with
// -ldflags -X. When a commit is not injected, the VCS stamp the Go
// toolchain records in the binary's build info is used instead, so
// plain "go build" and "go install" output still names its revision.
package version
