// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads gridkit configuration.
//
// Configuration comes from a single file named either by the
// GRIDKIT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no search path. Files
// ending in .json or .jsonc are read as JSON with comments and
// trailing commas; anything else is YAML. Unknown keys are errors in
// both formats, so a misspelled option fails loudly instead of being
// ignored.
//
// Path fields (source files, sockets, the log output) have ${HOME} and
// ${VAR:-default} patterns expanded after loading. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- source, grid defaults, columns and logging
//   - [Default] -- a Config with the built-in grid defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- reports every problem at once
//
// This package depends on no other gridkit packages.
package config
