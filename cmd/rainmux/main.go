// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command rainmux exercises extension modules outside the host: it plays
// lifecycle scenarios, inspects modules and manages configuration.
package main

import (
	"fmt"
	"os"

	// Builtin extension modules.
	_ "github.com/holomush/rainmux/extensions/clock"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
