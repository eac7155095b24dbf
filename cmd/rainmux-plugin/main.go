// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command rainmux-plugin is the host plugin DLL. Build it on Windows with
//
//	go build -buildmode=c-shared -o rainmux.dll ./cmd/rainmux-plugin
//
// and link against the host's import library. The exported entry points
// live in exports_windows.go; on other platforms this package builds to an
// empty program.
package main

import (
	// Builtin extension modules.
	_ "github.com/holomush/rainmux/extensions/clock"
)

func main() {}
