// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build !(linux || darwin || freebsd)

package native

import (
	"context"

	"github.com/samber/oops"

	"github.com/holomush/rainmux/pkg/extension"
)

// Load always fails on platforms without Go plugin support.
func (Loader) Load(_ context.Context, path string) (*extension.Module, error) {
	return nil, oops.In("native").With("path", path).Wrap(ErrUnsupportedPlatform)
}

// Supported reports whether Go plugins can be loaded here.
func Supported() bool { return false }
