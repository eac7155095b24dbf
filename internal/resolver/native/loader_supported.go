// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build linux || darwin || freebsd

package native

import (
	"context"
	"path/filepath"
	"plugin"

	"github.com/samber/oops"

	"github.com/holomush/rainmux/pkg/extension"
)

// Load opens the plugin at path and returns its exported module.
func (Loader) Load(_ context.Context, path string) (*extension.Module, error) {
	p, err := plugin.Open(filepath.Clean(path))
	if err != nil {
		return nil, oops.In("native").With("path", path).Hint("failed to open plugin").Wrap(err)
	}
	sym, err := p.Lookup(ModuleSymbol)
	if err != nil {
		return nil, oops.In("native").With("path", path).With("symbol", ModuleSymbol).Wrap(err)
	}
	return moduleFromSymbol(path, sym)
}

// Supported reports whether Go plugins can be loaded here.
func Supported() bool { return true }
