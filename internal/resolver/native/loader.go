// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package native loads extension modules built with -buildmode=plugin.
//
// A module exports a package-level variable named Module of type
// *extension.Module (or a func returning one). Go plugins only exist on
// linux, darwin and freebsd; elsewhere Load always fails.
package native

import (
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/rainmux/internal/resolver"
	"github.com/holomush/rainmux/pkg/extension"
)

// Compile-time interface check.
var _ resolver.Loader = Loader{}

// ModuleSymbol is the exported symbol looked up in a plugin.
const ModuleSymbol = "Module"

// Errors returned by the loader.
var (
	ErrUnsupportedPlatform = errors.New("go plugins are not supported on this platform")
	ErrInvalidSymbol       = errors.New("exported Module has the wrong type")
)

// Loader opens Go plugin files.
type Loader struct{}

// moduleFromSymbol accepts the shapes a plugin may export Module as.
func moduleFromSymbol(path string, sym any) (*extension.Module, error) {
	var m *extension.Module
	switch v := sym.(type) {
	case *extension.Module:
		m = v
	case **extension.Module:
		if v != nil {
			m = *v
		}
	case func() *extension.Module:
		m = v()
	case *func() *extension.Module:
		if v != nil && *v != nil {
			m = (*v)()
		}
	default:
		return nil, oops.In("native").With("path", path).With("symbol", ModuleSymbol).Wrapf(ErrInvalidSymbol, "got %T", sym)
	}
	if m == nil {
		return nil, oops.In("native").With("path", path).With("symbol", ModuleSymbol).Wrapf(ErrInvalidSymbol, "nil module")
	}
	return m, nil
}
