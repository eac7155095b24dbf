// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package lua loads extension modules written in Lua.
//
// A module is one .lua file. Every global table whose name ends in "Skin" or
// "Measure" is a type. Each constructed object runs in its own sandboxed
// state with a rainmux table of host functions.
package lua

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/holomush/rainmux/internal/resolver"
	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/rmapi"
)

// Compile-time interface check.
var _ resolver.Loader = (*Loader)(nil)

// APIVersionGlobal is the optional global a module sets to declare the API
// version it targets.
const APIVersionGlobal = "API_VERSION"

// compiled is a parsed module shared by every object built from it.
type compiled struct {
	path    string
	proto   *lua.FunctionProto
	factory *StateFactory
}

// Loader compiles .lua modules.
type Loader struct {
	factory *StateFactory
}

// NewLoader creates a loader using sandboxed states.
func NewLoader() *Loader {
	return &Loader{factory: NewStateFactory()}
}

// Load compiles the file at path once, runs it in a throwaway state to find
// its types, and returns a module whose factories build fresh states.
func (l *Loader) Load(ctx context.Context, path string) (*extension.Module, error) {
	code, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, oops.In("lua").With("path", path).With("operation", "load").Hint("failed to read module").Wrap(err)
	}

	chunk, err := parse.Parse(bytes.NewReader(code), path)
	if err != nil {
		return nil, oops.In("lua").With("path", path).With("operation", "load").Hint("syntax error").Wrap(err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, oops.In("lua").With("path", path).With("operation", "load").Hint("compile error").Wrap(err)
	}
	mod := &compiled{path: path, proto: proto, factory: l.factory}

	// Objects outlive the call that loaded the module.
	ctx = context.WithoutCancel(ctx)
	skins, measures, version, err := mod.discover(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var opts []extension.ModuleOption
	if version != "" {
		opts = append(opts, extension.WithAPIVersion(version))
	}
	m := extension.NewModule(name, opts...)
	for _, typeName := range skins {
		if err := m.RegisterSkin(typeName, mod.skinFactory(ctx, typeName)); err != nil {
			return nil, oops.In("lua").With("path", path).Wrap(err)
		}
	}
	for _, typeName := range measures {
		if err := m.RegisterMeasure(typeName, mod.measureFactory(ctx, typeName)); err != nil {
			return nil, oops.In("lua").With("path", path).Wrap(err)
		}
	}
	return m, nil
}

// discover runs the chunk without a host and lists the type tables it
// defines.
func (c *compiled) discover(ctx context.Context) (skins, measures []string, version string, err error) {
	L, err := c.factory.NewState(ctx)
	if err != nil {
		return nil, nil, "", oops.In("lua").With("path", c.path).Hint("failed to create validation state").Wrap(err)
	}
	defer L.Close()

	(&hostBinding{}).register(L)
	L.Push(L.NewFunctionFromProto(c.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, nil, "", oops.In("lua").With("path", c.path).Hint("module failed to run").Wrap(err)
	}

	L.G.Global.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok {
			return
		}
		if _, isTable := v.(*lua.LTable); !isTable {
			return
		}
		switch {
		case hasSuffixFold(string(name), extension.SkinSuffix):
			skins = append(skins, string(name))
		case hasSuffixFold(string(name), extension.MeasureSuffix):
			measures = append(measures, string(name))
		}
	})
	sort.Strings(skins)
	sort.Strings(measures)

	if v, ok := L.GetGlobal(APIVersionGlobal).(lua.LString); ok {
		version = string(v)
	}
	return skins, measures, version, nil
}

func (c *compiled) skinFactory(ctx context.Context, typeName string) extension.SkinFactory {
	return func(_ extension.Group, api rmapi.API) (extension.Skin, error) {
		obj, err := newObject(ctx, c, typeName, api)
		if err != nil {
			return nil, err
		}
		return &skinObject{object: obj}, nil
	}
}

func (c *compiled) measureFactory(ctx context.Context, typeName string) extension.MeasureFactory {
	return func(measureType string, owner extension.Owner, api rmapi.API) (extension.Measure, error) {
		obj, err := newObject(ctx, c, typeName, api, lua.LString(measureType))
		if err != nil {
			return nil, err
		}
		return &measureObject{object: obj, Base: extension.NewBase(owner, api)}, nil
	}
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) > len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
