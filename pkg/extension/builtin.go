// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package extension

import (
	"sort"
	"sync"
)

// BuiltinPrefix marks a PluginAssemblyName that names a statically linked
// module instead of a file.
const BuiltinPrefix = "builtin:"

var (
	builtinMu sync.RWMutex
	builtins  = make(map[string]*Module)
)

// RegisterBuiltin publishes a statically linked module. Called from init();
// panics if a module with the same name is already published.
func RegisterBuiltin(m *Module) {
	builtinMu.Lock()
	defer builtinMu.Unlock()

	if _, exists := builtins[m.Name()]; exists {
		panic(ErrDuplicateModule(m.Name()))
	}
	builtins[m.Name()] = m
}

// Builtin returns the published module with the given name.
func Builtin(name string) (*Module, bool) {
	builtinMu.RLock()
	defer builtinMu.RUnlock()
	m, ok := builtins[name]
	return m, ok
}

// Builtins returns the names of all published modules, sorted.
func Builtins() []string {
	builtinMu.RLock()
	defer builtinMu.RUnlock()
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
