// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua

import (
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/rainmux/pkg/rmapi"
)

// GlobalName is the table host functions are published under.
const GlobalName = "rainmux"

// hostBinding gives the host functions of one state access to the host API.
// The API is swapped on every reload.
type hostBinding struct {
	mu  sync.Mutex
	api rmapi.API
}

func (b *hostBinding) set(api rmapi.API) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.api = api
}

func (b *hostBinding) get() rmapi.API {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.api
}

// register publishes the rainmux table in ls.
func (b *hostBinding) register(ls *lua.LState) {
	mod := ls.NewTable()
	ls.SetField(mod, "log", ls.NewFunction(b.logFn))
	ls.SetField(mod, "read_string", ls.NewFunction(b.readStringFn))
	ls.SetField(mod, "read_number", ls.NewFunction(b.readNumberFn))
	ls.SetField(mod, "read_path", ls.NewFunction(b.readPathFn))
	ls.SetField(mod, "replace", ls.NewFunction(b.replaceFn))
	ls.SetField(mod, "execute", ls.NewFunction(b.executeFn))
	ls.SetField(mod, "measure_name", ls.NewFunction(b.measureNameFn))
	ls.SetField(mod, "skin_name", ls.NewFunction(b.skinNameFn))
	ls.SetField(mod, "new_id", ls.NewFunction(newIDFn))
	ls.SetField(mod, "ERROR", lua.LNumber(rmapi.LogError))
	ls.SetField(mod, "WARNING", lua.LNumber(rmapi.LogWarning))
	ls.SetField(mod, "NOTICE", lua.LNumber(rmapi.LogNotice))
	ls.SetField(mod, "DEBUG", lua.LNumber(rmapi.LogDebug))
	ls.SetGlobal(GlobalName, mod)
}

// parseLevel accepts a host level number or one of error, warning, notice
// and debug. Anything else is a notice.
func parseLevel(v lua.LValue) rmapi.LogLevel {
	if n, ok := v.(lua.LNumber); ok {
		if l := rmapi.LogLevel(n); l >= rmapi.LogError && l <= rmapi.LogDebug {
			return l
		}
		return rmapi.LogNotice
	}
	switch strings.ToLower(v.String()) {
	case "error":
		return rmapi.LogError
	case "warn", "warning":
		return rmapi.LogWarning
	case "debug":
		return rmapi.LogDebug
	default:
		return rmapi.LogNotice
	}
}

func (b *hostBinding) logFn(L *lua.LState) int {
	level := parseLevel(L.CheckAny(1))
	message := L.CheckString(2)
	if api := b.get(); api != nil {
		api.Log(level, message)
	}
	return 0
}

func (b *hostBinding) readStringFn(L *lua.LState) int {
	option := L.CheckString(1)
	def := L.OptString(2, "")
	if api := b.get(); api != nil {
		L.Push(lua.LString(api.ReadString(option, def, true)))
		return 1
	}
	L.Push(lua.LString(def))
	return 1
}

func (b *hostBinding) readNumberFn(L *lua.LState) int {
	option := L.CheckString(1)
	def := float64(L.OptNumber(2, 0))
	if api := b.get(); api != nil {
		L.Push(lua.LNumber(api.ReadDouble(option, def)))
		return 1
	}
	L.Push(lua.LNumber(def))
	return 1
}

func (b *hostBinding) readPathFn(L *lua.LState) int {
	option := L.CheckString(1)
	def := L.OptString(2, "")
	if api := b.get(); api != nil {
		L.Push(lua.LString(api.ReadPath(option, def)))
		return 1
	}
	L.Push(lua.LString(def))
	return 1
}

func (b *hostBinding) replaceFn(L *lua.LState) int {
	s := L.CheckString(1)
	if api := b.get(); api != nil {
		s = api.ReplaceVariables(s)
	}
	L.Push(lua.LString(s))
	return 1
}

func (b *hostBinding) executeFn(L *lua.LState) int {
	command := L.CheckString(1)
	if api := b.get(); api != nil {
		api.Execute(command)
	}
	return 0
}

func (b *hostBinding) measureNameFn(L *lua.LState) int {
	if api := b.get(); api != nil {
		L.Push(lua.LString(api.MeasureName()))
		return 1
	}
	L.Push(lua.LString(""))
	return 1
}

func (b *hostBinding) skinNameFn(L *lua.LState) int {
	if api := b.get(); api != nil {
		L.Push(lua.LString(api.SkinName()))
		return 1
	}
	L.Push(lua.LString(""))
	return 1
}

func newIDFn(L *lua.LState) int {
	L.Push(lua.LString(ulid.Make().String()))
	return 1
}
