// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/rmapi"
)

// Compile-time interface checks.
var (
	_ extension.Skin    = (*skinObject)(nil)
	_ extension.Measure = (*measureObject)(nil)
)

// object is one Lua table instance living in its own sandboxed state.
// gopher-lua states are not safe for concurrent use, so every call holds mu.
type object struct {
	mu       sync.Mutex
	L        *lua.LState
	self     *lua.LTable
	host     *hostBinding
	typeName string
	closed   bool
}

// newObject runs the compiled chunk in a fresh state and instantiates the
// global table typeName. ctor, when present on the table, is called with
// args and must return the instance table.
func newObject(ctx context.Context, mod *compiled, typeName string, api rmapi.API, args ...lua.LValue) (*object, error) {
	L, err := mod.factory.NewState(ctx)
	if err != nil {
		return nil, err
	}
	host := &hostBinding{api: api}
	host.register(L)

	L.Push(L.NewFunctionFromProto(mod.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.Close()
		return nil, oops.In("lua").With("module", mod.path).Wrapf(err, "run chunk")
	}

	class, ok := L.GetGlobal(typeName).(*lua.LTable)
	if !ok {
		L.Close()
		return nil, oops.In("lua").With("module", mod.path).With("type", typeName).Errorf("global %s is not a table", typeName)
	}

	self, err := instantiate(L, class, args)
	if err != nil {
		L.Close()
		return nil, oops.In("lua").With("module", mod.path).With("type", typeName).Wrap(err)
	}
	return &object{L: L, self: self, host: host, typeName: typeName}, nil
}

// instantiate calls class.new(args...) when defined, otherwise builds an
// empty table whose metatable indexes class.
func instantiate(L *lua.LState, class *lua.LTable, args []lua.LValue) (*lua.LTable, error) {
	ctor, ok := L.GetField(class, "new").(*lua.LFunction)
	if !ok {
		self := L.NewTable()
		mt := L.NewTable()
		L.SetField(mt, "__index", class)
		L.SetMetatable(self, mt)
		return self, nil
	}

	if err := L.CallByParam(lua.P{Fn: ctor, NRet: 1, Protect: true}, args...); err != nil {
		return nil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	self, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("new returned %s, want table", ret.Type())
	}
	return self, nil
}

// call invokes self:method(args...) and returns its first result. A missing
// method yields LNil and no error. The caller holds o.mu.
func (o *object) call(method string, args ...lua.LValue) (lua.LValue, error) {
	if o.closed {
		return lua.LNil, nil
	}
	fn, ok := o.L.GetField(o.self, method).(*lua.LFunction)
	if !ok {
		return lua.LNil, nil
	}
	if err := o.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, append([]lua.LValue{o.self}, args...)...); err != nil {
		return lua.LNil, oops.In("lua").With("type", o.typeName).With("method", method).Wrap(err)
	}
	ret := o.L.Get(-1)
	o.L.Pop(1)
	return ret, nil
}

// report sends a script error to the host log.
func (o *object) report(err error) {
	if api := o.host.get(); api != nil {
		api.Log(rmapi.LogError, err.Error())
	}
}

func (o *object) dispose() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if _, err := o.call("dispose"); err != nil {
		o.report(err)
	}
	o.closed = true
	o.L.Close()
}

type skinObject struct {
	*object
}

// Dispose implements extension.Skin.
func (s *skinObject) Dispose() { s.dispose() }

type measureObject struct {
	*object
	extension.Base
}

// Reload implements extension.Measure. A numeric result rewrites maxValue.
func (m *measureObject) Reload(api rmapi.API, maxValue *float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.host.set(api)
	ret, err := m.call("reload")
	if err != nil {
		m.report(err)
		return
	}
	if n, ok := ret.(lua.LNumber); ok && maxValue != nil {
		*maxValue = float64(n)
	}
}

// Update implements extension.Measure.
func (m *measureObject) Update() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret, err := m.call("update")
	if err != nil {
		m.report(err)
		return 0
	}
	if n, ok := ret.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// GetString implements extension.Measure. nil, or no get_string method,
// reports absence.
func (m *measureObject) GetString() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret, err := m.call("get_string")
	if err != nil {
		m.report(err)
		return "", false
	}
	if ret == lua.LNil {
		return "", false
	}
	return lua.LVAsString(ret), true
}

// ExecuteBang implements extension.Measure.
func (m *measureObject) ExecuteBang(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.call("execute", lua.LString(command)); err != nil {
		m.report(err)
	}
}

// Dispose implements extension.Measure.
func (m *measureObject) Dispose() { m.dispose() }
