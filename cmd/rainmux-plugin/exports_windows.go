// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build windows && cgo

package main

/*
#include <stdlib.h>
#include <string.h>
#include <wchar.h>
*/
import "C"

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/samber/oops"

	"github.com/holomush/rainmux/internal/bridge"
)

var (
	bootOnce sync.Once
	facade   atomic.Pointer[bridge.Bridge]
)

// current boots the bridge on first use. settingsFile locates the config;
// later calls ignore it.
func current(settingsFile string) *bridge.Bridge {
	bootOnce.Do(func() {
		facade.Store(bridge.BootForHost(settingsFile, hostLog{}, cAllocator{}))
	})
	return facade.Load()
}

// booted returns the bridge if Initialize has run.
func booted() *bridge.Bridge {
	return facade.Load()
}

// cAllocator keeps returned strings on the C heap so the host can read them
// after the call returns.
type cAllocator struct{}

func (cAllocator) Alloc(s string) (unsafe.Pointer, error) {
	units, err := windows.UTF16FromString(s)
	if err != nil {
		return nil, oops.Wrapf(err, "encode string")
	}
	size := C.size_t(len(units) * 2)
	p := C.malloc(size)
	if p == nil {
		return nil, oops.With("bytes", int(size)).Errorf("out of memory")
	}
	C.memcpy(p, unsafe.Pointer(&units[0]), size)
	return p, nil
}

func (cAllocator) Free(p unsafe.Pointer) error {
	C.free(p)
	return nil
}

//export Initialize
func Initialize(data *uintptr, rm unsafe.Pointer) {
	api := hostAPI{rm: rm}
	b := current(api.SettingsFile())
	if b == nil {
		*data = 0
		return
	}
	b.Initialize(data, api)
}

//export Reload
func Reload(data uintptr, rm unsafe.Pointer, maxValue *C.double) {
	b := booted()
	if b == nil {
		return
	}
	if maxValue == nil {
		b.Reload(data, hostAPI{rm: rm}, nil)
		return
	}
	v := float64(*maxValue)
	b.Reload(data, hostAPI{rm: rm}, &v)
	*maxValue = C.double(v)
}

//export Update
func Update(data uintptr) C.double {
	b := booted()
	if b == nil {
		return 0
	}
	return C.double(b.Update(data))
}

//export GetString
func GetString(data uintptr) *C.wchar_t {
	b := booted()
	if b == nil {
		return nil
	}
	return (*C.wchar_t)(b.GetString(data))
}

//export ExecuteBang
func ExecuteBang(data uintptr, args *C.wchar_t) {
	b := booted()
	if b == nil {
		return
	}
	b.ExecuteBang(data, gostr(args))
}

//export Finalize
func Finalize(data uintptr) {
	b := booted()
	if b == nil {
		return
	}
	b.Finalize(data)
}
