// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build windows && cgo

package main

/*
#cgo LDFLAGS: -lRainmeter
#include <stdlib.h>
#include <wchar.h>

typedef int BOOL;

extern const wchar_t* RmReadString(void* rm, const wchar_t* option, const wchar_t* defValue, BOOL replaceMeasures);
extern double RmReadFormula(void* rm, const wchar_t* option, double defValue);
extern const wchar_t* RmReplaceVariables(void* rm, const wchar_t* str);
extern const wchar_t* RmPathToAbsolute(void* rm, const wchar_t* relativePath);
extern void RmExecute(void* skin, const wchar_t* command);
extern void* RmGet(void* rm, int type);
extern BOOL LSLog(int level, const wchar_t* unused, const wchar_t* message);
*/
import "C"

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/holomush/rainmux/pkg/rmapi"
)

// RmGet selectors.
const (
	rmgMeasureName      = 0
	rmgSkin             = 1
	rmgSettingsFile     = 2
	rmgSkinName         = 3
	rmgSkinWindowHandle = 4
)

// Compile-time interface checks.
var (
	_ rmapi.API    = hostAPI{}
	_ rmapi.Logger = hostLog{}
)

// wstr converts s for the duration of one call. The host copies what it
// keeps.
func wstr(s string) *C.wchar_t {
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		// s holds a NUL; the host would stop reading there anyway.
		p, _ = windows.UTF16PtrFromString("")
	}
	return (*C.wchar_t)(unsafe.Pointer(p))
}

// gostr copies a host-owned string.
func gostr(p *C.wchar_t) string {
	if p == nil {
		return ""
	}
	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(p)))
}

func cbool(b bool) C.BOOL {
	if b {
		return 1
	}
	return 0
}

// hostLog writes to the host log without a measure context.
type hostLog struct{}

// Log implements rmapi.Logger.
func (hostLog) Log(level rmapi.LogLevel, message string) {
	C.LSLog(C.int(level), nil, wstr(message))
}

// hostAPI is rmapi.API over the rm pointer the host passes to Initialize
// and Reload. It is only valid during that call.
type hostAPI struct {
	rm unsafe.Pointer
}

func (h hostAPI) Log(level rmapi.LogLevel, message string) {
	hostLog{}.Log(level, message)
}

func (h hostAPI) ReadString(option, def string, replaceMeasures bool) string {
	return gostr(C.RmReadString(h.rm, wstr(option), wstr(def), cbool(replaceMeasures)))
}

func (h hostAPI) ReadPath(option, def string) string {
	raw := h.ReadString(option, def, true)
	if raw == "" {
		return ""
	}
	return gostr(C.RmPathToAbsolute(h.rm, wstr(raw)))
}

func (h hostAPI) ReadDouble(option string, def float64) float64 {
	return float64(C.RmReadFormula(h.rm, wstr(option), C.double(def)))
}

func (h hostAPI) ReadInt(option string, def int) int {
	return int(h.ReadDouble(option, float64(def)))
}

func (h hostAPI) ReplaceVariables(s string) string {
	return gostr(C.RmReplaceVariables(h.rm, wstr(s)))
}

func (h hostAPI) get(selector int) unsafe.Pointer {
	return C.RmGet(h.rm, C.int(selector))
}

func (h hostAPI) MeasureName() string {
	return gostr((*C.wchar_t)(h.get(rmgMeasureName)))
}

func (h hostAPI) Skin() uintptr {
	return uintptr(h.get(rmgSkin))
}

func (h hostAPI) SkinName() string {
	return gostr((*C.wchar_t)(h.get(rmgSkinName)))
}

func (h hostAPI) SkinWindow() uintptr {
	return uintptr(h.get(rmgSkinWindowHandle))
}

func (h hostAPI) SettingsFile() string {
	return gostr((*C.wchar_t)(h.get(rmgSettingsFile)))
}

func (h hostAPI) Execute(command string) {
	C.RmExecute(h.get(rmgSkin), wstr(command))
}
