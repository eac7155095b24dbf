// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package extension is the SDK for rainmux extension modules.
//
// An extension module is a named table of factories. For every logical
// type Name the module registers a group-behavior type NameSkin and an
// instance-behavior type NameMeasure. rainmux selects the pair from the
// PluginMeasureName option, builds one Skin per skin and type, and one Measure
// per measure.
//
// Example:
//
//	var Module = extension.NewModule("weather")
//
//	func init() {
//		Module.MustRegister("Weather", newWeatherSkin, newWeatherMeasure)
//	}
//
// Statically linked modules publish themselves with RegisterBuiltin and are
// selected with PluginAssemblyName=builtin:<module>.
package extension

import (
	"github.com/holomush/rainmux/pkg/rmapi"
)

// Type name suffixes that identify the two behavior kinds.
const (
	SkinSuffix    = "Skin"
	MeasureSuffix = "Measure"
)

// Group is the read-only view of the skin a behavior object lives in.
type Group interface {
	// Handle is the opaque host skin handle.
	Handle() uintptr
	// Name is the skin display name.
	Name() string
	// Window is the native window handle of the skin.
	Window() uintptr
	// Path is the extension root directory: the module path with the file
	// name stripped, ascended one level.
	Path() string
}

// Skin is the group-behavior object shared by all measures of one type in
// one skin.
type Skin interface {
	Dispose()
}

// Owner is what a Measure is constructed with: the group plus the Skin
// object of its type.
type Owner interface {
	Group
	Skin() Skin
}

// Measure is the instance-behavior object bound to one host measure.
//
// The host asks for the string value first. GetString must report false for
// measures whose value is numeric, otherwise Update is never called.
type Measure interface {
	// Reload re-reads options. maxValue is the host's scaling bound and may
	// be rewritten.
	Reload(api rmapi.API, maxValue *float64)
	// Update returns the numeric value.
	Update() float64
	// GetString returns the string value, or false for none.
	GetString() (string, bool)
	// ExecuteBang handles a command sent to the measure.
	ExecuteBang(command string)
	// Dispose releases everything the measure holds.
	Dispose()
}

// SkinFactory builds the group-behavior object for a skin.
type SkinFactory func(group Group, api rmapi.API) (Skin, error)

// MeasureFactory builds a measure. measureType is the PluginMeasureType
// option, passed through untouched.
type MeasureFactory func(measureType string, owner Owner, api rmapi.API) (Measure, error)
