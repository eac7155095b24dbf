// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package rmapi describes the host API available to rainmux and to the
// extensions it loads.
//
// The host hands the plugin an opaque context pointer on every
// Initialize and Reload call. Implementations of API wrap that pointer and
// translate each accessor into the matching native call. Extensions only ever
// see the interface.
package rmapi

// Option keys read from the host's per-measure option store.
const (
	// OptionAssemblyName names the extension module (path or builtin:<name>).
	OptionAssemblyName = "PluginAssemblyName"
	// OptionMeasureName selects the Skin/Measure type pair inside the module.
	OptionMeasureName = "PluginMeasureName"
	// OptionMeasureType is the sub-type selector handed to the measure constructor.
	OptionMeasureType = "PluginMeasureType"
)

// LogLevel is the host log severity.
type LogLevel int

// Host log levels. The numeric values are part of the host ABI.
const (
	LogError   LogLevel = 1
	LogWarning LogLevel = 2
	LogNotice  LogLevel = 3
	LogDebug   LogLevel = 4
)

// String returns the host name of the level.
func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "Error"
	case LogWarning:
		return "Warning"
	case LogNotice:
		return "Notice"
	case LogDebug:
		return "Debug"
	default:
		return "Unknown"
	}
}

// Logger writes a line to the host log.
type Logger interface {
	Log(level LogLevel, message string)
}

// API is the per-measure view of the host.
type API interface {
	Logger

	// ReadString reads a string option, returning def if it is not set.
	ReadString(option, def string, replaceMeasures bool) string
	// ReadPath reads a string option and converts it to an absolute path.
	ReadPath(option, def string) string
	// ReadDouble reads a numeric option, evaluating formulas.
	ReadDouble(option string, def float64) float64
	// ReadInt reads a numeric option and truncates it.
	ReadInt(option string, def int) int
	// ReplaceVariables expands host variables in s.
	ReplaceVariables(s string) string

	// MeasureName is the name of the measure the context belongs to.
	MeasureName() string
	// Skin is the opaque group handle of the owning skin.
	Skin() uintptr
	// SkinName is the display name of the owning skin.
	SkinName() string
	// SkinWindow is the native window handle of the owning skin.
	SkinWindow() uintptr
	// SettingsFile is the path of the host settings file.
	SettingsFile() string

	// Execute runs a host command (bang) in the context of the owning skin.
	Execute(command string)
}
