// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package resolver

import (
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/rainmux/pkg/errutil"
)

// Error codes for resolution failures.
const (
	CodeModuleNotFound     = "MODULE_NOT_FOUND"
	CodeModuleLoadFailed   = "MODULE_LOAD_FAILED"
	CodeModuleUnsupported  = "MODULE_UNSUPPORTED"
	CodeModuleNotAllowed   = "MODULE_NOT_ALLOWED"
	CodeModuleIncompatible = "MODULE_INCOMPATIBLE"
	CodeTypeNotFound       = "TYPE_NOT_FOUND"
	CodeTypeAmbiguous      = "TYPE_AMBIGUOUS"
	CodeConstructionFailed = "CONSTRUCTION_FAILED"
)

// errNilObject is the cause reported when a constructor returns nothing.
var errNilObject = errors.New("constructor returned a nil object")

// ErrModuleNotFound creates an error for a module that does not exist.
func ErrModuleNotFound(module string, cause error) error {
	b := oops.Code(CodeModuleNotFound).With("module", module)
	if cause != nil {
		return errutil.Recode(b, cause, "module %s not found", module)
	}
	return b.Errorf("module %s not found", module)
}

// ErrModuleLoadFailed creates an error for a loader failure.
func ErrModuleLoadFailed(module string, cause error) error {
	b := oops.Code(CodeModuleLoadFailed).With("module", module)
	return errutil.Recode(b, cause, "load module %s", module)
}

// ErrModuleUnsupported creates an error for a module no loader handles.
func ErrModuleUnsupported(module, ext string) error {
	return oops.Code(CodeModuleUnsupported).
		With("module", module).
		With("extension", ext).
		Errorf("no loader for %q modules", ext)
}

// ErrModuleNotAllowed creates an error for a module outside the allow-list.
func ErrModuleNotAllowed(module string) error {
	return oops.Code(CodeModuleNotAllowed).
		With("module", module).
		Errorf("module %s is not in the allow-list", module)
}

// ErrModuleIncompatible creates an error for an API version mismatch.
func ErrModuleIncompatible(module, version, constraint string) error {
	return oops.Code(CodeModuleIncompatible).
		With("module", module).
		With("api_version", version).
		With("constraint", constraint).
		Errorf("module %s targets API %s, want %s", module, version, constraint)
}

// ErrTypeNotFound creates an error for a missing behavior type.
func ErrTypeNotFound(module, typeName string) error {
	return oops.Code(CodeTypeNotFound).
		With("module", module).
		With("type", typeName).
		Errorf("type %s not found in %s", typeName, module)
}

// ErrTypeAmbiguous creates an error for a name matching several types.
func ErrTypeAmbiguous(module, typeName string, matches []string) error {
	return oops.Code(CodeTypeAmbiguous).
		With("module", module).
		With("type", typeName).
		With("matches", matches).
		Errorf("type %s is ambiguous in %s: %v", typeName, module, matches)
}

// ErrConstructionFailed creates an error for a failed constructor. A code
// carried by cause is kept as cause_code.
func ErrConstructionFailed(typeName string, cause error) error {
	b := oops.Code(CodeConstructionFailed).With("type", typeName)
	return errutil.Recode(b, cause, "construct %s", typeName)
}
