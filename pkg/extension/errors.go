// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package extension

import "github.com/samber/oops"

// Error codes for registration failures.
const (
	CodeInvalidType   = "EXTENSION_TYPE_INVALID"
	CodeDuplicateType = "EXTENSION_TYPE_DUPLICATE"
	CodeDuplicateName = "EXTENSION_MODULE_DUPLICATE"
)

// ErrInvalidTypeName reports a type name without the kind suffix.
func ErrInvalidTypeName(module, typeName, suffix string) error {
	return oops.Code(CodeInvalidType).
		With("module", module).
		With("type", typeName).
		Errorf("type name %q must be <Name>%s", typeName, suffix)
}

// ErrNilFactory reports a registration without a constructor.
func ErrNilFactory(module, typeName string) error {
	return oops.Code(CodeInvalidType).
		With("module", module).
		With("type", typeName).
		Errorf("type %q: nil factory", typeName)
}

// ErrDuplicateType reports a type name registered twice in one module.
func ErrDuplicateType(module, typeName string) error {
	return oops.Code(CodeDuplicateType).
		With("module", module).
		With("type", typeName).
		Errorf("type %q already registered in module %q", typeName, module)
}

// ErrDuplicateModule reports a builtin module name published twice.
func ErrDuplicateModule(module string) error {
	return oops.Code(CodeDuplicateName).
		With("module", module).
		Errorf("builtin module %q already registered", module)
}
