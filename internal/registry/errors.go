// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package registry

import (
	"github.com/samber/oops"

	"github.com/holomush/rainmux/internal/handle"
)

// Error codes for registry failures.
const (
	CodeInvariantViolation   = "INVARIANT_VIOLATION"
	CodeHandleSpaceExhausted = "HANDLE_SPACE_EXHAUSTED"
)

// ErrUnknownHandle reports a handle that was never issued or is already
// released.
func ErrUnknownHandle(op string, h handle.Handle) error {
	return oops.Code(CodeInvariantViolation).
		With("operation", op).
		With("handle", h.String()).
		Errorf("%s: unknown instance handle %s", op, h)
}

// ErrHandleSpaceExhausted wraps a handle table allocation failure.
func ErrHandleSpaceExhausted(cause error) error {
	return oops.Code(CodeHandleSpaceExhausted).Wrap(cause)
}

// ErrIncompleteSpec reports an AttachSpec missing a constructor or type.
func ErrIncompleteSpec(field string) error {
	return oops.Code(CodeInvariantViolation).
		With("field", field).
		Errorf("attach spec is missing %s", field)
}
