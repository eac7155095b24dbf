// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"github.com/samber/oops"
)

// CodePanic marks an error recovered from a panic.
const CodePanic = "PANIC"

// Guard runs fn and converts a panic into an oops error carrying the panic
// value and the given operation name. It never re-panics.
func Guard(operation string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code(CodePanic).
				With("operation", operation).
				With("panic", r).
				Errorf("panic in %s: %v", operation, r)
		}
	}()
	fn()
	return nil
}
