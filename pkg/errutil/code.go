// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"fmt"

	"github.com/samber/oops"
)

// HasCode reports whether err is an oops error carrying code.
func HasCode(err error, code string) bool {
	return code != "" && CodeOf(err) == code
}

// CodeOf returns the code of an oops error, or "" when err carries none.
// For a chain of coded errors this is the innermost code.
func CodeOf(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := oopsErr.Code()
	if code == nil {
		return ""
	}
	return fmt.Sprint(code)
}

// ContextOf returns the merged context of an oops error, or nil.
func ContextOf(err error) map[string]any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oopsErr.Context()
}

// Recode builds a new error under b whose message is format followed by
// cause. A cause without a code is wrapped. A coded cause is flattened into
// the cause and cause_code context keys, since wrapping it would leave its
// code in place of b's.
func Recode(b oops.OopsErrorBuilder, cause error, format string, args ...any) error {
	code := CodeOf(cause)
	if code == "" {
		return b.Wrapf(cause, format, args...)
	}
	return b.
		With("cause_code", code).
		With("cause", cause.Error()).
		Errorf(format+": %s", append(args, cause.Error())...)
}
