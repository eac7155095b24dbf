// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import "github.com/samber/oops"

// Error codes for configuration failures.
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeConfigLoad    = "CONFIG_LOAD_FAILED"
)

// ErrInvalid reports a value that loaded but does not make sense.
func ErrInvalid(key string, value any, reason string) error {
	return oops.Code(CodeConfigInvalid).
		With("key", key).
		With("value", value).
		Errorf("%s: %s", key, reason)
}

// ErrLoad reports a file or flag source that could not be read.
func ErrLoad(source string, cause error) error {
	return oops.Code(CodeConfigLoad).
		With("source", source).
		Wrapf(cause, "load configuration")
}
