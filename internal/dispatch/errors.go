// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dispatch

import (
	"errors"

	"github.com/samber/oops"
)

// CodeOptionMissing marks a blank required measure option.
const CodeOptionMissing = "OPTION_MISSING"

// Sentinel errors for dispatcher construction.
var (
	ErrNilRegistry = errors.New("dispatch: registry is nil")
	ErrNilResolver = errors.New("dispatch: resolver is nil")
)

// ErrOptionMissing creates an error for a blank required option.
func ErrOptionMissing(option string) error {
	return oops.Code(CodeOptionMissing).
		With("option", option).
		Errorf("%s= Not found.", option)
}
