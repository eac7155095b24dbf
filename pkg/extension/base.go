// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package extension

import (
	"fmt"
	"strings"

	"github.com/holomush/rainmux/pkg/rmapi"
)

// Base carries what every measure needs to remember about its construction.
// Embed it in concrete measures.
type Base struct {
	name  string
	owner Owner
}

// NewBase captures the measure name reported by the host and the owner.
func NewBase(owner Owner, api rmapi.API) Base {
	return Base{name: api.MeasureName(), owner: owner}
}

// Name is the host measure name.
func (b Base) Name() string { return b.name }

// Owner is the type context the measure belongs to.
func (b Base) Owner() Owner { return b.owner }

// Path is the extension root directory of the owning skin.
func (b Base) Path() string {
	if b.owner == nil {
		return ""
	}
	return b.owner.Path()
}

// SelectType maps the PluginMeasureType option onto one of choices, ignoring
// case. An unknown value is logged to the host and yields the zero value.
func SelectType[T any](measureType string, choices map[string]T, api rmapi.API) (T, bool) {
	for name, v := range choices {
		if strings.EqualFold(name, measureType) {
			return v, true
		}
	}
	api.Log(rmapi.LogError, fmt.Sprintf("%s=%s not valid.", rmapi.OptionMeasureType, measureType))
	var zero T
	return zero, false
}
