// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package resolver

import (
	"fmt"

	"github.com/samber/oops"

	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/rmapi"
)

// SkinDescriptor is a resolved group-behavior type.
type SkinDescriptor struct {
	module   string
	typeName string
	factory  extension.SkinFactory
}

// Module is the key of the module the type came from.
func (d SkinDescriptor) Module() string { return d.module }

// TypeName is the registered type name, e.g. ClockSkin.
func (d SkinDescriptor) TypeName() string { return d.typeName }

// TypeID identifies the type across modules.
func (d SkinDescriptor) TypeID() string { return typeID(d.module, d.typeName) }

// New constructs the group-behavior object. A returned error, a nil object
// and a panic all yield CONSTRUCTION_FAILED.
func (d SkinDescriptor) New(group extension.Group, api rmapi.API) (s extension.Skin, err error) {
	defer recoverConstruction(d.typeName, &err)
	s, err = d.factory(group, api)
	if err != nil {
		return nil, ErrConstructionFailed(d.typeName, err)
	}
	if s == nil {
		return nil, ErrConstructionFailed(d.typeName, errNilObject)
	}
	return s, nil
}

// MeasureDescriptor is a resolved instance-behavior type.
type MeasureDescriptor struct {
	module   string
	typeName string
	factory  extension.MeasureFactory
}

// Module is the key of the module the type came from.
func (d MeasureDescriptor) Module() string { return d.module }

// TypeName is the registered type name, e.g. ClockMeasure.
func (d MeasureDescriptor) TypeName() string { return d.typeName }

// TypeID identifies the type across modules.
func (d MeasureDescriptor) TypeID() string { return typeID(d.module, d.typeName) }

// New constructs the measure with its sub-type selector. A returned error, a
// nil object and a panic all yield CONSTRUCTION_FAILED.
func (d MeasureDescriptor) New(measureType string, owner extension.Owner, api rmapi.API) (m extension.Measure, err error) {
	defer recoverConstruction(d.typeName, &err)
	m, err = d.factory(measureType, owner, api)
	if err != nil {
		return nil, ErrConstructionFailed(d.typeName, err)
	}
	if m == nil {
		return nil, ErrConstructionFailed(d.typeName, errNilObject)
	}
	return m, nil
}

func typeID(module, typeName string) string {
	return module + "#" + typeName
}

// recoverConstruction turns a constructor panic into CONSTRUCTION_FAILED.
// It builds the error directly so the code is not shadowed by a wrapped one.
func recoverConstruction(typeName string, err *error) {
	if r := recover(); r != nil {
		*err = oops.Code(CodeConstructionFailed).
			With("type", typeName).
			With("panic", r).
			Errorf("construct %s: panic: %s", typeName, fmt.Sprint(r))
	}
}
