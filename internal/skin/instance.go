// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package skin

import (
	"github.com/oklog/ulid/v2"

	"github.com/holomush/rainmux/pkg/errutil"
	"github.com/holomush/rainmux/pkg/extension"
)

// Instance binds one constructed Measure to its owner.
type Instance struct {
	id          ulid.ULID
	name        string
	measureType string
	owner       *TypeContext
	measure     extension.Measure
	disposed    bool
}

// NewInstance wraps an already constructed Measure.
func NewInstance(owner *TypeContext, name, measureType string, m extension.Measure) *Instance {
	return &Instance{
		id:          ulid.Make(),
		name:        name,
		measureType: measureType,
		owner:       owner,
		measure:     m,
	}
}

// ID is the correlation id used in logs.
func (i *Instance) ID() ulid.ULID { return i.id }

// Name is the host measure name.
func (i *Instance) Name() string { return i.name }

// MeasureType is the sub-type selector the measure was built with.
func (i *Instance) MeasureType() string { return i.measureType }

// Owner is the type context the instance belongs to.
func (i *Instance) Owner() *TypeContext { return i.owner }

// Measure is the extension object.
func (i *Instance) Measure() extension.Measure { return i.measure }

// Disposed reports whether Dispose has run.
func (i *Instance) Disposed() bool { return i.disposed }

// Dispose releases the Measure. It is idempotent and recovers a panic raised
// by the extension.
func (i *Instance) Dispose() error {
	if i.disposed {
		return nil
	}
	i.disposed = true
	return errutil.Guard("measure dispose", i.measure.Dispose)
}
