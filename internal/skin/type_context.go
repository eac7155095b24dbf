// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package skin

import (
	"strconv"

	"github.com/samber/oops"

	"github.com/holomush/rainmux/internal/handle"
	"github.com/holomush/rainmux/pkg/errutil"
	"github.com/holomush/rainmux/pkg/extension"
)

// Compile-time interface check.
var _ extension.Owner = (*TypeContext)(nil)

// TypeContext owns the Skin object of one behavior type inside a group and
// every instance of that type.
type TypeContext struct {
	group  *Group
	typeID string
	skin   extension.Skin

	instances map[handle.Handle]*Instance
	refs      int
	disposed  bool
}

// NewTypeContext wraps an already constructed Skin object.
func NewTypeContext(group *Group, typeID string, s extension.Skin) *TypeContext {
	return &TypeContext{
		group:     group,
		typeID:    typeID,
		skin:      s,
		instances: make(map[handle.Handle]*Instance),
	}
}

// TypeID is the resolved behavior type identity.
func (t *TypeContext) TypeID() string { return t.typeID }

// Group returns the owning group.
func (t *TypeContext) Group() *Group { return t.group }

// Skin implements extension.Owner.
func (t *TypeContext) Skin() extension.Skin { return t.skin }

// Handle implements extension.Group.
func (t *TypeContext) Handle() uintptr { return t.group.Handle() }

// Name implements extension.Group.
func (t *TypeContext) Name() string { return t.group.Name() }

// Window implements extension.Group.
func (t *TypeContext) Window() uintptr { return t.group.Window() }

// Path implements extension.Group.
func (t *TypeContext) Path() string { return t.group.Path() }

// String renders the context as name[handle].
func (t *TypeContext) String() string {
	return t.group.Name() + "[" + formatHandle(t.group.Handle()) + "]"
}

// Add registers inst under h.
func (t *TypeContext) Add(h handle.Handle, inst *Instance) error {
	if h.IsSentinel() {
		return oops.With("type", t.typeID).Errorf("cannot register the sentinel handle")
	}
	if _, exists := t.instances[h]; exists {
		return oops.With("type", t.typeID).With("handle", h.String()).Errorf("handle already registered")
	}
	t.instances[h] = inst
	t.refs++
	return nil
}

// Get returns the instance registered under h.
func (t *TypeContext) Get(h handle.Handle) (*Instance, bool) {
	inst, ok := t.instances[h]
	return inst, ok
}

// Remove unregisters h and returns its instance.
func (t *TypeContext) Remove(h handle.Handle) (*Instance, bool) {
	inst, ok := t.instances[h]
	if !ok {
		return nil, false
	}
	delete(t.instances, h)
	t.refs--
	return inst, true
}

// IsEmpty reports whether the context holds no instances.
func (t *TypeContext) IsEmpty() bool { return t.refs == 0 }

// Len returns the number of instances.
func (t *TypeContext) Len() int { return t.refs }

// Disposed reports whether Dispose has run.
func (t *TypeContext) Disposed() bool { return t.disposed }

// Dispose releases the Skin object. It is idempotent and recovers a panic
// raised by the extension.
func (t *TypeContext) Dispose() error {
	if t.disposed {
		return nil
	}
	t.disposed = true
	if t.skin == nil {
		return nil
	}
	return errutil.Guard("skin dispose", t.skin.Dispose)
}

func formatHandle(h uintptr) string {
	return "0x" + strconv.FormatUint(uint64(h), 16)
}
