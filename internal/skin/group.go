// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package skin holds the per-skin ownership tree: a Group per host skin,
// a TypeContext per resolved behavior type inside it, and an Instance per
// measure inside that.
//
// Nothing here locks. The registry owns every Group and serializes all
// mutations behind its single lock.
package skin

import (
	"errors"
	"path/filepath"
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/rainmux/pkg/extension"
)

// Compile-time interface check.
var _ extension.Group = (*Group)(nil)

// Group is the context of one host skin.
type Group struct {
	id     ulid.ULID
	handle uintptr
	name   string
	window uintptr
	path   string

	types    map[string]*TypeContext
	refs     int
	disposed bool
}

// NewGroup creates the context for the skin identified by handle. root is
// the extension root directory, usually RootPath of the module file.
func NewGroup(handle uintptr, name string, window uintptr, root string) *Group {
	return &Group{
		id:     ulid.Make(),
		handle: handle,
		name:   name,
		window: window,
		path:   root,
		types:  make(map[string]*TypeContext),
	}
}

// RootPath strips the file name from modulePath and ascends one directory.
// An empty modulePath yields an empty root.
func RootPath(modulePath string) string {
	if modulePath == "" {
		return ""
	}
	return filepath.Dir(filepath.Dir(filepath.Clean(modulePath)))
}

// ID is the correlation id used in logs.
func (g *Group) ID() ulid.ULID { return g.id }

// Handle implements extension.Group.
func (g *Group) Handle() uintptr { return g.handle }

// Name implements extension.Group.
func (g *Group) Name() string { return g.name }

// Window implements extension.Group.
func (g *Group) Window() uintptr { return g.window }

// Path implements extension.Group.
func (g *Group) Path() string { return g.path }

// String renders the group as name[handle].
func (g *Group) String() string {
	return g.name + "[" + formatHandle(g.handle) + "]"
}

// GetOrCreateTypeContext returns the context registered under typeID,
// creating it with factory on first use. created reports whether factory ran
// and succeeded.
func (g *Group) GetOrCreateTypeContext(typeID string, factory func(*Group) (*TypeContext, error)) (tc *TypeContext, created bool, err error) {
	if tc, ok := g.types[typeID]; ok {
		return tc, false, nil
	}
	tc, err = factory(g)
	if err != nil {
		return nil, false, err
	}
	g.types[typeID] = tc
	g.refs++
	return tc, true, nil
}

// TypeContext returns the context registered under typeID.
func (g *Group) TypeContext(typeID string) (*TypeContext, bool) {
	tc, ok := g.types[typeID]
	return tc, ok
}

// TypeIDs returns the registered type identities, sorted.
func (g *Group) TypeIDs() []string {
	ids := make([]string, 0, len(g.types))
	for id := range g.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RemoveTypeContextIfEmpty unregisters the context for typeID when it holds
// no instances. The caller disposes the returned context.
func (g *Group) RemoveTypeContextIfEmpty(typeID string) (*TypeContext, bool) {
	tc, ok := g.types[typeID]
	if !ok || !tc.IsEmpty() {
		return nil, false
	}
	delete(g.types, typeID)
	g.refs--
	return tc, true
}

// IsEmpty reports whether the group owns no type contexts.
func (g *Group) IsEmpty() bool { return g.refs == 0 }

// Len returns the number of type contexts.
func (g *Group) Len() int { return g.refs }

// Disposed reports whether Dispose has run.
func (g *Group) Disposed() bool { return g.disposed }

// Dispose tears down whatever type contexts are still registered and marks
// the group dead. It is idempotent. Every context is disposed even if an
// earlier one fails.
func (g *Group) Dispose() error {
	if g.disposed {
		return nil
	}
	g.disposed = true

	var errs []error
	for _, id := range g.TypeIDs() {
		tc := g.types[id]
		delete(g.types, id)
		g.refs--
		errs = append(errs, tc.Dispose())
	}
	return errors.Join(errs...)
}
