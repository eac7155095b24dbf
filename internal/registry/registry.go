// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package registry is the process-wide map from instance handles to the
// group, type context and instance they belong to.
package registry

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/holomush/rainmux/internal/handle"
	"github.com/holomush/rainmux/internal/skin"
	"github.com/holomush/rainmux/pkg/errutil"
	"github.com/holomush/rainmux/pkg/extension"
)

// AttachSpec describes one instance to register.
type AttachSpec struct {
	GroupHandle uintptr
	GroupName   string
	Window      uintptr
	// Root is the extension root path of a group created by this attach.
	Root string

	// TypeID is the behavior type identity the instance belongs to.
	TypeID string
	// NewSkin builds the group-behavior object when TypeID is new to the
	// group.
	NewSkin func(g *skin.Group) (extension.Skin, error)

	MeasureName string
	MeasureType string
	NewMeasure  func(owner *skin.TypeContext) (extension.Measure, error)
}

// Entry is the result of a lookup. The zero Entry stands for the sentinel.
type Entry struct {
	Handle   handle.Handle
	Group    *skin.Group
	Type     *skin.TypeContext
	Instance *skin.Instance
}

// Empty reports whether e is the sentinel entry.
func (e Entry) Empty() bool { return e.Instance == nil }

// Teardown lists what a Detach took out of the registry, bottom-up. Type
// and Group are nil when they still own other entries.
type Teardown struct {
	Instance *skin.Instance
	Type     *skin.TypeContext
	Group    *skin.Group
}

// Run disposes the instance, then the type context, then the group. Every
// step runs even if an earlier one fails.
func (t Teardown) Run() error {
	var errs []error
	if t.Instance != nil {
		errs = append(errs, t.Instance.Dispose())
	}
	if t.Type != nil {
		errs = append(errs, t.Type.Dispose())
	}
	if t.Group != nil {
		errs = append(errs, t.Group.Dispose())
	}
	return errors.Join(errs...)
}

// Stats counts live entries at each level.
type Stats struct {
	Groups    int
	Types     int
	Instances int
}

// Registry owns every group and every live instance handle. All methods
// serialize on one lock, which is never held while extension code runs.
type Registry struct {
	mu        sync.Mutex
	groups    map[uintptr]*skin.Group
	instances *handle.Table[*skin.Instance]
	logger    *slog.Logger

	// Attaches in flight, per group and per group type identity.
	pendingGroups map[uintptr]int
	pendingTypes  map[typeKey]int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for lifecycle debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithHandleLimit caps the number of instance slots.
func WithHandleLimit(n int) Option {
	return func(r *Registry) {
		r.instances = handle.NewTable[*skin.Instance](handle.WithLimit(n))
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		groups:        make(map[uintptr]*skin.Group),
		instances:     handle.NewTable[*skin.Instance](),
		logger:        slog.Default(),
		pendingGroups: make(map[uintptr]int),
		pendingTypes:  make(map[typeKey]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach registers a new instance. Groups and type contexts are created on
// first use. When construction fails nothing created by this call stays
// registered.
//
// The constructors run with the lock released, so extension code may call
// back into the registry (through the host) while it is being built. The
// group and type context it builds against are reserved for the duration and
// cannot be removed by a concurrent Detach.
func (r *Registry) Attach(spec AttachSpec) (Entry, error) {
	switch {
	case spec.TypeID == "":
		return Entry{}, ErrIncompleteSpec("type id")
	case spec.NewSkin == nil:
		return Entry{}, ErrIncompleteSpec("skin constructor")
	case spec.NewMeasure == nil:
		return Entry{}, ErrIncompleteSpec("measure constructor")
	}

	r.mu.Lock()
	g, groupCreated := r.getOrCreateGroup(spec.GroupHandle, spec.GroupName, spec.Window, spec.Root)
	res := r.reserve(g, spec.TypeID)
	tc, _ := g.TypeContext(spec.TypeID)
	r.mu.Unlock()

	typeCreated := false
	if tc == nil {
		s, err := spec.NewSkin(g)
		if err != nil {
			return Entry{}, r.abandon(err, res)
		}
		r.mu.Lock()
		tc, typeCreated, _ = g.GetOrCreateTypeContext(spec.TypeID, func(g *skin.Group) (*skin.TypeContext, error) {
			return skin.NewTypeContext(g, spec.TypeID, s), nil
		})
		r.mu.Unlock()
		if !typeCreated {
			// Built concurrently by another attach; ours is surplus.
			_ = errutil.Guard("skin dispose", s.Dispose)
		}
	}

	m, err := spec.NewMeasure(tc)
	if err != nil {
		return Entry{}, r.abandon(err, res)
	}

	r.mu.Lock()
	inst := skin.NewInstance(tc, spec.MeasureName, spec.MeasureType, m)
	h, err := r.instances.Insert(inst)
	if err == nil {
		err = tc.Add(h, inst)
		if err != nil {
			r.instances.Remove(h)
		}
	} else {
		err = ErrHandleSpaceExhausted(err)
	}
	if err != nil {
		td := r.release(res)
		r.mu.Unlock()
		return Entry{}, joinTeardown(err, Teardown{Instance: inst, Type: td.Type, Group: td.Group})
	}
	r.release(res)
	r.mu.Unlock()

	r.logger.Debug("instance attached",
		"handle", h.String(),
		"instance_id", inst.ID().String(),
		"group", g.String(),
		"type", spec.TypeID,
		"group_created", groupCreated,
		"type_created", typeCreated)
	return Entry{Handle: h, Group: g, Type: tc, Instance: inst}, nil
}

// reservation pins a group and one of its type identities while an Attach
// runs extension constructors outside the lock.
type reservation struct {
	group  *skin.Group
	typeID string
}

type typeKey struct {
	group  uintptr
	typeID string
}

// reserve must be called with r.mu held.
func (r *Registry) reserve(g *skin.Group, typeID string) reservation {
	r.pendingGroups[g.Handle()]++
	r.pendingTypes[typeKey{g.Handle(), typeID}]++
	return reservation{group: g, typeID: typeID}
}

// release drops res and unregisters the type context and group when they
// were left empty. It must be called with r.mu held; the caller disposes
// what the returned Teardown lists after unlocking.
func (r *Registry) release(res reservation) Teardown {
	gh := res.group.Handle()
	key := typeKey{gh, res.typeID}
	if r.pendingTypes[key]--; r.pendingTypes[key] == 0 {
		delete(r.pendingTypes, key)
	}
	if r.pendingGroups[gh]--; r.pendingGroups[gh] == 0 {
		delete(r.pendingGroups, gh)
	}

	var td Teardown
	if removed, ok := r.removeTypeIfUnused(res.group, res.typeID); ok {
		td.Type = removed
	}
	if removed, ok := r.removeGroupIfEmpty(gh); ok {
		td.Group = removed
	}
	return td
}

// abandon releases res after a failed construction and disposes whatever
// that left empty. It returns cause joined with any disposal failure.
func (r *Registry) abandon(cause error, res reservation) error {
	r.mu.Lock()
	td := r.release(res)
	r.mu.Unlock()
	return joinTeardown(cause, td)
}

func joinTeardown(cause error, td Teardown) error {
	if err := td.Run(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// removeTypeIfUnused unregisters the context for typeID when it holds no
// instances and no Attach is building against it.
func (r *Registry) removeTypeIfUnused(g *skin.Group, typeID string) (*skin.TypeContext, bool) {
	if r.pendingTypes[typeKey{g.Handle(), typeID}] > 0 {
		return nil, false
	}
	return g.RemoveTypeContextIfEmpty(typeID)
}

// Resolve looks up h. The sentinel yields the zero Entry. A handle that was
// never issued, or was already released, is an invariant violation.
func (r *Registry) Resolve(h handle.Handle) (Entry, error) {
	if h.IsSentinel() {
		return Entry{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances.Get(h)
	if !ok {
		return Entry{}, ErrUnknownHandle("resolve", h)
	}
	tc := inst.Owner()
	return Entry{Handle: h, Group: tc.Group(), Type: tc, Instance: inst}, nil
}

// Detach releases h and unregisters any type context and group left empty.
// Nothing is disposed here; the caller runs the returned Teardown.
// Detaching the sentinel is a no-op. Detaching an unknown handle is an
// invariant violation.
func (r *Registry) Detach(h handle.Handle) (Teardown, error) {
	if h.IsSentinel() {
		return Teardown{}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.instances.Remove(h)
	if !ok {
		return Teardown{}, ErrUnknownHandle("detach", h)
	}

	td := Teardown{Instance: inst}
	tc := inst.Owner()
	tc.Remove(h)
	g := tc.Group()
	if removed, ok := r.removeTypeIfUnused(g, tc.TypeID()); ok {
		td.Type = removed
	}
	if removed, ok := r.removeGroupIfEmpty(g.Handle()); ok {
		td.Group = removed
	}

	r.logger.Debug("instance detached",
		"handle", h.String(),
		"instance_id", inst.ID().String(),
		"group", g.String(),
		"type_removed", td.Type != nil,
		"group_removed", td.Group != nil)
	return td, nil
}

// GetOrCreateGroup returns the group for gh, creating it when absent.
func (r *Registry) GetOrCreateGroup(gh uintptr, name string, window uintptr, root string) (*skin.Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateGroup(gh, name, window, root)
}

func (r *Registry) getOrCreateGroup(gh uintptr, name string, window uintptr, root string) (*skin.Group, bool) {
	if g, ok := r.groups[gh]; ok {
		return g, false
	}
	g := skin.NewGroup(gh, name, window, root)
	r.groups[gh] = g
	r.logger.Debug("group created", "group", g.String(), "group_id", g.ID().String(), "path", g.Path())
	return g, true
}

// RemoveGroupIfEmpty unregisters the group for gh when it owns no type
// contexts and no Attach is building in it. The caller disposes the returned group.
func (r *Registry) RemoveGroupIfEmpty(gh uintptr) (*skin.Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeGroupIfEmpty(gh)
}

func (r *Registry) removeGroupIfEmpty(gh uintptr) (*skin.Group, bool) {
	g, ok := r.groups[gh]
	if !ok || !g.IsEmpty() || r.pendingGroups[gh] > 0 {
		return nil, false
	}
	delete(r.groups, gh)
	return g, true
}

// Group returns the group registered for gh.
func (r *Registry) Group(gh uintptr) (*skin.Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[gh]
	return g, ok
}

// Groups returns the registered groups ordered by handle.
func (r *Registry) Groups() []*skin.Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*skin.Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle() < out[j].Handle() })
	return out
}

// Handles returns every live instance handle.
func (r *Registry) Handles() []handle.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]handle.Handle, 0, r.instances.Len())
	r.instances.Each(func(h handle.Handle, _ *skin.Instance) bool {
		out = append(out, h)
		return true
	})
	return out
}

// Stats counts live groups, type contexts and instances.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Stats{Groups: len(r.groups), Instances: r.instances.Len()}
	for _, g := range r.groups {
		s.Types += g.Len()
	}
	return s
}
