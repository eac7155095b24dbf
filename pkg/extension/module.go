// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package extension

import (
	"sort"
	"strings"
	"sync"
)

// DefaultAPIVersion is the SDK API version a module declares unless it says
// otherwise.
const DefaultAPIVersion = "1.0.0"

// Module is a named registration table of Skin and Measure factories.
// It is safe for concurrent use.
type Module struct {
	name       string
	apiVersion string

	mu       sync.RWMutex
	skins    map[string]SkinFactory
	measures map[string]MeasureFactory
}

// ModuleOption configures a Module.
type ModuleOption func(*Module)

// WithAPIVersion declares the SDK API version the module was built against.
func WithAPIVersion(version string) ModuleOption {
	return func(m *Module) {
		m.apiVersion = version
	}
}

// NewModule creates an empty module.
func NewModule(name string, opts ...ModuleOption) *Module {
	m := &Module{
		name:       name,
		apiVersion: DefaultAPIVersion,
		skins:      make(map[string]SkinFactory),
		measures:   make(map[string]MeasureFactory),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// APIVersion returns the declared SDK API version.
func (m *Module) APIVersion() string { return m.apiVersion }

// RegisterSkin adds a group-behavior type. typeName must end in "Skin" and
// must not already be registered.
func (m *Module) RegisterSkin(typeName string, f SkinFactory) error {
	if err := m.checkTypeName(typeName, SkinSuffix); err != nil {
		return err
	}
	if f == nil {
		return ErrNilFactory(m.name, typeName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.skins[typeName]; exists {
		return ErrDuplicateType(m.name, typeName)
	}
	m.skins[typeName] = f
	return nil
}

// RegisterMeasure adds an instance-behavior type. typeName must end in
// "Measure" and must not already be registered.
func (m *Module) RegisterMeasure(typeName string, f MeasureFactory) error {
	if err := m.checkTypeName(typeName, MeasureSuffix); err != nil {
		return err
	}
	if f == nil {
		return ErrNilFactory(m.name, typeName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.measures[typeName]; exists {
		return ErrDuplicateType(m.name, typeName)
	}
	m.measures[typeName] = f
	return nil
}

// Register adds the NameSkin/NameMeasure pair.
func (m *Module) Register(name string, skin SkinFactory, measure MeasureFactory) error {
	if err := m.RegisterSkin(name+SkinSuffix, skin); err != nil {
		return err
	}
	return m.RegisterMeasure(name+MeasureSuffix, measure)
}

// MustRegister is Register that panics on error. Intended for init().
func (m *Module) MustRegister(name string, skin SkinFactory, measure MeasureFactory) {
	if err := m.Register(name, skin, measure); err != nil {
		panic(err)
	}
}

// SkinTypes returns the registered group-behavior type names, sorted.
func (m *Module) SkinTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.skins)
}

// MeasureTypes returns the registered instance-behavior type names, sorted.
func (m *Module) MeasureTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.measures)
}

// Skin returns the factory registered under the exact type name.
func (m *Module) Skin(typeName string) (SkinFactory, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.skins[typeName]
	return f, ok
}

// Measure returns the factory registered under the exact type name.
func (m *Module) Measure(typeName string) (MeasureFactory, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.measures[typeName]
	return f, ok
}

func (m *Module) checkTypeName(typeName, suffix string) error {
	if len(typeName) <= len(suffix) || !strings.EqualFold(typeName[len(typeName)-len(suffix):], suffix) {
		return ErrInvalidTypeName(m.name, typeName, suffix)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
