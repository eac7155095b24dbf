// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package extensiontest provides recording Skin and Measure doubles.
package extensiontest

import (
	"errors"
	"sync"

	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/rmapi"
)

// Compile-time interface checks.
var (
	_ extension.Skin    = (*Skin)(nil)
	_ extension.Measure = (*Measure)(nil)
)

// Journal is shared by every double built from one Module so tests can
// check disposal order across levels.
type Journal struct {
	mu     sync.Mutex
	events []string
}

func (j *Journal) record(event string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
}

// Events returns the recorded events in order.
func (j *Journal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.events))
	copy(out, j.events)
	return out
}

// Skin is a recording extension.Skin.
type Skin struct {
	Group          extension.Group
	Journal        *Journal
	PanicOnDispose bool

	mu       sync.Mutex
	disposed int
}

// Dispose implements extension.Skin.
func (s *Skin) Dispose() {
	s.mu.Lock()
	s.disposed++
	s.mu.Unlock()
	s.Journal.record("skin.dispose:" + s.Group.Name())
	if s.PanicOnDispose {
		panic("skin dispose failed")
	}
}

// Disposals returns how many times Dispose ran.
func (s *Skin) Disposals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Measure is a recording extension.Measure.
type Measure struct {
	extension.Base

	MeasureType string
	Journal     *Journal

	mu             sync.Mutex
	value          float64
	text           string
	hasText        bool
	bangs          []string
	reloads        int
	disposed       int
	maxValue       float64
	panicOnUpdate  bool
	panicOnDispose bool
}

// SetValue sets the numeric value Update returns.
func (m *Measure) SetValue(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
}

// SetString sets the string value; ok=false makes GetString report absence.
func (m *Measure) SetString(s string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.hasText = s, ok
}

// SetMaxValue makes Reload rewrite the host bound to v. Zero leaves it alone.
func (m *Measure) SetMaxValue(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxValue = v
}

// PanicOnUpdate makes Update panic.
func (m *Measure) PanicOnUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicOnUpdate = true
}

// PanicOnDispose makes Dispose panic after recording.
func (m *Measure) PanicOnDispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicOnDispose = true
}

// Reload implements extension.Measure.
func (m *Measure) Reload(_ rmapi.API, maxValue *float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
	if m.maxValue != 0 && maxValue != nil {
		*maxValue = m.maxValue
	}
}

// Update implements extension.Measure.
func (m *Measure) Update() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOnUpdate {
		panic("update failed")
	}
	return m.value
}

// GetString implements extension.Measure.
func (m *Measure) GetString() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, m.hasText
}

// ExecuteBang implements extension.Measure.
func (m *Measure) ExecuteBang(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bangs = append(m.bangs, command)
}

// Dispose implements extension.Measure.
func (m *Measure) Dispose() {
	m.mu.Lock()
	m.disposed++
	shouldPanic := m.panicOnDispose
	m.mu.Unlock()
	m.Journal.record("measure.dispose:" + m.Name())
	if shouldPanic {
		panic("measure dispose failed")
	}
}

// Reloads returns how many times Reload ran.
func (m *Measure) Reloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloads
}

// Bangs returns the commands received.
func (m *Measure) Bangs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.bangs))
	copy(out, m.bangs)
	return out
}

// Disposals returns how many times Dispose ran.
func (m *Measure) Disposals() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

// ErrRefused is returned by factories configured to fail.
var ErrRefused = errors.New("constructor refused")

// Factory builds doubles and remembers every object it built.
type Factory struct {
	Journal *Journal

	mu            sync.Mutex
	skins         []*Skin
	measures      []*Measure
	failSkin      bool
	failMeasure   bool
	panicMeasure  bool
	skinOnDispose bool
}

// NewFactory creates a factory with a fresh journal.
func NewFactory() *Factory {
	return &Factory{Journal: &Journal{}}
}

// FailSkin makes the skin constructor return ErrRefused.
func (f *Factory) FailSkin() { f.mu.Lock(); f.failSkin = true; f.mu.Unlock() }

// FailMeasure makes the measure constructor return ErrRefused.
func (f *Factory) FailMeasure() { f.mu.Lock(); f.failMeasure = true; f.mu.Unlock() }

// PanicMeasure makes the measure constructor panic.
func (f *Factory) PanicMeasure() { f.mu.Lock(); f.panicMeasure = true; f.mu.Unlock() }

// PanicSkinDispose makes skins built from now on panic in Dispose.
func (f *Factory) PanicSkinDispose() { f.mu.Lock(); f.skinOnDispose = true; f.mu.Unlock() }

// NewSkin is an extension.SkinFactory.
func (f *Factory) NewSkin(group extension.Group, _ rmapi.API) (extension.Skin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSkin {
		return nil, ErrRefused
	}
	s := &Skin{Group: group, Journal: f.Journal, PanicOnDispose: f.skinOnDispose}
	f.skins = append(f.skins, s)
	return s, nil
}

// NewMeasure is an extension.MeasureFactory.
func (f *Factory) NewMeasure(measureType string, owner extension.Owner, api rmapi.API) (extension.Measure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicMeasure {
		panic("measure constructor exploded")
	}
	if f.failMeasure {
		return nil, ErrRefused
	}
	m := &Measure{
		Base:        extension.NewBase(owner, api),
		MeasureType: measureType,
		Journal:     f.Journal,
	}
	f.measures = append(f.measures, m)
	return m, nil
}

// Skins returns every skin built so far.
func (f *Factory) Skins() []*Skin {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Skin(nil), f.skins...)
}

// Measures returns every measure built so far.
func (f *Factory) Measures() []*Measure {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Measure(nil), f.measures...)
}

// LastMeasure returns the most recently built measure, or nil.
func (f *Factory) LastMeasure() *Measure {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.measures) == 0 {
		return nil
	}
	return f.measures[len(f.measures)-1]
}

// Module returns a module named name with the pair <typeName>Skin and
// <typeName>Measure built by f.
func (f *Factory) Module(name, typeName string, opts ...extension.ModuleOption) *extension.Module {
	m := extension.NewModule(name, opts...)
	m.MustRegister(typeName, f.NewSkin, f.NewMeasure)
	return m
}
