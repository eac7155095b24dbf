// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package clock is a builtin extension module. Importing it publishes
// builtin:clock with the Clock type pair.
//
// PluginMeasureType selects what a measure reports:
//
//	Seconds  seconds elapsed in the current minute
//	Uptime   seconds since the skin first loaded a clock measure
//	Text     the current time formatted with the Format option
//
// All measures of one skin share the skin's start time; "Reset" on any
// Uptime measure restarts it for all of them.
package clock

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/rmapi"
)

// ModuleName is the builtin name; reference it as builtin:clock.
const ModuleName = "clock"

// DefaultFormat is the Go time layout Text measures use without a Format
// option.
const DefaultFormat = "15:04:05"

// now is replaced in tests.
var now = time.Now

func init() {
	extension.RegisterBuiltin(Module())
}

// Module builds the clock module.
func Module() *extension.Module {
	m := extension.NewModule(ModuleName)
	m.MustRegister("Clock", NewSkin, NewMeasure)
	return m
}

// Skin is the per-skin state shared by clock measures.
type Skin struct {
	ID    ulid.ULID
	group extension.Group

	mu      sync.Mutex
	started time.Time
}

// NewSkin is the ClockSkin factory.
func NewSkin(group extension.Group, _ rmapi.API) (extension.Skin, error) {
	return &Skin{ID: ulid.Make(), group: group, started: now()}, nil
}

// Uptime is the time since the skin started or was last reset.
func (s *Skin) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now().Sub(s.started)
}

// Reset restarts the uptime.
func (s *Skin) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = now()
}

// Dispose implements extension.Skin.
func (s *Skin) Dispose() {}

type kind int

const (
	kindSeconds kind = iota
	kindUptime
	kindText
)

var kinds = map[string]kind{
	"Seconds": kindSeconds,
	"Uptime":  kindUptime,
	"Text":    kindText,
}

// Measure is one clock measure.
type Measure struct {
	extension.Base
	kind   kind
	skin   *Skin
	api    rmapi.API
	format string
}

// NewMeasure is the ClockMeasure factory. A blank measureType means Seconds;
// an unknown one is logged and falls back to Seconds.
func NewMeasure(measureType string, owner extension.Owner, api rmapi.API) (extension.Measure, error) {
	s, ok := owner.Skin().(*Skin)
	if !ok {
		return nil, oops.With("skin_type", fmt.Sprintf("%T", owner.Skin())).Errorf("clock measure needs a clock skin")
	}
	k := kindSeconds
	if measureType != "" {
		k, _ = extension.SelectType(measureType, kinds, api)
	}
	return &Measure{
		Base:   extension.NewBase(owner, api),
		kind:   k,
		skin:   s,
		api:    api,
		format: DefaultFormat,
	}, nil
}

// Reload implements extension.Measure.
func (m *Measure) Reload(api rmapi.API, maxValue *float64) {
	m.api = api
	m.format = api.ReadString("Format", DefaultFormat, false)
	if m.kind == kindSeconds {
		*maxValue = 59
	}
}

// Update implements extension.Measure.
func (m *Measure) Update() float64 {
	switch m.kind {
	case kindUptime:
		return m.skin.Uptime().Truncate(time.Second).Seconds()
	case kindText:
		return 0
	default:
		return float64(now().Second())
	}
}

// GetString implements extension.Measure. Only Text measures have a string.
func (m *Measure) GetString() (string, bool) {
	if m.kind != kindText {
		return "", false
	}
	return now().Format(m.format), true
}

// ExecuteBang implements extension.Measure.
func (m *Measure) ExecuteBang(command string) {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "reset":
		if m.kind == kindUptime {
			m.skin.Reset()
			return
		}
	}
	m.api.Log(rmapi.LogWarning, fmt.Sprintf("%s: unknown command %q", m.Name(), command))
}

// Dispose implements extension.Measure.
func (m *Measure) Dispose() {}
