// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memapi provides an in-memory host for rainmux.
//
// It backs the simulator in cmd/rainmux and the tests of every package that
// needs a host. Options are plain strings; numeric options are parsed with
// strconv rather than evaluated as host formulas.
package memapi

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/holomush/rainmux/pkg/rmapi"
)

// Compile-time interface checks.
var (
	_ rmapi.API    = (*API)(nil)
	_ rmapi.Logger = (*Journal)(nil)
)

// Entry is one recorded host log line.
type Entry struct {
	Level   rmapi.LogLevel
	Message string
}

// Journal records host log lines. It is safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Log implements rmapi.Logger.
func (j *Journal) Log(level rmapi.LogLevel, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, Entry{Level: level, Message: message})
}

// Entries returns a copy of the recorded lines.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Matching returns the recorded lines at level whose message contains substr.
func (j *Journal) Matching(level rmapi.LogLevel, substr string) []Entry {
	var out []Entry
	for _, e := range j.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded lines.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}

// Skin describes the skin a measure belongs to.
type Skin struct {
	Handle uintptr
	Name   string
	Window uintptr
	// Dir is the skin directory used to absolutize relative paths.
	Dir string
}

// API is an in-memory rmapi.API for one measure.
type API struct {
	skin     Skin
	measure  string
	settings string
	journal  *Journal

	mu       sync.Mutex
	options  map[string]string
	executed []string
	executor func(command string)
}

// Option configures an API.
type Option func(*API)

// WithSettingsFile sets the path reported by SettingsFile.
func WithSettingsFile(path string) Option {
	return func(a *API) {
		a.settings = path
	}
}

// WithJournal routes Log calls to journal instead of a private one.
func WithJournal(journal *Journal) Option {
	return func(a *API) {
		a.journal = journal
	}
}

// WithExecutor runs fn synchronously for every Execute call, as the real
// host runs bangs before RmExecute returns.
func WithExecutor(fn func(command string)) Option {
	return func(a *API) {
		a.executor = fn
	}
}

// New creates an API for the measure named measure inside skin.
// The options map is copied.
func New(skin Skin, measure string, options map[string]string, opts ...Option) *API {
	a := &API{
		skin:    skin,
		measure: measure,
		options: make(map[string]string, len(options)),
	}
	for k, v := range options {
		a.options[k] = v
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.journal == nil {
		a.journal = NewJournal()
	}
	return a
}

// Set changes an option, as a host refresh with edited settings would.
func (a *API) Set(option, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.options[option] = value
}

// Journal returns the journal this API logs to.
func (a *API) Journal() *Journal {
	return a.journal
}

// Executed returns the commands passed to Execute, in order.
func (a *API) Executed() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.executed))
	copy(out, a.executed)
	return out
}

func (a *API) lookup(option string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range a.options {
		// Host option names are case-insensitive.
		if strings.EqualFold(k, option) {
			return v, true
		}
	}
	return "", false
}

// Log implements rmapi.Logger.
func (a *API) Log(level rmapi.LogLevel, message string) {
	a.journal.Log(level, message)
}

// ReadString implements rmapi.API.
func (a *API) ReadString(option, def string, replaceMeasures bool) string {
	v, ok := a.lookup(option)
	if !ok {
		return def
	}
	return a.ReplaceVariables(v)
}

// ReadPath implements rmapi.API.
func (a *API) ReadPath(option, def string) string {
	v := a.ReadString(option, def, true)
	if v == "" || filepath.IsAbs(v) || a.skin.Dir == "" {
		return v
	}
	return filepath.Join(a.skin.Dir, v)
}

// ReadDouble implements rmapi.API.
func (a *API) ReadDouble(option string, def float64) float64 {
	v, ok := a.lookup(option)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// ReadInt implements rmapi.API.
func (a *API) ReadInt(option string, def int) int {
	return int(a.ReadDouble(option, float64(def)))
}

// ReplaceVariables implements rmapi.API. Only #CURRENTCONFIG# and #SKINSDIR#
// style variables known to the fake are expanded.
func (a *API) ReplaceVariables(s string) string {
	r := strings.NewReplacer(
		"#CURRENTCONFIG#", a.skin.Name,
		"#CURRENTPATH#", a.skin.Dir,
	)
	return r.Replace(s)
}

// MeasureName implements rmapi.API.
func (a *API) MeasureName() string { return a.measure }

// Skin implements rmapi.API.
func (a *API) Skin() uintptr { return a.skin.Handle }

// SkinName implements rmapi.API.
func (a *API) SkinName() string { return a.skin.Name }

// SkinWindow implements rmapi.API.
func (a *API) SkinWindow() uintptr { return a.skin.Window }

// SettingsFile implements rmapi.API.
func (a *API) SettingsFile() string { return a.settings }

// Execute implements rmapi.API.
func (a *API) Execute(command string) {
	a.mu.Lock()
	a.executed = append(a.executed, command)
	exec := a.executor
	a.mu.Unlock()
	if exec != nil {
		exec(command)
	}
}
