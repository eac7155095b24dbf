// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package simulate

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/samber/oops"

	"github.com/holomush/rainmux/internal/bridge"
	"github.com/holomush/rainmux/internal/handle"
	"github.com/holomush/rainmux/pkg/rmapi/memapi"
)

// Result summarizes a run.
type Result struct {
	// Calls is the number of lifecycle calls made.
	Calls int
	// Live lists the measures still initialized when the run ended.
	Live []string
	// HostLog is everything the measures wrote to the host log.
	HostLog []memapi.Entry
}

// Runner plays scenarios against a bridge.
type Runner struct {
	bridge  *bridge.Bridge
	alloc   *bridge.GoAllocator
	out     io.Writer
	journal *memapi.Journal
}

// NewRunner creates a runner. alloc must be the allocator b was booted
// with; out receives one line per call.
func NewRunner(b *bridge.Bridge, alloc *bridge.GoAllocator, out io.Writer) *Runner {
	return &Runner{bridge: b, alloc: alloc, out: out, journal: memapi.NewJournal()}
}

// Journal is the host log shared by every simulated measure.
func (r *Runner) Journal() *memapi.Journal { return r.journal }

type measureState struct {
	api      *memapi.API
	handle   uintptr
	maxValue float64
}

// Run executes the scenario's steps in order. It stops early, with the
// context's error, if ctx is canceled between calls.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (Result, error) {
	skins := make(map[string]memapi.Skin, len(sc.Skins))
	for _, s := range sc.Skins {
		skins[s.Name] = memapi.Skin{Handle: s.Handle, Name: s.Name, Window: s.Window, Dir: s.Dir}
	}
	states := make(map[string]*measureState, len(sc.Measures))
	order := make([]string, 0, len(sc.Measures))
	for _, m := range sc.Measures {
		states[m.Name] = &measureState{
			api: memapi.New(skins[m.Skin], m.Name, m.Options,
				memapi.WithJournal(r.journal),
				memapi.WithSettingsFile(sc.Settings)),
		}
		order = append(order, m.Name)
	}

	var res Result
	seen := 0
	for i, st := range sc.Steps {
		times := max(st.Repeat, 1)
		for range times {
			if err := ctx.Err(); err != nil {
				return res, oops.With("step", i+1).Wrap(err)
			}
			r.step(st, states[st.Measure])
			res.Calls++
			seen = r.flushLog(seen)
		}
	}

	for _, name := range order {
		if states[name].handle != 0 {
			res.Live = append(res.Live, name)
		}
	}
	res.HostLog = r.journal.Entries()
	return res, nil
}

func (r *Runner) step(st Step, m *measureState) {
	switch st.Op {
	case OpInitialize:
		r.bridge.Initialize(&m.handle, m.api)
		if m.handle == 0 {
			r.printf("%s %s: not initialized", st.Op, st.Measure)
			return
		}
		r.printf("%s %s: handle %s", st.Op, st.Measure, handle.Handle(m.handle))
	case OpReload:
		r.bridge.Reload(m.handle, m.api, &m.maxValue)
		r.printf("%s %s: max %s", st.Op, st.Measure, formatNumber(m.maxValue))
	case OpUpdate:
		r.printf("%s %s: %s", st.Op, st.Measure, formatNumber(r.bridge.Update(m.handle)))
	case OpString:
		p := r.bridge.GetString(m.handle)
		if s, ok := r.alloc.String(p); ok {
			r.printf("%s %s: %q", st.Op, st.Measure, s)
			return
		}
		r.printf("%s %s: none", st.Op, st.Measure)
	case OpBang:
		r.bridge.ExecuteBang(m.handle, st.Command)
		r.printf("%s %s: %s", st.Op, st.Measure, st.Command)
	case OpSet:
		m.api.Set(st.Option, st.Value)
		r.printf("%s %s: %s=%s", st.Op, st.Measure, st.Option, st.Value)
	case OpFinalize:
		r.bridge.Finalize(m.handle)
		m.handle = 0
		r.printf("%s %s", st.Op, st.Measure)
	}
}

// flushLog prints host log lines recorded since seen and returns the new
// count.
func (r *Runner) flushLog(seen int) int {
	entries := r.journal.Entries()
	for _, e := range entries[seen:] {
		r.printf("  [%s] %s", e.Level, e.Message)
	}
	return len(entries)
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format+"\n", args...)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
