// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package handle implements the opaque instance handles handed to the host.
//
// A Handle packs a slot index and a slot generation into one machine word:
//
//	high half: generation (never 0 for a live handle)
//	low half:  slot index + 1
//
// Handle 0 is the sentinel and never refers to a value. Removing a value
// bumps the slot generation, so a stale handle never resolves to the value
// that reuses its slot. A slot whose generation would wrap is retired instead
// of reused, which keeps every handle value unique for the process lifetime.
package handle

import (
	"errors"
	"fmt"
	"math/bits"
)

// Handle is an opaque, address-sized instance identifier.
type Handle uintptr

// Sentinel is the reserved "no instance" handle.
const Sentinel Handle = 0

const (
	halfBits = bits.UintSize / 2
	halfMask = uintptr(1)<<halfBits - 1

	maxGeneration = uint32(halfMask)

	// maxSlots keeps index+1 representable in the low half.
	maxSlots = int(halfMask)
)

// ErrExhausted is returned by Insert when every slot is live or retired.
var ErrExhausted = errors.New("handle space exhausted")

// IsSentinel reports whether h is the reserved empty handle.
func (h Handle) IsSentinel() bool { return h == Sentinel }

func (h Handle) index() (int, bool) {
	low := uintptr(h) & halfMask
	if low == 0 {
		return 0, false
	}
	return int(low - 1), true
}

func (h Handle) generation() uint32 {
	return uint32(uintptr(h) >> halfBits)
}

// String renders the handle as slot/generation for logs.
func (h Handle) String() string {
	if h.IsSentinel() {
		return "sentinel"
	}
	idx, _ := h.index()
	return fmt.Sprintf("%d/%d", idx, h.generation())
}

func makeHandle(index int, generation uint32) Handle {
	return Handle(uintptr(generation)<<halfBits | uintptr(index+1))
}

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// Table is a generation-tagged slot map. It is not safe for concurrent use;
// callers serialize access.
type Table[T any] struct {
	slots []slot[T]
	free  []int
	live  int
	limit int
}

// TableOption configures a Table.
type TableOption func(*tableConfig)

type tableConfig struct {
	limit int
}

// WithLimit caps the number of slots. Mostly useful in tests.
func WithLimit(n int) TableOption {
	return func(c *tableConfig) {
		if n > 0 && n < maxSlots {
			c.limit = n
		}
	}
}

// NewTable creates an empty table.
func NewTable[T any](opts ...TableOption) *Table[T] {
	cfg := tableConfig{limit: maxSlots}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Table[T]{
		slots: make([]slot[T], 0, 64),
		free:  make([]int, 0, 16),
		limit: cfg.limit,
	}
}

// Insert stores v and returns a fresh handle for it.
func (t *Table[T]) Insert(v T) (Handle, error) {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.value = v
		s.live = true
		t.live++
		return makeHandle(idx, s.generation), nil
	}

	if len(t.slots) >= t.limit {
		return Sentinel, ErrExhausted
	}

	idx := len(t.slots)
	t.slots = append(t.slots, slot[T]{value: v, generation: 1, live: true})
	t.live++
	return makeHandle(idx, 1), nil
}

func (t *Table[T]) lookup(h Handle) (*slot[T], int, bool) {
	idx, ok := h.index()
	if !ok || idx >= len(t.slots) {
		return nil, 0, false
	}
	s := &t.slots[idx]
	if !s.live || s.generation != h.generation() {
		return nil, 0, false
	}
	return s, idx, true
}

// Get returns the value stored under h.
func (t *Table[T]) Get(h Handle) (T, bool) {
	s, _, ok := t.lookup(h)
	if !ok {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Contains reports whether h is live.
func (t *Table[T]) Contains(h Handle) bool {
	_, _, ok := t.lookup(h)
	return ok
}

// Remove drops h and returns the value it held.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	var zero T
	s, idx, ok := t.lookup(h)
	if !ok {
		return zero, false
	}

	v := s.value
	s.value = zero
	s.live = false
	t.live--

	if s.generation == maxGeneration {
		return v, true
	}
	s.generation++
	t.free = append(t.free, idx)
	return v, true
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int { return t.live }

// Each calls fn for every live handle until fn returns false.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.live {
			continue
		}
		if !fn(makeHandle(i, s.generation), s.value) {
			return
		}
	}
}
