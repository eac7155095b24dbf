// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package bridge translates the host's raw entry points into dispatcher
// calls. It owns the string buffer returned to the host and recovers every
// panic so that nothing unwinds across the boundary.
package bridge

import (
	"context"
	"log/slog"
	"unsafe"

	"github.com/holomush/rainmux/internal/dispatch"
	"github.com/holomush/rainmux/internal/handle"
	"github.com/holomush/rainmux/pkg/errutil"
	"github.com/holomush/rainmux/pkg/rmapi"
)

// Bridge is the boundary facade.
type Bridge struct {
	dispatcher *dispatch.Dispatcher
	buffer     *StringBuffer
	logger     *slog.Logger
}

// Option configures a Bridge during construction.
type Option func(*Bridge)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// New creates a bridge over d that returns strings through alloc.
func New(d *dispatch.Dispatcher, alloc Allocator, opts ...Option) *Bridge {
	b := &Bridge{
		dispatcher: d,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.buffer = NewStringBuffer(alloc, b.logger)
	return b
}

// Dispatcher returns the dispatcher the bridge drives.
func (b *Bridge) Dispatcher() *dispatch.Dispatcher { return b.dispatcher }

// recover logs a panic that escaped the dispatcher.
func (b *Bridge) recover(op string) {
	if r := recover(); r != nil {
		b.logger.Error("entry point panicked", "operation", op, "panic", r)
	}
}

// Initialize creates the measure api describes and stores its handle in
// slot. The slot holds the sentinel if creation fails.
func (b *Bridge) Initialize(slot *uintptr, api rmapi.API) {
	defer b.recover(dispatch.OpInitialize)
	if slot == nil {
		b.logger.Error("initialize called without a handle slot")
		return
	}
	*slot = uintptr(handle.Sentinel)
	*slot = uintptr(b.dispatcher.Initialize(context.Background(), api))
}

// Reload forwards to the measure behind h.
func (b *Bridge) Reload(h uintptr, api rmapi.API, maxValue *float64) {
	defer b.recover(dispatch.OpReload)
	if maxValue == nil {
		var discard float64
		maxValue = &discard
	}
	b.dispatcher.Reload(context.Background(), handle.Handle(h), api, maxValue)
}

// Update returns the measure's numeric value, 0 on any failure.
func (b *Bridge) Update(h uintptr) (value float64) {
	defer b.recover(dispatch.OpUpdate)
	return b.dispatcher.Update(context.Background(), handle.Handle(h))
}

// GetString returns the measure's string as a host-readable buffer, or nil
// when the measure has none. The buffer stays valid until the next
// GetString or Finalize.
func (b *Bridge) GetString(h uintptr) (p unsafe.Pointer) {
	defer b.recover(dispatch.OpGetString)
	// The previous buffer goes first so a panic below cannot keep it alive.
	b.buffer.Release()
	s, ok := b.dispatcher.GetString(context.Background(), handle.Handle(h))
	return b.buffer.Replace(s, ok)
}

// ExecuteBang passes args to the measure behind h.
func (b *Bridge) ExecuteBang(h uintptr, args string) {
	defer b.recover(dispatch.OpExecuteBang)
	b.dispatcher.ExecuteBang(context.Background(), handle.Handle(h), args)
}

// Finalize tears down the measure behind h and releases the string buffer.
func (b *Bridge) Finalize(h uintptr) {
	defer b.recover(dispatch.OpFinalize)
	defer b.buffer.Release()
	b.dispatcher.Finalize(context.Background(), handle.Handle(h))
}

// Close releases the string buffer. The host has no unload callback; the
// simulator calls this at the end of a run.
func (b *Bridge) Close() {
	defer b.recover("close")
	b.buffer.Release()
	if n := b.dispatcher.Registry().Stats().Instances; n > 0 {
		errutil.LogError(b.logger, "bridge closed with live measures", ErrLiveInstances(n))
	}
}
