// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bridge

import (
	"log/slog"
	"sync"
	"unsafe"

	"github.com/holomush/rainmux/pkg/errutil"
)

// StringBuffer owns the one string handed back to the host. At most one
// buffer is live; producing a new one releases the old one first.
type StringBuffer struct {
	mu     sync.Mutex
	alloc  Allocator
	cur    unsafe.Pointer
	logger *slog.Logger
}

// NewStringBuffer creates an empty buffer over alloc.
func NewStringBuffer(alloc Allocator, logger *slog.Logger) *StringBuffer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StringBuffer{alloc: alloc, logger: logger}
}

// Replace releases the current buffer and, when ok, allocates s. It returns
// the new buffer, or nil when there is none.
func (b *StringBuffer) Replace(s string, ok bool) unsafe.Pointer {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.release()
	if !ok {
		return nil
	}
	p, err := b.alloc.Alloc(s)
	if err != nil {
		errutil.LogError(b.logger, "string buffer allocation failed", err)
		return nil
	}
	b.cur = p
	return p
}

// Release frees the current buffer, if any.
func (b *StringBuffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release()
}

// Current returns the live buffer or nil.
func (b *StringBuffer) Current() unsafe.Pointer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur
}

func (b *StringBuffer) release() {
	if b.cur == nil {
		return
	}
	p := b.cur
	b.cur = nil
	if err := b.alloc.Free(p); err != nil {
		errutil.LogError(b.logger, "string buffer release failed", ErrBufferRelease(p, err))
	}
}
