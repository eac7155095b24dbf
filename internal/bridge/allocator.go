// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bridge

import (
	"sync"
	"unicode/utf16"
	"unsafe"
)

// Allocator produces NUL-terminated UTF-16 strings the host can read.
type Allocator interface {
	Alloc(s string) (unsafe.Pointer, error)
	Free(p unsafe.Pointer) error
}

// GoAllocator keeps strings on the Go heap. It backs the simulator and
// tests; the plugin uses the C heap.
type GoAllocator struct {
	mu   sync.Mutex
	live map[unsafe.Pointer][]uint16
}

// NewGoAllocator creates an empty allocator.
func NewGoAllocator() *GoAllocator {
	return &GoAllocator{live: make(map[unsafe.Pointer][]uint16)}
}

// Alloc implements Allocator.
func (a *GoAllocator) Alloc(s string) (unsafe.Pointer, error) {
	buf := append(utf16.Encode([]rune(s)), 0)
	p := unsafe.Pointer(&buf[0])

	a.mu.Lock()
	defer a.mu.Unlock()
	a.live[p] = buf
	return p, nil
}

// Free implements Allocator. Freeing an unknown pointer is an error.
func (a *GoAllocator) Free(p unsafe.Pointer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.live[p]; !ok {
		return ErrUnknownPointer(p)
	}
	delete(a.live, p)
	return nil
}

// Live reports how many strings are allocated and not yet freed.
func (a *GoAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// String decodes a live pointer. ok is false for nil or freed pointers.
func (a *GoAllocator) String(p unsafe.Pointer) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	buf, ok := a.live[p]
	if !ok {
		return "", false
	}
	return string(utf16.Decode(buf[:len(buf)-1])), true
}
