// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bridge

import (
	"unsafe"

	"github.com/samber/oops"
)

// CodeBufferReleaseFailed marks a string buffer the allocator refused to free.
const CodeBufferReleaseFailed = "BUFFER_RELEASE_FAILED"

// ErrBufferRelease wraps an allocator failure to free p.
func ErrBufferRelease(p unsafe.Pointer, cause error) error {
	return oops.Code(CodeBufferReleaseFailed).
		With("pointer", uintptr(p)).
		Wrapf(cause, "release string buffer")
}

// ErrUnknownPointer is returned by GoAllocator.Free for a pointer it did not
// hand out or already freed.
func ErrUnknownPointer(p unsafe.Pointer) error {
	return oops.With("pointer", uintptr(p)).Errorf("pointer was not allocated or is already free")
}

// ErrLiveInstances reports measures the host never finalized.
func ErrLiveInstances(n int) error {
	return oops.With("instances", n).Errorf("%d measures were never finalized", n)
}
