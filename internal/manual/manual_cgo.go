// Copyright 2020 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build cgo

package manual

// #include <stdlib.h>
//
// // C.malloc is routed through a cgo helper that crashes the process when
// // malloc returns NULL. Calling through a local function keeps the NULL.
// static void* alignbench_malloc(size_t n) { return malloc(n); }
import "C"
import "unsafe"

// cAllocator allocates from the C heap.
type cAllocator struct{}

var _ Allocator = cAllocator{}

// Alloc implements Allocator.
func (cAllocator) Alloc(n uintptr) unsafe.Pointer {
	if n == 0 || n > MaxArrayLen {
		return nil
	}
	// We need to be conscious of the Cgo pointer passing rules:
	//
	//   https://golang.org/cmd/cgo/#hdr-Passing_pointers
	//
	// The blocks returned here only ever hold integers (including the
	// original block address stored as a uintptr), never Go pointers.
	ptr := C.alignbench_malloc(C.size_t(n))
	if ptr == nil {
		return nil
	}
	recordAlloc(n)
	return ptr
}

// Free implements Allocator.
func (cAllocator) Free(p unsafe.Pointer, n uintptr) {
	if p == nil {
		return
	}
	recordFree(n)
	C.free(p)
}

func newCHeap() Allocator {
	return cAllocator{}
}
