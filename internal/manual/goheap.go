// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manual

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

// GoHeap allocates blocks from the Go heap. Blocks are backed by []uint64 so
// that they are always word aligned, and are kept reachable until freed:
// callers typically hold on to a block only through an integer address,
// which the garbage collector does not trace.
type GoHeap struct {
	blocks map[uintptr][]uint64
}

var _ Allocator = (*GoHeap)(nil)

// NewGoHeap returns a new Go heap allocator.
func NewGoHeap() *GoHeap {
	return &GoHeap{blocks: make(map[uintptr][]uint64)}
}

// Alloc implements Allocator.
func (h *GoHeap) Alloc(n uintptr) unsafe.Pointer {
	if n == 0 || n > MaxArrayLen {
		return nil
	}
	words := make([]uint64, (n+7)/8)
	p := unsafe.Pointer(unsafe.SliceData(words))
	h.blocks[uintptr(p)] = words
	recordAlloc(n)
	return p
}

// Free implements Allocator.
func (h *GoHeap) Free(p unsafe.Pointer, n uintptr) {
	if p == nil {
		return
	}
	if _, ok := h.blocks[uintptr(p)]; !ok {
		panic(errors.AssertionFailedf("manual: free of unknown Go heap block %p", p))
	}
	delete(h.blocks, uintptr(p))
	recordFree(n)
}
