// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package manual provides the allocation primitives that the aligned
// allocator is layered on. Memory obtained from an Allocator is not managed by
// the Go garbage collector in any useful way and MUST be released with the
// same Allocator's Free.
package manual

import (
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/alignbench/internal/buildtags"
	"github.com/cockroachdb/alignbench/internal/invariants"
)

// Allocator is a raw block allocator. Implementations make no alignment
// promise beyond what the platform primitive provides.
//
// Allocators are not safe for concurrent use.
type Allocator interface {
	// Alloc returns a block of at least n bytes, or nil if the memory could
	// not be obtained. Alloc(0) returns nil.
	Alloc(n uintptr) unsafe.Pointer
	// Free releases a block. p must have been returned by Alloc on the same
	// Allocator with the same n, and must not have been freed already.
	Free(p unsafe.Pointer, n uintptr)
}

// Metrics contains statistics about the blocks obtained from the allocators
// in this package.
type Metrics struct {
	// InUseBytes is the total number of bytes currently allocated. This is just
	// the sum of the lengths of the allocations and does not include any
	// overhead or fragmentation.
	InUseBytes uint64
	// TotalBytes is the total cumulative number of bytes allocated since the
	// process started.
	TotalBytes uint64
	// InUseBlocks is the number of blocks allocated and not yet freed.
	InUseBlocks uint64
	// TotalBlocks is the total cumulative number of blocks allocated.
	TotalBlocks uint64
}

var counters struct {
	allocatedBytes  atomic.Uint64
	freedBytes      atomic.Uint64
	allocatedBlocks atomic.Uint64
	freedBlocks     atomic.Uint64
}

// GetMetrics returns manual memory usage statistics.
func GetMetrics() Metrics {
	var m Metrics
	m.TotalBytes = counters.allocatedBytes.Load()
	m.InUseBytes = m.TotalBytes - counters.freedBytes.Load()
	m.TotalBlocks = counters.allocatedBlocks.Load()
	m.InUseBlocks = m.TotalBlocks - counters.freedBlocks.Load()
	return m
}

func recordAlloc(n uintptr) {
	counters.allocatedBytes.Add(uint64(n))
	counters.allocatedBlocks.Add(1)
}

func recordFree(n uintptr) {
	counters.freedBytes.Add(uint64(n))
	counters.freedBlocks.Add(1)
}

var defaultAllocator = newDefault()

func newDefault() Allocator {
	switch {
	case !buildtags.Cgo:
		// Without cgo (e.g. cross compilation) there is no C heap.
		return newPlatformAllocator()
	case invariants.RaceEnabled:
		// The race detector does not instrument C memory, so race builds
		// allocate from the Go heap where accesses are observed.
		return NewGoHeap()
	default:
		return newCHeap()
	}
}

// Default returns the process allocator: C malloc in cgo builds (the Go heap
// under the race detector), otherwise the best primitive available on the
// platform (see newPlatformAllocator).
func Default() Allocator {
	return defaultAllocator
}
