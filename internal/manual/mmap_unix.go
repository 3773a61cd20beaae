// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build unix

package manual

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Mmap allocates every block as a private anonymous mapping. The memory lives
// outside the Go heap, and mappings are page aligned.
type Mmap struct {
	mappings map[uintptr][]byte
}

var _ Allocator = (*Mmap)(nil)

// NewMmap returns a new anonymous mapping allocator.
func NewMmap() *Mmap {
	return &Mmap{mappings: make(map[uintptr][]byte)}
}

// Alloc implements Allocator.
func (m *Mmap) Alloc(n uintptr) unsafe.Pointer {
	if n == 0 || n > MaxArrayLen {
		return nil
	}
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil
	}
	p := unsafe.Pointer(unsafe.SliceData(b))
	m.mappings[uintptr(p)] = b
	recordAlloc(n)
	return p
}

// Free implements Allocator.
func (m *Mmap) Free(p unsafe.Pointer, n uintptr) {
	if p == nil {
		return
	}
	b, ok := m.mappings[uintptr(p)]
	if !ok {
		panic(errors.AssertionFailedf("manual: free of unknown mapping %p", p))
	}
	delete(m.mappings, uintptr(p))
	recordFree(n)
	if err := unix.Munmap(b); err != nil {
		panic(errors.Wrapf(err, "manual: munmap %p", p))
	}
}

// PageSize returns the size of a memory page.
func PageSize() int {
	return unix.Getpagesize()
}

func newPlatformAllocator() Allocator {
	return NewMmap()
}
