// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package aligned

import (
	"unsafe"

	"github.com/cockroachdb/alignbench/internal/invariants"
	"github.com/cockroachdb/alignbench/internal/manual"
	"github.com/cockroachdb/errors"
)

// Alloc allocates room for n values of type T aligned to alignment.
//
// T must not contain Go pointers: the memory may live outside the Go heap, and
// even when it does not the garbage collector does not scan it.
func Alloc[T any](a *Allocator, n int, alignment Alignment) (Buf, error) {
	var zero T
	sz := unsafe.Sizeof(zero)
	if n <= 0 || sz == 0 {
		return Buf{}, errors.Mark(
			errors.Newf("aligned: cannot allocate %d elements of %d bytes", n, sz), ErrInvalidSize)
	}
	if uintptr(n) > manual.MaxArrayLen/sz {
		return Buf{}, errors.Mark(
			errors.Newf("aligned: %d elements of %d bytes exceeds the maximum allocation", n, sz), ErrInvalidSize)
	}
	return a.Allocate(uintptr(n)*sz, alignment)
}

// AllocNatural allocates room for n values of type T aligned to the natural
// alignment of T.
func AllocNatural[T any](a *Allocator, n int) (Buf, error) {
	var zero T
	return Alloc[T](a, n, Alignment(unsafe.Alignof(zero)))
}

// View returns the allocation as a []T holding as many whole values as fit.
// The slice must not be used after the Buf is freed.
func View[T any](b Buf) []T {
	var zero T
	sz := unsafe.Sizeof(zero)
	if b.data == nil || sz == 0 {
		return nil
	}
	if invariants.Enabled && uintptr(b.data)%unsafe.Alignof(zero) != 0 {
		panic(errors.AssertionFailedf("aligned: %p is not aligned for a %d byte type", b.data, unsafe.Alignof(zero)))
	}
	return unsafe.Slice((*T)(b.data), b.size/sz)
}
