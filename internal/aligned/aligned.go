// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package aligned implements an allocator that returns memory aligned to an
// arbitrary power-of-two boundary on top of a manual.Allocator that only
// guarantees the platform's minimum alignment.
//
// Every allocation over-allocates by the alignment plus HeaderSize bytes. The
// returned data pointer is rounded up to the requested boundary, and the
// HeaderSize bytes immediately preceding it hold the address of the block
// obtained from the underlying allocator. Free reads that header back to find
// the block to release, so no side table is needed and release is O(1).
//
// The header is an implementation detail: callers only ever see a Buf.
package aligned

import (
	"unsafe"

	"github.com/cockroachdb/alignbench/internal/base"
	"github.com/cockroachdb/alignbench/internal/invariants"
	"github.com/cockroachdb/alignbench/internal/manual"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// HeaderSize is the size of the header stored immediately before every data
// pointer. It holds exactly the original block address.
const HeaderSize = unsafe.Sizeof(uintptr(0))

var (
	// ErrOutOfMemory is returned when the underlying allocator cannot provide
	// a block.
	ErrOutOfMemory = errors.New("aligned: out of memory")
	// ErrInvalidAlignment is returned for a nonzero alignment that is not a
	// power of two. It is detected before any allocation is attempted.
	ErrInvalidAlignment = errors.New("aligned: invalid alignment")
	// ErrInvalidSize is returned for an empty request or one whose padded size
	// does not fit in memory.
	ErrInvalidSize = errors.New("aligned: invalid size")
)

// Alignment is a byte boundary that a data pointer must be a multiple of.
// Zero requests no alignment beyond what the underlying allocator provides.
// Any other value must be a power of two.
type Alignment uintptr

// IsValid returns true if a is zero or a power of two.
func (a Alignment) IsValid() bool {
	return a&(a-1) == 0
}

// String implements fmt.Stringer.
func (a Alignment) String() string {
	return redact.StringWithoutMarkers(a)
}

// SafeFormat implements redact.SafeFormatter.
func (a Alignment) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%d", redact.SafeUint(a))
}

// Buf is a live allocation. It pairs the data pointer with the logical size
// and alignment it was requested with. A Buf must be released exactly once
// with the Allocator that returned it.
type Buf struct {
	data      unsafe.Pointer
	size      uintptr
	alignment Alignment
}

// Data returns the data pointer, or nil for the zero Buf.
func (b Buf) Data() unsafe.Pointer { return b.data }

// Len returns the logical size of the allocation in bytes.
func (b Buf) Len() int { return int(b.size) }

// Alignment returns the alignment the allocation was requested with.
func (b Buf) Alignment() Alignment { return b.alignment }

// Bytes returns the allocation as a byte slice. The slice must not be used
// after the Buf is freed.
func (b Buf) Bytes() []byte {
	if b.data == nil {
		return nil
	}
	return unsafe.Slice((*byte)(b.data), b.size)
}

// blockSize returns the size of the block requested from the underlying
// allocator.
func (b Buf) blockSize() uintptr {
	return b.size + uintptr(b.alignment) + HeaderSize
}

func (b Buf) header() *uintptr {
	return (*uintptr)(unsafe.Add(b.data, -int(HeaderSize)))
}

// Allocator hands out aligned allocations. It is not safe for concurrent use.
type Allocator struct {
	src    manual.Allocator
	logger base.Logger
}

// New returns an Allocator layered on src. Every step of an allocation and
// release is traced to logger. A nil src selects manual.Default() and a nil
// logger selects base.DefaultLogger.
func New(src manual.Allocator, logger base.Logger) *Allocator {
	if src == nil {
		src = manual.Default()
	}
	if logger == nil {
		logger = base.DefaultLogger{}
	}
	return &Allocator{src: src, logger: logger}
}

// Allocate returns size bytes whose address is a multiple of alignment. It
// asks the underlying allocator for size+alignment+HeaderSize bytes: the
// extra alignment bytes bound the shift needed to reach the boundary.
//
// The error is ErrInvalidSize or ErrInvalidAlignment (checked before
// allocating) or ErrOutOfMemory, and can be tested with errors.Is.
func (a *Allocator) Allocate(size uintptr, alignment Alignment) (Buf, error) {
	if !alignment.IsValid() {
		return Buf{}, errors.Mark(
			errors.Newf("aligned: alignment %s is neither zero nor a power of two", alignment),
			ErrInvalidAlignment)
	}
	if size == 0 {
		return Buf{}, errors.Mark(errors.New("aligned: cannot allocate 0 bytes"), ErrInvalidSize)
	}
	if uintptr(alignment) > manual.MaxArrayLen-HeaderSize ||
		size > manual.MaxArrayLen-HeaderSize-uintptr(alignment) {
		return Buf{}, errors.Mark(
			errors.Newf("aligned: %d bytes with alignment %s exceeds the maximum allocation", size, alignment),
			ErrInvalidSize)
	}

	n := size + uintptr(alignment) + HeaderSize
	a.logger.Infof("Total allocation size: %d bytes", n)

	block := a.src.Alloc(n)
	if block == nil {
		return Buf{}, errors.Mark(errors.Newf("aligned: allocating %d bytes", n), ErrOutOfMemory)
	}
	a.logger.Infof("Original address: %p", block)

	off := HeaderSize
	if alignment != 0 {
		off = alignUp(uintptr(block)+HeaderSize, uintptr(alignment)) - uintptr(block)
		a.logger.Infof("Aligned of %d address: %p", alignment, unsafe.Add(block, off))
	}

	b := Buf{data: unsafe.Add(block, off), size: size, alignment: alignment}
	hdr := b.header()
	*hdr = uintptr(block)
	a.logger.Infof("Stored original pointer at: %p", hdr)
	a.logger.Infof("Data pointer at: %p", b.data)
	return b, nil
}

// Free releases b to the underlying allocator. b must have been returned by
// a.Allocate (or one of the typed variants) and must not have been freed
// already. Violating this is undefined behavior: it is only detected by an
// instrumented underlying allocator and, partially, in invariants builds.
// Freeing the zero Buf is a no-op.
func (a *Allocator) Free(b Buf) {
	if b.data == nil {
		return
	}
	// The block is recovered as an offset from the data pointer rather than by
	// converting the stored integer back into a pointer, which keeps the
	// derived pointer within the same allocation.
	off := uintptr(b.data) - *b.header()
	if invariants.Enabled && (off < HeaderSize || off > HeaderSize+uintptr(b.alignment)) {
		panic(errors.AssertionFailedf("aligned: corrupt header before %p: offset %d", b.data, off))
	}
	block := unsafe.Add(b.data, -int(off))
	a.logger.Infof("Deallocating original address: %p", block)

	invariants.Mangle(b.Bytes())
	a.src.Free(block, b.blockSize())
}

// alignUp rounds addr up to the next multiple of alignment, which must be a
// power of two.
func alignUp(addr, alignment uintptr) uintptr {
	return (addr + alignment - 1) &^ (alignment - 1)
}
