// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manual

import (
	"sort"
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Contract violations recorded by Checked.
var (
	ErrDoubleFree   = errors.New("manual: double free")
	ErrUnknownBlock = errors.New("manual: free of unknown block")
	ErrSizeMismatch = errors.New("manual: free size does not match allocation")
)

type checkedBlock struct {
	p unsafe.Pointer
	n uintptr
}

// Checked is an instrumented Allocator for tests. It wraps another Allocator
// and tracks every block handed out. A Free that breaks the Allocator
// contract is recorded as a violation and is not forwarded.
//
// Freed blocks are quarantined rather than released to the wrapped Allocator
// until Close, so that their addresses are not reused and a repeated Free of
// the same block can be told apart from a Free of a new one.
type Checked struct {
	inner Allocator

	live       map[uintptr]checkedBlock
	freed      map[uintptr]checkedBlock
	allocs     int
	frees      int
	violations []error
}

var _ Allocator = (*Checked)(nil)

// NewChecked returns a Checked allocator wrapping inner.
func NewChecked(inner Allocator) *Checked {
	return &Checked{
		inner: inner,
		live:  make(map[uintptr]checkedBlock),
		freed: make(map[uintptr]checkedBlock),
	}
}

// Alloc implements Allocator.
func (c *Checked) Alloc(n uintptr) unsafe.Pointer {
	p := c.inner.Alloc(n)
	if p == nil {
		return nil
	}
	c.live[uintptr(p)] = checkedBlock{p: p, n: n}
	c.allocs++
	return p
}

// Free implements Allocator.
func (c *Checked) Free(p unsafe.Pointer, n uintptr) {
	addr := uintptr(p)
	if b, ok := c.live[addr]; ok {
		if b.n != n {
			c.violations = append(c.violations, errors.Wrapf(ErrSizeMismatch,
				"block %p: allocated %d bytes, freed %d", p, b.n, n))
			return
		}
		delete(c.live, addr)
		c.freed[addr] = b
		c.frees++
		return
	}
	if _, ok := c.freed[addr]; ok {
		c.violations = append(c.violations, errors.Wrapf(ErrDoubleFree, "block %p", p))
		return
	}
	c.violations = append(c.violations, errors.Wrapf(ErrUnknownBlock, "block %p", p))
}

// Allocs returns the number of successful calls to Alloc.
func (c *Checked) Allocs() int { return c.allocs }

// Frees returns the number of blocks released through a valid Free.
func (c *Checked) Frees() int { return c.frees }

// Live returns the number of blocks allocated and not yet freed.
func (c *Checked) Live() int { return len(c.live) }

// LiveBytes returns the sum of the sizes of the live blocks.
func (c *Checked) LiveBytes() uintptr {
	var sum uintptr
	for _, b := range c.live {
		sum += b.n
	}
	return sum
}

// Violations returns the contract violations observed so far, in the order
// they happened.
func (c *Checked) Violations() []error {
	return c.violations
}

// TestingT is the subset of testing.TB used by AssertNoLeaks.
type TestingT interface {
	Errorf(format string, args ...interface{})
	Helper()
}

// AssertNoLeaks reports an error for every live block and every recorded
// violation.
func (c *Checked) AssertNoLeaks(t TestingT) {
	t.Helper()
	addrs := make([]uintptr, 0, len(c.live))
	for addr := range c.live {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		b := c.live[addr]
		t.Errorf("LEAK of %d bytes at %p", b.n, b.p)
	}
	for _, err := range c.violations {
		t.Errorf("%v", err)
	}
}

// Close releases the quarantined blocks to the wrapped Allocator. Live blocks
// are left alone.
func (c *Checked) Close() {
	for addr, b := range c.freed {
		c.inner.Free(b.p, b.n)
		delete(c.freed, addr)
	}
}
