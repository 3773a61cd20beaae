// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package alignbench measures the effect of memory alignment on sequential
// write throughput. Each run allocates a buffer of uint32 values through the
// aligned allocator, warms it up with one full pass, then times a second full
// pass on the monotonic clock.
//
// Runs are single shot: there is no repetition, variance estimate or outlier
// rejection, so results on a busy machine are noisy. Very small buffers can
// finish below the clock's resolution, in which case the comparison is
// meaningless (see Comparison.SlowdownPercent).
package alignbench

import (
	"fmt"
	"math"
	"time"

	"github.com/cockroachdb/alignbench/internal/aligned"
	"github.com/cockroachdb/alignbench/internal/base"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

const (
	banner = "========================================================="

	// warmUpValue is written by the untimed pass.
	warmUpValue = math.MaxUint32
	// timedValue is written by the timed pass.
	timedValue = 100
)

// sink receives the last element written by each run so that the writes are
// observable.
var sink uint32

// fill writes v to every element of s. It is kept out of line so that the
// timed region is exactly one call.
//
//go:noinline
func fill[T constraints.Unsigned](s []T, v T) {
	for i := range s {
		s[i] = v
	}
}

// Run performs one benchmark run over opts.ElementCount uint32 values
// allocated with the given alignment, writes the report for the run to
// opts.Out, and returns the duration of the timed pass.
func Run(opts *Options, alignment Alignment) (time.Duration, error) {
	opts = opts.Clone()
	opts.EnsureDefaults()
	if err := opts.Validate(); err != nil {
		return 0, err
	}
	return run(opts, alignment)
}

func run(opts *Options, alignment Alignment) (time.Duration, error) {
	fmt.Fprintln(opts.Out, banner)
	if alignment == 0 {
		fmt.Fprintln(opts.Out, "Benchmarking Unaligned")
	} else {
		fmt.Fprintf(opts.Out, "Benchmarking alignment %d\n", alignment)
	}

	a := aligned.New(opts.Allocator, opts.Logger)
	b, err := aligned.Alloc[uint32](a, opts.ElementCount, alignment)
	if err != nil {
		return 0, errors.Wrapf(err, "allocating %d elements", errors.Safe(opts.ElementCount))
	}
	s := aligned.View[uint32](b)

	// The warm-up pass faults in every page and leaves the buffer in a known
	// cache state, so that the timed pass measures writes only.
	fill(s, warmUpValue)

	w := base.MakeStopwatch()
	fill(s, timedValue)
	elapsed := w.Stop()

	sink = s[len(s)-1]
	a.Free(b)

	fmt.Fprintf(opts.Out, "TotalTime: %dns, Per Access Time: %fns\n",
		elapsed.Nanoseconds(), float64(elapsed.Nanoseconds())/float64(opts.ElementCount))
	fmt.Fprintln(opts.Out, banner)
	return elapsed, nil
}

// Comparison holds the outcome of an unaligned run and an aligned run over
// the same number of elements.
type Comparison struct {
	Alignment Alignment
	Unaligned time.Duration
	Aligned   time.Duration
}

// SlowdownPercent returns how much slower the unaligned run was than the
// aligned run, in percent. A negative value means the unaligned run was
// faster. ok is false when the aligned run measured no time at all, which
// happens when the buffer is too small for the clock's resolution.
func (c Comparison) SlowdownPercent() (pct float64, ok bool) {
	if c.Aligned <= 0 {
		return 0, false
	}
	return (float64(c.Unaligned.Nanoseconds())/float64(c.Aligned.Nanoseconds()) - 1) * 100, true
}

// String implements fmt.Stringer. It is the summary line of the report.
func (c Comparison) String() string {
	pct, ok := c.SlowdownPercent()
	if !ok {
		return fmt.Sprintf("Unaligned memory access slowdown is undefined: aligned run measured %dns",
			c.Aligned.Nanoseconds())
	}
	return fmt.Sprintf("Unaligned memory access is %f%% slower than alignment of %d", pct, c.Alignment)
}

// Compare runs the benchmark unaligned and then with opts.Alignment, and
// writes both reports followed by a summary line to opts.Out. The buffer of
// the first run is freed before the second run allocates.
func Compare(opts *Options) (Comparison, error) {
	opts = opts.Clone()
	opts.EnsureDefaults()
	if err := opts.Validate(); err != nil {
		return Comparison{}, err
	}

	c := Comparison{Alignment: opts.Alignment}
	var err error
	if c.Unaligned, err = run(opts, 0); err != nil {
		return Comparison{}, err
	}
	if c.Aligned, err = run(opts, opts.Alignment); err != nil {
		return Comparison{}, err
	}
	fmt.Fprintln(opts.Out, c.String())
	return c, nil
}
