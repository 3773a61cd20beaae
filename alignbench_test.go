// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package alignbench

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"
	"unsafe"

	"github.com/cockroachdb/alignbench/internal/aligned"
	"github.com/cockroachdb/alignbench/internal/base"
	"github.com/cockroachdb/alignbench/internal/manual"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

type oomAllocator struct{}

func (oomAllocator) Alloc(n uintptr) unsafe.Pointer { return nil }
func (oomAllocator) Free(p unsafe.Pointer, n uintptr) {}

func TestCompare(t *testing.T) {
	checked := manual.NewChecked(manual.NewGoHeap())
	defer checked.Close()
	var out bytes.Buffer
	var logger base.InMemLogger

	c, err := Compare(&Options{
		ElementCount: 1000,
		Allocator:    checked,
		Logger:       &logger,
		Out:          &out,
	})
	require.NoError(t, err)
	require.Equal(t, Alignment(DefaultAlignment), c.Alignment)
	require.GreaterOrEqual(t, c.Unaligned, time.Duration(0))
	require.GreaterOrEqual(t, c.Aligned, time.Duration(0))
	if pct, ok := c.SlowdownPercent(); ok {
		require.False(t, math.IsNaN(pct) || math.IsInf(pct, 0), "%f", pct)
	} else {
		require.Zero(t, c.Aligned)
	}

	// Each run allocated one block and freed it.
	require.Equal(t, 2, checked.Allocs())
	require.Equal(t, 2, checked.Frees())
	checked.AssertNoLeaks(t)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 9)
	require.Equal(t, banner, lines[0])
	require.Equal(t, "Benchmarking Unaligned", lines[1])
	require.Regexp(t, `^TotalTime: \d+ns, Per Access Time: \d+\.\d{6}ns$`, lines[2])
	require.Equal(t, banner, lines[3])
	require.Equal(t, banner, lines[4])
	require.Equal(t, "Benchmarking alignment 32", lines[5])
	require.Regexp(t, `^TotalTime: \d+ns, Per Access Time: \d+\.\d{6}ns$`, lines[6])
	require.Equal(t, banner, lines[7])
	require.Equal(t, c.String(), lines[8])

	// The allocator traced both allocations and both releases.
	traces := logger.String()
	require.Equal(t, 1, strings.Count(traces, fmt.Sprintf("Total allocation size: %d bytes", 4000+aligned.HeaderSize)))
	require.Equal(t, 1, strings.Count(traces, fmt.Sprintf("Total allocation size: %d bytes", 4000+32+aligned.HeaderSize)))
	require.Equal(t, 1, strings.Count(traces, "Aligned of 32 address: "))
	require.Equal(t, 2, strings.Count(traces, "Deallocating original address: "))
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	before := manual.GetMetrics()
	d, err := Run(&Options{
		ElementCount: 4096,
		Logger:       base.NoopLoggerForTesting{},
		Out:          &out,
	}, 64)
	require.NoError(t, err)
	require.GreaterOrEqual(t, d, time.Duration(0))
	require.Contains(t, out.String(), "Benchmarking alignment 64\n")
	require.Equal(t, uint32(timedValue), sink)

	after := manual.GetMetrics()
	require.Equal(t, before.InUseBlocks, after.InUseBlocks)
	require.Equal(t, before.InUseBytes, after.InUseBytes)
	require.Equal(t, before.TotalBlocks+1, after.TotalBlocks)
}

func TestRunOutOfMemory(t *testing.T) {
	_, err := Run(&Options{
		ElementCount: 16,
		Allocator:    oomAllocator{},
		Logger:       base.NoopLoggerForTesting{},
		Out:          &bytes.Buffer{},
	}, 32)
	require.True(t, errors.Is(err, aligned.ErrOutOfMemory), "%v", err)

	_, err = Compare(&Options{
		ElementCount: 16,
		Allocator:    oomAllocator{},
		Logger:       base.NoopLoggerForTesting{},
		Out:          &bytes.Buffer{},
	})
	require.True(t, errors.Is(err, aligned.ErrOutOfMemory), "%v", err)
}

func TestRunInvalid(t *testing.T) {
	opts := &Options{ElementCount: 16, Logger: base.NoopLoggerForTesting{}, Out: &bytes.Buffer{}}

	_, err := Run(opts, 48)
	require.True(t, errors.Is(err, aligned.ErrInvalidAlignment), "%v", err)

	opts.ElementCount = -1
	_, err = Run(opts, 0)
	require.True(t, errors.Is(err, ErrInvalidOptions), "%v", err)
	_, err = Compare(opts)
	require.True(t, errors.Is(err, ErrInvalidOptions), "%v", err)
}

func TestOptions(t *testing.T) {
	var opts *Options
	o := opts.Clone()
	o.EnsureDefaults()
	require.Equal(t, DefaultElementCount, o.ElementCount)
	require.Equal(t, Alignment(DefaultAlignment), o.Alignment)
	require.Equal(t, manual.Default(), o.Allocator)
	require.Equal(t, DefaultLogger{}, o.Logger)
	require.NoError(t, o.Validate())

	o.ElementCount = -5
	o.Alignment = 12
	err := o.Validate()
	require.True(t, errors.Is(err, ErrInvalidOptions))
	require.Equal(t, "ElementCount (-5) must be >= 0 (0 selects the default)\nAlignment (12) must be a power of two", err.Error())

	// A zero count is not an error: it selects the default.
	zero := &Options{ElementCount: 0, Alignment: 64}
	require.NoError(t, zero.Validate())
	zero.EnsureDefaults()
	require.Equal(t, DefaultElementCount, zero.ElementCount)
	require.Equal(t, Alignment(64), zero.Alignment)

	// Clone does not alias the original.
	orig := &Options{ElementCount: 7}
	c := orig.Clone()
	c.EnsureDefaults()
	require.Equal(t, 7, orig.ElementCount)
	require.Nil(t, orig.Out)
}

func TestSlowdownPercent(t *testing.T) {
	testCases := []struct {
		unaligned, aligned time.Duration
		pct                float64
		ok                 bool
	}{
		{150, 100, 50, true},
		{100, 100, 0, true},
		{50, 100, -50, true},
		{0, 100, -100, true},
		{100, 0, 0, false},
		{0, 0, 0, false},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d/%d", tc.unaligned, tc.aligned), func(t *testing.T) {
			c := Comparison{Alignment: 32, Unaligned: tc.unaligned, Aligned: tc.aligned}
			pct, ok := c.SlowdownPercent()
			require.Equal(t, tc.ok, ok)
			require.InDelta(t, tc.pct, pct, 1e-9)
		})
	}
}

func TestFill(t *testing.T) {
	s8 := make([]uint8, 37)
	fill(s8, 0xab)
	require.Equal(t, bytes.Repeat([]byte{0xab}, 37), s8)

	s32 := make([]uint32, 1000)
	fill(s32, warmUpValue)
	for _, v := range s32 {
		require.Equal(t, uint32(math.MaxUint32), v)
	}
	fill(s32[:0], 1)
}

func TestCompareDatadriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/compare", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "compare":
			opts := &Options{
				Allocator: manual.NewGoHeap(),
				Logger:    base.NoopLoggerForTesting{},
			}
			td.ScanArgs(t, "elements", &opts.ElementCount)
			if td.HasArg("align") {
				var alignment int
				td.ScanArgs(t, "align", &alignment)
				opts.Alignment = Alignment(alignment)
			}
			var duration string
			td.ScanArgs(t, "duration", &duration)
			d, err := time.ParseDuration(duration)
			require.NoError(t, err)
			defer base.DeterministicDurationForTesting(d)()

			var out bytes.Buffer
			opts.Out = &out
			if _, err := Compare(opts); err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return out.String()

		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
}
