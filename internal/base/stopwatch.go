// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"time"

	"github.com/cockroachdb/crlib/crtime"
)

// DeterministicDurationForTesting is for tests that want every Stopwatch to
// report the same duration d. The return value is a function that must be
// called before the test exits.
func DeterministicDurationForTesting(d time.Duration) func() {
	prevOn, prev := deterministicDurationForTesting, deterministicDuration
	deterministicDurationForTesting, deterministicDuration = true, d
	return func() {
		deterministicDurationForTesting, deterministicDuration = prevOn, prev
	}
}

var (
	deterministicDurationForTesting = false
	deterministicDuration           time.Duration
)

// Stopwatch measures elapsed time on the monotonic clock, so the result is
// unaffected by adjustments to the wall clock.
type Stopwatch struct {
	startTime crtime.Mono
}

// MakeStopwatch returns a Stopwatch started now.
func MakeStopwatch() Stopwatch {
	return Stopwatch{startTime: crtime.NowMono()}
}

// Stop returns the time elapsed since the Stopwatch was made.
func (w Stopwatch) Stop() time.Duration {
	dur := w.startTime.Elapsed()
	if deterministicDurationForTesting {
		dur = deterministicDuration
	}
	return dur
}
