// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package alignbench

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/alignbench/internal/aligned"
	"github.com/cockroachdb/alignbench/internal/base"
	"github.com/cockroachdb/alignbench/internal/manual"
	"github.com/cockroachdb/errors"
)

// Logger defines an interface for writing log messages.
type Logger = base.Logger

// DefaultLogger logs to the Go stdlib logs.
type DefaultLogger = base.DefaultLogger

// Alignment is a power-of-two byte boundary, or zero for none.
type Alignment = aligned.Alignment

// Allocator is the underlying allocation primitive the benchmark buffer is
// carved from.
type Allocator = manual.Allocator

const (
	// DefaultElementCount is the number of uint32 values written by each run.
	DefaultElementCount = 100_000_000
	// DefaultAlignment is the alignment of the aligned run.
	DefaultAlignment = 32
)

// DefaultAlignment must be zero or a power of two: the conversion below
// overflows, and fails to compile, otherwise.
const _ = uint(-(DefaultAlignment & (DefaultAlignment - 1)))

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("alignbench: invalid options")

// Options holds the parameters of a benchmark. The zero value runs the
// default benchmark.
type Options struct {
	// ElementCount is the number of uint32 values each run writes. Zero selects
	// DefaultElementCount.
	ElementCount int

	// Alignment is the alignment of the aligned run. The unaligned run always
	// uses an alignment of zero.
	Alignment Alignment

	// Allocator is the underlying allocation primitive. The default is
	// manual.Default().
	Allocator Allocator

	// Logger receives the allocator's diagnostic traces.
	Logger Logger

	// Out receives the report. The default is os.Stdout.
	Out io.Writer
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified.
func (o *Options) EnsureDefaults() {
	if o.ElementCount == 0 {
		o.ElementCount = DefaultElementCount
	}
	if o.Alignment == 0 {
		o.Alignment = DefaultAlignment
	}
	if o.Allocator == nil {
		o.Allocator = manual.Default()
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger{}
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
}

// Clone creates a shallow-copy of the supplied options.
func (o *Options) Clone() *Options {
	if o == nil {
		return &Options{}
	}
	n := *o
	return &n
}

// Validate verifies that the options are mutually consistent.
func (o *Options) Validate() error {
	// Note that we can presume Options.EnsureDefaults has been called, so there
	// is no need to check for zero values.

	var buf strings.Builder
	if o.ElementCount < 0 {
		fmt.Fprintf(&buf, "ElementCount (%d) must be >= 0 (0 selects the default)\n", o.ElementCount)
	}
	if !o.Alignment.IsValid() {
		fmt.Fprintf(&buf, "Alignment (%d) must be a power of two\n", o.Alignment)
	}

	if buf.Len() == 0 {
		return nil
	}
	return errors.Mark(errors.New(strings.TrimSuffix(buf.String(), "\n")), ErrInvalidOptions)
}
