// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// alignbench compares the sequential write throughput of an unaligned buffer
// with that of a 32-byte aligned one. It takes no arguments and writes its
// report to stdout.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cockroachdb/alignbench"
	"github.com/spf13/cobra"
)

var benchOptions alignbench.Options

var rootCmd = &cobra.Command{
	Use:   "alignbench",
	Short: "aligned vs unaligned sequential write benchmark",
	Long: `
Runs the same sequential uint32 write pass twice, first over a buffer with no
alignment guarantee beyond the allocator's and then over one aligned to 32
bytes, and reports how much slower the unaligned pass was. Each run warms the
buffer up with one untimed pass before the timed one.
`,
	// There are no flags or arguments. Anything given on the command line is
	// ignored rather than rejected.
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := benchOptions
		opts.Out = cmd.OutOrStdout()
		_, err := alignbench.Compare(&opts)
		return err
	},
}

func main() {
	// The allocator traces go through the stdlib logger and are part of the
	// report.
	log.SetFlags(0)
	log.SetOutput(os.Stdout)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "alignbench: %v\n", err)
		os.Exit(1)
	}
}
