// Copyright 2020 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build amd64 || arm64 || arm64be || ppc64 || ppc64le || mips64 || mips64le || riscv64 || s390x || sparc64 || loong64 || wasm
// +build amd64 arm64 arm64be ppc64 ppc64le mips64 mips64le riscv64 s390x sparc64 loong64 wasm

package manual

const (
	// MaxArrayLen is a safe maximum length for slices on this architecture.
	// https://groups.google.com/g/golang-nuts/c/y5OpHR0VEdY/m/Mnq6biJbCwAJ
	MaxArrayLen = 1<<50 - 1
)
