// Copyright 2020 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build invariants || race

package invariants

import "math/rand/v2"

// Enabled is true if we were built with the "invariants" or "race" build tags.
const Enabled = true

// Mangle overwrites the contents of b with random bytes. It is used on memory
// that is about to be released so that a use-after-free reads garbage rather
// than plausible data.
func Mangle(b []byte) {
	for i := range b {
		b[i] = byte(rand.Uint32())
	}
}
