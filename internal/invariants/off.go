// Copyright 2020 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !invariants && !race

package invariants

// Enabled is true if we were built with the "invariants" or "race" build tags.
const Enabled = false

// Mangle overwrites the contents of b with random bytes if we were built with
// the "invariants" or "race" build tags. Otherwise it is a no-op.
func Mangle(b []byte) {}
