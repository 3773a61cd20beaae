// Copyright 2020 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !cgo

package manual

import "github.com/cockroachdb/errors"

// newCHeap is never reached: newDefault checks buildtags.Cgo first.
func newCHeap() Allocator {
	panic(errors.AssertionFailedf("manual: C heap requested in a build without cgo"))
}
