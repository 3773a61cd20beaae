// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build !unix

package manual

import "os"

// PageSize returns the size of a memory page.
func PageSize() int {
	return os.Getpagesize()
}

func newPlatformAllocator() Allocator {
	return NewGoHeap()
}
