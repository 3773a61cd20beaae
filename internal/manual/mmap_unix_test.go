// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

//go:build unix

package manual

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMmap(t *testing.T) {
	m := NewMmap()
	testAllocator(t, m)
	require.Empty(t, m.mappings)

	p := m.Alloc(100)
	require.Zero(t, uintptr(p)%uintptr(PageSize()), "mapping %p not page aligned", p)
	m.Free(p, 100)
	require.Panics(t, func() { m.Free(p, 100) })
}
