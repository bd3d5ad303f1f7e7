// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolReuse(t *testing.T) {
	a := newTestArena(t)
	p := NewPool()

	c := p.Acquire(a, 5)
	require.Equal(t, uint8(5), c.ClassID())
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteIdentifier(tagName))
	require.NoError(t, c.WriteUint32(1))
	require.NoError(t, c.Close())

	p.Release(c)
	require.Equal(t, 1, p.Size())

	d := p.Acquire(a, 9)
	require.Equal(t, 0, p.Size())
	require.Same(t, c, d, "pool did not reuse the released chunk")
	require.Equal(t, uint8(9), d.ClassID())
	require.Equal(t, Uninitialized, d.Mode())
	require.Equal(t, 0, d.DataWords())
	require.Empty(t, d.Identifiers())
}

func TestPoolReleaseNil(t *testing.T) {
	p := NewPool()
	p.Release(nil)
	require.Zero(t, p.Size())
}
