// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package arena

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doyaGu/nmo/pkg/errors"
)

func TestAllocAligned(t *testing.T) {
	a := New(1024)
	defer a.Destroy()

	b, err := a.Alloc(3, 1)
	require.NoError(t, err)
	require.Len(t, b, 3)

	// Force misalignment, then request word alignment
	b, err = a.Alloc(8, 4)
	require.NoError(t, err)
	require.Len(t, b, 8)

	for i := range b {
		require.Zero(t, b[i], "allocation is not zeroed")
	}
}

func TestAllocBadAlignment(t *testing.T) {
	a := New(1024)
	defer a.Destroy()
	_, err := a.Alloc(4, 3)
	require.Equal(t, errors.InvalidArgument, errors.Code(err))
	_, err = a.Alloc(-1, 4)
	require.Equal(t, errors.InvalidArgument, errors.Code(err))
}

func TestAllocGrowsBlocks(t *testing.T) {
	a := New(64)
	defer a.Destroy()

	for i := 0; i < 10; i++ {
		_, err := a.Alloc(40, 4)
		require.NoError(t, err)
	}
	st := a.Stats()
	require.Greater(t, st.Blocks, 1)
	require.Equal(t, uint64(10), st.Allocs)
	require.Equal(t, uint64(400), st.AllocBytes)
}

func TestAllocOversized(t *testing.T) {
	a := New(64)
	defer a.Destroy()

	small, err := a.Alloc(8, 4)
	require.NoError(t, err)
	big, err := a.Alloc(1024, 4)
	require.NoError(t, err)
	require.Len(t, big, 1024)

	// The bump block is still usable after an oversized allocation
	small2, err := a.Alloc(8, 4)
	require.NoError(t, err)
	require.Len(t, small, 8)
	require.Len(t, small2, 8)
}

func TestResetBumpsGeneration(t *testing.T) {
	a := New(64)
	defer a.Destroy()

	gen := a.Generation()
	_, err := a.Alloc(16, 4)
	require.NoError(t, err)
	a.Reset()
	require.Equal(t, gen+1, a.Generation())
}

func TestDestroyedArenaRejectsAlloc(t *testing.T) {
	a := New(64)
	a.Destroy()
	_, err := a.Alloc(4, 4)
	require.Equal(t, errors.InvalidState, errors.Code(err))
	_, err = a.Words(4)
	require.Equal(t, errors.InvalidState, errors.Code(err))
}

func TestWords(t *testing.T) {
	a := New(64)
	defer a.Destroy()

	w, err := a.Words(5)
	require.NoError(t, err)
	require.Len(t, w, 5)

	w, err = a.Words(0)
	require.NoError(t, err)
	require.Nil(t, w)

	_, err = a.Words(-1)
	require.Equal(t, errors.InvalidArgument, errors.Code(err))
}
