// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/errors"
	"github.com/doyaGu/nmo/pkg/vmath"
)

const (
	tagName     Tag = 0x4E414D45
	tagWorld    Tag = 0x574C4421
	tagChildren Tag = 0x43484C44
	tagExtra    Tag = 0x45585452
)

func newTestArena(t *testing.T) *arena.Arena {
	t.Helper()
	a := arena.New(4096)
	t.Cleanup(a.Destroy)
	return a
}

func TestWriteReadRoundTrip(t *testing.T) {
	a := newTestArena(t)
	c := New(a, 12)
	c.SetVersions(3, CurrentChunkVersion)

	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteIdentifier(tagName))
	require.NoError(t, c.WriteString("Level_01"))
	require.NoError(t, c.WriteIdentifier(tagWorld))
	require.NoError(t, c.WriteMatrix(vmath.Identity()))
	require.NoError(t, c.WriteVector3(vmath.Vector3{X: 1, Y: 2, Z: 3}))
	require.NoError(t, c.Close())

	require.NoError(t, c.StartRead())

	ok, err := c.SeekIdentifier(tagWorld)
	require.NoError(t, err)
	require.True(t, ok)
	m, err := c.ReadMatrix()
	require.NoError(t, err)
	require.Equal(t, vmath.Identity(), m)
	v, err := c.ReadVector3()
	require.NoError(t, err)
	require.Equal(t, vmath.Vector3{X: 1, Y: 2, Z: 3}, v)

	// Fields can be read in any order, not just write order
	ok, err = c.SeekIdentifier(tagName)
	require.NoError(t, err)
	require.True(t, ok)
	s, err := c.ReadString()
	require.NoError(t, err)
	require.Equal(t, "Level_01", s)
}

func TestSeekAbsentIdentifier(t *testing.T) {
	a := newTestArena(t)
	c := New(a, 1)
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteIdentifier(tagName))
	require.NoError(t, c.WriteUint32(7))
	require.NoError(t, c.Close())
	require.NoError(t, c.StartRead())

	before := c.Tell()
	ok, err := c.SeekIdentifier(tagExtra)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, before, c.Tell())
}

func TestDuplicateIdentifierFirstWins(t *testing.T) {
	a := newTestArena(t)
	c := New(a, 1)
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteIdentifier(tagName))
	require.NoError(t, c.WriteUint32(111))
	require.NoError(t, c.WriteIdentifier(tagName))
	require.NoError(t, c.WriteUint32(222))
	require.NoError(t, c.Close())
	require.NoError(t, c.StartRead())

	ok, err := c.SeekIdentifier(tagName)
	require.NoError(t, err)
	require.True(t, ok)
	w, err := c.ReadUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(111), w)
}

func TestIdentifierMustBeginData(t *testing.T) {
	a := newTestArena(t)
	c := New(a, 1)
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteUint32(1))
	err := c.WriteIdentifier(tagName)
	require.Error(t, err)
	require.Equal(t, errors.InvalidState, errors.Code(err))
}

func TestModeErrors(t *testing.T) {
	a := newTestArena(t)
	c := New(a, 1)

	// Uninitialized chunk rejects everything
	require.Error(t, c.WriteUint32(1))
	require.Error(t, c.StartRead())
	_, err := c.ReadUint32()
	require.Error(t, err)

	require.NoError(t, c.StartWrite())
	_, err = c.ReadUint32()
	require.Equal(t, errors.InvalidState, errors.Code(err))

	require.NoError(t, c.WriteUint32(42))
	require.NoError(t, c.Close())
	require.Equal(t, errors.InvalidState, errors.Code(c.WriteUint32(1)))

	// Reading before StartRead fails even when the chunk is readable
	_, err = c.ReadUint32()
	require.Equal(t, errors.InvalidState, errors.Code(err))
	require.NoError(t, c.StartRead())
	w, err := c.ReadUint32()
	require.NoError(t, err)
	require.Equal(t, uint32(42), w)
}

func TestReadPastEnd(t *testing.T) {
	a := newTestArena(t)
	c := New(a, 1)
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteUint32(1))
	require.NoError(t, c.Close())
	require.NoError(t, c.StartRead())

	_, err := c.ReadUint32()
	require.NoError(t, err)
	_, err = c.ReadUint32()
	require.Equal(t, errors.Corruption, errors.Code(err))
}

func TestArrayAccessors(t *testing.T) {
	a := newTestArena(t)
	c := New(a, 1)
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteUint32Array([]uint32{1, 2, 3}))
	require.NoError(t, c.WriteInt32Array([]int32{-1, 0, 1}))
	require.NoError(t, c.WriteFloat32Array([]float32{0.5, 1.5}))
	require.NoError(t, c.WriteStringArray([]string{"a", "bc", ""}))
	require.NoError(t, c.WriteVector3Array([]vmath.Vector3{{X: 1}, {Y: 2}}))
	require.NoError(t, c.Close())
	require.NoError(t, c.StartRead())

	u, err := c.ReadUint32Array()
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, u)
	i, err := c.ReadInt32Array()
	require.NoError(t, err)
	require.Equal(t, []int32{-1, 0, 1}, i)
	f, err := c.ReadFloat32Array()
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, 1.5}, f)
	s, err := c.ReadStringArray()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "bc", ""}, s)
	v, err := c.ReadVector3Array()
	require.NoError(t, err)
	require.Equal(t, []vmath.Vector3{{X: 1}, {Y: 2}}, v)
}

func TestSubChunks(t *testing.T) {
	a := newTestArena(t)

	child := New(a, 7)
	child.SetDataVersion(2)
	require.NoError(t, child.StartWrite())
	require.NoError(t, child.WriteUint32(0xCAFE))
	require.NoError(t, child.Close())

	parent := New(a, 1)
	require.NoError(t, parent.StartWrite())
	require.NoError(t, parent.WriteIdentifier(tagChildren))
	require.NoError(t, parent.WriteSubChunk(child))
	require.NoError(t, parent.Close())
	require.Equal(t, 1, parent.SubChunkCount())

	require.NoError(t, parent.StartRead())
	ok, err := parent.SeekIdentifier(tagChildren)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := parent.ReadSubChunk(a)
	require.NoError(t, err)
	require.True(t, got.Equal(child))

	// ReadSubChunk copies; mutating the copy leaves the original alone
	require.NoError(t, got.StartWrite())
	require.NoError(t, got.Close())
	shared, err := parent.SubChunk(0)
	require.NoError(t, err)
	require.Equal(t, 1, shared.DataWords())
}

func TestWriteSubChunkRequiresClosed(t *testing.T) {
	a := newTestArena(t)
	child := New(a, 7)
	require.NoError(t, child.StartWrite())

	parent := New(a, 1)
	require.NoError(t, parent.StartWrite())
	err := parent.WriteSubChunk(child)
	require.Equal(t, errors.InvalidState, errors.Code(err))
}

func TestCloneAndEqual(t *testing.T) {
	a := newTestArena(t)
	c := New(a, 3)
	c.SetVersions(5, CurrentChunkVersion)
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteIdentifier(tagName))
	require.NoError(t, c.WriteObjectID(42))
	require.NoError(t, c.AddManager(9))
	require.NoError(t, c.Close())

	d, err := c.Clone(a)
	require.NoError(t, err)
	require.True(t, c.Equal(d))

	// Clones are independent
	require.NoError(t, d.StartRead())
	_, err = d.SeekIdentifier(tagName)
	require.NoError(t, err)
	require.NoError(t, d.RemapObjectIDs(func() *RemapTable {
		tbl := NewRemapTable()
		tbl.Add(42, 43)
		return tbl
	}()))
	require.False(t, c.Equal(d))
}

func TestArenaGenerationGuard(t *testing.T) {
	a := arena.New(4096)
	defer a.Destroy()

	c := New(a, 1)
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteUint32(1))

	a.Reset()
	err := c.WriteUint32(2)
	require.Equal(t, errors.InvalidState, errors.Code(err))
}

func TestStartWriteDiscardsContent(t *testing.T) {
	a := newTestArena(t)
	c := New(a, 1)
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteIdentifier(tagName))
	require.NoError(t, c.WriteObjectID(3))
	require.NoError(t, c.AddManager(1))
	require.NoError(t, c.Close())

	require.NoError(t, c.StartWrite())
	require.Equal(t, 0, c.DataWords())
	require.Empty(t, c.Identifiers())
	require.Empty(t, c.ObjectIDPositions())
	require.Empty(t, c.Managers())
}
