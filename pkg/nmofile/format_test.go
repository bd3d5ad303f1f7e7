// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package nmofile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/errors"
	"github.com/doyaGu/nmo/pkg/ioutil"
)

func writeObject(t *testing.T, a *arena.Arena, classID uint8, id chunk.ID) *chunk.Chunk {
	t.Helper()
	c := chunk.New(a, classID)
	c.SetDataVersion(3)
	require.NoError(t, c.StartWrite())
	require.NoError(t, c.WriteIdentifier(0x4F424A01))
	require.NoError(t, c.WriteObjectID(id))
	require.NoError(t, c.Close())
	return c
}

func writeTestFile(t *testing.T, a *arena.Arena) *ioutil.Buffer {
	t.Helper()
	buf := new(ioutil.Buffer)
	w, err := Create(buf)
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader(&Header{
		FormatVersion: Version,
		DataVersion:   3,
		Tool:          "nmo-test",
		ObjectCount:   2,
	}))
	require.NoError(t, w.WriteObject(writeObject(t, a, 10, 42)))
	require.NoError(t, w.WriteObject(writeObject(t, a, 11, 7)))
	require.NoError(t, w.Close())
	return reopen(buf)
}

// reopen rewinds a buffer for reading.
func reopen(b *ioutil.Buffer) *ioutil.Buffer {
	return ioutil.NewBuffer(b.Bytes())
}

func TestFileRoundTrip(t *testing.T) {
	a := arena.New(4096)
	defer a.Destroy()
	buf := writeTestFile(t, a)

	r, err := Open(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(Version), r.Header.FormatVersion)
	require.Equal(t, uint8(3), r.Header.DataVersion)
	require.Equal(t, "nmo-test", r.Header.Tool)
	require.Equal(t, uint32(2), r.Header.ObjectCount)

	objects, err := r.Objects(a)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	require.Equal(t, uint8(10), objects[0].ClassID())
	require.Equal(t, uint8(11), objects[1].ClassID())

	require.NoError(t, objects[0].StartRead())
	ok, err := objects[0].SeekIdentifier(0x4F424A01)
	require.NoError(t, err)
	require.True(t, ok)
	id, err := objects[0].ReadObjectID()
	require.NoError(t, err)
	require.Equal(t, chunk.ID(42), id)
}

func TestFileIndex(t *testing.T) {
	a := arena.New(4096)
	defer a.Destroy()
	buf := writeTestFile(t, a)

	r, err := Open(buf)
	require.NoError(t, err)
	entries, err := r.Index()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, uint8(10), entries[0].ClassID)
	require.Equal(t, uint8(11), entries[1].ClassID)
	require.Zero(t, entries[0].Offset)

	// Random access through an index entry
	c, err := r.ObjectAt(entries[1], a)
	require.NoError(t, err)
	require.Equal(t, uint8(11), c.ClassID())
}

func TestFileSectionOrder(t *testing.T) {
	a := arena.New(4096)
	defer a.Destroy()
	buf := writeTestFile(t, a)

	r, err := Open(buf)
	require.NoError(t, err)
	require.Len(t, r.Sections, 3)
	require.Equal(t, SectionTypeHeader, r.Sections[0].Type())
	require.Equal(t, SectionTypeObjects, r.Sections[1].Type())
	require.Equal(t, SectionTypeIndex, r.Sections[2].Type())
}

func TestOpenRejectsWrongVersion(t *testing.T) {
	a := arena.New(4096)
	defer a.Destroy()

	buf := new(ioutil.Buffer)
	w, err := Create(buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(&Header{FormatVersion: Version + 1}))
	require.NoError(t, w.Close())

	rd := reopen(buf)
	_, err = Open(rd)
	require.Equal(t, errors.VersionIncompatible, errors.Code(err))

	// GetVersion still reads it
	rd = reopen(buf)
	v, err := GetVersion(rd)
	require.NoError(t, err)
	require.Equal(t, uint32(Version+1), v)
}

func TestWriterEnforcesOrder(t *testing.T) {
	a := arena.New(4096)
	defer a.Destroy()

	buf := new(ioutil.Buffer)
	w, err := Create(buf)
	require.NoError(t, err)

	err = w.WriteObject(writeObject(t, a, 1, 1))
	require.Equal(t, errors.InvalidState, errors.Code(err))
	require.Equal(t, errors.InvalidState, errors.Code(w.Close()))

	require.NoError(t, w.WriteHeader(&Header{FormatVersion: Version}))
	err = w.WriteHeader(&Header{FormatVersion: Version})
	require.Equal(t, errors.InvalidState, errors.Code(err))
}

func TestObjectCountMismatch(t *testing.T) {
	a := arena.New(4096)
	defer a.Destroy()

	buf := new(ioutil.Buffer)
	w, err := Create(buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(&Header{FormatVersion: Version, ObjectCount: 5}))
	require.NoError(t, w.WriteObject(writeObject(t, a, 1, 1)))
	require.NoError(t, w.Close())

	r, err := Open(reopen(buf))
	require.NoError(t, err)
	_, err = r.Objects(a)
	require.Equal(t, errors.Corruption, errors.Code(err))
}
