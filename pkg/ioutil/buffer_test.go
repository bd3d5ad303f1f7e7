// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package ioutil

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferReadWriteSeek(t *testing.T) {
	b := new(Buffer)
	n, err := b.Write([]byte("hello world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, 11, b.Len())
	require.Equal(t, int64(11), b.Tell())

	_, err = b.Seek(6, io.SeekStart)
	require.NoError(t, err)
	p := make([]byte, 5)
	_, err = io.ReadFull(b, p)
	require.NoError(t, err)
	require.Equal(t, "world", string(p))

	_, err = io.ReadFull(b, p)
	require.ErrorIs(t, err, io.EOF)

	// Overwrite in the middle
	_, err = b.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = b.Write([]byte("HELLO"))
	require.NoError(t, err)
	require.Equal(t, "HELLO world", string(b.Bytes()))
}

func TestBufferReadAt(t *testing.T) {
	b := NewBuffer([]byte("abcdef"))
	p := make([]byte, 3)
	n, err := b.ReadAt(p, 2)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, "cde", string(p))
	require.Equal(t, int64(0), b.Tell(), "ReadAt moved the position")

	// Short reads must report io.EOF
	n, err = b.ReadAt(p, 4)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, n)
	require.Equal(t, "ef", string(p[:n]))

	_, err = b.ReadAt(p, 100)
	require.Error(t, err)
}

func TestBufferSeekBounds(t *testing.T) {
	b := NewBuffer([]byte("abc"))
	_, err := b.Seek(-1, io.SeekStart)
	require.Error(t, err)
	_, err = b.Seek(1, io.SeekEnd)
	require.Error(t, err)
	off, err := b.Seek(-1, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(2), off)
}

func TestSectionWriterBounds(t *testing.T) {
	buf := NewBuffer(make([]byte, 8))
	w, err := NewSectionWriter(buf, 2, 6)
	require.NoError(t, err)

	_, err = w.Write([]byte("abcd"))
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 'a', 'b', 'c', 'd', 0, 0}, buf.Bytes())

	_, err = w.Write([]byte("x"))
	require.Error(t, err, "write past the section end")
}

func TestSectionReaderBounds(t *testing.T) {
	buf := NewBuffer([]byte("abcdef"))
	r, err := NewSectionReader(buf, 2, 5)
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "cde", string(b))
}
