// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package ioutil implements the streaming collaborators of the chunk codec: an
// in-memory seekable buffer, bounded section readers and writers, a segmented
// file reader/writer, and a memory-mapped file reader. The codec never touches
// raw file handles; it consumes these interfaces.
package ioutil

import (
	"io"
	"io/fs"
)

// Buffer is an [io.ReadWriteSeeker] and [io.ReaderAt] backed by a byte array.
type Buffer struct {
	buf []byte
	pos int
}

var _ io.WriteSeeker = (*Buffer)(nil)
var _ SectionReader = (*Buffer)(nil)

func NewBuffer(b []byte) *Buffer {
	return &Buffer{buf: b}
}

func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.buf) }

// Tell returns the current position.
func (b *Buffer) Tell() int64 { return int64(b.pos) }

func (b *Buffer) Read(v []byte) (int, error) {
	if b.pos >= len(b.buf) {
		return 0, io.EOF
	}
	n := copy(v, b.buf[b.pos:])
	b.pos += n
	return n, nil
}

func (b *Buffer) ReadAt(v []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(b.buf)) {
		return 0, fs.ErrInvalid
	}
	n := copy(v, b.buf[off:])
	if n < len(v) {
		// io.ReaderAt requires an error for short reads
		return n, io.EOF
	}
	return n, nil
}

func (b *Buffer) Write(v []byte) (int, error) {
	if len(b.buf) < b.pos+len(v) {
		b.buf = append(b.buf, make([]byte, b.pos+len(v)-len(b.buf))...)
	}
	copy(b.buf[b.pos:], v)
	b.pos += len(v)
	return len(v), nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		// Ok
	case io.SeekCurrent:
		offset += int64(b.pos)
	case io.SeekEnd:
		offset += int64(len(b.buf))
	default:
		return 0, fs.ErrInvalid
	}

	if offset < 0 || offset > int64(len(b.buf)) {
		return 0, fs.ErrInvalid
	}

	b.pos = int(offset)
	return int64(b.pos), nil
}

// Close resets the position. The buffer remains usable.
func (b *Buffer) Close() error {
	b.pos = 0
	return nil
}
