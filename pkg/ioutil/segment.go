// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package ioutil

import (
	"encoding/binary"
	"io"

	"github.com/doyaGu/nmo/pkg/errors"
)

// A segmented stream is a sequence of typed segments. Each segment starts
// with a 64-byte header on a 64-byte boundary: the segment type (16 bits),
// the payload size (64 bits at offset 8), and the offset of the next segment
// header (64 bits at offset 16, zero for the last segment). All header fields
// are little-endian, matching the chunk payloads they carry.
const segmentAlign = 64

type enumGet interface {
	comparable
	GetEnumValue() uint64
}

type enumSet[V any] interface {
	*V
	SetEnumValue(uint64) bool
}

// NewSegmentedReader returns a new segmented reader for the stream.
func NewSegmentedReader[V enumGet, U enumSet[V]](file SectionReader) *SegmentedReader[V, U] {
	return &SegmentedReader[V, U]{file: file}
}

// SegmentedReader reads a segmented stream.
type SegmentedReader[V enumGet, U enumSet[V]] struct {
	file   SectionReader
	offset int64
	done   bool
}

// Next finds the next segment. Next returns [io.EOF] after the last segment.
func (r *SegmentedReader[V, U]) Next() (*Segment[V, U], error) {
	if r.done {
		return nil, io.EOF
	}

	_, err := r.file.Seek(r.offset, io.SeekStart)
	if err != nil {
		return nil, errors.IOError.WithFormat("seek to next segment: %w", err)
	}

	var header [segmentAlign]byte
	_, err = io.ReadFull(r.file, header[:])
	if err != nil {
		return nil, errors.Corruption.WithFormat("read segment header: %w", err)
	}

	typ := U(new(V))
	v := binary.LittleEndian.Uint16(header[0:])
	if !typ.SetEnumValue(uint64(v)) {
		return nil, errors.Corruption.WithFormat("%d is not a valid segment type", v)
	}

	s := new(Segment[V, U])
	s.file = r.file
	s.offset = r.offset + segmentAlign
	s.typ = *typ
	s.size = int64(binary.LittleEndian.Uint64(header[8:]))
	next := int64(binary.LittleEndian.Uint64(header[16:]))

	r.offset = next
	if next == 0 {
		r.done = true
	}
	return s, nil
}

// Segment is a segment of a stream.
type Segment[V enumGet, U enumSet[V]] struct {
	typ    V
	offset int64
	file   SectionReader
	size   int64
}

// Type returns the segment's type.
func (s *Segment[V, U]) Type() V { return s.typ }

// Offset returns the segment's payload offset.
func (s *Segment[V, U]) Offset() int64 { return s.offset }

// Size returns the segment's payload size.
func (s *Segment[V, U]) Size() int64 { return s.size }

// Open opens the segment for reading.
func (s *Segment[V, U]) Open() (SectionReader, error) {
	return NewSectionReader(s.file, s.offset, s.offset+s.size)
}

// NewSegmentedWriter returns a new segmented writer.
func NewSegmentedWriter[V enumGet, U enumSet[V]](w io.WriteSeeker) *SegmentedWriter[V, U] {
	return &SegmentedWriter[V, U]{file: w}
}

// SegmentedWriter writes a segmented stream.
type SegmentedWriter[V enumGet, U enumSet[V]] struct {
	file        io.WriteSeeker
	openSegment bool
	prevSegment int64
}

// Open opens a segment. The previous segment must be closed first.
func (w *SegmentedWriter[V, U]) Open(typ V) (*SegmentWriter[V, U], error) {
	if w.openSegment {
		return nil, errors.InvalidState.WithFormat("previous segment has not been closed")
	}

	// Get the current offset
	offset, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.IOError.WithFormat("get stream offset: %w", err)
	}

	// Update the previous segment's next-header pointer
	if offset > 0 {
		_, err = w.file.Seek(w.prevSegment+16, io.SeekStart)
		if err != nil {
			return nil, errors.IOError.WithFormat("set stream offset: %w", err)
		}

		var headerPart [8]byte
		binary.LittleEndian.PutUint64(headerPart[:], uint64(offset))
		_, err = w.file.Write(headerPart[:])
		if err != nil {
			return nil, errors.IOError.WithFormat("write segment header: %w", err)
		}

		_, err = w.file.Seek(offset, io.SeekStart)
		if err != nil {
			return nil, errors.IOError.WithFormat("set stream offset: %w", err)
		}
	}

	// Save space for the header
	_, err = w.file.Write(make([]byte, segmentAlign))
	if err != nil {
		return nil, errors.IOError.WithFormat("allocate space for header: %w", err)
	}

	segment, err := NewSectionWriter(w.file, offset+segmentAlign, -1)
	if err != nil {
		return nil, errors.IOError.WithFormat("create segment writer: %w", err)
	}

	w.openSegment = true
	return &SegmentWriter[V, U]{typ, offset, w, segment}, nil
}

func (w *SegmentedWriter[V, U]) closeSegment(s *SegmentWriter[V, U]) error {
	// Get current offset
	current, err := w.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.IOError.WithFormat("get stream offset: %w", err)
	}

	// Seek to the header
	_, err = w.file.Seek(s.offset, io.SeekStart)
	if err != nil {
		return errors.IOError.WithFormat("seek to segment header: %w", err)
	}

	// Write the segment header
	var header [segmentAlign]byte
	binary.LittleEndian.PutUint16(header[0:], uint16(s.typ.GetEnumValue()))
	binary.LittleEndian.PutUint64(header[8:], uint64(current-s.offset-segmentAlign))
	_, err = w.file.Write(header[:])
	if err != nil {
		return errors.IOError.WithFormat("write segment header: %w", err)
	}

	// Return to the original offset
	_, err = w.file.Seek(current, io.SeekStart)
	if err != nil {
		return errors.IOError.WithFormat("restore stream offset: %w", err)
	}

	// Pad to the alignment boundary
	if current%segmentAlign > 0 {
		pad := segmentAlign - current%segmentAlign
		_, err = w.file.Write(make([]byte, pad))
		if err != nil {
			return errors.IOError.WithFormat("pad end of segment: %w", err)
		}
	}

	w.openSegment = false
	w.prevSegment = s.offset
	return nil
}

// A SegmentWriter writes one segment of a segmented stream.
type SegmentWriter[V enumGet, U enumSet[V]] struct {
	typ     V
	offset  int64
	file    *SegmentedWriter[V, U]
	segment *SectionWriter
}

// Type returns the segment's type.
func (s *SegmentWriter[V, U]) Type() V { return s.typ }

// Write writes bytes.
func (w *SegmentWriter[V, U]) Write(p []byte) (n int, err error) {
	return w.segment.Write(p)
}

// Seek seeks to an offset within the segment.
func (w *SegmentWriter[V, U]) Seek(offset int64, whence int) (int64, error) {
	return w.segment.Seek(offset, whence)
}

// Close closes the segment and finalizes its header.
func (w *SegmentWriter[V, U]) Close() error {
	return w.file.closeSegment(w)
}
