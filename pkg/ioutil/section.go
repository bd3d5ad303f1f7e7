// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package ioutil

import (
	"io"

	"github.com/doyaGu/nmo/pkg/errors"
)

// SectionReader is a readable, seekable byte source.
type SectionReader interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// NewSectionReader returns a reader bounded to [start, end) of rd. Negative
// start means the current position; negative end means the end of the stream.
func NewSectionReader(rd SectionReader, start, end int64) (*io.SectionReader, error) {
	var err error
	if start < 0 {
		start, err = rd.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, errors.IOError.Wrap(err)
		}
	}
	if end < 0 {
		end, err = rd.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, errors.IOError.Wrap(err)
		}
	}
	return io.NewSectionReader(rd, start, end-start), nil
}

// SectionWriter is a writer bounded to a byte range of an underlying
// [io.WriteSeeker].
type SectionWriter struct {
	wr io.WriteSeeker

	start, offset, end int64
}

// NewSectionWriter returns a writer bounded to [start, end) of wr. Negative
// start means the current position; negative end means unbounded.
func NewSectionWriter(wr io.WriteSeeker, start, end int64) (*SectionWriter, error) {
	offset, err := wr.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.IOError.Wrap(err)
	}
	if start < 0 {
		start = offset
	}
	if offset < start || (end >= 0 && offset >= end) {
		offset, err = wr.Seek(start, io.SeekStart)
		if err != nil {
			return nil, errors.IOError.Wrap(err)
		}
	}
	return &SectionWriter{wr, start, offset, end}, nil
}

func (s *SectionWriter) Write(p []byte) (n int, err error) {
	if s.end >= 0 && s.offset+int64(len(p)) > s.end {
		return 0, errors.InvalidArgument.With("attempted to write past the end of the section")
	}
	n, err = s.wr.Write(p)
	if err != nil {
		return 0, errors.IOError.Wrap(err)
	}
	s.offset += int64(n)
	return n, nil
}

func (s *SectionWriter) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		offset += s.start
	case io.SeekCurrent:
		offset += s.offset
	case io.SeekEnd:
		end := s.end
		if end < 0 {
			// If the caller did not define the end, find it
			var err error
			end, err = s.wr.Seek(0, io.SeekEnd)
			if err != nil {
				return 0, errors.IOError.Wrap(err)
			}
		}

		offset += end
	default:
		return 0, errors.InvalidArgument.With("invalid whence")
	}

	if offset < s.start {
		return 0, errors.InvalidArgument.With("attempted to seek past the start of the section")
	}
	if s.end >= 0 && offset >= s.end {
		return 0, io.EOF
	}

	offset, err := s.wr.Seek(offset, io.SeekStart)
	if err != nil {
		return 0, errors.IOError.Wrap(err)
	}

	s.offset = offset
	return offset - s.start, nil
}

// Discard is an [io.WriteSeeker] that discards all data written to it. It is
// used to measure serialized sizes without allocating.
type Discard struct {
	offset int64
	end    int64
}

func (d *Discard) Write(p []byte) (n int, err error) {
	d.offset += int64(len(p))
	return len(p), nil
}

func (d *Discard) Seek(offset int64, whence int) (int64, error) {
	if d.offset > d.end {
		d.end = d.offset
	}
	switch whence {
	case io.SeekCurrent:
		d.offset += offset
	case io.SeekStart:
		d.offset = offset
	case io.SeekEnd:
		d.offset = d.end + offset
	default:
		return 0, errors.InvalidArgument.With("invalid whence")
	}
	return d.offset, nil
}
