// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// # File format
//
// Scene files use [ioutil]'s segmented stream format with the following
// section types:
//
//   - [SectionTypeHeader] - file metadata. A file must begin with this
//     section. The header is itself a serialized chunk, so the container
//     format has a single payload encoding.
//   - [SectionTypeObjects] - the object records: a series of serialized
//     chunks, each prefixed with a 32-bit byte length.
//   - [SectionTypeIndex] - fixed-width entries locating each object within
//     the objects section, for random access. Optional.
//
// All lengths and header fields are little-endian, matching the chunks they
// carry.
package nmofile

import (
	"fmt"
	"io"

	"github.com/doyaGu/nmo/pkg/errors"
	"github.com/doyaGu/nmo/pkg/ioutil"
)

// Version is the container format version written by this library.
const Version = 2

// SectionType classifies a file section.
type SectionType uint16

const (
	// SectionTypeHeader is the file metadata section.
	SectionTypeHeader SectionType = 1
	// SectionTypeObjects is the object record section.
	SectionTypeObjects SectionType = 2
	// SectionTypeIndex is the random-access index section.
	SectionTypeIndex SectionType = 3
)

func (s SectionType) String() string {
	switch s {
	case SectionTypeHeader:
		return "header"
	case SectionTypeObjects:
		return "objects"
	case SectionTypeIndex:
		return "index"
	default:
		return fmt.Sprintf("SectionType:%d", uint16(s))
	}
}

// GetEnumValue returns the section type as a number.
func (s SectionType) GetEnumValue() uint64 { return uint64(s) }

// SetEnumValue sets the section type from a number. SetEnumValue returns
// false if the number is not a valid section type.
func (s *SectionType) SetEnumValue(v uint64) bool {
	u := SectionType(v)
	switch u {
	case SectionTypeHeader, SectionTypeObjects, SectionTypeIndex:
		*s = u
		return true
	default:
		return false
	}
}

type rawWriter = ioutil.SegmentedWriter[SectionType, *SectionType]
type segmentWriter = ioutil.SegmentWriter[SectionType, *SectionType]
type fileSection = ioutil.Segment[SectionType, *SectionType]

// GetVersion reads the container version without validating it.
func GetVersion(file ioutil.SectionReader) (uint32, error) {
	r, err := open(file)
	if err != nil {
		return 0, errors.UnknownError.Wrap(err)
	}
	return r.Header.FormatVersion, nil
}

func open(file ioutil.SectionReader) (*Reader, error) {
	r := new(Reader)
	for sr := ioutil.NewSegmentedReader[SectionType](file); ; {
		section, err := sr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.UnknownError.Wrap(err)
		}
		r.Sections = append(r.Sections, section)
	}

	if len(r.Sections) == 0 {
		return nil, errors.Corruption.WithFormat("empty file")
	}
	if r.Sections[0].Type() != SectionTypeHeader {
		return nil, errors.Corruption.WithFormat("bad first section: expected %v, got %v", SectionTypeHeader, r.Sections[0].Type())
	}

	sr, err := r.Sections[0].Open()
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open header section: %w", err)
	}

	b, err := io.ReadAll(sr)
	if err != nil {
		return nil, errors.IOError.WithFormat("read header: %w", err)
	}
	r.Header = new(Header)
	err = r.Header.unmarshal(b)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("read header: %w", err)
	}

	return r, nil
}

// Open opens a scene file for reading.
func Open(file ioutil.SectionReader) (*Reader, error) {
	r, err := open(file)
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}

	if r.Header.FormatVersion != Version {
		return nil, errors.VersionIncompatible.WithFormat("wrong version: want %d, got %d", Version, r.Header.FormatVersion)
	}

	return r, nil
}

// Create opens a scene file for writing.
func Create(file io.WriteSeeker) (*Writer, error) {
	wr := ioutil.NewSegmentedWriter[SectionType](file)
	return &Writer{wr: wr}, nil
}
