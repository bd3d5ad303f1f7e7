// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package nmofile

import (
	"encoding/binary"
	"io"

	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/errors"
	"github.com/doyaGu/nmo/pkg/ioutil"
)

// indexEntrySize is the encoded size of an [IndexEntry]: the class ID uses a
// full word and is padded to the offset field's 8-byte boundary.
const indexEntrySize = 24

// IndexEntry locates one object record within the objects section. Offset is
// relative to the start of the section and addresses the record's size
// prefix.
type IndexEntry struct {
	ClassID uint8
	Offset  uint64
	Size    uint64
}

// Reader reads a scene file.
type Reader struct {
	// Header is the file header.
	Header *Header

	// Sections are the file's sections, in file order.
	Sections []*fileSection
}

// Section returns the first section of the given type, or nil.
func (r *Reader) Section(typ SectionType) *fileSection {
	for _, s := range r.Sections {
		if s.Type() == typ {
			return s
		}
	}
	return nil
}

// Objects reads every object record, allocating the chunks from the arena.
func (r *Reader) Objects(a *arena.Arena) ([]*chunk.Chunk, error) {
	s := r.Section(SectionTypeObjects)
	if s == nil {
		return nil, nil
	}

	sr, err := s.Open()
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open objects section: %w", err)
	}

	var objects []*chunk.Chunk
	for {
		c, err := readObject(sr, a)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.UnknownError.Wrap(err)
		}
		objects = append(objects, c)
	}

	if r.Header.ObjectCount != 0 && int(r.Header.ObjectCount) != len(objects) {
		return nil, errors.Corruption.WithFormat("object count mismatch: header says %d, found %d", r.Header.ObjectCount, len(objects))
	}
	return objects, nil
}

// Index reads the index section. Index returns nil if the file has no index.
func (r *Reader) Index() ([]IndexEntry, error) {
	s := r.Section(SectionTypeIndex)
	if s == nil {
		return nil, nil
	}
	if s.Size()%indexEntrySize != 0 {
		return nil, errors.Corruption.WithFormat("index section size %d is not a multiple of %d", s.Size(), indexEntrySize)
	}

	sr, err := s.Open()
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open index section: %w", err)
	}

	entries := make([]IndexEntry, s.Size()/indexEntrySize)
	var b [indexEntrySize]byte
	for i := range entries {
		_, err = io.ReadFull(sr, b[:])
		if err != nil {
			return nil, errors.IOError.WithFormat("read index entry: %w", err)
		}
		entries[i] = IndexEntry{
			ClassID: uint8(binary.LittleEndian.Uint32(b[0:])),
			Offset:  binary.LittleEndian.Uint64(b[8:]),
			Size:    binary.LittleEndian.Uint64(b[16:]),
		}
	}
	return entries, nil
}

// ObjectAt reads the object record located by the index entry, allocating the
// chunk from the arena.
func (r *Reader) ObjectAt(e IndexEntry, a *arena.Arena) (*chunk.Chunk, error) {
	s := r.Section(SectionTypeObjects)
	if s == nil {
		return nil, errors.NotFound.With("file has no objects section")
	}
	if e.Offset+4+e.Size > uint64(s.Size()) {
		return nil, errors.Corruption.WithFormat("index entry is out of bounds")
	}

	sr, err := s.Open()
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open objects section: %w", err)
	}
	_, err = sr.Seek(int64(e.Offset), io.SeekStart)
	if err != nil {
		return nil, errors.IOError.WithFormat("seek to object: %w", err)
	}

	c, err := readObject(sr, a)
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	return c, nil
}

func readObject(sr ioutil.SectionReader, a *arena.Arena) (*chunk.Chunk, error) {
	var size [4]byte
	_, err := io.ReadFull(sr, size[:])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Corruption.WithFormat("read object size: %w", err)
	}

	b := make([]byte, binary.LittleEndian.Uint32(size[:]))
	_, err = io.ReadFull(sr, b)
	if err != nil {
		return nil, errors.Corruption.WithFormat("read object: %w", err)
	}

	c, err := chunk.Deserialize(b, a)
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	return c, nil
}
