// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package nmofile

import (
	"encoding/binary"

	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/errors"
)

// Writer writes a scene file. Sections must be written in order: WriteHeader,
// then WriteObject for each object, then Close.
type Writer struct {
	wr      *rawWriter
	objects *objectsWriter
	wrote   map[SectionType]bool
	index   []IndexEntry
}

type objectsWriter struct {
	seg    *segmentWriter
	offset int64
}

// WriteHeader writes the header section. WriteHeader must be called first.
func (w *Writer) WriteHeader(h *Header) error {
	if w.wrote[SectionTypeHeader] {
		return errors.InvalidState.With("header has already been written")
	}

	b, err := h.marshal()
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}

	sw, err := w.wr.Open(SectionTypeHeader)
	if err != nil {
		return errors.UnknownError.WithFormat("open header section: %w", err)
	}
	_, err = sw.Write(b)
	if err != nil {
		return errors.IOError.WithFormat("write header: %w", err)
	}
	err = sw.Close()
	if err != nil {
		return errors.UnknownError.WithFormat("close header section: %w", err)
	}

	w.setWrote(SectionTypeHeader)
	return nil
}

// WriteObject serializes the chunk and appends it to the objects section,
// recording an index entry for it. The objects section is opened on the first
// call.
func (w *Writer) WriteObject(c *chunk.Chunk) error {
	if !w.wrote[SectionTypeHeader] {
		return errors.InvalidState.With("header has not been written")
	}
	if w.wrote[SectionTypeObjects] {
		return errors.InvalidState.With("objects section has been closed")
	}

	if w.objects == nil {
		seg, err := w.wr.Open(SectionTypeObjects)
		if err != nil {
			return errors.UnknownError.WithFormat("open objects section: %w", err)
		}
		w.objects = &objectsWriter{seg: seg}
	}

	b, err := c.Serialize()
	if err != nil {
		return errors.UnknownError.WithFormat("serialize object: %w", err)
	}

	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(b)))
	_, err = w.objects.seg.Write(size[:])
	if err != nil {
		return errors.IOError.WithFormat("write object size: %w", err)
	}
	_, err = w.objects.seg.Write(b)
	if err != nil {
		return errors.IOError.WithFormat("write object: %w", err)
	}

	w.index = append(w.index, IndexEntry{
		ClassID: c.ClassID(),
		Offset:  uint64(w.objects.offset),
		Size:    uint64(len(b)),
	})
	w.objects.offset += 4 + int64(len(b))
	return nil
}

// Close closes the objects section, writes the index section, and finalizes
// the file.
func (w *Writer) Close() error {
	if !w.wrote[SectionTypeHeader] {
		return errors.InvalidState.With("header has not been written")
	}

	if w.objects != nil {
		err := w.objects.seg.Close()
		if err != nil {
			return errors.UnknownError.WithFormat("close objects section: %w", err)
		}
		w.objects = nil
		w.setWrote(SectionTypeObjects)
	}

	if len(w.index) > 0 {
		sw, err := w.wr.Open(SectionTypeIndex)
		if err != nil {
			return errors.UnknownError.WithFormat("open index section: %w", err)
		}
		var entry [indexEntrySize]byte
		for _, e := range w.index {
			binary.LittleEndian.PutUint32(entry[0:], uint32(e.ClassID))
			binary.LittleEndian.PutUint64(entry[8:], e.Offset)
			binary.LittleEndian.PutUint64(entry[16:], e.Size)
			_, err = sw.Write(entry[:])
			if err != nil {
				return errors.IOError.WithFormat("write index entry: %w", err)
			}
		}
		err = sw.Close()
		if err != nil {
			return errors.UnknownError.WithFormat("close index section: %w", err)
		}
		w.setWrote(SectionTypeIndex)
	}

	return nil
}

func (w *Writer) setWrote(typ SectionType) {
	if w.wrote == nil {
		w.wrote = map[SectionType]bool{}
	}
	w.wrote[typ] = true
}
