// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package nmofile

import (
	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/errors"
)

// Header field tags. The header is stored as a chunk so the container has a
// single payload encoding; these tags label its fields.
const (
	tagFormatVersion chunk.Tag = 0x48445201 // format version
	tagDataVersion   chunk.Tag = 0x48445202 // schema version of the objects
	tagTool          chunk.Tag = 0x48445203 // producing tool name
	tagObjectCount   chunk.Tag = 0x48445204 // number of object records
)

// Header is the file header.
type Header struct {
	// FormatVersion is the container format version.
	FormatVersion uint32

	// DataVersion is the schema version the object records were written at.
	DataVersion uint8

	// Tool names the application that produced the file.
	Tool string

	// ObjectCount is the number of object records in the objects section.
	ObjectCount uint32
}

func (h *Header) marshal() ([]byte, error) {
	a := arena.New(arena.DefaultBlockSize)
	defer a.Destroy()

	c := chunk.New(a, 0)
	err := c.StartWrite()
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	c.SetDataVersion(h.DataVersion)

	writeField := func(tag chunk.Tag, write func() error) {
		if err != nil {
			return
		}
		err = c.WriteIdentifier(tag)
		if err == nil {
			err = write()
		}
	}
	writeField(tagFormatVersion, func() error { return c.WriteUint32(h.FormatVersion) })
	writeField(tagDataVersion, func() error { return c.WriteUint32(uint32(h.DataVersion)) })
	writeField(tagTool, func() error { return c.WriteString(h.Tool) })
	writeField(tagObjectCount, func() error { return c.WriteUint32(h.ObjectCount) })
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}

	err = c.Close()
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	return c.Serialize()
}

func (h *Header) unmarshal(b []byte) error {
	a := arena.New(arena.DefaultBlockSize)
	defer a.Destroy()

	c, err := chunk.Deserialize(b, a)
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}
	err = c.StartRead()
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}

	ok, err := c.SeekIdentifier(tagFormatVersion)
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}
	if !ok {
		return errors.Corruption.With("header is missing the format version")
	}
	h.FormatVersion, err = c.ReadUint32()
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}

	if ok, _ := c.SeekIdentifier(tagDataVersion); ok {
		v, err := c.ReadUint32()
		if err != nil {
			return errors.UnknownError.Wrap(err)
		}
		h.DataVersion = uint8(v)
	}

	if ok, _ := c.SeekIdentifier(tagTool); ok {
		h.Tool, err = c.ReadString()
		if err != nil {
			return errors.UnknownError.Wrap(err)
		}
	}

	if ok, _ := c.SeekIdentifier(tagObjectCount); ok {
		h.ObjectCount, err = c.ReadUint32()
		if err != nil {
			return errors.UnknownError.Wrap(err)
		}
	}

	return nil
}
