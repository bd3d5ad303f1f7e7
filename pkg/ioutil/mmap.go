// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package ioutil

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/doyaGu/nmo/pkg/errors"
)

// MappedFile is a read-only [SectionReader] backed by a memory-mapped file.
type MappedFile struct {
	Buffer
	file *os.File
	mm   mmap.MMap
}

// OpenMapped memory-maps the file at path for reading. Close releases the
// mapping and the file.
func OpenMapped(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IOError.Wrap(err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.IOError.Wrap(err)
	}
	if st.Size() == 0 {
		// Cannot map an empty file; fall back to an empty buffer
		_ = f.Close()
		return &MappedFile{}, nil
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, errors.IOError.WithFormat("map %s: %w", path, err)
	}

	return &MappedFile{Buffer{buf: mm}, f, mm}, nil
}

// Close unmaps and closes the file.
func (m *MappedFile) Close() error {
	if m.mm == nil {
		return nil
	}
	err := m.mm.Unmap()
	m.mm = nil
	m.buf = nil
	if err2 := m.file.Close(); err == nil {
		err = err2
	}
	return errors.IOError.Wrap(err)
}
