// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package chunk

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	lz4 "github.com/hungys/go-lz4"
	"github.com/ulikunitz/xz"

	"github.com/doyaGu/nmo/pkg/errors"
)

// Algorithm selects the compression applied to a chunk's data section.
type Algorithm uint8

const (
	// NoCompression stores data words verbatim.
	NoCompression Algorithm = iota
	// Gzip is DEFLATE with a gzip envelope.
	Gzip
	// Zstd is Zstandard.
	Zstd
	// LZ4 is the LZ4 block format.
	LZ4
	// XZ is LZMA2 with an xz envelope.
	XZ
)

// AlgorithmByName returns the algorithm with the given name.
func AlgorithmByName(s string) (Algorithm, bool) {
	switch s {
	case "", "none":
		return NoCompression, true
	case "gzip":
		return Gzip, true
	case "zstd":
		return Zstd, true
	case "lz4":
		return LZ4, true
	case "xz":
		return XZ, true
	default:
		return NoCompression, false
	}
}

func (a Algorithm) String() string {
	switch a {
	case NoCompression:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	case XZ:
		return "xz"
	default:
		return fmt.Sprintf("Algorithm:%d", uint8(a))
	}
}

// GetEnumValue returns the algorithm as a number.
func (a Algorithm) GetEnumValue() uint64 { return uint64(a) }

// SetEnumValue sets the algorithm from a number. SetEnumValue returns false
// if the number is not a valid algorithm.
func (a *Algorithm) SetEnumValue(v uint64) bool {
	u := Algorithm(v)
	switch u {
	case NoCompression, Gzip, Zstd, LZ4, XZ:
		*a = u
		return true
	default:
		return false
	}
}

// compress packs src with the algorithm.
func (a Algorithm) compress(src []byte) ([]byte, error) {
	switch a {
	case Gzip:
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(src); err != nil {
			return nil, errors.UnknownError.WithFormat("gzip: %w", err)
		}
		if err := gz.Close(); err != nil {
			return nil, errors.UnknownError.WithFormat("close gzip writer: %w", err)
		}
		return buf.Bytes(), nil

	case Zstd:
		b, err := zstd.Compress(nil, src)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("zstd: %w", err)
		}
		return b, nil

	case LZ4:
		dst := make([]byte, lz4.CompressBound(len(src)))
		n, err := lz4.CompressDefault(src, dst)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("lz4: %w", err)
		}
		return dst[:n], nil

	case XZ:
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("open xz writer: %w", err)
		}
		if _, err := w.Write(src); err != nil {
			return nil, errors.UnknownError.WithFormat("xz: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, errors.UnknownError.WithFormat("close xz writer: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, errors.InvalidArgument.WithFormat("cannot compress with %v", a)
	}
}

// decompress unpacks src. The caller knows the uncompressed size from the
// chunk's data-word count.
func (a Algorithm) decompress(src []byte, size int) ([]byte, error) {
	switch a {
	case Gzip:
		gz, err := gzip.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, errors.Corruption.WithFormat("open gzip reader: %w", err)
		}
		b, err := io.ReadAll(io.LimitReader(gz, int64(size)+1))
		if err != nil {
			return nil, errors.Corruption.WithFormat("gzip: %w", err)
		}
		if err := gz.Close(); err != nil {
			return nil, errors.Corruption.WithFormat("close gzip reader: %w", err)
		}
		return b, nil

	case Zstd:
		b, err := zstd.Decompress(make([]byte, 0, size), src)
		if err != nil {
			return nil, errors.Corruption.WithFormat("zstd: %w", err)
		}
		return b, nil

	case LZ4:
		dst := make([]byte, size)
		n, err := lz4.DecompressSafe(src, dst)
		if err != nil {
			return nil, errors.Corruption.WithFormat("lz4: %w", err)
		}
		return dst[:n], nil

	case XZ:
		r, err := xz.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, errors.Corruption.WithFormat("open xz reader: %w", err)
		}
		b, err := io.ReadAll(io.LimitReader(r, int64(size)+1))
		if err != nil {
			return nil, errors.Corruption.WithFormat("xz: %w", err)
		}
		return b, nil

	default:
		return nil, errors.Corruption.WithFormat("unknown compression algorithm %d", uint8(a))
	}
}
