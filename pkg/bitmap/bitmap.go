// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package bitmap defines the pluggable image codec interface used for
// encoded-bitmap chunk payloads, and a registry keyed by format tag and file
// extension. Pixel codec math lives behind the [Codec] interface; only the
// raw pass-through codec ships with this package.
package bitmap

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/doyaGu/nmo/pkg/errors"
)

// Format is an enumerated bitmap encoding tag. Tags are part of the wire
// format and must not be renumbered.
type Format uint32

const (
	// FormatUnknown is an unrecognized encoding.
	FormatUnknown Format = iota
	// FormatRaw is unencoded RGBA, one byte per channel.
	FormatRaw
	// FormatBMP is a Windows bitmap.
	FormatBMP
	// FormatTGA is a Truevision TGA image.
	FormatTGA
	// FormatJPEG is a JPEG image.
	FormatJPEG
	// FormatPNG is a PNG image.
	FormatPNG
)

func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatBMP:
		return "bmp"
	case FormatTGA:
		return "tga"
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	default:
		return fmt.Sprintf("Format:%d", uint32(f))
	}
}

// Image is a decoded bitmap: width, height, and RGBA bytes in row order.
type Image struct {
	Width  int
	Height int
	RGBA   []byte
}

// A Codec encodes and decodes one bitmap format.
type Codec interface {
	// Format returns the codec's format tag.
	Format() Format
	// Extensions returns the file extensions the codec claims, without dots.
	Extensions() []string
	// Encode converts pixels to encoded bytes.
	Encode(*Image) ([]byte, error)
	// Decode converts encoded bytes to pixels.
	Decode([]byte) (*Image, error)
}

// Registry is a codec catalog. A fully built registry is safe for concurrent
// readers.
type Registry struct {
	byFormat map[Format]Codec
	byExt    map[string]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byFormat: make(map[Format]Codec),
		byExt:    make(map[string]Codec),
	}
}

// Register adds a codec. Registering a duplicate format fails.
func (r *Registry) Register(c Codec) error {
	if c == nil {
		return errors.InvalidArgument.With("nil codec")
	}
	if _, ok := r.byFormat[c.Format()]; ok {
		return errors.AlreadyExists.WithFormat("codec for format %v is already registered", c.Format())
	}
	r.byFormat[c.Format()] = c
	for _, ext := range c.Extensions() {
		r.byExt[strings.ToLower(ext)] = c
	}
	return nil
}

// ByFormat finds the codec for a format tag.
func (r *Registry) ByFormat(f Format) (Codec, bool) {
	c, ok := r.byFormat[f]
	return c, ok
}

// ByExtension finds the codec claiming a file extension. A leading dot is
// tolerated.
func (r *Registry) ByExtension(ext string) (Codec, bool) {
	c, ok := r.byExt[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return c, ok
}

var defaults = func() *Registry {
	r := NewRegistry()
	// The raw codec is always available
	_ = r.Register(RawCodec{})
	return r
}()

// Defaults returns the registry of codecs registered at startup.
func Defaults() *Registry { return defaults }

// RawCodec stores pixels unencoded: an eight-byte header (width, height as
// 32-bit little-endian) followed by the RGBA bytes.
type RawCodec struct{}

func (RawCodec) Format() Format       { return FormatRaw }
func (RawCodec) Extensions() []string { return []string{"raw"} }

func (RawCodec) Encode(img *Image) ([]byte, error) {
	if img == nil {
		return nil, errors.InvalidArgument.With("nil image")
	}
	if len(img.RGBA) != img.Width*img.Height*4 {
		return nil, errors.InvalidArgument.WithFormat("pixel buffer is %d bytes, want %d", len(img.RGBA), img.Width*img.Height*4)
	}
	b := make([]byte, 8+len(img.RGBA))
	binary.LittleEndian.PutUint32(b[0:], uint32(img.Width))
	binary.LittleEndian.PutUint32(b[4:], uint32(img.Height))
	copy(b[8:], img.RGBA)
	return b, nil
}

func (RawCodec) Decode(b []byte) (*Image, error) {
	if len(b) < 8 {
		return nil, errors.Corruption.With("truncated raw bitmap header")
	}
	w := int(binary.LittleEndian.Uint32(b[0:]))
	h := int(binary.LittleEndian.Uint32(b[4:]))
	if len(b)-8 != w*h*4 {
		return nil, errors.Corruption.WithFormat("raw bitmap is %d bytes, want %d for %dx%d", len(b)-8, w*h*4, w, h)
	}
	return &Image{Width: w, Height: h, RGBA: append([]byte(nil), b[8:]...)}, nil
}
