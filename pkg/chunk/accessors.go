// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package chunk

import (
	"math"

	"github.com/doyaGu/nmo/pkg/bitmap"
	"github.com/doyaGu/nmo/pkg/errors"
	"github.com/doyaGu/nmo/pkg/vmath"
)

// Typed accessors over the raw word buffer. Multi-word math types are stored
// as their fields in declaration order, one float per word; arrays and
// strings are length-prefixed. This ordering is the wire contract.

// WriteUint32 appends one word.
func (c *Chunk) WriteUint32(v uint32) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.appendWord(v)
	return nil
}

// ReadUint32 consumes one word.
func (c *Chunk) ReadUint32() (uint32, error) {
	if err := c.checkRead(); err != nil {
		return 0, err
	}
	return c.readWord()
}

// WriteInt32 appends one signed word.
func (c *Chunk) WriteInt32(v int32) error { return c.WriteUint32(uint32(v)) }

// ReadInt32 consumes one signed word.
func (c *Chunk) ReadInt32() (int32, error) {
	w, err := c.ReadUint32()
	return int32(w), err
}

// WriteFloat32 appends one float word.
func (c *Chunk) WriteFloat32(v float32) error { return c.WriteUint32(math.Float32bits(v)) }

// ReadFloat32 consumes one float word.
func (c *Chunk) ReadFloat32() (float32, error) {
	w, err := c.ReadUint32()
	return math.Float32frombits(w), err
}

// WriteObjectID appends an object reference and records its position for
// remapping.
func (c *Chunk) WriteObjectID(id ID) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.idPos = append(c.idPos, uint32(len(c.data)))
	c.appendWord(uint32(id))
	return nil
}

// ReadObjectID consumes an object reference.
func (c *Chunk) ReadObjectID() (ID, error) {
	w, err := c.ReadUint32()
	return ID(w), err
}

// WriteObjectIDArray appends a counted object-reference sequence. Every
// element's position is recorded for remapping.
func (c *Chunk) WriteObjectIDArray(ids []ID) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.appendWord(uint32(len(ids)))
	for _, id := range ids {
		c.idPos = append(c.idPos, uint32(len(c.data)))
		c.appendWord(uint32(id))
	}
	return nil
}

// ReadObjectIDArray consumes a counted object-reference sequence.
func (c *Chunk) ReadObjectIDArray() ([]ID, error) {
	n, err := c.readCount()
	if err != nil {
		return nil, err
	}
	out := make([]ID, n)
	for i := range out {
		w, err := c.readWord()
		if err != nil {
			return nil, err
		}
		out[i] = ID(w)
	}
	return out, nil
}

func (c *Chunk) readCount() (int, error) {
	if err := c.checkRead(); err != nil {
		return 0, err
	}
	w, err := c.readWord()
	if err != nil {
		return 0, err
	}
	n := int(w)
	if n < 0 || c.cursor+n > len(c.data) {
		return 0, errors.Corruption.WithFormat("count %d exceeds remaining data (%d words)", w, len(c.data)-c.cursor)
	}
	return n, nil
}

// WriteUint32Array appends a counted word sequence.
func (c *Chunk) WriteUint32Array(v []uint32) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.appendWord(uint32(len(v)))
	c.data = append(c.data, v...)
	return nil
}

// ReadUint32Array consumes a counted word sequence.
func (c *Chunk) ReadUint32Array() ([]uint32, error) {
	n, err := c.readCount()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	copy(out, c.data[c.cursor:c.cursor+n])
	c.cursor += n
	return out, nil
}

// WriteInt32Array appends a counted signed word sequence.
func (c *Chunk) WriteInt32Array(v []int32) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.appendWord(uint32(len(v)))
	for _, x := range v {
		c.appendWord(uint32(x))
	}
	return nil
}

// ReadInt32Array consumes a counted signed word sequence.
func (c *Chunk) ReadInt32Array() ([]int32, error) {
	n, err := c.readCount()
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(c.data[c.cursor+i])
	}
	c.cursor += n
	return out, nil
}

// WriteFloat32Array appends a counted float sequence.
func (c *Chunk) WriteFloat32Array(v []float32) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.appendWord(uint32(len(v)))
	for _, x := range v {
		c.appendWord(math.Float32bits(x))
	}
	return nil
}

// ReadFloat32Array consumes a counted float sequence.
func (c *Chunk) ReadFloat32Array() ([]float32, error) {
	n, err := c.readCount()
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(c.data[c.cursor+i])
	}
	c.cursor += n
	return out, nil
}

// WriteWords appends raw words without interpretation.
func (c *Chunk) WriteWords(v []uint32) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.data = append(c.data, v...)
	return nil
}

// ReadWords consumes n raw words without interpretation.
func (c *Chunk) ReadWords(n int) ([]uint32, error) {
	if err := c.checkRead(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.InvalidArgument.WithFormat("negative word count %d", n)
	}
	if c.cursor+n > len(c.data) {
		return nil, errors.Corruption.WithFormat("read past end of data: offset %d+%d of %d words", c.cursor, n, len(c.data))
	}
	out := make([]uint32, n)
	copy(out, c.data[c.cursor:c.cursor+n])
	c.cursor += n
	return out, nil
}

// WriteVector2 appends x, y.
func (c *Chunk) WriteVector2(v vmath.Vector2) error {
	return c.writeFloats(v.X, v.Y)
}

// ReadVector2 consumes x, y.
func (c *Chunk) ReadVector2() (vmath.Vector2, error) {
	var v vmath.Vector2
	err := c.readFloats(&v.X, &v.Y)
	return v, err
}

// WriteVector3 appends x, y, z.
func (c *Chunk) WriteVector3(v vmath.Vector3) error {
	return c.writeFloats(v.X, v.Y, v.Z)
}

// ReadVector3 consumes x, y, z.
func (c *Chunk) ReadVector3() (vmath.Vector3, error) {
	var v vmath.Vector3
	err := c.readFloats(&v.X, &v.Y, &v.Z)
	return v, err
}

// WriteVector4 appends x, y, z, w.
func (c *Chunk) WriteVector4(v vmath.Vector4) error {
	return c.writeFloats(v.X, v.Y, v.Z, v.W)
}

// ReadVector4 consumes x, y, z, w.
func (c *Chunk) ReadVector4() (vmath.Vector4, error) {
	var v vmath.Vector4
	err := c.readFloats(&v.X, &v.Y, &v.Z, &v.W)
	return v, err
}

// WriteQuaternion appends x, y, z, w.
func (c *Chunk) WriteQuaternion(v vmath.Quaternion) error {
	return c.writeFloats(v.X, v.Y, v.Z, v.W)
}

// ReadQuaternion consumes x, y, z, w.
func (c *Chunk) ReadQuaternion() (vmath.Quaternion, error) {
	var v vmath.Quaternion
	err := c.readFloats(&v.X, &v.Y, &v.Z, &v.W)
	return v, err
}

// WriteColor appends r, g, b, a.
func (c *Chunk) WriteColor(v vmath.Color) error {
	return c.writeFloats(v.R, v.G, v.B, v.A)
}

// ReadColor consumes r, g, b, a.
func (c *Chunk) ReadColor() (vmath.Color, error) {
	var v vmath.Color
	err := c.readFloats(&v.R, &v.G, &v.B, &v.A)
	return v, err
}

// WriteMatrix appends 16 floats, row by row.
func (c *Chunk) WriteMatrix(m vmath.Matrix4) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	for _, x := range m {
		c.appendWord(math.Float32bits(x))
	}
	return nil
}

// ReadMatrix consumes 16 floats, row by row.
func (c *Chunk) ReadMatrix() (vmath.Matrix4, error) {
	var m vmath.Matrix4
	if err := c.checkRead(); err != nil {
		return m, err
	}
	for i := range m {
		w, err := c.readWord()
		if err != nil {
			return m, err
		}
		m[i] = math.Float32frombits(w)
	}
	return m, nil
}

// WriteVector3Array appends a counted vector sequence.
func (c *Chunk) WriteVector3Array(v []vmath.Vector3) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.appendWord(uint32(len(v)))
	for _, x := range v {
		c.appendWord(math.Float32bits(x.X))
		c.appendWord(math.Float32bits(x.Y))
		c.appendWord(math.Float32bits(x.Z))
	}
	return nil
}

// ReadVector3Array consumes a counted vector sequence.
func (c *Chunk) ReadVector3Array() ([]vmath.Vector3, error) {
	if err := c.checkRead(); err != nil {
		return nil, err
	}
	w, err := c.readWord()
	if err != nil {
		return nil, err
	}
	n := int(w)
	if c.cursor+3*n > len(c.data) {
		return nil, errors.Corruption.WithFormat("vector count %d exceeds remaining data", n)
	}
	out := make([]vmath.Vector3, n)
	for i := range out {
		out[i].X = math.Float32frombits(c.data[c.cursor])
		out[i].Y = math.Float32frombits(c.data[c.cursor+1])
		out[i].Z = math.Float32frombits(c.data[c.cursor+2])
		c.cursor += 3
	}
	return out, nil
}

// WriteString appends a byte-length-prefixed string, zero-padded to a word
// boundary.
func (c *Chunk) WriteString(s string) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.writeStringWords(s)
	return nil
}

func (c *Chunk) writeStringWords(s string) {
	c.appendWord(uint32(len(s)))
	b := []byte(s)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	for i := 0; i < len(b); i += 4 {
		c.appendWord(uint32(b[i]) | uint32(b[i+1])<<8 | uint32(b[i+2])<<16 | uint32(b[i+3])<<24)
	}
}

// ReadString consumes a byte-length-prefixed string.
func (c *Chunk) ReadString() (string, error) {
	if err := c.checkRead(); err != nil {
		return "", err
	}
	return c.readStringWords()
}

func (c *Chunk) readStringWords() (string, error) {
	w, err := c.readWord()
	if err != nil {
		return "", err
	}
	n := int(w)
	words := (n + 3) / 4
	if c.cursor+words > len(c.data) {
		return "", errors.Corruption.WithFormat("string length %d exceeds remaining data", n)
	}
	b := make([]byte, 0, words*4)
	for i := 0; i < words; i++ {
		x := c.data[c.cursor+i]
		b = append(b, byte(x), byte(x>>8), byte(x>>16), byte(x>>24))
	}
	c.cursor += words
	return string(b[:n]), nil
}

// WriteStringArray appends a counted string sequence.
func (c *Chunk) WriteStringArray(v []string) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.appendWord(uint32(len(v)))
	for _, s := range v {
		c.writeStringWords(s)
	}
	return nil
}

// ReadStringArray consumes a counted string sequence.
func (c *Chunk) ReadStringArray() ([]string, error) {
	if err := c.checkRead(); err != nil {
		return nil, err
	}
	w, err := c.readWord()
	if err != nil {
		return nil, err
	}
	n := int(w)
	if n > len(c.data)-c.cursor {
		return nil, errors.Corruption.WithFormat("string count %d exceeds remaining data", n)
	}
	out := make([]string, n)
	for i := range out {
		out[i], err = c.readStringWords()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WriteBitmap encodes the image with the given codec and appends the codec's
// format tag and the encoded bytes.
func (c *Chunk) WriteBitmap(codec bitmap.Codec, img *bitmap.Image) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	if codec == nil || img == nil {
		return errors.InvalidArgument.With("nil codec or image")
	}
	b, err := codec.Encode(img)
	if err != nil {
		return errors.UnknownError.WithFormat("encode bitmap: %w", err)
	}
	c.appendWord(uint32(codec.Format()))
	c.appendWord(uint32(len(b)))
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	for i := 0; i < len(b); i += 4 {
		c.appendWord(uint32(b[i]) | uint32(b[i+1])<<8 | uint32(b[i+2])<<16 | uint32(b[i+3])<<24)
	}
	return nil
}

// ReadBitmap consumes an encoded bitmap, resolving the decoder through the
// codec registry.
func (c *Chunk) ReadBitmap(reg *bitmap.Registry) (*bitmap.Image, error) {
	if err := c.checkRead(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = bitmap.Defaults()
	}
	f, err := c.readWord()
	if err != nil {
		return nil, err
	}
	codec, ok := reg.ByFormat(bitmap.Format(f))
	if !ok {
		return nil, errors.NotFound.WithFormat("no codec registered for bitmap format %v", bitmap.Format(f))
	}
	w, err := c.readWord()
	if err != nil {
		return nil, err
	}
	n := int(w)
	words := (n + 3) / 4
	if c.cursor+words > len(c.data) {
		return nil, errors.Corruption.WithFormat("bitmap length %d exceeds remaining data", n)
	}
	b := make([]byte, 0, words*4)
	for i := 0; i < words; i++ {
		x := c.data[c.cursor+i]
		b = append(b, byte(x), byte(x>>8), byte(x>>16), byte(x>>24))
	}
	c.cursor += words
	img, err := codec.Decode(b[:n])
	if err != nil {
		return nil, errors.Corruption.WithFormat("decode bitmap: %w", err)
	}
	return img, nil
}

func (c *Chunk) writeFloats(v ...float32) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	for _, x := range v {
		c.appendWord(math.Float32bits(x))
	}
	return nil
}

func (c *Chunk) readFloats(v ...*float32) error {
	if err := c.checkRead(); err != nil {
		return err
	}
	for _, p := range v {
		w, err := c.readWord()
		if err != nil {
			return err
		}
		*p = math.Float32frombits(w)
	}
	return nil
}
