// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package chunk implements the recursive, identifier-tagged binary container
// that carries one object's persisted state in a legacy scene file.
//
// A chunk is a flat buffer of 32-bit words plus bookkeeping lists: the word
// offsets of every object reference (so references can be remapped without a
// schema), a manager-ID list, and a list of nested sub-chunks. Logical fields
// are located by scanning for identifier tags, never by fixed offset, which is
// what makes the format tolerant of fields added or removed across versions.
//
// Identifiers live inside the data stream as two-word cells [tag, next],
// forming a forward-linked chain that starts at word zero. A chunk that uses
// identifiers therefore begins with one.
package chunk

import (
	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/errors"
)

// Tag is a 32-bit identifier key marking a logical field region.
type Tag uint32

// ID is a 32-bit object cross-reference. Zero means "no reference".
type ID uint32

// Mode is the lifecycle state of a chunk.
type Mode uint8

const (
	// Uninitialized is a chunk before StartWrite or deserialization.
	Uninitialized Mode = iota
	// Writing is a chunk open for appending.
	Writing
	// Readable is a closed or deserialized chunk.
	Readable
)

func (m Mode) String() string {
	switch m {
	case Uninitialized:
		return "uninitialized"
	case Writing:
		return "writing"
	case Readable:
		return "readable"
	default:
		return "invalid"
	}
}

// Identifier is bookkeeping for one identifier cell in the data stream. The
// payload of the tagged region starts two words after Offset and runs to the
// next identifier cell or the end of the data.
type Identifier struct {
	Tag    Tag
	Offset uint32
}

// identCellSize is the footprint of an identifier in the data stream: the tag
// word and the link word.
const identCellSize = 2

// Chunk is a binary record of one object's persisted state.
type Chunk struct {
	classID      uint8
	dataVersion  uint8
	chunkVersion uint8
	compression  Algorithm

	data      []uint32
	idents    []Identifier
	idPos     []uint32
	managers  []uint32
	subChunks []*Chunk

	arena *arena.Arena
	gen   uint32

	mode      Mode
	cursor    int
	prevIdent int
	parsing   bool
}

// New returns an uninitialized chunk for the given class, owned by the arena.
// A nil arena is allowed; the chunk is then plainly heap-allocated.
func New(a *arena.Arena, classID uint8) *Chunk {
	c := &Chunk{classID: classID, prevIdent: -1}
	c.attach(a)
	return c
}

func (c *Chunk) attach(a *arena.Arena) {
	c.arena = a
	if a != nil {
		c.gen = a.Generation()
	}
}

// checkArena fails if the owning arena was reset or destroyed since this
// chunk was created.
func (c *Chunk) checkArena() error {
	if c.arena != nil && c.arena.Generation() != c.gen {
		return errors.InvalidState.With("chunk outlived its arena generation")
	}
	return nil
}

// ClassID returns the chunk's class tag.
func (c *Chunk) ClassID() uint8 { return c.classID }

// DataVersion returns the data-format version.
func (c *Chunk) DataVersion() uint8 { return c.dataVersion }

// ChunkVersion returns the chunk-format version.
func (c *Chunk) ChunkVersion() uint8 { return c.chunkVersion }

// Mode returns the chunk's lifecycle state.
func (c *Chunk) Mode() Mode { return c.mode }

// SetVersions sets the data-format and chunk-format versions.
func (c *Chunk) SetVersions(dataVersion, chunkVersion uint8) {
	c.dataVersion = dataVersion
	c.chunkVersion = chunkVersion
}

// SetDataVersion sets the data-format version.
func (c *Chunk) SetDataVersion(v uint8) { c.dataVersion = v }

// SetCompression selects the compression applied to the data section when the
// chunk is serialized.
func (c *Chunk) SetCompression(a Algorithm) { c.compression = a }

// Compression returns the selected data compression.
func (c *Chunk) Compression() Algorithm { return c.compression }

// DataWords returns the length of the data buffer in 32-bit words.
func (c *Chunk) DataWords() int { return len(c.data) }

// Identifiers returns the chunk's identifier bookkeeping, in write order.
func (c *Chunk) Identifiers() []Identifier { return c.idents }

// ObjectIDPositions returns the word offsets of every object reference in the
// data buffer.
func (c *Chunk) ObjectIDPositions() []uint32 { return c.idPos }

// Managers returns the manager-ID list.
func (c *Chunk) Managers() []uint32 { return c.managers }

// SubChunkCount returns the number of nested sub-chunks.
func (c *Chunk) SubChunkCount() int { return len(c.subChunks) }

// StartWrite resets the chunk into write mode, discarding previous content.
func (c *Chunk) StartWrite() error {
	if err := c.checkArena(); err != nil {
		return err
	}
	c.data = c.data[:0]
	c.idents = c.idents[:0]
	c.idPos = c.idPos[:0]
	c.managers = c.managers[:0]
	c.subChunks = c.subChunks[:0]
	c.mode = Writing
	c.cursor = 0
	c.prevIdent = -1
	c.parsing = false
	return nil
}

// Close finalizes the chunk into a readable, serializable state.
func (c *Chunk) Close() error {
	if c.mode != Writing {
		return errors.InvalidState.WithFormat("close: chunk is %v, not writing", c.mode)
	}
	c.mode = Readable
	c.cursor = 0
	c.parsing = false
	return nil
}

// StartRead resets the cursor into read mode. The chunk must be closed or
// deserialized first.
func (c *Chunk) StartRead() error {
	if err := c.checkArena(); err != nil {
		return err
	}
	if c.mode != Readable {
		return errors.InvalidState.WithFormat("start read: chunk is %v, not readable", c.mode)
	}
	c.cursor = 0
	c.parsing = true
	return nil
}

func (c *Chunk) checkWrite() error {
	if err := c.checkArena(); err != nil {
		return err
	}
	if c.mode != Writing {
		return errors.InvalidState.WithFormat("write: chunk is %v, not writing", c.mode)
	}
	return nil
}

func (c *Chunk) checkRead() error {
	if err := c.checkArena(); err != nil {
		return err
	}
	if c.mode != Readable {
		return errors.InvalidState.WithFormat("read: chunk is %v, not readable", c.mode)
	}
	if !c.parsing {
		return errors.InvalidState.With("read: StartRead has not been called")
	}
	return nil
}

// WriteIdentifier starts a new tagged region. The first identifier must be
// the first thing written: the identifier chain begins at word zero.
func (c *Chunk) WriteIdentifier(tag Tag) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	if c.prevIdent < 0 && len(c.data) != 0 {
		return errors.InvalidState.With("identifiers must begin the data stream")
	}

	off := uint32(len(c.data))
	c.data = append(c.data, uint32(tag), 0)
	if c.prevIdent >= 0 {
		c.data[c.prevIdent+1] = off
	}
	c.prevIdent = int(off)
	c.idents = append(c.idents, Identifier{Tag: tag, Offset: off})
	return nil
}

// SeekIdentifier positions the cursor at the start of the payload written
// under the given tag. When the same tag was written more than once, the
// first written region wins. SeekIdentifier reports false, without error and
// without moving the cursor, if the tag is absent.
func (c *Chunk) SeekIdentifier(tag Tag) (bool, error) {
	if err := c.checkRead(); err != nil {
		return false, err
	}
	for _, id := range c.idents {
		if id.Tag == tag {
			c.cursor = int(id.Offset) + identCellSize
			return true, nil
		}
	}
	return false, nil
}

// IdentifierSize returns the payload length in words of the region written
// under the given tag, or false if the tag is absent.
func (c *Chunk) IdentifierSize(tag Tag) (int, bool) {
	for i, id := range c.idents {
		if id.Tag != tag {
			continue
		}
		end := len(c.data)
		if i+1 < len(c.idents) {
			end = int(c.idents[i+1].Offset)
		}
		return end - int(id.Offset) - identCellSize, true
	}
	return 0, false
}

// appendWord appends one data word at the write cursor.
func (c *Chunk) appendWord(w uint32) {
	c.data = append(c.data, w)
}

// readWord consumes one data word at the read cursor.
func (c *Chunk) readWord() (uint32, error) {
	if c.cursor >= len(c.data) {
		return 0, errors.Corruption.WithFormat("read past end of data: offset %d of %d words", c.cursor, len(c.data))
	}
	w := c.data[c.cursor]
	c.cursor++
	return w, nil
}

// Skip advances the read cursor by n words.
func (c *Chunk) Skip(n int) error {
	if err := c.checkRead(); err != nil {
		return err
	}
	if n < 0 {
		return errors.InvalidArgument.WithFormat("negative skip %d", n)
	}
	if c.cursor+n > len(c.data) {
		return errors.Corruption.WithFormat("skip past end of data: offset %d+%d of %d words", c.cursor, n, len(c.data))
	}
	c.cursor += n
	return nil
}

// Tell returns the read or write cursor's word offset.
func (c *Chunk) Tell() int {
	if c.mode == Writing {
		return len(c.data)
	}
	return c.cursor
}

// WriteSubChunk appends a nested chunk and writes its list index as one data
// word, so the current tagged region refers to it. The child must be
// readable.
func (c *Chunk) WriteSubChunk(child *Chunk) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	if child == nil {
		return errors.InvalidArgument.With("nil sub-chunk")
	}
	if child.mode != Readable {
		return errors.InvalidState.WithFormat("sub-chunk is %v, not readable", child.mode)
	}
	c.appendWord(uint32(len(c.subChunks)))
	c.subChunks = append(c.subChunks, child)
	return nil
}

// ReadSubChunk consumes a sub-chunk reference word and returns an independent
// copy of the referenced chunk, owned by the given arena.
func (c *Chunk) ReadSubChunk(a *arena.Arena) (*Chunk, error) {
	if err := c.checkRead(); err != nil {
		return nil, err
	}
	w, err := c.readWord()
	if err != nil {
		return nil, err
	}
	if int(w) >= len(c.subChunks) {
		return nil, errors.Corruption.WithFormat("sub-chunk index %d out of range (%d sub-chunks)", w, len(c.subChunks))
	}
	return c.subChunks[w].Clone(a)
}

// SubChunk returns the i'th nested chunk without copying. The returned chunk
// is shared; use ReadSubChunk for an independent copy.
func (c *Chunk) SubChunk(i int) (*Chunk, error) {
	if i < 0 || i >= len(c.subChunks) {
		return nil, errors.NotFound.WithFormat("sub-chunk %d of %d", i, len(c.subChunks))
	}
	return c.subChunks[i], nil
}

// AdoptSubChunksFrom clones src's sub-chunk list into c, in order, without
// writing reference words. Reference words copied verbatim from src's data
// remain valid because the list order is preserved. Used by migration.
func (c *Chunk) AdoptSubChunksFrom(src *Chunk, a *arena.Arena) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	if src == nil {
		return errors.InvalidArgument.With("nil source chunk")
	}
	for _, sub := range src.subChunks {
		d, err := sub.Clone(a)
		if err != nil {
			return err
		}
		c.subChunks = append(c.subChunks, d)
	}
	return nil
}

// AddManager appends a manager ID to the manager list.
func (c *Chunk) AddManager(id uint32) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	c.managers = append(c.managers, id)
	return nil
}

// Clone deep-copies the chunk and its sub-chunks into the given arena. The
// clone is readable regardless of the source's cursor state.
func (c *Chunk) Clone(a *arena.Arena) (*Chunk, error) {
	if err := c.checkArena(); err != nil {
		return nil, err
	}
	if c.mode == Writing {
		return nil, errors.InvalidState.With("clone: chunk is still being written")
	}

	d := New(a, c.classID)
	d.dataVersion = c.dataVersion
	d.chunkVersion = c.chunkVersion
	d.compression = c.compression
	d.mode = c.mode

	var err error
	d.data, err = cloneWords(a, c.data)
	if err != nil {
		return nil, err
	}
	d.idents = append([]Identifier(nil), c.idents...)
	d.idPos = append([]uint32(nil), c.idPos...)
	d.managers = append([]uint32(nil), c.managers...)

	for _, sub := range c.subChunks {
		dsub, err := sub.Clone(a)
		if err != nil {
			return nil, err
		}
		d.subChunks = append(d.subChunks, dsub)
	}
	return d, nil
}

func cloneWords(a *arena.Arena, src []uint32) ([]uint32, error) {
	if len(src) == 0 {
		return nil, nil
	}
	var dst []uint32
	var err error
	if a != nil {
		dst, err = a.Words(len(src))
		if err != nil {
			return nil, err
		}
	} else {
		dst = make([]uint32, len(src))
	}
	copy(dst, src)
	return dst, nil
}

// Equal reports whether two chunks match field for field, recursively through
// sub-chunks. Cursor state and compression preference are not compared.
func (c *Chunk) Equal(d *Chunk) bool {
	if c == nil || d == nil {
		return c == d
	}
	if c.classID != d.classID ||
		c.dataVersion != d.dataVersion ||
		c.chunkVersion != d.chunkVersion {
		return false
	}
	if len(c.data) != len(d.data) ||
		len(c.idents) != len(d.idents) ||
		len(c.idPos) != len(d.idPos) ||
		len(c.managers) != len(d.managers) ||
		len(c.subChunks) != len(d.subChunks) {
		return false
	}
	for i := range c.data {
		if c.data[i] != d.data[i] {
			return false
		}
	}
	for i := range c.idents {
		if c.idents[i] != d.idents[i] {
			return false
		}
	}
	for i := range c.idPos {
		if c.idPos[i] != d.idPos[i] {
			return false
		}
	}
	for i := range c.managers {
		if c.managers[i] != d.managers[i] {
			return false
		}
	}
	for i := range c.subChunks {
		if !c.subChunks[i].Equal(d.subChunks[i]) {
			return false
		}
	}
	return true
}

// reset zeroes the chunk for reuse by a pool.
func (c *Chunk) reset() {
	*c = Chunk{prevIdent: -1}
}
