// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package chunk

import (
	"encoding/binary"

	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/errors"
)

// OptionFlags mark which optional sections follow the data section of a
// serialized chunk. Deserialization branches on them in a fixed order: IDs,
// managers, sub-chunks.
type OptionFlags uint8

const (
	// OptionIDs marks an object-ID position list.
	OptionIDs OptionFlags = 1 << iota
	// OptionManagers marks a manager-ID list.
	OptionManagers
	// OptionSubChunks marks a nested sub-chunk list.
	OptionSubChunks
	// OptionCompressed marks a compressed data section.
	OptionCompressed
	// OptionIdents marks that the data stream begins with an identifier
	// chain, so the identifier bookkeeping can be rebuilt on load.
	OptionIdents
)

// CurrentChunkVersion is the chunk-format version written by this library.
const CurrentChunkVersion uint8 = 7

// PackVersion packs the four 8-bit header fields into one word: bits 0-7 the
// data-format version, 8-15 the class ID, 16-23 the chunk-format version,
// 24-31 the option flags.
func PackVersion(dataVersion, classID, chunkVersion uint8, options OptionFlags) uint32 {
	return uint32(dataVersion) |
		uint32(classID)<<8 |
		uint32(chunkVersion)<<16 |
		uint32(options)<<24
}

// UnpackVersion splits a packed version word into its four 8-bit fields.
func UnpackVersion(w uint32) (dataVersion, classID, chunkVersion uint8, options OptionFlags) {
	return uint8(w), uint8(w >> 8), uint8(w >> 16), OptionFlags(w >> 24)
}

// Serialize converts the chunk to one contiguous byte buffer. The chunk must
// be readable.
func (c *Chunk) Serialize() ([]byte, error) {
	words, err := c.serializeWords()
	if err != nil {
		return nil, err
	}
	return wordsToBytes(words), nil
}

func (c *Chunk) serializeWords() ([]uint32, error) {
	if err := c.checkArena(); err != nil {
		return nil, err
	}
	if c.mode != Readable {
		return nil, errors.InvalidState.WithFormat("serialize: chunk is %v, not readable", c.mode)
	}

	var options OptionFlags
	if len(c.idPos) > 0 {
		options |= OptionIDs
	}
	if len(c.managers) > 0 {
		options |= OptionManagers
	}
	if len(c.subChunks) > 0 {
		options |= OptionSubChunks
	}
	if len(c.idents) > 0 {
		options |= OptionIdents
	}
	if c.compression != NoCompression && len(c.data) > 0 {
		options |= OptionCompressed
	}

	out := make([]uint32, 0, len(c.data)+8)
	out = append(out, PackVersion(c.dataVersion, c.classID, c.chunkVersion, options))
	out = append(out, uint32(len(c.data)))

	if options&OptionCompressed != 0 {
		packed, err := c.compression.compress(wordsToBytes(c.data))
		if err != nil {
			return nil, err
		}
		out = append(out, uint32(c.compression), uint32(len(packed)))
		out = append(out, bytesToWordsPadded(packed)...)
	} else {
		out = append(out, c.data...)
	}

	if options&OptionIDs != 0 {
		out = append(out, uint32(len(c.idPos)))
		out = append(out, c.idPos...)
	}
	if options&OptionManagers != 0 {
		out = append(out, uint32(len(c.managers)))
		out = append(out, c.managers...)
	}
	if options&OptionSubChunks != 0 {
		out = append(out, uint32(len(c.subChunks)))
		for _, sub := range c.subChunks {
			sw, err := sub.serializeWords()
			if err != nil {
				return nil, err
			}
			out = append(out, uint32(len(sw)))
			out = append(out, sw...)
		}
	}
	return out, nil
}

// Deserialize reconstructs a chunk from one contiguous byte buffer produced
// by [Chunk.Serialize]. The chunk and its descendants are owned by the arena.
func Deserialize(b []byte, a *arena.Arena) (*Chunk, error) {
	if len(b) == 0 {
		return nil, errors.InvalidArgument.With("empty buffer")
	}
	if len(b)%4 != 0 {
		return nil, errors.Corruption.WithFormat("buffer length %d is not a whole number of words", len(b))
	}

	words := bytesToWords(b)
	c, n, err := deserializeWords(words, a)
	if err != nil {
		return nil, err
	}
	if n != len(words) {
		return nil, errors.Corruption.WithFormat("%d trailing words after chunk", len(words)-n)
	}
	return c, nil
}

func deserializeWords(words []uint32, a *arena.Arena) (*Chunk, int, error) {
	if len(words) < 2 {
		return nil, 0, errors.Corruption.With("truncated version word")
	}

	dataVersion, classID, chunkVersion, options := UnpackVersion(words[0])
	c := New(a, classID)
	c.dataVersion = dataVersion
	c.chunkVersion = chunkVersion

	dataWords := int(words[1])
	pos := 2

	if options&OptionCompressed != 0 {
		if len(words) < pos+2 {
			return nil, 0, errors.Corruption.With("truncated compression header")
		}
		var algo Algorithm
		if !algo.SetEnumValue(uint64(words[pos])) {
			return nil, 0, errors.Corruption.WithFormat("unknown compression algorithm %d", words[pos])
		}
		byteLen := int(words[pos+1])
		pos += 2
		packedWords := (byteLen + 3) / 4
		if len(words) < pos+packedWords {
			return nil, 0, errors.Corruption.WithFormat("length field: compressed data needs %d words, %d remain", packedWords, len(words)-pos)
		}
		packed := wordsToBytes(words[pos : pos+packedWords])[:byteLen]
		pos += packedWords

		raw, err := algo.decompress(packed, dataWords*4)
		if err != nil {
			return nil, 0, err
		}
		if len(raw) != dataWords*4 {
			return nil, 0, errors.Corruption.WithFormat("length field: expected %d data bytes, decompressed %d", dataWords*4, len(raw))
		}
		c.data, err = cloneWords(a, bytesToWords(raw))
		if err != nil {
			return nil, 0, err
		}
		c.compression = algo
	} else {
		if len(words) < pos+dataWords {
			return nil, 0, errors.Corruption.WithFormat("length field: data needs %d words, %d remain", dataWords, len(words)-pos)
		}
		var err error
		c.data, err = cloneWords(a, words[pos:pos+dataWords])
		if err != nil {
			return nil, 0, err
		}
		pos += dataWords
	}

	if options&OptionIdents != 0 {
		if err := c.rebuildIdentifiers(); err != nil {
			return nil, 0, err
		}
	}

	if options&OptionIDs != 0 {
		list, n, err := readList(words[pos:], "ID list")
		if err != nil {
			return nil, 0, err
		}
		pos += n
		for _, p := range list {
			if int(p) >= len(c.data) {
				return nil, 0, errors.Corruption.WithFormat("ID list: position %d outside data (%d words)", p, len(c.data))
			}
		}
		c.idPos = list
	}

	if options&OptionManagers != 0 {
		list, n, err := readList(words[pos:], "manager list")
		if err != nil {
			return nil, 0, err
		}
		pos += n
		c.managers = list
	}

	if options&OptionSubChunks != 0 {
		if pos >= len(words) {
			return nil, 0, errors.Corruption.With("truncated sub-chunk count")
		}
		count := int(words[pos])
		pos++
		for i := 0; i < count; i++ {
			if pos >= len(words) {
				return nil, 0, errors.Corruption.WithFormat("truncated sub-chunk %d length field", i)
			}
			n := int(words[pos])
			pos++
			if n <= 0 || pos+n > len(words) {
				return nil, 0, errors.Corruption.WithFormat("length field: sub-chunk %d needs %d words, %d remain", i, n, len(words)-pos)
			}
			sub, used, err := deserializeWords(words[pos:pos+n], a)
			if err != nil {
				return nil, 0, errors.Corruption.WithFormat("sub-chunk %d: %w", i, err)
			}
			if used != n {
				return nil, 0, errors.Corruption.WithFormat("sub-chunk %d: %d trailing words", i, n-used)
			}
			pos += n
			c.subChunks = append(c.subChunks, sub)
		}
	}

	c.mode = Readable
	return c, pos, nil
}

// rebuildIdentifiers walks the identifier chain embedded in the data stream,
// starting at word zero, and reconstructs the bookkeeping list. Link offsets
// must be strictly increasing, which also rules out cycles.
func (c *Chunk) rebuildIdentifiers() error {
	c.idents = c.idents[:0]
	off := 0
	for {
		if off+identCellSize > len(c.data) {
			return errors.Corruption.WithFormat("identifier table: cell at word %d is truncated", off)
		}
		c.idents = append(c.idents, Identifier{Tag: Tag(c.data[off]), Offset: uint32(off)})
		next := int(c.data[off+1])
		if next == 0 {
			return nil
		}
		if next <= off {
			return errors.Corruption.WithFormat("identifier table: link at word %d does not advance (%d)", off, next)
		}
		off = next
	}
}

func readList(words []uint32, section string) ([]uint32, int, error) {
	if len(words) == 0 {
		return nil, 0, errors.Corruption.WithFormat("truncated %s count", section)
	}
	n := int(words[0])
	if 1+n > len(words) {
		return nil, 0, errors.Corruption.WithFormat("length field: %s needs %d words, %d remain", section, n, len(words)-1)
	}
	return append([]uint32(nil), words[1:1+n]...), 1 + n, nil
}

func wordsToBytes(words []uint32) []byte {
	b := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

func bytesToWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}

func bytesToWordsPadded(b []byte) []uint32 {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return bytesToWords(b)
}
