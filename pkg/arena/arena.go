// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package arena implements the bump allocator that owns chunk storage.
// Allocations are never freed individually; the whole arena is invalidated at
// once by Reset or Destroy. Consumers record the generation at allocation
// time so use-after-reset is detected instead of silently reading stale
// memory.
package arena

import (
	"github.com/doyaGu/nmo/pkg/errors"
)

// DefaultBlockSize is the growth unit of an arena.
const DefaultBlockSize = 64 * 1024

// An Arena is a bump allocator with chunked growth. It is not safe for
// concurrent use.
type Arena struct {
	blockSize int
	blocks    [][]byte
	off       int
	gen       uint32
	dead      bool

	allocs     uint64
	allocBytes uint64
}

// Stats reports the arena's usage counters.
type Stats struct {
	Blocks     int
	BlockSize  int
	Allocs     uint64
	AllocBytes uint64
	Generation uint32
}

// New returns an arena that grows in blocks of the given size. A non-positive
// size selects [DefaultBlockSize].
func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena{blockSize: blockSize}
}

// Generation returns the arena's reset generation. Allocations made before
// the last Reset belong to an older generation and must not be used.
func (a *Arena) Generation() uint32 { return a.gen }

// Stats returns usage counters.
func (a *Arena) Stats() Stats {
	return Stats{
		Blocks:     len(a.blocks),
		BlockSize:  a.blockSize,
		Allocs:     a.allocs,
		AllocBytes: a.allocBytes,
		Generation: a.gen,
	}
}

// Alloc returns a zeroed byte slice of the given size, aligned to align bytes
// within the arena's backing store. Align must be zero or a power of two.
func (a *Arena) Alloc(size, align int) ([]byte, error) {
	if a.dead {
		return nil, errors.InvalidState.With("arena has been destroyed")
	}
	if size < 0 {
		return nil, errors.InvalidArgument.WithFormat("negative allocation size %d", size)
	}
	if align < 0 || align&(align-1) != 0 {
		return nil, errors.InvalidArgument.WithFormat("alignment %d is not a power of two", align)
	}
	if size == 0 {
		return nil, nil
	}

	if align > 1 {
		if pad := a.off & (align - 1); pad != 0 {
			a.off += align - pad
		}
	}

	// Oversized allocations get a dedicated block so the bump block is not
	// wasted
	if size > a.blockSize {
		b := make([]byte, size)
		if len(a.blocks) == 0 {
			a.blocks = append(a.blocks, b)
			a.off = size
		} else {
			last := len(a.blocks) - 1
			a.blocks = append(a.blocks, a.blocks[last])
			a.blocks[last] = b
		}
		a.allocs++
		a.allocBytes += uint64(size)
		return b, nil
	}

	if len(a.blocks) == 0 || a.off+size > len(a.blocks[len(a.blocks)-1]) {
		a.blocks = append(a.blocks, make([]byte, a.blockSize))
		a.off = 0
	}

	b := a.blocks[len(a.blocks)-1]
	p := b[a.off : a.off+size : a.off+size]
	a.off += size
	a.allocs++
	a.allocBytes += uint64(size)
	return p, nil
}

// Words allocates n zeroed 32-bit words, word-aligned.
func (a *Arena) Words(n int) ([]uint32, error) {
	if a.dead {
		return nil, errors.InvalidState.With("arena has been destroyed")
	}
	if n < 0 {
		return nil, errors.InvalidArgument.WithFormat("negative word count %d", n)
	}
	if n == 0 {
		return nil, nil
	}
	// Word buffers grow; allocate slices directly so append semantics hold,
	// while still tracking them against this arena's generation
	a.allocs++
	a.allocBytes += uint64(n) * 4
	return make([]uint32, n), nil
}

// Reset invalidates every allocation and recycles the arena's blocks. The
// generation is bumped so stale consumers fail fast.
func (a *Arena) Reset() {
	for _, b := range a.blocks {
		clear(b)
	}
	a.off = 0
	if len(a.blocks) > 1 {
		a.blocks = a.blocks[:1]
	}
	a.gen++
}

// Destroy releases the backing store. The arena must not be used afterward.
func (a *Arena) Destroy() {
	a.blocks = nil
	a.off = 0
	a.gen++
	a.dead = true
}
