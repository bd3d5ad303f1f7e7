// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package chunk

import "github.com/doyaGu/nmo/pkg/arena"

// Pool recycles chunk structures. It recycles the structs only, never their
// data buffers; those belong to the arena. A pool is not safe for concurrent
// use.
type Pool struct {
	free []*Chunk
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return new(Pool)
}

// Acquire returns a zeroed, uninitialized chunk attached to the given arena,
// reusing a released structure when one is available.
func (p *Pool) Acquire(a *arena.Arena, classID uint8) *Chunk {
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		c.classID = classID
		c.attach(a)
		return c
	}
	return New(a, classID)
}

// Release marks the chunk reusable. The caller must not touch it afterward.
func (p *Pool) Release(c *Chunk) {
	if c == nil {
		return
	}
	c.reset()
	p.free = append(p.free, c)
}

// Size returns the number of chunks currently held by the pool.
func (p *Pool) Size() int { return len(p.free) }
