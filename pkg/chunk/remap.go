// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package chunk

import (
	"github.com/doyaGu/nmo/pkg/errors"
)

// RemapTable maps old object IDs to new ones. Tables are built immediately
// before a remap pass and discarded after it.
type RemapTable struct {
	m map[ID]ID
}

// NewRemapTable returns an empty table.
func NewRemapTable() *RemapTable {
	return &RemapTable{m: make(map[ID]ID)}
}

// Add records an old to new mapping. Mapping from zero is ignored: zero means
// "no reference" and always passes through.
func (t *RemapTable) Add(old, new ID) {
	if old == 0 {
		return
	}
	t.m[old] = new
}

// Get resolves an ID. Unmapped IDs resolve to themselves.
func (t *RemapTable) Get(id ID) (ID, bool) {
	n, ok := t.m[id]
	if !ok {
		return id, false
	}
	return n, true
}

// Len returns the number of mappings.
func (t *RemapTable) Len() int { return len(t.m) }

// RemapObjectIDs rewrites every object reference in the chunk and, in the
// same pass, in all of its descendants. Unmapped IDs, including zero, pass
// through unchanged.
//
// Repeated application is only idempotent if the old and new ID ranges are
// disjoint; a table such as {1->2, 2->3} moves IDs again on a second pass.
func (c *Chunk) RemapObjectIDs(t *RemapTable) error {
	if t == nil {
		return errors.InvalidArgument.With("nil remap table")
	}
	if err := c.checkArena(); err != nil {
		return err
	}
	if c.mode != Readable {
		return errors.InvalidState.WithFormat("remap: chunk is %v, not readable", c.mode)
	}

	for _, p := range c.idPos {
		if int(p) >= len(c.data) {
			return errors.Corruption.WithFormat("ID list: position %d outside data (%d words)", p, len(c.data))
		}
		if n, ok := t.Get(ID(c.data[p])); ok {
			c.data[p] = uint32(n)
		}
	}

	for _, sub := range c.subChunks {
		if err := sub.RemapObjectIDs(t); err != nil {
			return err
		}
	}
	return nil
}
