// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package schema

import (
	"fmt"

	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/errors"
)

// ValidateOptions configures structural validation.
type ValidateOptions struct {
	// Strict enables checks that reject questionable but loadable input:
	// unregistered chunk classes, fields outside the declared struct size,
	// duplicate enum values.
	Strict bool
	// MaxCount bounds array and list counts. Zero selects DefaultMaxCount.
	MaxCount int
	// MaxDepth bounds sub-chunk recursion. Zero selects DefaultMaxDepth.
	MaxDepth int
}

// DefaultMaxCount is the list-count limit applied when none is configured.
const DefaultMaxCount = 1 << 24

// DefaultMaxDepth is the recursion limit applied when none is configured.
const DefaultMaxDepth = 64

// Problem is one conformance failure.
type Problem struct {
	Code    errors.Status
	Path    string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Code, p.Path, p.Message)
}

// Verdict is the outcome of a validation pass. It is data, never a control
// flow exception: an invalid input yields a verdict listing reasons.
type Verdict struct {
	Problems []Problem
}

// Valid reports whether no problems were found.
func (v Verdict) Valid() bool { return len(v.Problems) == 0 }

func (v *Verdict) add(code errors.Status, path, format string, args ...interface{}) {
	v.Problems = append(v.Problems, Problem{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

// ValidateType checks a registered descriptor's structural conformance.
func (r *Registry) ValidateType(t *Type, opts ValidateOptions) Verdict {
	var v Verdict
	if t == nil {
		v.add(errors.InvalidArgument, "", "nil type")
		return v
	}

	path := t.Name
	if _, ok := r.byGUID[t.GUID]; !ok {
		v.add(errors.NotFound, path, "type is not registered")
	}

	for i := range t.Fields {
		f := &t.Fields[i]
		fpath := path + "." + f.Name
		ft, ok := r.byGUID[f.Type]
		if !ok {
			v.add(errors.NotFound, fpath, "field type %v is not registered", f.Type)
			continue
		}
		if f.Offset < 0 {
			v.add(errors.InvalidArgument, fpath, "negative offset %d", f.Offset)
		}
		if opts.Strict && t.Size > 0 && ft.Size > 0 && f.Offset+ft.Size > t.Size {
			v.add(errors.InvalidArgument, fpath, "field ends at byte %d, outside the declared size %d", f.Offset+ft.Size, t.Size)
		}
		if f.Removed != 0 && f.Removed <= f.Since {
			v.add(errors.InvalidArgument, fpath, "removal version %d is not after introduction version %d", f.Removed, f.Since)
		}
	}

	if opts.Strict && t.Kind == KindEnum {
		seen := make(map[int64]string, len(t.Values))
		for _, ev := range t.Values {
			if prev, ok := seen[ev.Value]; ok {
				v.add(errors.AlreadyExists, path+"."+ev.Name, "value %d duplicates %q", ev.Value, prev)
			}
			seen[ev.Value] = ev.Name
		}
	}

	return v
}

// ValidateChunk checks a chunk, and recursively its sub-chunks, against the
// registry and the configured limits.
func (r *Registry) ValidateChunk(c *chunk.Chunk, opts ValidateOptions) Verdict {
	var v Verdict
	if c == nil {
		v.add(errors.InvalidArgument, "", "nil chunk")
		return v
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	r.validateChunk(c, "chunk", 0, maxDepth, opts, &v)
	return v
}

func (r *Registry) validateChunk(c *chunk.Chunk, path string, depth, maxDepth int, opts ValidateOptions, v *Verdict) {
	if depth > maxDepth {
		v.add(errors.InvalidArgument, path, "sub-chunk nesting exceeds %d levels", maxDepth)
		return
	}

	if c.Mode() != chunk.Readable {
		v.add(errors.InvalidState, path, "chunk is %v, not readable", c.Mode())
		return
	}

	maxCount := opts.MaxCount
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	if c.DataWords() > maxCount {
		v.add(errors.InvalidArgument, path, "data length %d words exceeds the limit %d", c.DataWords(), maxCount)
	}

	n := c.DataWords()
	for _, id := range c.Identifiers() {
		if int(id.Offset)+2 > n {
			v.add(errors.Corruption, path, "identifier 0x%08X at word %d is truncated", uint32(id.Tag), id.Offset)
		}
	}
	for _, p := range c.ObjectIDPositions() {
		if int(p) >= n {
			v.add(errors.Corruption, path, "object reference position %d is outside the data (%d words)", p, n)
		}
	}

	t, ok := r.ByClassID(c.ClassID())
	if !ok {
		if opts.Strict {
			v.add(errors.NotFound, path, "no type is registered for class %d", c.ClassID())
		}
	} else if !t.CompatibleWith(c.DataVersion()) {
		v.add(errors.VersionIncompatible, path, "type %q is not part of the format at version %d", t.Name, c.DataVersion())
	}

	for i := 0; i < c.SubChunkCount(); i++ {
		sub, err := c.SubChunk(i)
		if err != nil {
			v.add(errors.Code(err), path, "sub-chunk %d: %v", i, err)
			continue
		}
		r.validateChunk(sub, fmt.Sprintf("%s/%d", path, i), depth+1, maxDepth, opts, v)
	}
}
