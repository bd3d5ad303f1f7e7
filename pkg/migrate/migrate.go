// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package migrate transforms chunks between format versions, driven by the
// schema registry's per-field version metadata. When the source and target
// layouts agree, only the packed version field is rewritten; otherwise the
// data buffer is rebuilt field by field.
package migrate

import (
	"github.com/rs/zerolog"

	"github.com/doyaGu/nmo/pkg/arena"
	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/errors"
	"github.com/doyaGu/nmo/pkg/schema"
)

// FieldTransform rewrites one field's words during migration. It is called
// with nil when the field is being introduced, so it can synthesize a
// default. Returning nil words writes nothing, which is how a removal
// transform consumes a field.
type FieldTransform func(old []uint32) ([]uint32, error)

// DropField is the transform that deliberately discards a removed field.
func DropField([]uint32) ([]uint32, error) { return nil, nil }

type transformKey struct {
	base  string
	field string
}

// Migrator rewrites chunks between versions. It is stateless apart from its
// registry binding and transform table; a fully configured migrator is safe
// for concurrent readers.
type Migrator struct {
	reg        *schema.Registry
	transforms map[transformKey]FieldTransform
	logger     zerolog.Logger
}

// New returns a migrator bound to the registry.
func New(reg *schema.Registry) *Migrator {
	return &Migrator{
		reg:        reg,
		transforms: make(map[transformKey]FieldTransform),
		logger:     zerolog.Nop(),
	}
}

// SetLogger attaches a logger for per-field migration traces.
func (m *Migrator) SetLogger(l zerolog.Logger) { m.logger = l }

// RegisterTransform defines how the named field of the base type is rewritten
// when migration crosses a layout change. Registering a second transform for
// the same field replaces the first.
func (m *Migrator) RegisterTransform(baseName, field string, fn FieldTransform) {
	m.transforms[transformKey{baseName, field}] = fn
}

func (m *Migrator) transform(baseName, field string) (FieldTransform, bool) {
	fn, ok := m.transforms[transformKey{baseName, field}]
	return fn, ok
}

// fieldsAt returns the variant's fields that are part of the format at the
// given version, keyed by tag in declaration order.
func fieldsAt(t *schema.Type, version uint8) []*schema.Field {
	var out []*schema.Field
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.CompatibleWith(version) {
			out = append(out, f)
		}
	}
	return out
}

func findByTag(fields []*schema.Field, tag chunk.Tag) *schema.Field {
	for _, f := range fields {
		if f.Tag == tag {
			return f
		}
	}
	return nil
}

// CanMigrate reports whether a path exists from one version of the base type
// to another: both variants must be registered and every field that
// disappears on the way must have a transform.
func (m *Migrator) CanMigrate(baseName string, from, to uint8) bool {
	src, ok := m.reg.FindVariantForVersion(baseName, from)
	if !ok {
		return false
	}
	dst, ok := m.reg.FindVariantForVersion(baseName, to)
	if !ok {
		return false
	}

	srcFields := fieldsAt(src, from)
	dstFields := fieldsAt(dst, to)
	for _, f := range srcFields {
		if findByTag(dstFields, f.Tag) != nil {
			continue
		}
		if _, ok := m.transform(baseName, f.Name); !ok {
			return false
		}
	}
	return true
}

// Migrate produces an equivalent chunk at the target version, owned by the
// arena. The source chunk is not modified.
func (m *Migrator) Migrate(c *chunk.Chunk, a *arena.Arena, to uint8) (*chunk.Chunk, error) {
	if c == nil {
		return nil, errors.InvalidArgument.With("nil chunk")
	}
	from := c.DataVersion()
	if from == to {
		return c.Clone(a)
	}

	t, ok := m.reg.ByClassID(c.ClassID())
	if !ok {
		return nil, errors.NotFound.WithFormat("no type is registered for class %d", c.ClassID())
	}
	base := t.BaseName()

	src, ok := m.reg.FindVariantForVersion(base, from)
	if !ok {
		return nil, errors.VersionIncompatible.WithFormat("%q has no variant at version %d", base, from)
	}
	dst, ok := m.reg.FindVariantForVersion(base, to)
	if !ok {
		return nil, errors.VersionIncompatible.WithFormat("%q has no variant at version %d", base, to)
	}

	srcFields := fieldsAt(src, from)
	dstFields := fieldsAt(dst, to)

	if m.sameLayout(base, srcFields, dstFields) {
		m.logger.Debug().Str("type", base).Uint8("from", from).Uint8("to", to).Msg("minimal migration")
		out, err := c.Clone(a)
		if err != nil {
			return nil, err
		}
		out.SetDataVersion(to)
		return out, nil
	}

	m.logger.Debug().Str("type", base).Uint8("from", from).Uint8("to", to).Msg("field migration")
	return m.restructure(c, a, base, to, srcFields, dstFields)
}

// sameLayout reports whether the two field sets agree tag for tag with no
// transform registered, in which case only the version field needs to change.
func (m *Migrator) sameLayout(base string, src, dst []*schema.Field) bool {
	if len(src) != len(dst) {
		return false
	}
	for i, f := range src {
		if dst[i].Tag != f.Tag {
			return false
		}
		if _, ok := m.transform(base, f.Name); ok {
			return false
		}
	}
	return true
}

func (m *Migrator) restructure(c *chunk.Chunk, a *arena.Arena, base string, to uint8, srcFields, dstFields []*schema.Field) (*chunk.Chunk, error) {
	// Fields removed on the way out need an explicit transform; silently
	// dropping data is not an acceptable default
	for _, f := range srcFields {
		if findByTag(dstFields, f.Tag) != nil {
			continue
		}
		fn, ok := m.transform(base, f.Name)
		if !ok {
			return nil, errors.NoMigrationPath.WithFormat("%s.%s is removed at version %d and has no transform", base, f.Name, to)
		}
		if _, err := m.applyRemoval(c, f, fn); err != nil {
			return nil, err
		}
	}

	out := chunk.New(a, c.ClassID())
	out.SetVersions(to, c.ChunkVersion())
	out.SetCompression(c.Compression())
	if err := out.StartWrite(); err != nil {
		return nil, err
	}
	if err := out.AdoptSubChunksFrom(c, a); err != nil {
		return nil, err
	}
	for _, id := range c.Managers() {
		if err := out.AddManager(id); err != nil {
			return nil, err
		}
	}

	for _, f := range dstFields {
		if err := m.migrateField(c, out, base, f, findByTag(srcFields, f.Tag)); err != nil {
			return nil, err
		}
	}

	if err := out.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// applyRemoval runs the removal transform so it can veto the migration. Its
// output must be empty: there is no destination field to carry words.
func (m *Migrator) applyRemoval(c *chunk.Chunk, f *schema.Field, fn FieldTransform) ([]uint32, error) {
	words, _, err := readRegion(c, f.Tag)
	if err != nil {
		return nil, err
	}
	out, err := fn(words)
	if err != nil {
		return nil, errors.NoMigrationPath.WithFormat("transform %s: %w", f.Name, err)
	}
	if len(out) != 0 {
		return nil, errors.NoMigrationPath.WithFormat("removal transform for %s produced %d words with no destination field", f.Name, len(out))
	}
	return nil, nil
}

func (m *Migrator) migrateField(c, out *chunk.Chunk, base string, f, srcField *schema.Field) error {
	if err := out.WriteIdentifier(f.Tag); err != nil {
		return err
	}

	fn, hasFn := m.transform(base, f.Name)

	var words []uint32
	var idOffsets map[int]bool
	if srcField != nil {
		var err error
		words, idOffsets, err = readRegion(c, f.Tag)
		if err != nil {
			return err
		}
	}
	if hasFn {
		var err error
		words, err = fn(words)
		if err != nil {
			return errors.NoMigrationPath.WithFormat("transform %s: %w", f.Name, err)
		}
		// Transformed words lose their per-word bookkeeping; the field's
		// annotation decides whether they are references
		idOffsets = nil
	}
	if srcField == nil && !hasFn {
		words = m.defaultWords(f)
	}

	allIDs := f.Flags&schema.FieldObjectID != 0
	for i, w := range words {
		var err error
		if allIDs || idOffsets[i] {
			err = out.WriteObjectID(chunk.ID(w))
		} else {
			err = out.WriteUint32(w)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// defaultWords synthesizes a zero value for a field introduced at the target
// version.
func (m *Migrator) defaultWords(f *schema.Field) []uint32 {
	t, ok := m.reg.ByGUID(f.Type)
	if !ok || t.Size <= 0 {
		return nil
	}
	return make([]uint32, (t.Size+3)/4)
}

// readRegion extracts the words of a tagged region and the region-relative
// offsets that hold object references. A missing tag yields nil words: a
// writer at the source version may simply have omitted the field.
func readRegion(c *chunk.Chunk, tag chunk.Tag) ([]uint32, map[int]bool, error) {
	if err := c.StartRead(); err != nil {
		return nil, nil, err
	}
	ok, err := c.SeekIdentifier(tag)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}
	size, _ := c.IdentifierSize(tag)
	start := c.Tell()
	words, err := c.ReadWords(size)
	if err != nil {
		return nil, nil, err
	}

	ids := make(map[int]bool)
	for _, p := range c.ObjectIDPositions() {
		if int(p) >= start && int(p) < start+size {
			ids[int(p)-start] = true
		}
	}
	return words, ids, nil
}
