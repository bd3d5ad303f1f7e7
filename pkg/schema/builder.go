// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package schema

import (
	"github.com/go-playground/validator/v10"

	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/errors"
)

// Builder is a fluent registration front end for a registry. Descriptor
// construction errors are sticky: the first failure is remembered and every
// later call is a no-op, so a whole schema can be declared before checking
// Err once.
type Builder struct {
	reg      *Registry
	validate *validator.Validate
	err      error
}

// NewBuilder returns a builder for the registry.
func NewBuilder(reg *Registry) *Builder {
	return &Builder{reg: reg, validate: validator.New()}
}

// Err returns the first registration failure, or nil.
func (b *Builder) Err() error { return b.err }

func (b *Builder) register(t *Type) {
	if b.err != nil {
		return
	}
	if err := b.validate.Struct(t); err != nil {
		b.err = errors.InvalidArgument.WithFormat("type %q: %w", t.Name, err)
		return
	}
	if _, err := b.reg.Register(t); err != nil {
		b.err = err
	}
}

// Scalar registers a fixed-size scalar type.
func (b *Builder) Scalar(name string, guid GUID, size int) *Builder {
	b.register(&Type{Name: name, GUID: guid, Kind: KindScalar, Size: size, Align: size})
	return b
}

// ObjectRef registers a 32-bit object-reference type.
func (b *Builder) ObjectRef(name string, guid GUID) *Builder {
	b.register(&Type{Name: name, GUID: guid, Kind: KindObjectRef, Size: 4, Align: 4})
	return b
}

// Array registers a counted-sequence type of the given element.
func (b *Builder) Array(name string, guid, elem GUID) *Builder {
	b.register(&Type{Name: name, GUID: guid, Kind: KindArray, Elem: elem})
	return b
}

// Enum starts an enum declaration. Call Register on the result to commit it.
func (b *Builder) Enum(name string, guid GUID) *EnumBuilder {
	return &EnumBuilder{b: b, t: &Type{Name: name, GUID: guid, Kind: KindEnum, Size: 4, Align: 4}}
}

// Struct starts a struct declaration. Call Register on the result to commit
// it.
func (b *Builder) Struct(name string, guid GUID) *StructBuilder {
	return &StructBuilder{b: b, t: &Type{Name: name, GUID: guid, Kind: KindStruct}}
}

// EnumBuilder declares an enum's values.
type EnumBuilder struct {
	b *Builder
	t *Type
}

// Value adds a named value.
func (e *EnumBuilder) Value(name string, v int64) *EnumBuilder {
	e.t.Values = append(e.t.Values, EnumValue{Name: name, Value: v})
	return e
}

// Since sets the introduction version.
func (e *EnumBuilder) Since(v uint8) *EnumBuilder {
	e.t.Since = v
	return e
}

// Removed sets the removal version.
func (e *EnumBuilder) Removed(v uint8) *EnumBuilder {
	e.t.Removed = v
	return e
}

// Register commits the enum to the registry.
func (e *EnumBuilder) Register() *Builder {
	e.b.register(e.t)
	return e.b
}

// StructBuilder declares a struct's fields and windows.
type StructBuilder struct {
	b *Builder
	t *Type
}

// FieldOption adjusts a field declaration.
type FieldOption func(*Field)

// FieldSince bounds a field's introduction version.
func FieldSince(v uint8) FieldOption {
	return func(f *Field) { f.Since = v }
}

// FieldRemoved bounds a field's removal version.
func FieldRemoved(v uint8) FieldOption {
	return func(f *Field) { f.Removed = v }
}

// FieldWithFlags sets annotation bits.
func FieldWithFlags(flags FieldFlags) FieldOption {
	return func(f *Field) { f.Flags = flags }
}

// Field adds a member located by the given identifier tag at the given
// in-memory byte offset.
func (s *StructBuilder) Field(name string, typ GUID, tag chunk.Tag, offset int, opts ...FieldOption) *StructBuilder {
	f := Field{Name: name, Type: typ, Tag: tag, Offset: offset}
	for _, o := range opts {
		o(&f)
	}
	s.t.Fields = append(s.t.Fields, f)
	return s
}

// Size sets the in-memory byte size.
func (s *StructBuilder) Size(size int) *StructBuilder {
	s.t.Size = size
	return s
}

// ClassID binds the struct to a chunk class tag.
func (s *StructBuilder) ClassID(id uint8) *StructBuilder {
	s.t.ClassID = id
	return s
}

// Parent sets the single-derivation base type.
func (s *StructBuilder) Parent(g GUID) *StructBuilder {
	s.t.Parent = g
	return s
}

// Since sets the introduction version.
func (s *StructBuilder) Since(v uint8) *StructBuilder {
	s.t.Since = v
	return s
}

// Removed sets the removal version.
func (s *StructBuilder) Removed(v uint8) *StructBuilder {
	s.t.Removed = v
	return s
}

// Deprecated marks the version at which the struct was deprecated.
func (s *StructBuilder) Deprecated(v uint8) *StructBuilder {
	s.t.Deprecated = v
	return s
}

// Register commits the struct to the registry.
func (s *StructBuilder) Register() *Builder {
	s.b.register(s.t)
	return s.b
}
