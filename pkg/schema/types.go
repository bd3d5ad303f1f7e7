// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package schema implements the versioned type catalog that gives chunk
// payloads meaning. Types are registered programmatically once per session,
// are immutable afterward, and carry version-validity windows that drive
// cross-version migration.
package schema

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/doyaGu/nmo/pkg/chunk"
)

// GUID is the two-word global identifier of a schema type. It is the type's
// primary key and part of the wire format.
type GUID struct {
	D1, D2 uint32
}

// IsZero reports whether the GUID is unset.
func (g GUID) IsZero() bool { return g == GUID{} }

func (g GUID) String() string {
	return fmt.Sprintf("0x%08X-0x%08X", g.D1, g.D2)
}

// guidNamespace seeds name-derived GUIDs. Changing it changes every derived
// GUID, so it is frozen.
var guidNamespace = uuid.MustParse("6f8c4b2a-1d3e-4a5b-9c7d-0e2f4a6b8c1d")

// GUIDFromName derives a stable GUID from a type name. Handy for tests and
// for tools that define ad-hoc types; real engine classes use their
// historical GUIDs.
func GUIDFromName(name string) GUID {
	u := uuid.NewSHA1(guidNamespace, []byte(name))
	return GUID{
		D1: binary.LittleEndian.Uint32(u[0:4]),
		D2: binary.LittleEndian.Uint32(u[4:8]),
	}
}

// Kind classifies a type descriptor.
type Kind uint8

const (
	// KindScalar is a fixed-size value with no structure.
	KindScalar Kind = iota
	// KindStruct is a record with named fields.
	KindStruct
	// KindEnum is a named integer set.
	KindEnum
	// KindArray is a counted sequence of one element type.
	KindArray
	// KindObjectRef is a 32-bit object cross-reference.
	KindObjectRef
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindObjectRef:
		return "objectRef"
	default:
		return fmt.Sprintf("Kind:%d", uint8(k))
	}
}

// FieldFlags are annotation bits on a field descriptor.
type FieldFlags uint32

const (
	// FieldHidden marks a field that tooling should not display.
	FieldHidden FieldFlags = 1 << iota
	// FieldNoSave marks a transient field absent from chunks.
	FieldNoSave
	// FieldObjectID marks a field whose words are object references.
	FieldObjectID
)

// Type is a descriptor in the catalog. Descriptors are immutable once
// registered.
type Type struct {
	// Name is the full type name. Versioned variants append "#<n>" to a
	// shared base name, e.g. "Mesh" and "Mesh#2".
	Name string `validate:"required"`
	// GUID is the primary key.
	GUID GUID
	Kind Kind
	// Size is the in-memory byte size; zero for variable-size kinds.
	Size int `validate:"gte=0"`
	// Align is the required alignment. Zero means natural alignment.
	Align int `validate:"gte=0"`
	// ClassID ties the type to a chunk class tag. Zero means none.
	ClassID uint8

	// Since and Removed bound the version-validity window [Since, Removed).
	// Removed zero means the type was never removed.
	Since   uint8
	Removed uint8
	// Deprecated is the version at which the type was deprecated, or zero.
	// Deprecation never affects compatibility.
	Deprecated uint8

	// Parent is the single-derivation base type, or zero.
	Parent GUID

	// Fields describes a struct's members.
	Fields []Field `validate:"dive"`
	// Values describes an enum's members.
	Values []EnumValue `validate:"dive"`
	// Elem is an array's element type.
	Elem GUID

	id int
}

// ID returns the stable integer type-ID assigned at registration, or zero if
// the type is unregistered.
func (t *Type) ID() int { return t.id }

// BaseName returns the name shared by all of the type's versioned variants.
func (t *Type) BaseName() string { return BaseName(t.Name) }

// BaseName strips the "#<n>" variant suffix from a type name.
func BaseName(name string) string {
	if i := strings.IndexByte(name, '#'); i >= 0 {
		return name[:i]
	}
	return name
}

// CompatibleWith reports whether the type is part of the format at the given
// version: Since <= version and (Removed == 0 or version < Removed). The
// unbounded window (0, 0) is always compatible.
func (t *Type) CompatibleWith(version uint8) bool {
	if version < t.Since {
		return false
	}
	return t.Removed == 0 || version < t.Removed
}

// Field is a member of a struct type.
type Field struct {
	Name string `validate:"required"`
	// Type is the field's element type.
	Type GUID
	// Tag locates the field's region in a chunk.
	Tag chunk.Tag
	// Offset is the in-memory byte offset.
	Offset int `validate:"gte=0"`
	Flags  FieldFlags

	// Since and Removed bound the field's own validity window.
	Since   uint8
	Removed uint8
}

// CompatibleWith reports whether the field is part of the format at the given
// version.
func (f *Field) CompatibleWith(version uint8) bool {
	if version < f.Since {
		return false
	}
	return f.Removed == 0 || version < f.Removed
}

// EnumValue is a member of an enum type.
type EnumValue struct {
	Name  string `validate:"required"`
	Value int64
}
