// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doyaGu/nmo/pkg/errors"
)

func registerScalar(t *testing.T, r *Registry, name string) *Type {
	t.Helper()
	typ := &Type{Name: name, GUID: GUIDFromName(name), Kind: KindScalar, Size: 4, Align: 4}
	_, err := r.Register(typ)
	require.NoError(t, err)
	return typ
}

func TestRegisterAssignsStableIDs(t *testing.T) {
	r := NewRegistry()
	a := registerScalar(t, r, "Float")
	b := registerScalar(t, r, "Int")
	require.Equal(t, 1, a.ID())
	require.Equal(t, 2, b.ID())

	got, ok := r.ByTypeID(1)
	require.True(t, ok)
	require.Same(t, a, got)
	got, ok = r.ByGUID(b.GUID)
	require.True(t, ok)
	require.Same(t, b, got)
	got, ok = r.ByName("Float")
	require.True(t, ok)
	require.Same(t, a, got)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	registerScalar(t, r, "Float")

	_, err := r.Register(&Type{Name: "Float", GUID: GUIDFromName("Float2"), Kind: KindScalar, Size: 4})
	require.Equal(t, errors.AlreadyExists, errors.Code(err))

	_, err = r.Register(&Type{Name: "Other", GUID: GUIDFromName("Float"), Kind: KindScalar, Size: 4})
	require.Equal(t, errors.AlreadyExists, errors.Code(err))
}

func TestRegisterRejectsUnregisteredReferences(t *testing.T) {
	r := NewRegistry()
	float := registerScalar(t, r, "Float")

	// Field type not registered
	_, err := r.Register(&Type{
		Name: "Mesh", GUID: GUIDFromName("Mesh"), Kind: KindStruct,
		Fields: []Field{{Name: "radius", Type: GUIDFromName("Missing")}},
	})
	require.Equal(t, errors.InvalidArgument, errors.Code(err))

	// Parent not registered
	_, err = r.Register(&Type{
		Name: "Mesh", GUID: GUIDFromName("Mesh"), Kind: KindStruct,
		Parent: GUIDFromName("Missing"),
	})
	require.Equal(t, errors.InvalidArgument, errors.Code(err))

	// Array element not registered
	_, err = r.Register(&Type{
		Name: "Floats", GUID: GUIDFromName("Floats"), Kind: KindArray,
		Elem: GUIDFromName("Missing"),
	})
	require.Equal(t, errors.InvalidArgument, errors.Code(err))

	// Valid references succeed
	_, err = r.Register(&Type{
		Name: "Mesh", GUID: GUIDFromName("Mesh"), Kind: KindStruct,
		Fields: []Field{{Name: "radius", Type: float.GUID}},
	})
	require.NoError(t, err)
}

func TestRegisterRejectsBadWindow(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(&Type{Name: "X", GUID: GUIDFromName("X"), Kind: KindScalar, Size: 4, Since: 5, Removed: 5})
	require.Equal(t, errors.InvalidArgument, errors.Code(err))
}

func TestCompatibilityWindow(t *testing.T) {
	open := &Type{Since: 5}
	require.False(t, open.CompatibleWith(4))
	require.True(t, open.CompatibleWith(5))
	require.True(t, open.CompatibleWith(255))

	bounded := &Type{Since: 3, Removed: 8}
	require.False(t, bounded.CompatibleWith(2))
	require.True(t, bounded.CompatibleWith(3))
	require.True(t, bounded.CompatibleWith(7))
	require.False(t, bounded.CompatibleWith(8))

	// Deprecation has no effect on compatibility
	deprecated := &Type{Since: 1, Deprecated: 4}
	require.True(t, deprecated.CompatibleWith(4))
	require.True(t, deprecated.CompatibleWith(9))

	// The unbounded window is always compatible
	require.True(t, new(Type).CompatibleWith(0))
	require.True(t, new(Type).CompatibleWith(255))
}

func TestVariantLookup(t *testing.T) {
	r := NewRegistry()
	v1 := &Type{Name: "Mesh", GUID: GUIDFromName("Mesh"), Kind: KindStruct, ClassID: 12, Since: 1, Removed: 5}
	v2 := &Type{Name: "Mesh#2", GUID: GUIDFromName("Mesh2"), Kind: KindStruct, ClassID: 12, Since: 5}
	_, err := r.Register(v1)
	require.NoError(t, err)
	_, err = r.Register(v2)
	require.NoError(t, err)

	got, ok := r.FindVariantForVersion("Mesh", 3)
	require.True(t, ok)
	require.Same(t, v1, got)
	got, ok = r.FindVariantForVersion("Mesh", 5)
	require.True(t, ok)
	require.Same(t, v2, got)
	_, ok = r.FindVariantForVersion("Mesh", 0)
	require.False(t, ok)

	require.Len(t, r.FindAllVariants("Mesh"), 2)

	// Class lookup resolves to the most recently registered variant
	got, ok = r.ByClassID(12)
	require.True(t, ok)
	require.Same(t, v2, got)

	// FindForVersion matches full names only
	_, ok = r.FindForVersion("Mesh#2", 4)
	require.False(t, ok)
	got, ok = r.FindForVersion("Mesh#2", 6)
	require.True(t, ok)
	require.Same(t, v2, got)
}

func TestDerivationChain(t *testing.T) {
	r := NewRegistry()
	object := registerScalar(t, r, "Object")
	entity := &Type{Name: "Entity", GUID: GUIDFromName("Entity"), Kind: KindStruct, Parent: object.GUID}
	_, err := r.Register(entity)
	require.NoError(t, err)
	mesh := &Type{Name: "Mesh", GUID: GUIDFromName("Mesh"), Kind: KindStruct, Parent: entity.GUID}
	_, err = r.Register(mesh)
	require.NoError(t, err)
	other := registerScalar(t, r, "Other")

	require.True(t, r.IsTypeCompatible(mesh.GUID, mesh.GUID))
	require.True(t, r.IsTypeCompatible(mesh.GUID, entity.GUID))
	require.True(t, r.IsTypeCompatible(mesh.GUID, object.GUID))
	require.False(t, r.IsTypeCompatible(object.GUID, mesh.GUID))
	require.False(t, r.IsTypeCompatible(mesh.GUID, other.GUID))

	require.Equal(t, 0, r.Depth(object.GUID))
	require.Equal(t, 1, r.Depth(entity.GUID))
	require.Equal(t, 2, r.Depth(mesh.GUID))
	require.Equal(t, -1, r.Depth(GUIDFromName("Missing")))
}

func TestGUIDFromNameIsStable(t *testing.T) {
	require.Equal(t, GUIDFromName("Mesh"), GUIDFromName("Mesh"))
	require.NotEqual(t, GUIDFromName("Mesh"), GUIDFromName("Mesh#2"))
	require.False(t, GUIDFromName("Mesh").IsZero())
}

func TestBaseName(t *testing.T) {
	require.Equal(t, "Mesh", BaseName("Mesh"))
	require.Equal(t, "Mesh", BaseName("Mesh#2"))
	require.Equal(t, "", BaseName("#3"))
}
