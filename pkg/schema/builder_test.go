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

func TestBuilderDeclaresSchema(t *testing.T) {
	reg := NewRegistry()
	b := NewBuilder(reg)

	b.Scalar("Float", GUIDFromName("Float"), 4).
		ObjectRef("Ref", GUIDFromName("Ref")).
		Array("Floats", GUIDFromName("Floats"), GUIDFromName("Float"))

	b.Enum("LightKind", GUIDFromName("LightKind")).
		Value("Point", 1).
		Value("Spot", 2).
		Register()

	b.Struct("Light#1", GUIDFromName("Light")).
		ClassID(13).
		Since(1).
		Size(12).
		Field("kind", GUIDFromName("LightKind"), 0x4C495401, 0).
		Field("range", GUIDFromName("Float"), 0x4C495402, 4, FieldSince(2)).
		Field("target", GUIDFromName("Ref"), 0x4C495403, 8, FieldWithFlags(FieldObjectID)).
		Register()

	require.NoError(t, b.Err())
	require.Equal(t, 5, reg.Len())

	light, ok := reg.ByName("Light#1")
	require.True(t, ok)
	require.Equal(t, "Light", light.BaseName())
	require.Len(t, light.Fields, 3)
	require.Equal(t, uint8(2), light.Fields[1].Since)
	require.Equal(t, FieldObjectID, light.Fields[2].Flags)
}

func TestBuilderErrorsAreSticky(t *testing.T) {
	reg := NewRegistry()
	b := NewBuilder(reg)

	// Name is required, so validation fails
	b.Scalar("", GUIDFromName("anon"), 4)
	require.Error(t, b.Err())
	first := b.Err()

	// Later declarations are no-ops and do not mask the first failure
	b.Scalar("Float", GUIDFromName("Float"), 4)
	require.Same(t, first, b.Err())
	require.Zero(t, reg.Len())
}

func TestBuilderValidatesFields(t *testing.T) {
	reg := NewRegistry()
	b := NewBuilder(reg)
	b.Scalar("Float", GUIDFromName("Float"), 4)

	// A field with no name fails struct validation
	b.Struct("Mesh", GUIDFromName("Mesh")).
		Field("", GUIDFromName("Float"), 1, 0).
		Register()
	require.Error(t, b.Err())
	require.Equal(t, errors.InvalidArgument, errors.Code(b.Err()))
}
