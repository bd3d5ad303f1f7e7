// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package schema

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/doyaGu/nmo/pkg/errors"
)

// Registry owns every type descriptor of a session. Registration order
// encodes a dependency DAG: a type may only reference types registered before
// it, so cycles cannot form. Once the registration phase is over, a registry
// is read-only and safe for concurrent readers.
type Registry struct {
	types   []*Type
	byGUID  map[GUID]*Type
	byName  map[string]*Type
	byBase  map[string][]*Type
	byClass map[uint8]*Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byGUID:  make(map[GUID]*Type),
		byName:  make(map[string]*Type),
		byBase:  make(map[string][]*Type),
		byClass: make(map[uint8]*Type),
	}
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.types) }

// Names returns every registered type name, sorted.
func (r *Registry) Names() []string {
	names := maps.Keys(r.byName)
	slices.Sort(names)
	return names
}

// Register adds a descriptor and assigns its stable type-ID. It fails with
// AlreadyExists on a duplicate name or GUID and with InvalidArgument when the
// descriptor references an unregistered type.
func (r *Registry) Register(t *Type) (int, error) {
	if t == nil {
		return 0, errors.InvalidArgument.With("nil type")
	}
	if t.Name == "" {
		return 0, errors.InvalidArgument.With("empty type name")
	}
	if t.GUID.IsZero() {
		return 0, errors.InvalidArgument.WithFormat("type %q has no GUID", t.Name)
	}
	if t.Removed != 0 && t.Removed <= t.Since {
		return 0, errors.InvalidArgument.WithFormat("type %q: removal version %d is not after introduction version %d", t.Name, t.Removed, t.Since)
	}
	if _, ok := r.byGUID[t.GUID]; ok {
		return 0, errors.AlreadyExists.WithFormat("GUID %v is already registered", t.GUID)
	}
	if _, ok := r.byName[t.Name]; ok {
		return 0, errors.AlreadyExists.WithFormat("type %q is already registered", t.Name)
	}

	if !t.Parent.IsZero() {
		if _, ok := r.byGUID[t.Parent]; !ok {
			return 0, errors.InvalidArgument.WithFormat("type %q derives from unregistered type %v", t.Name, t.Parent)
		}
	}

	switch t.Kind {
	case KindStruct:
		for i := range t.Fields {
			f := &t.Fields[i]
			if f.Name == "" {
				return 0, errors.InvalidArgument.WithFormat("type %q: field %d has no name", t.Name, i)
			}
			if _, ok := r.byGUID[f.Type]; !ok {
				return 0, errors.InvalidArgument.WithFormat("type %q: field %q references unregistered type %v", t.Name, f.Name, f.Type)
			}
		}
	case KindArray:
		if _, ok := r.byGUID[t.Elem]; !ok {
			return 0, errors.InvalidArgument.WithFormat("type %q: element type %v is not registered", t.Name, t.Elem)
		}
	}

	t.id = len(r.types) + 1
	r.types = append(r.types, t)
	r.byGUID[t.GUID] = t
	r.byName[t.Name] = t
	r.byBase[t.BaseName()] = append(r.byBase[t.BaseName()], t)
	if t.ClassID != 0 {
		// Later variants of a class shadow earlier ones for class lookup
		r.byClass[t.ClassID] = t
	}
	return t.id, nil
}

// ByGUID finds a type by its GUID.
func (r *Registry) ByGUID(g GUID) (*Type, bool) {
	t, ok := r.byGUID[g]
	return t, ok
}

// ByName finds a type by its full name.
func (r *Registry) ByName(name string) (*Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// ByTypeID finds a type by its registration-assigned ID.
func (r *Registry) ByTypeID(id int) (*Type, bool) {
	if id < 1 || id > len(r.types) {
		return nil, false
	}
	return r.types[id-1], true
}

// ByClassID finds the type bound to a chunk class tag. When several variants
// share the class, the most recently registered one wins.
func (r *Registry) ByClassID(classID uint8) (*Type, bool) {
	t, ok := r.byClass[classID]
	return t, ok
}

// FindForVersion returns the named type only if it is compatible with the
// given version.
func (r *Registry) FindForVersion(name string, version uint8) (*Type, bool) {
	t, ok := r.byName[name]
	if !ok || !t.CompatibleWith(version) {
		return nil, false
	}
	return t, true
}

// FindVariantForVersion returns the variant of the base name whose validity
// window contains the given version.
func (r *Registry) FindVariantForVersion(baseName string, version uint8) (*Type, bool) {
	for _, t := range r.byBase[baseName] {
		if t.CompatibleWith(version) {
			return t, true
		}
	}
	return nil, false
}

// FindAllVariants returns every type sharing the base name across its
// historical versions, in unspecified order.
func (r *Registry) FindAllVariants(baseName string) []*Type {
	return slices.Clone(r.byBase[baseName])
}

// IsTypeCompatible reports whether the type identified by derived is base
// itself or derives from it through the single-parent chain.
func (r *Registry) IsTypeCompatible(derived, base GUID) bool {
	for g := derived; !g.IsZero(); {
		if g == base {
			return true
		}
		t, ok := r.byGUID[g]
		if !ok {
			return false
		}
		g = t.Parent
	}
	return false
}

// Depth returns the length of a type's derivation chain: a root type has
// depth 0. An unregistered GUID yields -1, an error sentinel rather than a
// valid depth.
func (r *Registry) Depth(g GUID) int {
	depth := 0
	for {
		t, ok := r.byGUID[g]
		if !ok {
			return -1
		}
		if t.Parent.IsZero() {
			return depth
		}
		g = t.Parent
		depth++
	}
}
