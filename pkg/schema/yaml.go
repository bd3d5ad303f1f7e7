// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package schema

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/doyaGu/nmo/pkg/chunk"
	"github.com/doyaGu/nmo/pkg/errors"
)

// A schema document declares types in YAML:
//
//	types:
//	  - name: Float
//	    kind: scalar
//	    size: 4
//	  - name: Mesh#1
//	    kind: struct
//	    class: 12
//	    since: 1
//	    size: 16
//	    fields:
//	      - name: radius
//	        type: Float
//	        tag: 0x4d455301
//	        offset: 0
//
// Types are registered in document order, so a type must be declared before
// it is referenced. Parent and field types are referenced by name. A type
// without an explicit guid gets one derived from its full name, so versioned
// variants get distinct GUIDs.
type yamlDocument struct {
	Types []yamlType `yaml:"types"`
}

type yamlType struct {
	Name       string           `yaml:"name"`
	Kind       string           `yaml:"kind"`
	GUID       []uint32         `yaml:"guid,omitempty"`
	Size       int              `yaml:"size,omitempty"`
	Align      int              `yaml:"align,omitempty"`
	ClassID    uint8            `yaml:"class,omitempty"`
	Parent     string           `yaml:"parent,omitempty"`
	Elem       string           `yaml:"elem,omitempty"`
	Since      uint8            `yaml:"since,omitempty"`
	Removed    uint8            `yaml:"removed,omitempty"`
	Deprecated uint8            `yaml:"deprecated,omitempty"`
	Fields     []yamlField      `yaml:"fields,omitempty"`
	Values     map[string]int64 `yaml:"values,omitempty"`
}

type yamlField struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Tag     uint32   `yaml:"tag"`
	Offset  int      `yaml:"offset"`
	Since   uint8    `yaml:"since,omitempty"`
	Removed uint8    `yaml:"removed,omitempty"`
	Flags   []string `yaml:"flags,omitempty"`
}

// FromYAML parses a schema document and registers its types into a new
// registry.
func FromYAML(b []byte) (*Registry, error) {
	var doc yamlDocument
	err := yaml.Unmarshal(b, &doc)
	if err != nil {
		return nil, errors.InvalidArgument.WithFormat("parse schema: %w", err)
	}

	// Resolve names to GUIDs up front so fields can reference types by name.
	// A base name without a variant suffix resolves to the last variant that
	// declares it.
	guids := map[string]GUID{}
	for _, t := range doc.Types {
		g, err := t.guid()
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
		guids[t.Name] = g
		guids[BaseName(t.Name)] = g
	}
	resolve := func(name string) (GUID, error) {
		g, ok := guids[name]
		if !ok {
			return GUID{}, errors.NotFound.WithFormat("schema references unknown type %q", name)
		}
		return g, nil
	}

	reg := NewRegistry()
	for _, yt := range doc.Types {
		t, err := yt.descriptor(resolve)
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
		_, err = reg.Register(t)
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
	}
	return reg, nil
}

func (y *yamlType) guid() (GUID, error) {
	switch len(y.GUID) {
	case 0:
		return GUIDFromName(y.Name), nil
	case 2:
		return GUID{D1: y.GUID[0], D2: y.GUID[1]}, nil
	default:
		return GUID{}, errors.InvalidArgument.WithFormat("type %q: guid must be two words", y.Name)
	}
}

func (y *yamlType) descriptor(resolve func(string) (GUID, error)) (*Type, error) {
	g, err := y.guid()
	if err != nil {
		return nil, err
	}

	t := &Type{
		Name:       y.Name,
		GUID:       g,
		Size:       y.Size,
		Align:      y.Align,
		ClassID:    y.ClassID,
		Since:      y.Since,
		Removed:    y.Removed,
		Deprecated: y.Deprecated,
	}
	if t.Align == 0 {
		t.Align = 4
	}

	switch strings.ToLower(y.Kind) {
	case "scalar":
		t.Kind = KindScalar
	case "struct":
		t.Kind = KindStruct
	case "enum":
		t.Kind = KindEnum
	case "array":
		t.Kind = KindArray
	case "objectref":
		t.Kind = KindObjectRef
		if t.Size == 0 {
			t.Size = 4
		}
	default:
		return nil, errors.InvalidArgument.WithFormat("type %q: unknown kind %q", y.Name, y.Kind)
	}

	if y.Parent != "" {
		t.Parent, err = resolve(y.Parent)
		if err != nil {
			return nil, err
		}
	}
	if y.Elem != "" {
		t.Elem, err = resolve(y.Elem)
		if err != nil {
			return nil, err
		}
	}

	names := maps.Keys(y.Values)
	slices.Sort(names)
	for _, name := range names {
		t.Values = append(t.Values, EnumValue{Name: name, Value: y.Values[name]})
	}

	for _, yf := range y.Fields {
		typ, err := resolve(yf.Type)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("type %q: %w", y.Name, err)
		}
		f := Field{
			Name:    yf.Name,
			Type:    typ,
			Tag:     chunk.Tag(yf.Tag),
			Offset:  yf.Offset,
			Since:   yf.Since,
			Removed: yf.Removed,
		}
		for _, fl := range yf.Flags {
			switch strings.ToLower(fl) {
			case "hidden":
				f.Flags |= FieldHidden
			case "nosave":
				f.Flags |= FieldNoSave
			case "objectid":
				f.Flags |= FieldObjectID
			default:
				return nil, errors.InvalidArgument.WithFormat("field %q: unknown flag %q", yf.Name, fl)
			}
		}
		t.Fields = append(t.Fields, f)
	}

	return t, nil
}
