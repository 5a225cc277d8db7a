package graph

import (
	"fmt"
	"slices"

	"github.com/mandelsoft/goutils/maputils"
)

type AttributeKind string

const (
	ATTR_FLOAT   AttributeKind = "float"
	ATTR_INT     AttributeKind = "int"
	ATTR_STRING  AttributeKind = "string"
	ATTR_FLOATS  AttributeKind = "floats"
	ATTR_INTS    AttributeKind = "ints"
	ATTR_STRINGS AttributeKind = "strings"
	ATTR_GRAPH   AttributeKind = "graph"
)

// Attribute is a typed attribute value. Only the field matching
// Kind is relevant.
type Attribute struct {
	Kind    AttributeKind
	F       float32
	I       int64
	S       string
	Floats  []float32
	Ints    []int64
	Strings []string
	Graph   *Graph
}

func FloatAttribute(f float32) *Attribute {
	return &Attribute{Kind: ATTR_FLOAT, F: f}
}

func IntAttribute(i int64) *Attribute {
	return &Attribute{Kind: ATTR_INT, I: i}
}

func StringAttribute(s string) *Attribute {
	return &Attribute{Kind: ATTR_STRING, S: s}
}

func FloatsAttribute(f ...float32) *Attribute {
	return &Attribute{Kind: ATTR_FLOATS, Floats: slices.Clone(f)}
}

func IntsAttribute(i ...int64) *Attribute {
	return &Attribute{Kind: ATTR_INTS, Ints: slices.Clone(i)}
}

func StringsAttribute(s ...string) *Attribute {
	return &Attribute{Kind: ATTR_STRINGS, Strings: slices.Clone(s)}
}

func GraphAttribute(g *Graph) *Attribute {
	return &Attribute{Kind: ATTR_GRAPH, Graph: g}
}

// Copy provides a copy of the attribute. Nested graphs are shared.
func (a *Attribute) Copy() *Attribute {
	if a == nil {
		return nil
	}
	c := *a
	c.Floats = slices.Clone(a.Floats)
	c.Ints = slices.Clone(a.Ints)
	c.Strings = slices.Clone(a.Strings)
	return &c
}

func (a *Attribute) String() string {
	switch a.Kind {
	case ATTR_FLOAT:
		return fmt.Sprintf("%g", a.F)
	case ATTR_INT:
		return fmt.Sprintf("%d", a.I)
	case ATTR_STRING:
		return fmt.Sprintf("%q", a.S)
	case ATTR_FLOATS:
		return fmt.Sprintf("%v", a.Floats)
	case ATTR_INTS:
		return fmt.Sprintf("%v", a.Ints)
	case ATTR_STRINGS:
		return fmt.Sprintf("%q", a.Strings)
	case ATTR_GRAPH:
		if a.Graph == nil {
			return "graph()"
		}
		return fmt.Sprintf("graph(%s)", a.Graph.Name())
	default:
		return fmt.Sprintf("<%s>", a.Kind)
	}
}

// Attributes is the attribute set of a node.
type Attributes map[string]*Attribute

// Get looks up an attribute by key.
func (a Attributes) Get(name string) (*Attribute, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a[name]
	return v, ok && v != nil
}

// Copy provides a copy of the attribute set, which can be modified
// without affecting the original.
func (a Attributes) Copy() Attributes {
	r := Attributes{}
	for k, v := range a {
		r[k] = v.Copy()
	}
	return r
}

// Names returns the sorted attribute names.
func (a Attributes) Names() []string {
	return maputils.OrderedKeys(a)
}
