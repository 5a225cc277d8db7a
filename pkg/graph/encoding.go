package graph

import (
	"fmt"

	"github.com/drone/envsubst"
	"github.com/mandelsoft/goutils/general"
	"github.com/mandelsoft/goutils/generics"
	"github.com/mandelsoft/goutils/maputils"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/fusion/pkg/utils"
)

// GraphSpec is the serialization format of a graph.
type GraphSpec struct {
	Name         string       `json:"name,omitempty"`
	Inputs       []ValueSpec  `json:"inputs,omitempty"`
	Outputs      []ValueSpec  `json:"outputs,omitempty"`
	ValueInfo    []ValueSpec  `json:"valueInfo,omitempty"`
	Initializers []TensorSpec `json:"initializers,omitempty"`
	Nodes        []NodeSpec   `json:"nodes,omitempty"`
}

type ValueSpec struct {
	Name  string  `json:"name"`
	Type  string  `json:"type,omitempty"`
	Shape []int64 `json:"shape,omitempty"`
}

type TensorSpec struct {
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Dims    []int64   `json:"dims,omitempty"`
	Floats  []float32 `json:"floats,omitempty"`
	Doubles []float64 `json:"doubles,omitempty"`
	Ints    []int64   `json:"ints,omitempty"`
}

type NodeSpec struct {
	Name        string                    `json:"name"`
	Op          string                    `json:"op"`
	Domain      string                    `json:"domain,omitempty"`
	Version     int                       `json:"version,omitempty"`
	Description string                    `json:"description,omitempty"`
	Provider    string                    `json:"provider,omitempty"`
	Inputs      []string                  `json:"inputs,omitempty"`
	Outputs     []string                  `json:"outputs,omitempty"`
	Attributes  map[string]*AttributeSpec `json:"attributes,omitempty"`
}

// AttributeSpec describes an attribute. If Type is omitted, it is
// derived from the single field set.
type AttributeSpec struct {
	Type    string     `json:"type,omitempty"`
	F       *float32   `json:"f,omitempty"`
	I       *int64     `json:"i,omitempty"`
	S       *string    `json:"s,omitempty"`
	Floats  []float32  `json:"floats,omitempty"`
	Ints    []int64    `json:"ints,omitempty"`
	Strings []string   `json:"strings,omitempty"`
	Graph   *GraphSpec `json:"graph,omitempty"`
}

// Load reads a graph file. Environment variable references
// (${VAR}) are substituted before the graph is decoded.
func Load(fs vfs.FileSystem, path string) (*Graph, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	s, err := envsubst.EvalEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("substitution failed for %s: %w", path, err)
	}
	g, err := Decode([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("invalid graph file %s: %w", path, err)
	}
	log.Debug("loaded graph {{graph}} from {{path}}", "graph", g.Name(), "path", path, "nodes", g.NumNodes())
	return g, nil
}

// Save writes the serialized graph to a file.
func Save(fs vfs.FileSystem, path string, g *Graph) error {
	data, err := Encode(g)
	if err != nil {
		return err
	}
	return vfs.WriteFile(fs, path, data, 0o600)
}

// Decode parses a YAML graph document. Scalars are resolved following
// YAML 1.2, so names like Y or n are not taken as booleans.
func Decode(data []byte) (*Graph, error) {
	var spec GraphSpec
	err := utils.UnmarshalYAML(data, &spec)
	if err != nil {
		return nil, err
	}
	return FromSpec(&spec)
}

func Encode(g *Graph) ([]byte, error) {
	spec, err := ToSpec(g)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(spec)
}

// Fingerprint provides a content hash of the graph, which is
// independent of the formatting of its source.
func Fingerprint(g *Graph) (string, error) {
	spec, err := ToSpec(g)
	if err != nil {
		return "", err
	}
	return general.HashData(spec), nil
}

func FromSpec(spec *GraphSpec) (*Graph, error) {
	g := New(spec.Name)
	for _, v := range spec.Inputs {
		info, err := v.info()
		if err != nil {
			return nil, err
		}
		g.AddInput(v.Name, info)
	}
	for _, v := range spec.ValueInfo {
		info, err := v.info()
		if err != nil {
			return nil, err
		}
		if info != nil {
			g.SetValueInfo(v.Name, info)
		}
	}
	for _, t := range spec.Initializers {
		dt, err := ParseDataType(t.Type)
		if err != nil {
			return nil, fmt.Errorf("initializer %q: %w", t.Name, err)
		}
		g.AddInitializer(t.Name, &Tensor{DataType: dt, Dims: t.Dims, Floats: t.Floats, Doubles: t.Doubles, Ints: t.Ints})
	}
	for i := range spec.Nodes {
		n, err := spec.Nodes[i].node()
		if err != nil {
			return nil, err
		}
		_, err = g.AddNode(n)
		if err != nil {
			return nil, err
		}
	}
	for _, v := range spec.Outputs {
		info, err := v.info()
		if err != nil {
			return nil, err
		}
		g.AddOutput(v.Name, info)
	}
	return g, nil
}

func (v *ValueSpec) info() (*ValueInfo, error) {
	if v.Type == "" && len(v.Shape) == 0 {
		return nil, nil
	}
	t, err := ParseDataType(v.Type)
	if err != nil {
		return nil, fmt.Errorf("value %q: %w", v.Name, err)
	}
	return NewValueInfo(t, v.Shape...), nil
}

func (s *NodeSpec) node() (*Node, error) {
	attrs := Attributes{}
	for _, k := range maputils.OrderedKeys(s.Attributes) {
		a, err := s.Attributes[k].attribute()
		if err != nil {
			return nil, fmt.Errorf("node %q: attribute %q: %w", s.Name, k, err)
		}
		attrs[k] = a
	}
	n := NewNode(s.Name, s.Op, s.Description, s.Inputs, s.Outputs, nil, s.Domain)
	n.attributes = attrs
	return n.WithVersion(s.Version).WithProvider(s.Provider), nil
}

func (s *AttributeSpec) attribute() (*Attribute, error) {
	if s == nil {
		return nil, fmt.Errorf("no value")
	}
	kind := AttributeKind(s.Type)
	if kind == "" {
		var kinds []AttributeKind
		if s.F != nil {
			kinds = append(kinds, ATTR_FLOAT)
		}
		if s.I != nil {
			kinds = append(kinds, ATTR_INT)
		}
		if s.S != nil {
			kinds = append(kinds, ATTR_STRING)
		}
		if s.Floats != nil {
			kinds = append(kinds, ATTR_FLOATS)
		}
		if s.Ints != nil {
			kinds = append(kinds, ATTR_INTS)
		}
		if s.Strings != nil {
			kinds = append(kinds, ATTR_STRINGS)
		}
		if s.Graph != nil {
			kinds = append(kinds, ATTR_GRAPH)
		}
		if len(kinds) != 1 {
			return nil, fmt.Errorf("cannot determine attribute type (candidates %v)", kinds)
		}
		kind = kinds[0]
	}

	switch kind {
	case ATTR_FLOAT:
		if s.F == nil {
			return nil, fmt.Errorf("float value missing")
		}
		return FloatAttribute(*s.F), nil
	case ATTR_INT:
		if s.I == nil {
			return nil, fmt.Errorf("int value missing")
		}
		return IntAttribute(*s.I), nil
	case ATTR_STRING:
		if s.S == nil {
			return nil, fmt.Errorf("string value missing")
		}
		return StringAttribute(*s.S), nil
	case ATTR_FLOATS:
		return FloatsAttribute(s.Floats...), nil
	case ATTR_INTS:
		return IntsAttribute(s.Ints...), nil
	case ATTR_STRINGS:
		return StringsAttribute(s.Strings...), nil
	case ATTR_GRAPH:
		if s.Graph == nil {
			return nil, fmt.Errorf("graph value missing")
		}
		sub, err := FromSpec(s.Graph)
		if err != nil {
			return nil, err
		}
		return GraphAttribute(sub), nil
	default:
		return nil, fmt.Errorf("unknown attribute type %q", s.Type)
	}
}

// ToSpec converts a graph into its serialization format.
// Nodes are listed in topological order.
func ToSpec(g *Graph) (*GraphSpec, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	spec := &GraphSpec{Name: g.name}
	for _, name := range g.inputs {
		spec.Inputs = append(spec.Inputs, g.valueSpec(name))
	}
	for _, name := range g.outputs {
		spec.Outputs = append(spec.Outputs, g.valueSpec(name))
	}
	for _, name := range g.valueInfoNames() {
		if g.IsInput(name) || g.IsOutput(name) {
			continue
		}
		if _, ok := g.initializers[name]; ok {
			continue
		}
		spec.ValueInfo = append(spec.ValueInfo, g.valueSpec(name))
	}
	for _, name := range g.InitializerNames() {
		t := g.initializers[name]
		spec.Initializers = append(spec.Initializers, TensorSpec{
			Name:    name,
			Type:    t.DataType.String(),
			Dims:    t.Dims,
			Floats:  t.Floats,
			Doubles: t.Doubles,
			Ints:    t.Ints,
		})
	}
	for _, idx := range order {
		n := g.nodes[idx]
		ns := NodeSpec{
			Name:        n.name,
			Op:          n.opType,
			Domain:      n.domain,
			Version:     n.sinceVersion,
			Description: n.description,
			Provider:    n.provider,
			Inputs:      n.Inputs(),
			Outputs:     n.Outputs(),
		}
		if len(n.attributes) > 0 {
			ns.Attributes = map[string]*AttributeSpec{}
			for k, a := range n.attributes {
				as, err := attributeSpec(a)
				if err != nil {
					return nil, fmt.Errorf("node %q: attribute %q: %w", n.name, k, err)
				}
				ns.Attributes[k] = as
			}
		}
		spec.Nodes = append(spec.Nodes, ns)
	}
	return spec, nil
}

func (g *Graph) valueSpec(name string) ValueSpec {
	v := ValueSpec{Name: name}
	if i, ok := g.valueInfos[name]; ok {
		if i.ElemType != UNDEFINED {
			v.Type = i.ElemType.String()
		}
		v.Shape = i.Shape
	}
	return v
}

func attributeSpec(a *Attribute) (*AttributeSpec, error) {
	s := &AttributeSpec{Type: string(a.Kind)}
	switch a.Kind {
	case ATTR_FLOAT:
		s.F = generics.Pointer(a.F)
	case ATTR_INT:
		s.I = generics.Pointer(a.I)
	case ATTR_STRING:
		s.S = generics.Pointer(a.S)
	case ATTR_FLOATS:
		s.Floats = a.Floats
	case ATTR_INTS:
		s.Ints = a.Ints
	case ATTR_STRINGS:
		s.Strings = a.Strings
	case ATTR_GRAPH:
		if a.Graph == nil {
			return nil, fmt.Errorf("graph value missing")
		}
		sub, err := ToSpec(a.Graph)
		if err != nil {
			return nil, err
		}
		s.Graph = sub
	default:
		return nil, fmt.Errorf("unknown attribute type %q", a.Kind)
	}
	return s, nil
}
