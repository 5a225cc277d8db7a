package graph

import (
	"slices"

	"github.com/mandelsoft/goutils/general"
	"github.com/mandelsoft/goutils/maputils"
	"github.com/mandelsoft/goutils/sliceutils"
)

// Edge connects an output slot of a producer with an input slot of a
// consumer. Implicit inputs use the slots following the explicit ones.
type Edge struct {
	Value   string
	Src     NodeIndex
	SrcSlot int
	Dst     NodeIndex
	DstSlot int
}

type edgeEnd struct {
	node NodeIndex
	slot int
}

// Graph is a mutable computation graph. It is not safe for concurrent
// modification.
type Graph struct {
	name   string
	parent *Graph

	nodes []*Node
	count int

	inputs       []string
	outputs      []string
	initializers map[string]*Tensor
	valueInfos   map[string]*ValueInfo

	producers map[string]NodeIndex
	consumers map[string][]edgeEnd

	names   map[string]struct{}
	counter int
}

func New(name string) *Graph {
	return &Graph{
		name:         name,
		initializers: map[string]*Tensor{},
		valueInfos:   map[string]*ValueInfo{},
		producers:    map[string]NodeIndex{},
		consumers:    map[string][]edgeEnd{},
		names:        map[string]struct{}{},
	}
}

func (g *Graph) Name() string {
	return g.name
}

// Parent returns the enclosing graph of a subgraph or nil.
func (g *Graph) Parent() *Graph {
	return g.parent
}

// AddInput declares a graph input. A nil info keeps an already known
// type.
func (g *Graph) AddInput(name string, info *ValueInfo) {
	g.inputs = sliceutils.AppendUnique(g.inputs, name)
	if info != nil {
		g.valueInfos[name] = info
	}
}

// AddOutput declares a graph output.
func (g *Graph) AddOutput(name string, info ...*ValueInfo) {
	g.outputs = sliceutils.AppendUnique(g.outputs, name)
	if i := general.Optional(info...); i != nil {
		g.valueInfos[name] = i
	}
}

// AddInitializer adds a constant tensor. Its type is recorded as value
// info if none is known, yet.
func (g *Graph) AddInitializer(name string, t *Tensor) {
	g.initializers[name] = t
	if _, ok := g.valueInfos[name]; !ok {
		g.valueInfos[name] = NewValueInfo(t.DataType, t.Dims...)
	}
}

func (g *Graph) SetValueInfo(name string, info *ValueInfo) {
	g.valueInfos[name] = info
}

func (g *Graph) Inputs() []string {
	return slices.Clone(g.inputs)
}

func (g *Graph) Outputs() []string {
	return slices.Clone(g.outputs)
}

func (g *Graph) IsInput(name string) bool {
	return slices.Contains(g.inputs, name)
}

func (g *Graph) IsOutput(name string) bool {
	return slices.Contains(g.outputs, name)
}

// Initializer returns a constant tensor of this graph (no outer scopes).
func (g *Graph) Initializer(name string) (*Tensor, bool) {
	t, ok := g.initializers[name]
	return t, ok
}

func (g *Graph) InitializerNames() []string {
	return maputils.OrderedKeys(g.initializers)
}

// ValueInfo returns the type of a value, searching enclosing scopes.
func (g *Graph) ValueInfo(name string) (*ValueInfo, bool) {
	for s := g; s != nil; s = s.parent {
		if i, ok := s.valueInfos[name]; ok {
			return i, true
		}
	}
	return nil, false
}

func (g *Graph) valueInfoNames() []string {
	return maputils.OrderedKeys(g.valueInfos)
}

// defines reports whether the value is provided inside this graph.
func (g *Graph) defines(name string) bool {
	if _, ok := g.producers[name]; ok {
		return true
	}
	if _, ok := g.initializers[name]; ok {
		return true
	}
	return g.IsInput(name)
}

// NumNodes returns the number of live nodes.
func (g *Graph) NumNodes() int {
	return g.count
}

// GetNode resolves a node index. Removed nodes are reported as absent.
func (g *Graph) GetNode(idx NodeIndex) (*Node, bool) {
	if idx < 0 || int(idx) >= len(g.nodes) {
		return nil, false
	}
	n := g.nodes[idx]
	return n, n != nil
}

// Nodes returns the live nodes in index order.
func (g *Graph) Nodes() []*Node {
	r := make([]*Node, 0, g.count)
	for _, n := range g.nodes {
		if n != nil {
			r = append(r, n)
		}
	}
	return r
}

// NodeByName looks up a live node by name.
func (g *Graph) NodeByName(name string) (*Node, bool) {
	for _, n := range g.nodes {
		if n != nil && n.name == name {
			return n, true
		}
	}
	return nil, false
}

// Producer returns the node producing the given value in this graph.
func (g *Graph) Producer(value string) (*Node, bool) {
	idx, ok := g.producers[value]
	if !ok {
		return nil, false
	}
	return g.GetNode(idx)
}

// OutputEdges lists the edges leaving the node, ordered by output slot
// and consumer registration.
func (g *Graph) OutputEdges(idx NodeIndex) []Edge {
	n, ok := g.GetNode(idx)
	if !ok {
		return nil
	}
	var r []Edge
	for i, o := range n.outputs {
		if o == "" {
			continue
		}
		for _, c := range g.consumers[o] {
			r = append(r, Edge{Value: o, Src: idx, SrcSlot: i, Dst: c.node, DstSlot: c.slot})
		}
	}
	return r
}

// OutputEdgeCount returns the number of consumer edges of the node.
func (g *Graph) OutputEdgeCount(idx NodeIndex) int {
	n, ok := g.GetNode(idx)
	if !ok {
		return 0
	}
	cnt := 0
	for _, o := range n.outputs {
		if o != "" {
			cnt += len(g.consumers[o])
		}
	}
	return cnt
}

// InputEdges lists the edges entering the node from producers of this
// graph, ordered by input slot.
func (g *Graph) InputEdges(idx NodeIndex) []Edge {
	n, ok := g.GetNode(idx)
	if !ok {
		return nil
	}
	var r []Edge
	for slot, v := range n.consumedValues() {
		if v == "" {
			continue
		}
		p, ok := g.producers[v]
		if !ok {
			continue
		}
		r = append(r, Edge{Value: v, Src: p, SrcSlot: slices.Index(g.nodes[p].outputs, v), Dst: idx, DstSlot: slot})
	}
	return r
}

// Consumers returns the destination node of every output edge.
// A node consuming a value twice is listed twice.
func (g *Graph) Consumers(idx NodeIndex) []*Node {
	var r []*Node
	for _, e := range g.OutputEdges(idx) {
		r = append(r, g.nodes[e.Dst])
	}
	return r
}

// NodeProducesGraphOutput reports whether any output of the node is a
// graph output.
func (g *Graph) NodeProducesGraphOutput(n *Node) bool {
	for _, o := range n.outputs {
		if o != "" && g.IsOutput(o) {
			return true
		}
	}
	return false
}

// AddNode adds a detached node to the graph. Nested graphs are bound to
// this graph and the node's implicit inputs are determined from them.
func (g *Graph) AddNode(n *Node) (NodeIndex, error) {
	if n == nil {
		return InvalidNodeIndex, invalidf("nil node")
	}
	if n.index != InvalidNodeIndex {
		return InvalidNodeIndex, invalidf("node %q is already part of a graph", n.name)
	}
	if n.name != "" {
		if _, ok := g.names[n.name]; ok {
			return InvalidNodeIndex, invalidf("duplicate node name %q", n.name)
		}
	}
	for i, o := range n.outputs {
		if o == "" {
			continue
		}
		if g.defines(o) || slices.Contains(n.outputs[:i], o) {
			return InvalidNodeIndex, invalidf("value %q of node %q is already defined", o, n.name)
		}
	}
	for _, s := range n.Subgraphs() {
		if s.parent != nil && s.parent != g {
			return InvalidNodeIndex, invalidf("subgraph %q of node %q belongs to another graph", s.name, n.name)
		}
	}
	for _, s := range n.Subgraphs() {
		s.parent = g
		n.implicitInputs = sliceutils.AppendUnique(n.implicitInputs, s.outerReferences()...)
	}
	return g.insert(n), nil
}

// RemoveNode deletes a node. Values produced by it lose their producer;
// consumers keep referring to the value names.
func (g *Graph) RemoveNode(idx NodeIndex) error {
	if _, ok := g.GetNode(idx); !ok {
		return notFound(idx)
	}
	g.remove(idx)
	return nil
}

func (g *Graph) insert(n *Node) NodeIndex {
	idx := NodeIndex(len(g.nodes))
	n.index = idx
	g.nodes = append(g.nodes, n)
	g.count++
	if n.name != "" {
		g.names[n.name] = struct{}{}
	}
	for _, o := range n.outputs {
		if o != "" {
			g.producers[o] = idx
		}
	}
	for slot, v := range n.consumedValues() {
		if v != "" {
			g.consumers[v] = append(g.consumers[v], edgeEnd{node: idx, slot: slot})
		}
	}
	return idx
}

func (g *Graph) remove(idx NodeIndex) {
	n := g.nodes[idx]
	for _, v := range n.consumedValues() {
		if v == "" {
			continue
		}
		list := slices.DeleteFunc(g.consumers[v], func(e edgeEnd) bool { return e.node == idx })
		if len(list) == 0 {
			delete(g.consumers, v)
		} else {
			g.consumers[v] = list
		}
	}
	for _, o := range n.outputs {
		if p, ok := g.producers[o]; ok && p == idx {
			delete(g.producers, o)
		}
	}
	g.nodes[idx] = nil
	g.count--
	n.index = InvalidNodeIndex
}

// outerReferences lists the values used inside the graph (and its
// nested graphs) which are not defined by it.
func (g *Graph) outerReferences() []string {
	var refs []string
	for _, n := range g.nodes {
		if n == nil {
			continue
		}
		for _, v := range n.consumedValues() {
			if v != "" && !g.defines(v) {
				refs = sliceutils.AppendUnique(refs, v)
			}
		}
	}
	for _, o := range g.outputs {
		if !g.defines(o) {
			refs = sliceutils.AppendUnique(refs, o)
		}
	}
	return refs
}
