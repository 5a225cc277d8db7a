package graph

import (
	"fmt"
	"slices"
)

type NodeIndex int

const InvalidNodeIndex NodeIndex = -1

// Node is an operator instance. A node belongs to at most one graph.
// Its connectivity (inputs and outputs) is fixed once it has been added.
type Node struct {
	index        NodeIndex
	name         string
	opType       string
	domain       string
	description  string
	sinceVersion int
	provider     string

	inputs         []string
	outputs        []string
	implicitInputs []string
	attributes     Attributes
}

// NewNode creates a detached node. The attribute set is copied.
func NewNode(name, opType, description string, inputs, outputs []string, attrs Attributes, domain string) *Node {
	return &Node{
		index:       InvalidNodeIndex,
		name:        name,
		opType:      opType,
		domain:      domain,
		description: description,
		inputs:      slices.Clone(inputs),
		outputs:     slices.Clone(outputs),
		attributes:  attrs.Copy(),
	}
}

// WithVersion sets the since-version of the operator.
func (n *Node) WithVersion(v int) *Node {
	n.sinceVersion = v
	return n
}

// WithProvider assigns the execution provider.
func (n *Node) WithProvider(p string) *Node {
	n.provider = p
	return n
}

// WithAttribute adds an attribute. It must not be used to add graph
// attributes after the node has been added to a graph.
func (n *Node) WithAttribute(name string, a *Attribute) *Node {
	n.AddAttribute(name, a)
	return n
}

func (n *Node) Index() NodeIndex       { return n.index }
func (n *Node) Name() string           { return n.name }
func (n *Node) OpType() string         { return n.opType }
func (n *Node) Domain() string         { return n.domain }
func (n *Node) Description() string    { return n.description }
func (n *Node) SinceVersion() int      { return n.sinceVersion }
func (n *Node) Provider() string       { return n.provider }
func (n *Node) Attributes() Attributes { return n.attributes }

func (n *Node) SetProvider(p string) {
	n.provider = p
}

func (n *Node) AddAttribute(name string, a *Attribute) {
	if n.attributes == nil {
		n.attributes = Attributes{}
	}
	n.attributes[name] = a
}

func (n *Node) Inputs() []string {
	return slices.Clone(n.inputs)
}

func (n *Node) Outputs() []string {
	return slices.Clone(n.outputs)
}

// ImplicitInputs returns the values of enclosing scopes consumed by
// subgraphs of this node.
func (n *Node) ImplicitInputs() []string {
	return slices.Clone(n.implicitInputs)
}

// Input returns the value name of the given input slot or "" if the
// slot is not provided.
func (n *Node) Input(i int) string {
	if i < 0 || i >= len(n.inputs) {
		return ""
	}
	return n.inputs[i]
}

// Subgraphs returns the nested graphs in attribute name order.
func (n *Node) Subgraphs() []*Graph {
	var r []*Graph
	for _, k := range n.attributes.Names() {
		a := n.attributes[k]
		if a.Kind == ATTR_GRAPH && a.Graph != nil {
			r = append(r, a.Graph)
		}
	}
	return r
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.name, n.opType)
}

// consumedValues lists all values read by the node, explicit first.
func (n *Node) consumedValues() []string {
	return append(slices.Clone(n.inputs), n.implicitInputs...)
}
