// Package graphutils provides predicates and lookups on graph nodes
// shared by the optimizer passes.
package graphutils

import (
	"slices"

	"github.com/mandelsoft/fusion/pkg/graph"
	"k8s.io/apimachinery/pkg/util/sets"
)

const (
	ONNX_DOMAIN       = ""
	ONNX_DOMAIN_ALIAS = "ai.onnx"
	MS_DOMAIN         = "com.microsoft"
)

// IsONNXDomain reports whether the domain denotes the default operator
// set.
func IsONNXDomain(domain string) bool {
	return domain == ONNX_DOMAIN || domain == ONNX_DOMAIN_ALIAS
}

// MatchesDomain compares operator domains, treating both spellings of
// the default domain as equal.
func MatchesDomain(a, b string) bool {
	if IsONNXDomain(a) {
		return IsONNXDomain(b)
	}
	return a == b
}

// IsSupportedOptypeVersionAndDomain checks the op type, the domain
// (default: ONNX) and whether the node's since-version is one of the
// given versions.
func IsSupportedOptypeVersionAndDomain(n *graph.Node, opType string, versions []int, domain ...string) bool {
	d := ONNX_DOMAIN
	if len(domain) > 0 {
		d = domain[0]
	}
	return n.OpType() == opType &&
		MatchesDomain(n.Domain(), d) &&
		slices.Contains(versions, n.SinceVersion())
}

// IsSupportedProvider checks whether the node's provider is in the
// given set. An empty set accepts every provider, unassigned nodes
// included.
func IsSupportedProvider(n *graph.Node, providers sets.Set[string]) bool {
	return providers.Len() == 0 || providers.Has(n.Provider())
}

// GetNodeAttribute looks up an attribute of a node.
func GetNodeAttribute(n *graph.Node, name string) (*graph.Attribute, bool) {
	return n.Attributes().Get(name)
}

// GetConstantInitializer returns the initializer for a value if it is
// constant. Initializers which are also graph inputs can be overridden
// at runtime and are not constant. If checkOuterScope is set, enclosing
// graphs are searched as long as the value is not defined locally.
func GetConstantInitializer(g *graph.Graph, name string, checkOuterScope bool) (*graph.Tensor, bool) {
	for s := g; s != nil; s = s.Parent() {
		if t, ok := s.Initializer(name); ok {
			if s.IsInput(name) {
				return nil, false
			}
			return t, true
		}
		if !checkOuterScope || s.IsInput(name) {
			return nil, false
		}
		if _, ok := s.Producer(name); ok {
			return nil, false
		}
	}
	return nil, false
}

// IsConstantInitializer reports whether a value is a constant
// initializer.
func IsConstantInitializer(g *graph.Graph, name string, checkOuterScope bool) bool {
	_, ok := GetConstantInitializer(g, name, checkOuterScope)
	return ok
}

// InputElemType returns the element type of an input of a node, if
// known.
func InputElemType(g *graph.Graph, n *graph.Node, slot int) (graph.DataType, bool) {
	v := n.Input(slot)
	if v == "" {
		return graph.UNDEFINED, false
	}
	info, ok := g.ValueInfo(v)
	if !ok || info.ElemType == graph.UNDEFINED {
		return graph.UNDEFINED, false
	}
	return info.ElemType, true
}
