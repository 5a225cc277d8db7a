package convfusion

import (
	"math"

	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/graph/graphutils"
)

const (
	DEFAULT_HARD_SIGMOID_ALPHA = float32(0.2)
	DEFAULT_HARD_SIGMOID_BETA  = float32(0.5)
)

type paramFunc func(g *graph.Graph, n *graph.Node) ([]float32, bool, error)

type activation struct {
	versions []int
	params   paramFunc
}

var activations = map[string]activation{
	OP_RELU:         {versions: []int{6, 13, 14}},
	OP_SIGMOID:      {versions: []int{6, 13}},
	OP_TANH:         {versions: []int{6, 13}},
	OP_LEAKY_RELU:   {versions: []int{6}, params: leakyReluParams},
	OP_CLIP:         {versions: []int{6, 11, 12, 13}, params: clipParams},
	OP_HARD_SIGMOID: {versions: []int{6}, params: hardSigmoidParams},
}

func lookupActivation(n *graph.Node) (activation, bool) {
	a, ok := activations[n.OpType()]
	if !ok || !graphutils.IsSupportedOptypeVersionAndDomain(n, n.OpType(), a.versions) {
		return activation{}, false
	}
	return a, true
}

// ExtractParams determines the ordered parameter list of a fusable
// activation node:
//
//   - Relu, Sigmoid, Tanh: none
//   - LeakyRelu: alpha (required)
//   - Clip: min, max (constant bounds only)
//   - HardSigmoid: alpha, beta (defaults 0.2 and 0.5)
//
// The second result is false if the node is no supported activation or
// its parameters cannot be determined statically. An error is returned
// for missing or malformed required attributes.
func ExtractParams(g *graph.Graph, n *graph.Node) ([]float32, bool, error) {
	a, ok := lookupActivation(n)
	if !ok {
		return nil, false, nil
	}
	if a.params == nil {
		return []float32{}, true, nil
	}
	return a.params(g, n)
}

func leakyReluParams(_ *graph.Graph, n *graph.Node) ([]float32, bool, error) {
	alpha, ok, err := floatAttribute(n, "alpha", nil)
	if !ok || err != nil {
		return nil, false, err
	}
	return []float32{alpha}, true, nil
}

func hardSigmoidParams(_ *graph.Graph, n *graph.Node) ([]float32, bool, error) {
	def := DEFAULT_HARD_SIGMOID_ALPHA
	alpha, ok, err := floatAttribute(n, "alpha", &def)
	if !ok || err != nil {
		return nil, false, err
	}
	def = DEFAULT_HARD_SIGMOID_BETA
	beta, ok, err := floatAttribute(n, "beta", &def)
	if !ok || err != nil {
		return nil, false, err
	}
	return []float32{alpha, beta}, true, nil
}

// clipParams resolves the effective bounds. Up to version 6 they are
// attributes, later they are optional inputs, which must be constant
// initializers.
func clipParams(g *graph.Graph, n *graph.Node) ([]float32, bool, error) {
	lower := float32(-math.MaxFloat32)
	upper := float32(math.MaxFloat32)

	if n.SinceVersion() < 11 {
		v, ok, err := floatAttribute(n, "min", &lower)
		if !ok || err != nil {
			return nil, false, err
		}
		w, ok, err := floatAttribute(n, "max", &upper)
		if !ok || err != nil {
			return nil, false, err
		}
		return []float32{v, w}, true, nil
	}

	if !constantBound(g, n, 1, &lower) || !constantBound(g, n, 2, &upper) {
		return nil, false, nil
	}
	return []float32{lower, upper}, true, nil
}

// constantBound updates value from a constant input. An absent optional
// input keeps the default.
func constantBound(g *graph.Graph, n *graph.Node, slot int, value *float32) bool {
	name := n.Input(slot)
	if name == "" {
		return true
	}
	t, ok := graphutils.GetConstantInitializer(g, name, true)
	if !ok {
		return false
	}
	v, ok := t.FirstFloat()
	if !ok {
		return false
	}
	*value = v
	return true
}

// floatAttribute reads a float attribute. Without default the attribute
// is required, and a missing or non-float value is an error. An optional
// attribute of another type cannot be resolved.
func floatAttribute(n *graph.Node, name string, def *float32) (float32, bool, error) {
	a, ok := graphutils.GetNodeAttribute(n, name)
	if !ok {
		if def != nil {
			return *def, true, nil
		}
		return 0, false, &AttributeError{Kind: ErrMissingRequiredAttribute, Node: n.Name(), OpType: n.OpType(), Attribute: name}
	}
	if a.Kind != graph.ATTR_FLOAT {
		if def != nil {
			log.Trace("optional attribute {{attribute}} of {{node}} has type {{type}}", "attribute", name, "node", n.Name(), "type", a.Kind)
			return 0, false, nil
		}
		return 0, false, &AttributeError{Kind: ErrInvalidAttribute, Node: n.Name(), OpType: n.OpType(), Attribute: name, Msg: "expected float, found " + string(a.Kind)}
	}
	return a.F, true, nil
}
