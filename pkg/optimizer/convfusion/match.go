package convfusion

import (
	"fmt"

	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/graph/graphutils"
	"github.com/mandelsoft/fusion/pkg/providers"
)

const (
	OP_CONV         = "Conv"
	OP_ADD          = "Add"
	OP_RELU         = "Relu"
	OP_SIGMOID      = "Sigmoid"
	OP_TANH         = "Tanh"
	OP_LEAKY_RELU   = "LeakyRelu"
	OP_CLIP         = "Clip"
	OP_HARD_SIGMOID = "HardSigmoid"

	OP_FUSED_CONV = "FusedConv"

	ATTR_ACTIVATION        = "activation"
	ATTR_ACTIVATION_PARAMS = "activation_params"
)

var (
	convVersions = []int{1, 11}
	addVersions  = []int{6, 7, 13, 14}
	reluVersions = []int{6, 13, 14}
)

// MatchResult is the outcome of matching at an anchor node. It is one
// of NoMatch, TwoNodeFusion, ThreeNodeFusion or
// GenericActivationFusion.
type MatchResult interface {
	Kind() string
	matchResult()
}

// NoMatch states that no fusion applies at the anchor.
type NoMatch struct {
	Reason string
}

// TwoNodeFusion is Conv+Relu on the accelerator path.
type TwoNodeFusion struct {
	Anchor     *graph.Node
	Activation *graph.Node
}

// ThreeNodeFusion is Conv+Add+Relu on the accelerator path. ExtraInput
// is the Add operand not produced by the anchor.
type ThreeNodeFusion struct {
	Anchor     *graph.Node
	Add        *graph.Node
	Activation *graph.Node
	ExtraInput string
}

// GenericActivationFusion is Conv followed by an activation with its
// positional parameters.
type GenericActivationFusion struct {
	Anchor     *graph.Node
	Activation *graph.Node
	Params     []float32
}

func (NoMatch) Kind() string                 { return "NoMatch" }
func (TwoNodeFusion) Kind() string           { return "TwoNodeFusion" }
func (ThreeNodeFusion) Kind() string         { return "ThreeNodeFusion" }
func (GenericActivationFusion) Kind() string { return "GenericActivationFusion" }

func (NoMatch) matchResult()                 {}
func (TwoNodeFusion) matchResult()           {}
func (ThreeNodeFusion) matchResult()         {}
func (GenericActivationFusion) matchResult() {}

func noMatch(msg string, args ...any) NoMatch {
	return NoMatch{Reason: fmt.Sprintf(msg, args...)}
}

// Matcher evaluates the fusion grammar at anchor candidates of a graph.
type Matcher struct {
	graph   *graph.Graph
	checker *providers.Checker
}

func NewMatcher(g *graph.Graph, checker *providers.Checker) *Matcher {
	return &Matcher{graph: g, checker: checker}
}

// Match checks whether a fusion can be rooted at the given node.
// The graph is not modified. An error is returned only for malformed
// activation nodes.
func (m *Matcher) Match(anchor *graph.Node) (MatchResult, error) {
	g := m.graph
	if !graphutils.IsSupportedOptypeVersionAndDomain(anchor, OP_CONV, convVersions) {
		return noMatch("%s-%d is no supported anchor", anchor.OpType(), anchor.SinceVersion()), nil
	}
	if !m.checker.IsAllowed(anchor) {
		return noMatch("provider %q not enabled", anchor.Provider()), nil
	}
	if cnt := g.OutputEdgeCount(anchor.Index()); cnt != 1 {
		return noMatch("anchor has %d consumer edges", cnt), nil
	}
	next := g.Consumers(anchor.Index())[0]
	if !m.checker.Compatible(anchor, next) {
		return noMatch("consumer %q uses provider %q", next.Name(), next.Provider()), nil
	}
	if g.NodeProducesGraphOutput(anchor) {
		return noMatch("anchor produces graph output"), nil
	}

	if m.checker.IsFastPath(anchor) {
		return m.matchFastPath(anchor, next), nil
	}
	return m.matchGeneric(anchor, next)
}

func (m *Matcher) matchFastPath(anchor, next *graph.Node) MatchResult {
	g := m.graph
	expected := m.checker.Capability(anchor).FastPathElemType
	if t, ok := graphutils.InputElemType(g, anchor, 0); !ok || t != expected {
		return noMatch("anchor input type is not %s", expected)
	}

	if graphutils.IsSupportedOptypeVersionAndDomain(next, OP_RELU, reluVersions) {
		return TwoNodeFusion{Anchor: anchor, Activation: next}
	}
	if !graphutils.IsSupportedOptypeVersionAndDomain(next, OP_ADD, addVersions) {
		return noMatch("consumer %s-%d cannot be fused on the fast path", next.OpType(), next.SinceVersion())
	}

	add := next
	if cnt := g.OutputEdgeCount(add.Index()); cnt != 1 {
		return noMatch("add node has %d consumer edges", cnt)
	}
	if g.NodeProducesGraphOutput(add) {
		return noMatch("add node produces graph output")
	}
	last := g.Consumers(add.Index())[0]
	if !m.checker.Compatible(anchor, last) {
		return noMatch("consumer %q of add uses provider %q", last.Name(), last.Provider())
	}
	if !graphutils.IsSupportedOptypeVersionAndDomain(last, OP_RELU, reluVersions) {
		return noMatch("consumer %s-%d of add is no supported Relu", last.OpType(), last.SinceVersion())
	}

	outputs := anchor.Outputs()
	if len(outputs) == 0 {
		return noMatch("anchor has no output")
	}
	dependent, independent := 0, 0
	extra := ""
	for _, in := range add.Inputs() {
		if in == outputs[0] {
			dependent++
		} else {
			independent++
			extra = in
		}
	}
	if dependent != 1 || independent != 1 {
		return noMatch("add has %d dependent and %d independent inputs", dependent, independent)
	}
	if extra == "" {
		return noMatch("add operand missing")
	}
	return ThreeNodeFusion{Anchor: anchor, Add: add, Activation: last, ExtraInput: extra}
}

func (m *Matcher) matchGeneric(anchor, next *graph.Node) (MatchResult, error) {
	if _, ok := lookupActivation(next); !ok {
		return noMatch("consumer %s-%d is no supported activation", next.OpType(), next.SinceVersion()), nil
	}
	if !m.checker.AllowsActivation(anchor, next.OpType()) {
		return noMatch("activation %s not supported for provider %q", next.OpType(), anchor.Provider()), nil
	}
	params, ok, err := ExtractParams(m.graph, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return noMatch("parameters of %s node %q cannot be resolved statically", next.OpType(), next.Name()), nil
	}
	return GenericActivationFusion{Anchor: anchor, Activation: next, Params: params}, nil
}
