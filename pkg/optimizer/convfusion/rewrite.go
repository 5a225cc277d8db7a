package convfusion

import (
	"fmt"
	"strings"

	"github.com/mandelsoft/goutils/sliceutils"

	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/graph/graphutils"
)

// Rewriter replaces matched node groups by a single FusedConv node.
type Rewriter struct {
	graph *graph.Graph
}

func NewRewriter(g *graph.Graph) *Rewriter {
	return &Rewriter{graph: g}
}

// Rewrite commits a match. The fused node takes over the anchor's
// inputs and attributes and the outputs of the last matched node.
//
// Fast path nodes are named after the matched nodes joined by
// underscores (conv_relu, conv_add_relu), and the name is used as
// description, too. Generic fusions are named "fused <conv>" and
// described as "fused Conv <conv> with activation <op>". Names are made
// unique by the graph.
func (r *Rewriter) Rewrite(m MatchResult) (*graph.Node, error) {
	g := r.graph

	var (
		anchor     *graph.Node
		matched    []*graph.Node
		inputs     []string
		name, desc string
		act        string
		params     []float32
	)

	switch t := m.(type) {
	case TwoNodeFusion:
		anchor = t.Anchor
		matched = []*graph.Node{t.Anchor, t.Activation}
		inputs = anchor.Inputs()
		name = g.GenerateNodeName(anchor.Name() + "_" + t.Activation.Name())
		desc = name
		act = t.Activation.OpType()
	case ThreeNodeFusion:
		anchor = t.Anchor
		matched = []*graph.Node{t.Anchor, t.Add, t.Activation}
		inputs = append(anchor.Inputs(), t.ExtraInput)
		name = g.GenerateNodeName(anchor.Name() + "_" + t.Add.Name() + "_" + t.Activation.Name())
		desc = name
		act = t.Activation.OpType()
	case GenericActivationFusion:
		anchor = t.Anchor
		matched = []*graph.Node{t.Anchor, t.Activation}
		inputs = anchor.Inputs()
		name = g.GenerateNodeName("fused " + anchor.Name())
		desc = fmt.Sprintf("fused Conv %s with activation %s", anchor.Name(), t.Activation.OpType())
		act = t.Activation.OpType()
		params = t.Params
	case NoMatch:
		return nil, fmt.Errorf("nothing to rewrite: %s", t.Reason)
	default:
		return nil, fmt.Errorf("unexpected match result %T", m)
	}

	attrs := anchor.Attributes().Copy()
	attrs[ATTR_ACTIVATION] = graph.StringAttribute(act)
	if len(params) > 0 {
		attrs[ATTR_ACTIVATION_PARAMS] = graph.FloatsAttribute(params...)
	}
	fused := graph.NewNode(name, OP_FUSED_CONV, desc, inputs, nil, attrs, graphutils.MS_DOMAIN).
		WithVersion(1).
		WithProvider(anchor.Provider())

	indices := make([]graph.NodeIndex, len(matched))
	for i, n := range matched {
		indices[i] = n.Index()
	}
	if _, err := g.FuseNodes(indices, fused); err != nil {
		return nil, err
	}
	log.Debug("fused {{nodes}} into {{fused}}", "nodes", strings.Join(sliceutils.Transform(matched, (*graph.Node).Name), ","), "fused", fused.Name(), "activation", act)
	return fused, nil
}
