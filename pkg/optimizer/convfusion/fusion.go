package convfusion

import (
	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/optimizer"
	"github.com/mandelsoft/fusion/pkg/providers"
)

const NAME = "ConvActivationFusion"

// Transformer fuses convolutions with their subsequent activation.
type Transformer struct {
	table *providers.Table
}

var _ optimizer.Transformer = (*Transformer)(nil)

// New creates the transformer. An optional capability table replaces
// the default one.
func New(table ...*providers.Table) *Transformer {
	t := &Transformer{}
	if len(table) > 0 {
		t.table = table[0]
	}
	return t
}

func (t *Transformer) Name() string {
	return NAME
}

// Apply runs one pass over the graph. Nodes are visited in a
// topological order taken before the first rewrite; nodes consumed by
// an earlier fusion are skipped. Nested graphs are processed before
// their owning node. On error, rewrites already done are kept.
func (t *Transformer) Apply(g *graph.Graph, allowed providers.Set) (bool, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return false, err
	}

	checker := providers.NewChecker(t.table, allowed)
	matcher := NewMatcher(g, checker)
	rewriter := NewRewriter(g)

	modified := false
	for _, idx := range order {
		n, ok := g.GetNode(idx)
		if !ok {
			continue
		}
		for _, s := range n.Subgraphs() {
			mod, err := t.Apply(s, allowed)
			modified = modified || mod
			if err != nil {
				return modified, err
			}
		}

		m, err := matcher.Match(n)
		if err != nil {
			log.LogError(err, "cannot match at {{node}}", "node", n.Name(), "graph", g.Name())
			return modified, err
		}
		if nm, ok := m.(NoMatch); ok {
			if n.OpType() == OP_CONV {
				log.Trace("no fusion at {{node}}: {{reason}}", "node", n.Name(), "reason", nm.Reason)
			}
			continue
		}
		if _, err := rewriter.Rewrite(m); err != nil {
			return modified, err
		}
		modified = true
	}
	return modified, nil
}

// Candidates evaluates the matcher for every anchor candidate without
// modifying the graph. Nested graphs are not included.
func (t *Transformer) Candidates(g *graph.Graph, allowed providers.Set) ([]MatchResult, []*graph.Node, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, nil, err
	}
	matcher := NewMatcher(g, providers.NewChecker(t.table, allowed))

	var (
		results []MatchResult
		anchors []*graph.Node
	)
	for _, idx := range order {
		n, _ := g.GetNode(idx)
		if n.OpType() != OP_CONV {
			continue
		}
		m, err := matcher.Match(n)
		if err != nil {
			return results, anchors, err
		}
		results = append(results, m)
		anchors = append(anchors, n)
	}
	return results, anchors, nil
}
