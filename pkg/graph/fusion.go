package graph

import (
	"fmt"
	"slices"
)

// GenerateNodeName provides a node name not used in this graph, yet.
// The base name is used as it is, if possible. Generated names are
// reserved, even if no node is ever added with it.
func (g *Graph) GenerateNodeName(base string) string {
	name := base
	for {
		if _, ok := g.names[name]; !ok {
			break
		}
		name = fmt.Sprintf("%s_token_%d", base, g.counter)
		g.counter++
	}
	g.names[name] = struct{}{}
	return name
}

// FuseNodes replaces the matched nodes by the given detached
// replacement node. The outputs of the last matched node are moved to
// the replacement, so all its consumer edges keep their slots, but now
// originate from the replacement. All matched nodes are removed.
//
// All checks are done before the graph is touched: either the complete
// rewrite is done or the graph is left unchanged.
func (g *Graph) FuseNodes(matched []NodeIndex, replacement *Node) (NodeIndex, error) {
	if len(matched) == 0 {
		return InvalidNodeIndex, invalidf("no nodes to fuse")
	}
	if replacement == nil || replacement.index != InvalidNodeIndex {
		return InvalidNodeIndex, invalidf("replacement node must be a detached node")
	}
	if len(replacement.outputs) != 0 {
		return InvalidNodeIndex, invalidf("replacement node %q must not declare outputs", replacement.name)
	}
	if len(replacement.Subgraphs()) != 0 {
		return InvalidNodeIndex, invalidf("replacement node %q must not own subgraphs", replacement.name)
	}
	for i, idx := range matched {
		if _, ok := g.GetNode(idx); !ok {
			return InvalidNodeIndex, notFound(idx)
		}
		if slices.Contains(matched[:i], idx) {
			return InvalidNodeIndex, invalidf("node index %d matched twice", idx)
		}
	}
	if replacement.name != "" {
		if n, ok := g.NodeByName(replacement.name); ok && !slices.Contains(matched, n.index) {
			return InvalidNodeIndex, invalidf("duplicate node name %q", replacement.name)
		}
	}

	terminal := g.nodes[matched[len(matched)-1]]
	outputs := slices.Clone(terminal.outputs)
	for _, idx := range matched {
		g.remove(idx)
	}
	replacement.outputs = outputs
	idx := g.insert(replacement)
	log.Trace("fused {{count}} nodes into {{node}}", "count", len(matched), "node", replacement.name, "graph", g.name)
	return idx, nil
}
