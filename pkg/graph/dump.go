package graph

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human readable listing of the graph in topological
// order. Subgraphs are indented below their owning node.
func (g *Graph) Dump(w io.Writer) error {
	return g.dump(w, "")
}

func (g *Graph) dump(w io.Writer, gap string) error {
	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%sgraph %s (%s) -> (%s)\n", gap, g.name, strings.Join(g.inputs, ", "), strings.Join(g.outputs, ", "))
	for _, idx := range order {
		n := g.nodes[idx]
		op := n.opType
		if n.domain != "" {
			op = n.domain + "." + op
		}
		if n.sinceVersion > 0 {
			op = fmt.Sprintf("%s-%d", op, n.sinceVersion)
		}
		fmt.Fprintf(w, "%s  %s: %s(%s) -> (%s)", gap, n.name, op, strings.Join(n.inputs, ", "), strings.Join(n.outputs, ", "))
		if n.provider != "" {
			fmt.Fprintf(w, " [%s]", n.provider)
		}
		for _, k := range n.attributes.Names() {
			a := n.attributes[k]
			if a.Kind != ATTR_GRAPH {
				fmt.Fprintf(w, " %s=%s", k, a)
			}
		}
		fmt.Fprintln(w)
		for _, k := range n.attributes.Names() {
			a := n.attributes[k]
			if a.Kind == ATTR_GRAPH && a.Graph != nil {
				fmt.Fprintf(w, "%s    %s:\n", gap, k)
				err = a.Graph.dump(w, gap+"      ")
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}
