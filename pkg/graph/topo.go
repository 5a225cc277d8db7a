package graph

// TopologicalOrder returns the indices of all live nodes such that every
// producer precedes its consumers. Ties are resolved by node index, so
// the order is deterministic for a given graph. The result is a
// snapshot: later modifications of the graph do not affect it.
func (g *Graph) TopologicalOrder() ([]NodeIndex, error) {
	indeg := make([]int, len(g.nodes))
	for i, n := range g.nodes {
		if n == nil {
			continue
		}
		indeg[i] = len(g.InputEdges(NodeIndex(i)))
	}

	var ready []NodeIndex
	for i, n := range g.nodes {
		if n != nil && indeg[i] == 0 {
			ready = append(ready, NodeIndex(i))
		}
	}

	order := make([]NodeIndex, 0, g.count)
	for len(ready) > 0 {
		idx := ready[0]
		ready = ready[1:]
		order = append(order, idx)
		for _, e := range g.OutputEdges(idx) {
			indeg[e.Dst]--
			if indeg[e.Dst] == 0 {
				ready = insertSorted(ready, e.Dst)
			}
		}
	}

	if len(order) != g.count {
		var names []string
		for i, n := range g.nodes {
			if n != nil && indeg[i] > 0 {
				names = append(names, n.name)
			}
		}
		return nil, cycleError(names)
	}
	return order, nil
}

func insertSorted(list []NodeIndex, idx NodeIndex) []NodeIndex {
	i := len(list)
	for i > 0 && list[i-1] > idx {
		i--
	}
	list = append(list, 0)
	copy(list[i+1:], list[i:])
	list[i] = idx
	return list
}
