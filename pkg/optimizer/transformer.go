// Package optimizer runs graph transformers until the graph reaches a
// fixed point.
package optimizer

import (
	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/providers"
)

// Transformer is a single graph rewrite pass.
//
// Apply runs the pass once over the graph, touching only nodes placed
// on one of the allowed providers (all, if the set is empty). It
// reports whether the graph has been modified. On error, rewrites
// already committed remain in place.
type Transformer interface {
	Name() string
	Apply(g *graph.Graph, allowed providers.Set) (bool, error)
}
