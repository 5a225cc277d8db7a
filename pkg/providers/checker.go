package providers

import (
	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/graph/graphutils"
)

// Checker decides whether adjacent nodes may be fused with respect to
// their execution providers.
type Checker struct {
	table   *Table
	allowed Set
}

func NewChecker(table *Table, allowed Set) *Checker {
	if table == nil {
		table = DefaultTable()
	}
	return &Checker{table: table, allowed: allowed}
}

// IsAllowed reports whether the node is placed on a provider the
// current pass may touch.
func (c *Checker) IsAllowed(n *graph.Node) bool {
	return graphutils.IsSupportedProvider(n, c.allowed)
}

// Compatible reports whether two nodes may end up in the same fused
// node: they must be assigned to the same provider.
func (c *Checker) Compatible(a, b *graph.Node) bool {
	return a.Provider() == b.Provider()
}

// Capability returns the capability of the node's provider, or nil
// if the provider is unknown and the table has no fallback.
func (c *Checker) Capability(n *graph.Node) *Capability {
	return c.table.Lookup(n.Provider())
}

// IsFastPath reports whether the accelerator grammar applies to the
// anchor.
func (c *Checker) IsFastPath(anchor *graph.Node) bool {
	capa := c.Capability(anchor)
	return capa != nil && capa.FastPath
}

// AllowsActivation reports whether the activation op may be fused into
// an anchor placed on the anchor's provider.
func (c *Checker) AllowsActivation(anchor *graph.Node, op string) bool {
	capa := c.Capability(anchor)
	return capa != nil && capa.AllowsActivation(op)
}
