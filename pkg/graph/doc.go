// Package graph provides the computation graph the optimizer passes
// work on.
//
// Nodes are kept in an index-stable arena: a NodeIndex handed out by
// AddNode stays a valid key for the lifetime of the graph. After a node
// has been removed, lookups by its index report the node as absent
// instead of failing, so a traversal over a snapshot of indices can
// continue while the graph is rewritten underneath it.
//
// Nodes are connected by named values. A value is produced by at most
// one node (or is a graph input or initializer) and may be consumed by
// any number of node input slots. Edges are derived from these names.
// Nodes may own nested graphs via graph attributes; values of the
// enclosing graph referenced from such a subgraph are recorded as
// implicit inputs of the owning node.
package graph
