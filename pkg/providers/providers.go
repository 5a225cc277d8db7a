// Package providers describes the execution providers known to the
// optimizer and what a fusion may produce for each of them.
package providers

import (
	"github.com/mandelsoft/fusion/pkg/graph"
	"k8s.io/apimachinery/pkg/util/sets"
)

const (
	CPU   = "CPUExecutionProvider"
	CUDA  = "CUDAExecutionProvider"
	ROCM  = "ROCMExecutionProvider"
	ACL   = "ACLExecutionProvider"
	ARMNN = "ArmNNExecutionProvider"
	JS    = "JsExecutionProvider"

	// UNASSIGNED is the provider of nodes not yet placed.
	UNASSIGNED = ""
)

// Set is a set of provider names. The empty set admits every
// provider.
type Set = sets.Set[string]

func NewSet(names ...string) Set {
	return sets.New[string](names...)
}

// Capability describes the fusion capabilities of a provider.
type Capability struct {
	// FastPath selects the accelerator grammar: only Relu and
	// Add+Relu, for anchors with FastPathElemType input.
	FastPath         bool
	FastPathElemType graph.DataType
	// Activations lists the activation ops the generic grammar may fuse.
	Activations sets.Set[string]
}

// AllowsActivation reports whether the activation op may be fused.
func (c *Capability) AllowsActivation(op string) bool {
	return c.Activations.Has(op)
}

// Table maps provider names to capabilities. Providers without entry
// use the fallback.
type Table struct {
	entries  map[string]*Capability
	fallback *Capability
}

func NewTable(fallback *Capability) *Table {
	return &Table{
		entries:  map[string]*Capability{},
		fallback: fallback,
	}
}

// DefaultTable provides the standard capabilities: CUDA uses the
// accelerator grammar, CPU and unassigned nodes support all generic
// activations, all others everything except HardSigmoid.
func DefaultTable() *Table {
	t := NewTable(&Capability{
		Activations: sets.New[string]("Relu", "Sigmoid", "Tanh", "LeakyRelu", "Clip"),
	})
	cpu := &Capability{
		Activations: sets.New[string]("Relu", "Sigmoid", "Tanh", "LeakyRelu", "Clip", "HardSigmoid"),
	}
	t.Set(CPU, cpu)
	t.Set(UNASSIGNED, cpu)
	t.Set(CUDA, &Capability{
		FastPath:         true,
		FastPathElemType: graph.FLOAT,
		Activations:      sets.New[string]("Relu"),
	})
	return t
}

func (t *Table) Set(provider string, c *Capability) {
	t.entries[provider] = c
}

func (t *Table) Lookup(provider string) *Capability {
	if c, ok := t.entries[provider]; ok {
		return c
	}
	return t.fallback
}

// Providers returns the providers with explicit entries.
func (t *Table) Providers() []string {
	return sets.List(sets.KeySet(t.entries))
}
