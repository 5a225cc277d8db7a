// Package convfusion fuses a convolution with a following activation
// into a single FusedConv node.
//
// For nodes on an accelerator provider with fast path capability
// (CUDA), Conv+Relu and Conv+Add+Relu chains are fused; the Add
// contributes its second operand as additional input (bias or
// residual). For all other providers Conv followed by one of
// Relu, Sigmoid, Tanh, LeakyRelu, Clip or HardSigmoid is fused, with
// the activation parameters stored positionally in the
// activation_params attribute.
//
// A single Apply walks the graph once in topological order. Nodes
// removed by an earlier fusion of the same run are skipped and newly
// created nodes are not visited. A second run over the result finds
// nothing to fuse.
package convfusion
