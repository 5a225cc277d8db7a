package graph_test

import (
	"bytes"
	"errors"

	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	me "github.com/mandelsoft/fusion/pkg/graph"
)

func node(name, op string, inputs []string, outputs ...string) *me.Node {
	return me.NewNode(name, op, "", inputs, outputs, nil, "").WithVersion(11)
}

func names(nodes []*me.Node) []string {
	var r []string
	for _, n := range nodes {
		r = append(r, n.Name())
	}
	return r
}

var _ = Describe("graph", func() {
	var g *me.Graph

	BeforeEach(func() {
		g = me.New("test")
		g.AddInput("X", me.NewValueInfo(me.FLOAT, 1, 3, 8, 8))
		g.AddInitializer("W", me.NewFloatTensor([]int64{1}, 1))
	})

	Context("connectivity", func() {
		It("tracks producers and consumers", func() {
			a := Must(g.AddNode(node("a", "Conv", []string{"X", "W"}, "a")))
			b := Must(g.AddNode(node("b", "Relu", []string{"a"}, "b")))
			c := Must(g.AddNode(node("c", "Add", []string{"a", "b"}, "c")))
			g.AddOutput("c")

			Expect(g.NumNodes()).To(Equal(3))
			Expect(g.OutputEdgeCount(a)).To(Equal(2))
			Expect(g.OutputEdges(a)).To(Equal([]me.Edge{
				{Value: "a", Src: a, SrcSlot: 0, Dst: b, DstSlot: 0},
				{Value: "a", Src: a, SrcSlot: 0, Dst: c, DstSlot: 0},
			}))
			Expect(g.InputEdges(c)).To(Equal([]me.Edge{
				{Value: "a", Src: a, SrcSlot: 0, Dst: c, DstSlot: 0},
				{Value: "b", Src: b, SrcSlot: 0, Dst: c, DstSlot: 1},
			}))
			Expect(names(g.Consumers(b))).To(Equal([]string{"c"}))

			n, ok := g.Producer("c")
			Expect(ok).To(BeTrue())
			Expect(n.Name()).To(Equal("c"))
			Expect(g.NodeProducesGraphOutput(n)).To(BeTrue())
			n, _ = g.GetNode(a)
			Expect(g.NodeProducesGraphOutput(n)).To(BeFalse())
		})

		It("counts an edge per consumer slot", func() {
			a := Must(g.AddNode(node("a", "Conv", []string{"X", "W"}, "a")))
			Must(g.AddNode(node("b", "Add", []string{"a", "a"}, "b")))

			Expect(g.OutputEdgeCount(a)).To(Equal(2))
			Expect(names(g.Consumers(a))).To(Equal([]string{"b", "b"}))
		})

		It("rejects duplicate names and values", func() {
			Must(g.AddNode(node("a", "Conv", []string{"X", "W"}, "a")))

			_, err := g.AddNode(node("a", "Relu", []string{"a"}, "b"))
			Expect(errors.Is(err, me.ErrInvalidGraph)).To(BeTrue())
			_, err = g.AddNode(node("b", "Relu", []string{"a"}, "a"))
			Expect(errors.Is(err, me.ErrInvalidGraph)).To(BeTrue())
			_, err = g.AddNode(node("c", "Split", []string{"a"}, "s", "s"))
			Expect(errors.Is(err, me.ErrInvalidGraph)).To(BeTrue())
			_, err = g.AddNode(node("d", "Relu", []string{"a"}, "X"))
			Expect(errors.Is(err, me.ErrInvalidGraph)).To(BeTrue())
		})

		It("reports removed nodes as absent", func() {
			a := Must(g.AddNode(node("a", "Conv", []string{"X", "W"}, "a")))
			b := Must(g.AddNode(node("b", "Relu", []string{"a"}, "b")))

			MustBeSuccessful(g.RemoveNode(b))
			_, ok := g.GetNode(b)
			Expect(ok).To(BeFalse())
			Expect(g.OutputEdgeCount(a)).To(Equal(0))
			Expect(g.NumNodes()).To(Equal(1))

			err := g.RemoveNode(b)
			Expect(errors.Is(err, me.ErrNodeNotFound)).To(BeTrue())
		})
	})

	Context("order", func() {
		It("orders producers first", func() {
			c := Must(g.AddNode(node("c", "Relu", []string{"b"}, "c")))
			b := Must(g.AddNode(node("b", "Relu", []string{"a"}, "b")))
			a := Must(g.AddNode(node("a", "Conv", []string{"X", "W"}, "a")))

			Expect(g.TopologicalOrder()).To(Equal([]me.NodeIndex{a, b, c}))
		})

		It("detects cycles", func() {
			Must(g.AddNode(node("a", "Add", []string{"X", "b"}, "a")))
			Must(g.AddNode(node("b", "Relu", []string{"a"}, "b")))

			_, err := g.TopologicalOrder()
			Expect(errors.Is(err, me.ErrCycleFound)).To(BeTrue())
			Expect(err.Error()).To(Equal("cycle detected: cycle involving a, b"))
		})
	})

	Context("names", func() {
		It("generates unique names", func() {
			Must(g.AddNode(node("a", "Conv", []string{"X", "W"}, "a")))

			Expect(g.GenerateNodeName("b")).To(Equal("b"))
			Expect(g.GenerateNodeName("b")).To(Equal("b_token_0"))
			Expect(g.GenerateNodeName("a")).To(Equal("a_token_1"))
		})
	})

	Context("fusion", func() {
		var a, b, c me.NodeIndex

		BeforeEach(func() {
			a = Must(g.AddNode(node("a", "Conv", []string{"X", "W"}, "a")))
			b = Must(g.AddNode(node("b", "Relu", []string{"a"}, "b")))
			c = Must(g.AddNode(node("c", "Add", []string{"X", "b"}, "c")))
			g.AddOutput("c")
		})

		It("replaces matched nodes", func() {
			fused := me.NewNode("f", "FusedConv", "", []string{"X", "W"}, nil, nil, "com.microsoft")
			idx := Must(g.FuseNodes([]me.NodeIndex{a, b}, fused))

			Expect(g.NumNodes()).To(Equal(2))
			_, ok := g.GetNode(a)
			Expect(ok).To(BeFalse())
			_, ok = g.GetNode(b)
			Expect(ok).To(BeFalse())

			Expect(fused.Index()).To(Equal(idx))
			Expect(fused.Outputs()).To(Equal([]string{"b"}))
			Expect(g.OutputEdges(idx)).To(Equal([]me.Edge{
				{Value: "b", Src: idx, SrcSlot: 0, Dst: c, DstSlot: 1},
			}))
			Expect(g.TopologicalOrder()).To(Equal([]me.NodeIndex{idx, c}))
		})

		It("leaves the graph untouched on failure", func() {
			fused := me.NewNode("f", "FusedConv", "", []string{"X", "W"}, nil, nil, "com.microsoft")
			MustBeSuccessful(g.RemoveNode(b))

			_, err := g.FuseNodes([]me.NodeIndex{a, b}, fused)
			Expect(errors.Is(err, me.ErrNodeNotFound)).To(BeTrue())
			_, ok := g.GetNode(a)
			Expect(ok).To(BeTrue())
			Expect(fused.Index()).To(Equal(me.InvalidNodeIndex))

			_, err = g.FuseNodes([]me.NodeIndex{a, a}, fused)
			Expect(errors.Is(err, me.ErrInvalidGraph)).To(BeTrue())

			_, err = g.FuseNodes([]me.NodeIndex{a}, me.NewNode("c", "FusedConv", "", nil, nil, nil, ""))
			Expect(errors.Is(err, me.ErrInvalidGraph)).To(BeTrue())

			_, err = g.FuseNodes([]me.NodeIndex{a}, me.NewNode("g", "FusedConv", "", nil, []string{"o"}, nil, ""))
			Expect(errors.Is(err, me.ErrInvalidGraph)).To(BeTrue())
			Expect(g.NumNodes()).To(Equal(2))
		})
	})

	Context("subgraphs", func() {
		It("determines implicit inputs", func() {
			Must(g.AddNode(node("a", "Conv", []string{"X", "W"}, "a")))

			then := me.New("then")
			Must(then.AddNode(node("t", "Relu", []string{"a"}, "t")))
			then.AddOutput("t")

			n := me.NewNode("if", "If", "", []string{"X"}, []string{"y"}, me.Attributes{
				"then_branch": me.GraphAttribute(then),
			}, "")
			idx := Must(g.AddNode(n))

			Expect(then.Parent()).To(BeIdenticalTo(g))
			Expect(n.ImplicitInputs()).To(Equal([]string{"a"}))
			Expect(g.InputEdges(idx)).To(Equal([]me.Edge{
				{Value: "a", Src: 0, SrcSlot: 0, Dst: idx, DstSlot: 1},
			}))
		})

		It("resolves value infos from enclosing graphs", func() {
			sub := me.New("sub")
			Must(g.AddNode(me.NewNode("if", "If", "", []string{"X"}, []string{"y"}, me.Attributes{
				"else_branch": me.GraphAttribute(sub),
			}, "")))

			info, ok := sub.ValueInfo("X")
			Expect(ok).To(BeTrue())
			Expect(info.ElemType).To(Equal(me.FLOAT))
		})
	})

	Context("dump", func() {
		It("lists nodes in order", func() {
			Must(g.AddNode(node("b", "Relu", []string{"a"}, "b").WithProvider("CPUExecutionProvider")))
			Must(g.AddNode(me.NewNode("a", "Conv", "", []string{"X", "W"}, []string{"a"}, me.Attributes{
				"group":   me.IntAttribute(1),
				"kernels": me.IntsAttribute(3, 3),
			}, "").WithVersion(11)))
			g.AddOutput("b")

			buf := bytes.NewBuffer(nil)
			MustBeSuccessful(g.Dump(buf))
			Expect("\n" + buf.String()).To(Equal(`
graph test (X) -> (b)
  a: Conv-11(X, W) -> (a) group=1 kernels=[3 3]
  b: Relu-11(a) -> (b) [CPUExecutionProvider]
`))
		})
	})
})
