package convfusion_test

import (
	. "github.com/mandelsoft/goutils/testutils"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/providers"
	me "github.com/mandelsoft/fusion/pkg/optimizer/convfusion"
)

var _ = Describe("matcher", func() {
	var g *graph.Graph
	var m *me.Matcher

	BeforeEach(func() {
		g = newGraph()
		m = me.NewMatcher(g, providers.NewChecker(nil, nil))
	})

	It("reports two node fusions", func() {
		c := conv(g, "conv", providers.CUDA)
		r := add(g, op("relu", "Relu", 14, providers.CUDA, "conv"))

		Expect(m.Match(c)).To(Equal(me.TwoNodeFusion{Anchor: c, Activation: r}))
	})

	It("reports three node fusions", func() {
		g.AddInitializer("B", graph.NewFloatTensor(nil, 1))
		c := conv(g, "conv", providers.CUDA)
		a := add(g, op("add", "Add", 7, providers.CUDA, "conv", "B"))
		r := add(g, op("relu", "Relu", 6, providers.CUDA, "add"))

		Expect(m.Match(c)).To(Equal(me.ThreeNodeFusion{Anchor: c, Add: a, Activation: r, ExtraInput: "B"}))
	})

	It("reports generic fusions", func() {
		c := conv(g, "conv", providers.CPU)
		r := add(g, op("leaky", "LeakyRelu", 6, providers.CPU, "conv").WithAttribute("alpha", graph.FloatAttribute(0.3)))

		Expect(m.Match(c)).To(Equal(me.GenericActivationFusion{Anchor: c, Activation: r, Params: []float32{0.3}}))
	})

	It("reports reasons", func() {
		c := conv(g, "conv", providers.CPU)
		add(g, op("relu1", "Relu", 14, providers.CPU, "conv"))
		add(g, op("relu2", "Relu", 14, providers.CPU, "conv"))

		r := Must(m.Match(c))
		Expect(r.Kind()).To(Equal("NoMatch"))
		Expect(r).To(Equal(me.NoMatch{Reason: "anchor has 2 consumer edges"}))
	})

	It("does not modify the graph", func() {
		c := conv(g, "conv", providers.CPU)
		add(g, op("relu", "Relu", 14, providers.CPU, "conv"))
		fp := Must(graph.Fingerprint(g))

		Expect(Must(m.Match(c)).Kind()).To(Equal("GenericActivationFusion"))
		Expect(graph.Fingerprint(g)).To(Equal(fp))
		Expect(g.NumNodes()).To(Equal(2))
	})

	It("lists candidates", func() {
		conv(g, "conv1", providers.CPU)
		add(g, op("relu1", "Relu", 14, providers.CPU, "conv1"))
		conv(g, "conv2", providers.CPU, "relu1", "W")
		g.AddOutput("conv2")

		results, anchors := Must2(me.New().Candidates(g, nil))
		Expect(anchors).To(HaveLen(2))
		Expect(anchors[0].Name()).To(Equal("conv1"))
		Expect(results[0].Kind()).To(Equal("GenericActivationFusion"))
		Expect(results[1]).To(Equal(me.NoMatch{Reason: "anchor has 0 consumer edges"}))
		Expect(g.NumNodes()).To(Equal(3))
	})
})

var _ = Describe("rewriter", func() {
	It("rejects no matches", func() {
		g := newGraph()
		_, err := me.NewRewriter(g).Rewrite(me.NoMatch{Reason: "test"})
		Expect(err).To(MatchError("nothing to rewrite: test"))
	})

	It("rejects stale matches", func() {
		g := newGraph()
		c := conv(g, "conv", providers.CPU)
		r := add(g, op("relu", "Relu", 14, providers.CPU, "conv"))
		m := me.GenericActivationFusion{Anchor: c, Activation: r, Params: []float32{}}

		Must(me.NewRewriter(g).Rewrite(m))
		_, err := me.NewRewriter(g).Rewrite(m)
		Expect(err).To(HaveOccurred())
		Expect(g.NumNodes()).To(Equal(1))
	})
})

var _ = Describe("parameters", func() {
	var g *graph.Graph

	BeforeEach(func() {
		g = newGraph()
	})

	It("rejects unknown activations", func() {
		n := add(g, op("elu", "Elu", 6, providers.CPU, "X"))
		_, ok, err := me.ExtractParams(g, n)
		Expect(err).To(BeNil())
		Expect(ok).To(BeFalse())
	})

	It("reads HardSigmoid attributes", func() {
		n := add(g, op("hs", "HardSigmoid", 6, providers.CPU, "X").WithAttribute("beta", graph.FloatAttribute(0.25)))
		p, ok, err := me.ExtractParams(g, n)
		Expect(err).To(BeNil())
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal([]float32{0.2, 0.25}))
	})

	It("does not resolve HardSigmoid attributes of other types", func() {
		n := add(g, op("hs", "HardSigmoid", 6, providers.CPU, "X").WithAttribute("alpha", graph.IntAttribute(1)))
		_, ok, err := me.ExtractParams(g, n)
		Expect(err).To(BeNil())
		Expect(ok).To(BeFalse())
	})

	It("does not resolve Clip-6 attributes of other types", func() {
		n := add(g, op("clip", "Clip", 6, providers.CPU, "X").WithAttribute("max", graph.IntAttribute(6)))
		_, ok, err := me.ExtractParams(g, n)
		Expect(err).To(BeNil())
		Expect(ok).To(BeFalse())
	})

	It("rejects empty Clip bounds", func() {
		g.AddInitializer("min", graph.NewFloatTensor([]int64{0}))
		n := add(g, op("clip", "Clip", 11, providers.CPU, "X", "min"))
		_, ok, err := me.ExtractParams(g, n)
		Expect(err).To(BeNil())
		Expect(ok).To(BeFalse())
	})

	It("rejects integer Clip bounds", func() {
		g.AddInitializer("min", graph.NewIntTensor(graph.INT64, nil, 0))
		n := add(g, op("clip", "Clip", 11, providers.CPU, "X", "min"))
		_, ok, err := me.ExtractParams(g, n)
		Expect(err).To(BeNil())
		Expect(ok).To(BeFalse())
	})
})
