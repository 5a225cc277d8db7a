package app_test

import (
	"bytes"
	"os"

	. "github.com/mandelsoft/goutils/testutils"
	"github.com/mandelsoft/vfs/pkg/vfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/fusion/cmds/fusectl/app"
	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/testfs"
)

var _ = Describe("fusectl", func() {
	var fs vfs.FileSystem
	var cmd *cobra.Command
	var buf, errbuf *bytes.Buffer

	BeforeEach(func() {
		fs = Must(testfs.New(false, "testdata"))
		buf = bytes.NewBuffer(nil)
		errbuf = bytes.NewBuffer(nil)
		cmd = app.New(fs)
		cmd.SetOut(buf)
		cmd.SetErr(errbuf)
	})

	AfterEach(func() {
		vfs.Cleanup(fs)
	})

	Context("dump", func() {
		It("lists the graph", func() {
			cmd.SetArgs([]string{"dump", "testdata/model.yaml"})
			MustBeSuccessful(cmd.Execute())
			Expect("\n" + buf.String()).To(Equal(`
graph model (X, B) -> (Y, Z)
  conv1: Conv-11(X, W) -> (c1) [CUDAExecutionProvider]
  add1: Add-14(c1, B) -> (a1) [CUDAExecutionProvider]
  relu1: Relu-14(a1) -> (r1) [CUDAExecutionProvider]
  conv2: Conv-11(r1, W) -> (c2) [CPUExecutionProvider]
  clip2: Clip-13(c2, min, max) -> (Y) [CPUExecutionProvider]
  conv3: Conv-11(r1, W) -> (Z) [CPUExecutionProvider]
`))
		})

		It("substitutes environment variables", func() {
			os.Setenv("CPU_PROVIDER", "ROCMExecutionProvider")
			defer os.Unsetenv("CPU_PROVIDER")

			cmd.SetArgs([]string{"dump", "testdata/model.yaml"})
			MustBeSuccessful(cmd.Execute())
			Expect(buf.String()).To(ContainSubstring("conv2: Conv-11(r1, W) -> (c2) [ROCMExecutionProvider]"))
		})

		It("fails for missing files", func() {
			cmd.SetArgs([]string{"dump", "testdata/missing.yaml"})
			Expect(cmd.Execute()).To(HaveOccurred())
		})
	})

	Context("match", func() {
		It("lists candidates", func() {
			cmd.SetArgs([]string{"match", "testdata/model.yaml"})
			MustBeSuccessful(cmd.Execute())
			Expect("\n" + buf.String()).To(Equal(`
conv1: ThreeNodeFusion with add1 and relu1
conv2: GenericActivationFusion with clip2 [0 6]
conv3: NoMatch (anchor has 0 consumer edges)
`))
		})

		It("restricts providers", func() {
			cmd.SetArgs([]string{"match", "testdata/model.yaml", "-p", "CPUExecutionProvider"})
			MustBeSuccessful(cmd.Execute())
			Expect(buf.String()).To(HavePrefix(`conv1: NoMatch (provider "CUDAExecutionProvider" not enabled)` + "\n"))
		})

		It("uses providers from the environment", func() {
			os.Setenv("FUSECTL_PROVIDERS", "CPUExecutionProvider")
			defer os.Unsetenv("FUSECTL_PROVIDERS")

			cmd.SetArgs([]string{"match", "testdata/model.yaml"})
			MustBeSuccessful(cmd.Execute())
			Expect(buf.String()).To(HavePrefix(`conv1: NoMatch (provider "CUDAExecutionProvider" not enabled)` + "\n"))
		})

		It("prefers flags over configuration", func() {
			cmd.SetArgs([]string{"--config", "testdata/config.yaml", "match", "testdata/model.yaml", "-p", "CUDAExecutionProvider"})
			MustBeSuccessful(cmd.Execute())
			Expect(buf.String()).To(HavePrefix("conv1: ThreeNodeFusion with add1 and relu1\n"))
		})
	})

	Context("optimize", func() {
		It("writes the optimized graph", func() {
			cmd.SetArgs([]string{"optimize", "testdata/model.yaml", "-o", "testdata/out.yaml"})
			MustBeSuccessful(cmd.Execute())
			Expect(buf.String()).To(Equal("graph model: 6 -> 3 nodes (2 steps)\n"))

			g := Must(graph.Load(fs, "testdata/out.yaml"))
			out := bytes.NewBuffer(nil)
			MustBeSuccessful(g.Dump(out))
			Expect("\n" + out.String()).To(Equal(`
graph model (X, B) -> (Y, Z)
  conv1_add1_relu1: com.microsoft.FusedConv-1(X, W, B) -> (r1) [CUDAExecutionProvider] activation="Relu"
  conv3: Conv-11(r1, W) -> (Z) [CPUExecutionProvider]
  fused conv2: com.microsoft.FusedConv-1(r1, W) -> (Y) [CPUExecutionProvider] activation="Clip" activation_params=[0 6]
`))
		})

		It("writes to stdout", func() {
			cmd.SetArgs([]string{"optimize", "testdata/model.yaml"})
			MustBeSuccessful(cmd.Execute())
			Expect(errbuf.String()).To(Equal("graph model: 6 -> 3 nodes (2 steps)\n"))

			g := Must(graph.Decode(buf.Bytes()))
			Expect(g.NumNodes()).To(Equal(3))
		})

		It("uses the configuration", func() {
			cmd.SetArgs([]string{"--config", "testdata/config.yaml", "optimize", "testdata/model.yaml", "-o", "testdata/out.yaml"})
			MustBeSuccessful(cmd.Execute())
			Expect(buf.String()).To(Equal("graph model: 6 -> 5 nodes (1 steps)\n"))
		})

		It("rejects invalid log levels", func() {
			cmd.SetArgs([]string{"-L", "bogus", "optimize", "testdata/model.yaml"})
			Expect(cmd.Execute()).To(MatchError(`invalid log level "bogus"`))
		})
	})
})
