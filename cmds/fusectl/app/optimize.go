package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/optimizer"
	"github.com/mandelsoft/fusion/pkg/optimizer/convfusion"
)

type Optimize struct {
	cmd *cobra.Command

	mainopts  *Options
	output    string
	providers []string
	steps     int
}

func NewOptimize(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize <graph file> <options>",
		Short: "fuse convolutions and activations of a graph",
		Args:  cobra.ExactArgs(1),
	}

	c := &Optimize{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.StringVarP(&c.output, "output", "o", "", "output file (default stdout)")
	addProviderFlag(flags, &c.providers)
	addStepsFlag(flags, &c.steps)
	return cmd
}

func (c *Optimize) Run(args []string) error {
	g, err := c.mainopts.LoadGraph(args[0])
	if err != nil {
		return err
	}

	flags := c.cmd.Flags()
	m := optimizer.NewManager(
		optimizer.WithProviders(c.mainopts.Providers(flags, c.providers)...),
		optimizer.WithSteps(c.mainopts.Steps(flags, c.steps)),
	)
	err = m.Register(convfusion.New())
	if err != nil {
		return err
	}

	r, err := m.Apply(c.cmd.Context(), g)
	if err != nil {
		return fmt.Errorf("optimization of %s failed: %w", args[0], err)
	}
	log.Debug("run {{runid}} finished", "runid", r.RunId, "applied", r.Applied)

	summary := c.cmd.OutOrStdout()
	if c.output != "" {
		err = graph.Save(c.mainopts.fs, c.output, g)
	} else {
		summary = c.cmd.ErrOrStderr()
		var data []byte
		data, err = graph.Encode(g)
		if err == nil {
			_, err = c.cmd.OutOrStdout().Write(data)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(summary, "graph %s: %d -> %d nodes (%d steps)\n", g.Name(), r.NodesBefore, r.NodesAfter, r.Steps)
	return nil
}
