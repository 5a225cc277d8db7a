package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/fusion/pkg/optimizer/convfusion"
	"github.com/mandelsoft/fusion/pkg/providers"
)

type Match struct {
	cmd *cobra.Command

	mainopts  *Options
	providers []string
}

func NewMatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <graph file> <options>",
		Short: "show possible fusions without modifying the graph",
		Args:  cobra.ExactArgs(1),
	}

	c := &Match{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	addProviderFlag(cmd.Flags(), &c.providers)
	return cmd
}

func (c *Match) Run(args []string) error {
	g, err := c.mainopts.LoadGraph(args[0])
	if err != nil {
		return err
	}

	allowed := providers.NewSet(c.mainopts.Providers(c.cmd.Flags(), c.providers)...)
	results, anchors, err := convfusion.New().Candidates(g, allowed)
	if err != nil {
		return err
	}

	out := c.cmd.OutOrStdout()
	for i, r := range results {
		switch m := r.(type) {
		case convfusion.NoMatch:
			fmt.Fprintf(out, "%s: %s (%s)\n", anchors[i].Name(), m.Kind(), m.Reason)
		case convfusion.TwoNodeFusion:
			fmt.Fprintf(out, "%s: %s with %s\n", anchors[i].Name(), m.Kind(), m.Activation.Name())
		case convfusion.ThreeNodeFusion:
			fmt.Fprintf(out, "%s: %s with %s and %s\n", anchors[i].Name(), m.Kind(), m.Add.Name(), m.Activation.Name())
		case convfusion.GenericActivationFusion:
			fmt.Fprintf(out, "%s: %s with %s %v\n", anchors[i].Name(), m.Kind(), m.Activation.Name(), m.Params)
		}
	}
	return nil
}
