package app

import (
	"github.com/spf13/cobra"
)

func NewDump(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <graph file>",
		Short: "print a graph in topological order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.LoadGraph(args[0])
			if err != nil {
				return err
			}
			return g.Dump(cmd.OutOrStdout())
		},
	}
}
