package app

import (
	"github.com/mandelsoft/goutils/general"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mandelsoft/fusion/pkg/graph"
	"github.com/mandelsoft/fusion/pkg/optimizer"
)

type Options struct {
	fs         vfs.FileSystem
	configFile string
	logLevel   string
	config     *Config
}

func New(fss ...vfs.FileSystem) *cobra.Command {
	opts := &Options{
		fs: general.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
	}

	maincmd := &cobra.Command{
		Use:   "fusectl <options> <cmd> <args>",
		Short: "fuse convolutions with their activations",
		Long: `
This command can be used to optimize computation graphs by fusing
convolutions with subsequent activation functions into single
FusedConv operations. Graphs are described by YAML files.
`,
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Complete()
		},
	}

	flags := maincmd.PersistentFlags()
	flags.StringVarP(&opts.logLevel, "log-level", "L", "", "log level")
	flags.StringVarP(&opts.configFile, "config", "", "", "config file")

	maincmd.AddCommand(NewOptimize(opts))
	maincmd.AddCommand(NewMatch(opts))
	maincmd.AddCommand(NewDump(opts))
	return maincmd
}

// Complete evaluates the configuration and sets up logging.
func (o *Options) Complete() error {
	cfg, err := GetConfig(o.fs, o.configFile)
	if err != nil {
		return err
	}
	o.config = cfg
	level := o.logLevel
	if level == "" && cfg.LogLevel != nil {
		level = *cfg.LogLevel
	}
	return ConfigureLogging(level)
}

func (o *Options) LoadGraph(path string) (*graph.Graph, error) {
	return graph.Load(o.fs, path)
}

// Providers returns the providers given by flag or, if not set, by
// configuration.
func (o *Options) Providers(flags *pflag.FlagSet, providers []string) []string {
	if flags.Changed("provider") || o.config == nil {
		return providers
	}
	return o.config.Providers
}

func (o *Options) Steps(flags *pflag.FlagSet, steps int) int {
	if flags.Changed("steps") || o.config == nil || o.config.Steps == nil {
		return steps
	}
	return *o.config.Steps
}

func addProviderFlag(flags *pflag.FlagSet, providers *[]string) {
	flags.StringArrayVarP(providers, "provider", "p", nil, "execution provider to optimize for (default all)")
}

func addStepsFlag(flags *pflag.FlagSet, steps *int) {
	flags.IntVarP(steps, "steps", "", optimizer.DEFAULT_STEPS, "maximum number of optimization steps")
}
