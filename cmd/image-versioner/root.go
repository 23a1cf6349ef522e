package main

import (
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/config"
)

const defaultConfigPath = "./config/config.yml"

// options carries the persistent flags to every subcommand.
type options struct {
	configPath string
	explicit   bool
}

// load reads the configuration. The default path may be absent, in which
// case defaults and environment are used; an explicit --config must exist.
func (o *options) load() (*config.Config, error) {
	return config.Load(o.configPath, !o.explicit)
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "image-versioner",
		Short:         "Generate resized versions of uploaded images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zlog.Init()
			opts.explicit = cmd.Flags().Changed("config")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Configuration file path")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newProcessCommand(opts))
	rootCmd.AddCommand(newLambdaCommand(opts))
	rootCmd.AddCommand(newVersionsCommand(opts))

	return rootCmd
}
