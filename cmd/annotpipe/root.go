package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "annotpipe",
		Short:         "Multi-stage text annotation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFile, "config", "c", "", "Configuration file path")
	flags.StringVar(&ctx.envFile, "env-file", "", "Environment file loaded before the configuration")
	flags.StringVar(&ctx.specFile, "spec", "", "Pipelines file (overrides pipeline.spec_file)")
	flags.StringVarP(&ctx.pipeline, "pipeline", "p", "", "Pipeline name (overrides pipeline.name)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newParseCommand(ctx))
	rootCmd.AddCommand(newPipelinesCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
