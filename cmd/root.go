package cmd

import (
	"github.com/spf13/cobra"
	"scene-worker/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "scene-worker",
		Short:        "detect, split and archive scene-based videos",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(run(config))
	rootCmd.AddCommand(subtitles(config))
	rootCmd.AddCommand(trigger(config))
	return rootCmd
}
