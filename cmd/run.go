package cmd

import (
	"github.com/spf13/cobra"
	"scene-worker/config"
	"scene-worker/constant"
	server2 "scene-worker/server"
)

func run(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run one pipeline pass over every folder and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunOnce(config, constant.JobTypeScenePipeline)
		},
	}
}

func subtitles(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "subtitles",
		Short: "generate missing subtitles for split outputs and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunOnce(config, constant.JobTypeSubtitle)
		},
	}
}
