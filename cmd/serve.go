package cmd

import (
	"github.com/spf13/cobra"
	"scene-worker/config"
	server2 "scene-worker/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "run the scheduler and the status api",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunHttp(config)
		},
	}
}
