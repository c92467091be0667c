package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"scene-worker/config"
	"scene-worker/dto"
	"scene-worker/pkg/rabbitmq"
	"time"
)

func trigger(cfg *config.Config) *cobra.Command {
	var (
		reason    string
		subtitles bool
	)
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "ask a running worker to start a pass through the broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Queue == nil {
				return errors.New("rabbitmq_host is not configured")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
			if err != nil {
				return err
			}

			req := dto.RunRequest{RequestId: uuid.New(), Reason: reason, Subtitles: subtitles}
			if err := rabbitmq.Publish(ctx, conn, cfg.Queue, rabbitmq.RunBinding, req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published run request %s\n", req.RequestId)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "cli", "reason recorded with the request")
	cmd.Flags().BoolVar(&subtitles, "subtitles", false, "also run the subtitle stage")
	return cmd
}
