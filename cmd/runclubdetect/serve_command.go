package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/patrickjmorris/therunclub-sub001/internal/app"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the detection HTTP API, worker pool, and batch scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := loadEnvironment()

			application, err := app.New(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return application.Run(ctx)
		},
	}
}
