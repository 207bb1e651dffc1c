package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/patrickjmorris/therunclub-sub001/internal/config"
	"github.com/patrickjmorris/therunclub-sub001/internal/logging"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "runclubdetect",
		Short:         "Athlete mention detection for The Run Club",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newBatchCommand(),
		newReprocessCommand(),
	)

	return root
}

func loadEnvironment() (config.Config, *slog.Logger) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, logger
}
