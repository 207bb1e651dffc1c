package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patrickjmorris/therunclub-sub001/internal/app"
	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
	"github.com/patrickjmorris/therunclub-sub001/internal/usecase"
)

func newBatchCommand() *cobra.Command {
	var (
		contentType string
		maxAgeHours int
		batchSize   int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run one batch detection pass and print a JSON summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := domain.ParseContentType(contentType)
			if err != nil {
				return err
			}

			cfg, logger := loadEnvironment()
			application, err := app.New(cfg, logger, nil)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.Detector().ProcessBatch(cmd.Context(), usecase.BatchRequest{
				ContentType: parsed,
				Limit:       batchSize,
				MaxAgeHours: maxAgeHours,
			})
			if err != nil {
				return fmt.Errorf("batch run: %w", err)
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}

	cmd.Flags().StringVar(&contentType, "type", string(domain.ContentPodcast), "content type to process (podcast or video)")
	cmd.Flags().IntVar(&maxAgeHours, "max-age-hours", 24, "publication window in hours")
	cmd.Flags().IntVar(&batchSize, "batch-size", 10, "maximum number of items to process")

	return cmd
}
