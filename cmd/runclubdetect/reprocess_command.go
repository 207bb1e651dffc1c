package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patrickjmorris/therunclub-sub001/internal/app"
	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
)

func newReprocessCommand() *cobra.Command {
	var (
		contentType string
		podcastID   string
		fuzzy       bool
	)

	cmd := &cobra.Command{
		Use:   "reprocess [contentID...]",
		Short: "Re-run mention detection for specific items or a whole podcast",
		Long: "Reprocesses the given content IDs, or every episode of the podcast " +
			"named by --podcast. The athlete index is built once and reused. " +
			"Runs exact matching only unless --fuzzy is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := domain.ParseContentType(contentType)
			if err != nil {
				return err
			}
			if len(args) == 0 && podcastID == "" {
				return fmt.Errorf("provide content IDs or --podcast")
			}

			cfg, logger := loadEnvironment()
			application, err := app.New(cfg, logger, &fuzzy)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			targets := args
			if podcastID != "" {
				if parsed != domain.ContentPodcast {
					return fmt.Errorf("--podcast requires --type podcast")
				}
				ids, err := application.Repository().ListEpisodeIDs(ctx, podcastID)
				if err != nil {
					return fmt.Errorf("list episodes of %s: %w", podcastID, err)
				}
				targets = append(targets, ids...)
			}

			detector := application.Detector()
			idx, err := detector.BuildIndex(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reprocessing %d item(s) against %d athletes\n", len(targets), idx.Len())

			var processed, failed, totalMatches int
			for _, id := range targets {
				result, err := detector.ProcessItemWithIndex(ctx, idx, id, parsed)
				if err != nil {
					failed++
					fmt.Fprintf(out, "  %s: ERROR %v\n", id, err)
					continue
				}
				processed++
				matches := result.TitleMatches + result.ContentMatches
				totalMatches += matches
				fmt.Fprintf(out, "  %s: %d mention(s) (%d title, %d content)\n",
					id, matches, result.TitleMatches, result.ContentMatches)
			}

			fmt.Fprintf(out, "Done: %d processed, %d failed, %d mention(s) detected\n",
				processed, failed, totalMatches)
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "type", string(domain.ContentPodcast), "content type of the targets (podcast or video)")
	cmd.Flags().StringVar(&podcastID, "podcast", "", "reprocess every episode of this podcast")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "enable the fuzzy matching pass")

	return cmd
}
