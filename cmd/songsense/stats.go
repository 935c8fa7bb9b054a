package main

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ashwini-1013/org-workspace/internal/logging"
)

func statsCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print catalog statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.close(); err != nil {
					logging.Error().Err(err).Msg("close failed")
				}
			}()

			stats, err := a.catalog.Stats(ctx)
			if err != nil {
				return err
			}
			genres := stats.AvailableGenres
			if genres == nil {
				genres = []string{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"totalSongs":           stats.TotalSongs,
				"totalGenres":          stats.TotalGenres,
				"totalArtists":         stats.TotalArtists,
				"availableGenres":      genres,
				"totalGenresAvailable": stats.TotalGenresAvailable,
			})
		},
	}
}
