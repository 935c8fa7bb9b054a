package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ashwini-1013/org-workspace/internal/adapters/rest"
	"github.com/ashwini-1013/org-workspace/internal/core/services"
	"github.com/ashwini-1013/org-workspace/internal/logging"
	"github.com/ashwini-1013/org-workspace/internal/worker"
)

func serveCmd(load loader) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.close(); err != nil {
					logging.Error().Err(err).Msg("close failed")
				}
			}()

			if seed {
				n, err := a.catalog.SeedSamples(ctx)
				if err != nil {
					return fmt.Errorf("seed samples: %w", err)
				}
				logging.Info().Int("inserted", n).Msg("sample songs seeded")
			}

			pipeline := a.newPipeline(0)
			pool := worker.NewPool(func(ctx context.Context, path string) (services.IngestReport, error) {
				return ingestFile(ctx, pipeline, path)
			}, cfg.Ingest.WorkerQueueSize, logging.Component("worker"))
			pool.Start()
			defer pool.Stop()

			handler := rest.NewHandler(a.recommender, a.catalog, pool, rest.Options{
				RateLimit:          cfg.Server.RateLimit,
				RateLimitWindow:    cfg.Server.RateLimitWindow,
				DefaultCatalogPath: cfg.Ingest.DefaultCatalogCSV,
				CatalogDir:         cfg.Ingest.CatalogDir,
			}, logging.Logger())

			srv := &http.Server{
				Addr:              cfg.Server.Addr(),
				Handler:           handler,
				ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			}

			logging.Info().Str("addr", srv.Addr).Msg("🎶 SongSense API is running")

			serverErr := make(chan error, 1)
			go func() {
				err := srv.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
					return
				}
				serverErr <- nil
			}()

			select {
			case err := <-serverErr:
				return err
			case <-ctx.Done():
				logging.Info().Msg("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logging.Error().Err(err).Msg("shutdown error")
				}
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&seed, "seed-samples", false, "Insert the built-in sample songs before serving")
	return cmd
}
