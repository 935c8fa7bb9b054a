package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ashwini-1013/org-workspace/internal/config"
	"github.com/ashwini-1013/org-workspace/internal/logging"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "songsense",
		Short:         "songsense - prompt-driven song recommendations",
		Long:          "Ingests a song catalog into a metadata store and a similarity index, and answers free-text music requests over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default: CONFIG_PATH or ./config.yaml)")

	load := func() (*config.Config, error) {
		var (
			cfg *config.Config
			err error
		)
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return nil, err
		}
		logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		return cfg, nil
	}

	root.AddCommand(
		serveCmd(load),
		ingestCmd(load),
		statsCmd(load),
	)

	if err := root.Execute(); err != nil {
		logging.Error().Err(err).Msg("songsense failed")
		os.Exit(1)
	}
}

type loader func() (*config.Config, error)
