// cmd/mbclient/replicate.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-tcpclient/internal/config"
	"github.com/tamzrod/modbus-tcpclient/internal/replicator"
)

func newReplicateCmd(g *globalFlags) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Poll sources and mirror their values into target devices",
		Long: `Run the replicator described by a YAML configuration until interrupted.
Every unit polls its source with batch reads and writes each value, plus an
optional status block, to its targets.`,
		Example: `  mbclient replicate --config replicator.yaml --log-level info --pretty`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handleHelpArg(cmd, args) {
				return nil
			}
			if configPath == "" {
				return missingFlagError(cmd, "--config")
			}

			log, err := g.logger(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			config.Normalize(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().Str("config", configPath).Int("units", len(cfg.Replicator.Units)).Msg("starting replicator")
			err = replicator.Run(ctx, cfg, log)
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("replicator stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Replicator configuration file (required)")

	return cmd
}
