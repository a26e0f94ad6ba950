// internal/replicator/replicator.go
package replicator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-tcpclient/internal/config"
)

// Run builds every unit of a validated, normalized configuration and runs
// them until ctx ends. A build failure stops startup before anything runs.
func Run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	units := make([]*Unit, 0, len(cfg.Replicator.Units))
	defer func() {
		for _, u := range units {
			if err := u.Close(); err != nil {
				logger.Warn().Err(err).Str("unit", u.ID()).Msg("close failed")
			}
		}
	}()

	for _, uc := range cfg.Replicator.Units {
		u, err := BuildUnit(uc, logger)
		if err != nil {
			return fmt.Errorf("replicator: build unit %q: %w", uc.ID, err)
		}
		units = append(units, u)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, u := range units {
		g.Go(func() error { return u.Run(ctx) })
	}

	logger.Info().Int("units", len(units)).Msg("replicator running")
	return g.Wait()
}
