// internal/replicator/unit.go
package replicator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-tcpclient/internal/config"
	"github.com/tamzrod/modbus-tcpclient/internal/poller"
	"github.com/tamzrod/modbus-tcpclient/internal/status"
	"github.com/tamzrod/modbus-tcpclient/internal/writer"
)

// source produces poll results until ctx ends.
type source interface {
	Run(ctx context.Context, out chan<- poller.PollResult)
}

// Unit is one source-to-targets pipeline.
// The orchestrator owns the status snapshot; the writers only deliver it.
type Unit struct {
	id     string
	src    source
	data   writer.Writer
	status writer.StatusWriter // nil when the unit did not opt in

	snap    status.Snapshot
	closers []func() error
	logger  zerolog.Logger
}

// BuildUnit wires poller, data writer and status writer for one unit.
func BuildUnit(u config.UnitConfig, logger zerolog.Logger) (*Unit, error) {
	p, closePoller, err := poller.Build(u, logger)
	if err != nil {
		return nil, err
	}

	plan, err := writer.BuildPlan(u)
	if err != nil {
		_ = closePoller()
		return nil, err
	}

	clients, closeWriters, err := writer.BuildEndpointClients(u, logger)
	if err != nil {
		_ = closePoller()
		return nil, err
	}

	unit := &Unit{
		id:      u.ID,
		src:     p,
		data:    writer.New(plan, clients),
		closers: []func() error{closePoller, closeWriters},
		logger:  logger.With().Str("unit", u.ID).Logger(),
	}
	if sw, enabled := writer.NewDeviceStatusWriter(plan, clients); enabled {
		unit.status = sw
	}
	return unit, nil
}

// ID is the unit's configured id.
func (u *Unit) ID() string { return u.id }

// Run drives the unit until ctx ends.
func (u *Unit) Run(ctx context.Context) error {
	out := make(chan poller.PollResult)
	polling := make(chan struct{})
	go func() {
		defer close(polling)
		u.src.Run(ctx, out)
	}()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Default snapshot state on start, fully asserted if enabled.
	u.snap = status.Snapshot{Health: status.HealthUnknown}
	u.writeStatus("start")

	u.logger.Info().Msg("unit started")
	for {
		select {
		case <-ctx.Done():
			// The source may be mid-read; its client must not be closed under it.
			<-polling
			u.logger.Info().Msg("unit stopped")
			return nil

		case res := <-out:
			u.handle(res)

		case <-secTicker.C:
			u.tick()
		}
	}
}

// handle delivers one poll result and folds it into the status snapshot.
func (u *Unit) handle(res poller.PollResult) {
	if res.Err != nil {
		u.logger.Warn().Err(res.Err).Msg("poll failed")
	}

	if err := u.data.Write(res); err != nil {
		u.logger.Error().Err(err).Msg("writer error")
	}

	next, changed := u.snap.Observe(res.Err)
	u.snap = next
	if changed {
		u.writeStatus("update")
	}
}

// tick advances seconds_in_error at 1 Hz while not OK.
func (u *Unit) tick() {
	next, changed := u.snap.Tick()
	u.snap = next
	if changed {
		u.writeStatus("tick")
	}
}

func (u *Unit) writeStatus(reason string) {
	if u.status == nil {
		return
	}
	if err := u.status.WriteStatus(u.snap); err != nil {
		u.logger.Error().Err(err).Str("reason", reason).Msg("status write failed")
	}
}

// Close releases the unit's source and target connections.
func (u *Unit) Close() error {
	var last error
	for _, fn := range u.closers {
		if err := fn(); err != nil {
			last = err
		}
	}
	return last
}
