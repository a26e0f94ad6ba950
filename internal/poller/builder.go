// internal/poller/builder.go
package poller

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-tcpclient/internal/client"
	cfg "github.com/tamzrod/modbus-tcpclient/internal/config"
)

// Build constructs a Poller over a Modbus/TCP client for the unit's source.
// The client connects lazily and reconnects on its own after failures,
// so a source that is down at startup only fails poll cycles.
// logger must not carry the unit field yet; Build adds it.
func Build(u cfg.UnitConfig, logger zerolog.Logger) (*Poller, func() error, error) {
	src := logger.With().Str("unit", u.ID).Str("role", "source").Logger()

	c, err := client.New(client.Config{
		Host:      u.Source.Host,
		Port:      u.Source.Port,
		Timeout:   time.Duration(u.Source.TimeoutMs) * time.Millisecond,
		ByteOrder: u.Source.ByteOrder,
		AutoClose: u.Source.AutoClose,
		Logger:    &src,
	})
	if err != nil {
		return nil, nil, err
	}

	points := make([]Point, 0, len(u.Points))
	for _, pt := range u.Points {
		points = append(points, Point{Name: pt.Name, Spec: pt.Spec()})
	}

	p, err := New(
		Config{
			UnitID:   u.ID,
			Interval: time.Duration(u.Poll.IntervalMs) * time.Millisecond,
			Points:   points,
		},
		c,
		logger,
	)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	return p, c.Close, nil
}
