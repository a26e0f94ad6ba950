// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-tcpclient/internal/batch"
	"github.com/tamzrod/modbus-tcpclient/internal/outcome"
)

// Client abstracts the Modbus operation needed by the poller.
type Client interface {
	BatchRead(specs []batch.AddressSpec) (outcome.Outcome[[]batch.Result], error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	UnitID   string
	Interval time.Duration
	Points   []Point
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg    Config
	specs  []batch.AddressSpec
	client Client
	logger zerolog.Logger
}

// New creates a poller with immutable config.
func New(cfg Config, client Client, logger zerolog.Logger) (*Poller, error) {
	if cfg.UnitID == "" {
		return nil, errors.New("poller: unit id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Points) == 0 {
		return nil, errors.New("poller: at least one point required")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}

	specs := make([]batch.AddressSpec, 0, len(cfg.Points))
	for _, pt := range cfg.Points {
		specs = append(specs, pt.Spec)
	}

	return &Poller{
		cfg:    cfg,
		specs:  specs,
		client: client,
		logger: logger.With().Str("unit", cfg.UnitID).Logger(),
	}, nil
}

// PollOnce performs exactly one poll cycle with a single batch read.
// All-or-nothing: any failed partition fails the whole cycle.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		UnitID: p.cfg.UnitID,
		At:     time.Now(),
	}

	out, err := p.client.BatchRead(p.specs)
	if err != nil {
		res.Err = err
		return res
	}
	if !out.Success {
		res.Err = &CycleError{Kind: out.Kind, Message: out.Err().Error()}
		return res
	}

	got := make(map[batch.AddressSpec]batch.Result, len(out.Value))
	for _, r := range out.Value {
		got[batch.AddressSpec{Address: r.Address, Type: r.Type, Station: r.Station, Function: r.Function}] = r
	}

	values := make([]Value, 0, len(p.cfg.Points))
	for _, pt := range p.cfg.Points {
		r, ok := got[pt.Spec]
		if !ok {
			res.Err = fmt.Errorf("poller: point %q (%v) missing from batch result", pt.Name, pt.Spec)
			return res
		}
		values = append(values, Value{Name: pt.Name, Result: r})
	}

	// Commit only if every point was served
	res.Values = values
	return res
}
