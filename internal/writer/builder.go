// internal/writer/builder.go
package writer

import (
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/modbus-tcpclient/internal/config"
	wmodbus "github.com/tamzrod/modbus-tcpclient/internal/writer/modbus"
)

// BuildPlan converts one unit config into a Writer Plan.
// Assumes config has already passed Validate.
func BuildPlan(u cfg.UnitConfig) (Plan, error) {
	if u.ID == "" {
		return Plan{}, errors.New("writer: unit.id required")
	}

	plan := Plan{
		UnitID: u.ID,
		Order:  u.Source.ByteOrder,
	}

	for _, t := range u.Targets {
		plan.Targets = append(plan.Targets, TargetEndpoint{
			TargetID: t.ID,
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
			Offsets:  t.Offsets, // map[int]uint16 (delta map)
		})

		if u.Source.StatusSlot == nil || t.StatusUnitID == nil {
			continue
		}
		plan.Status = append(plan.Status, StatusPlan{
			Endpoint:   t.Endpoint,
			UnitID:     *t.StatusUnitID,
			BaseSlot:   *u.Source.StatusSlot,
			DeviceName: u.Source.DeviceName,
		})
	}

	return plan, nil
}

// BuildEndpointClients creates one TCP client per unique target endpoint.
// Clients connect on first use.
func BuildEndpointClients(u cfg.UnitConfig, logger zerolog.Logger) (map[string]EndpointClient, func() error, error) {
	unique := map[string]struct{}{}
	for _, t := range u.Targets {
		unique[t.Endpoint] = struct{}{}
	}
	endpoints := make([]string, 0, len(unique))
	for ep := range unique {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	clients := make(map[string]EndpointClient, len(endpoints))
	var closers []func() error

	for _, endpoint := range endpoints {
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  time.Duration(u.Source.TimeoutMs) * time.Millisecond,
		}, logger.With().Str("unit", u.ID).Logger())
		if err != nil {
			for _, fn := range closers {
				_ = fn()
			}
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	return clients, closeAll, nil
}
