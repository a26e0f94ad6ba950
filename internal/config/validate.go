// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/modbus-tcpclient/internal/batch"
	"github.com/tamzrod/modbus-tcpclient/internal/frame"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil || len(cfg.Replicator.Units) == 0 {
		return fmt.Errorf("config: no units defined")
	}

	// ------------------------------------------------------------
	// UNIT / SOURCE / POINT VALIDATION
	// ------------------------------------------------------------

	seenUnit := make(map[string]bool)

	for _, u := range cfg.Replicator.Units {
		if u.ID == "" {
			return fmt.Errorf("unit without id")
		}
		if seenUnit[u.ID] {
			return fmt.Errorf("unit %q: duplicate id", u.ID)
		}
		seenUnit[u.ID] = true

		if u.Source.Host == "" {
			return fmt.Errorf("unit %q: source.host is required", u.ID)
		}
		if u.Source.Port < 0 || u.Source.Port > 65535 {
			return fmt.Errorf("unit %q: source.port %d out of range", u.ID, u.Source.Port)
		}
		if u.Source.TimeoutMs < 0 {
			return fmt.Errorf("unit %q: source.timeout_ms must not be negative", u.ID)
		}
		if u.Poll.IntervalMs < 0 {
			return fmt.Errorf("unit %q: poll.interval_ms must not be negative", u.ID)
		}

		if len(u.Points) == 0 {
			return fmt.Errorf("unit %q: no points defined", u.ID)
		}
		for _, p := range u.Points {
			if err := p.Spec().Validate(); err != nil {
				return fmt.Errorf("unit %q: point %q: %w", u.ID, p.Name, err)
			}
		}

		for _, t := range u.Targets {
			if t.Endpoint == "" {
				return fmt.Errorf("unit %q: target %d has no endpoint", u.ID, t.ID)
			}
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(u.Source.DeviceName); i++ {
			if u.Source.DeviceName[i] > 0x7F {
				return fmt.Errorf(
					"unit %q: device_name must contain ASCII characters only",
					u.ID,
				)
			}
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK VALIDATION (PER-TARGET, OPT-IN)
	// ------------------------------------------------------------

	// key = endpoint | status_unit_id | status_slot
	statusOwner := make(map[string]string)

	for _, u := range cfg.Replicator.Units {
		// status is opt-in
		if u.Source.StatusSlot == nil {
			continue
		}

		// status requires at least one target
		if len(u.Targets) == 0 {
			return fmt.Errorf(
				"unit %q: status_slot is set but no targets are defined",
				u.ID,
			)
		}

		slot := *u.Source.StatusSlot

		for _, t := range u.Targets {
			// each target must declare status_unit_id
			if t.StatusUnitID == nil {
				return fmt.Errorf(
					"unit %q: status_slot is set but target %q has no status_unit_id",
					u.ID,
					t.Endpoint,
				)
			}

			key := fmt.Sprintf("%s|%d|%d", t.Endpoint, *t.StatusUnitID, slot)

			if prev, exists := statusOwner[key]; exists {
				return fmt.Errorf(
					"status_slot collision: endpoint=%s status_unit_id=%d slot=%d used by units %q and %q",
					t.Endpoint,
					*t.StatusUnitID,
					slot,
					prev,
					u.ID,
				)
			}

			statusOwner[key] = u.ID
		}
	}

	// ------------------------------------------------------------
	// DESTINATION GEOMETRY VALIDATION
	// ------------------------------------------------------------

	type span struct {
		start int
		end   int
		unit  string
		point string
	}

	// key = endpoint | unit_id | area
	spans := make(map[string][]span)

	for _, u := range cfg.Replicator.Units {
		for _, t := range u.Targets {
			for _, p := range u.Points {
				start := int(t.Offset(p.FC)) + int(p.Address)
				end := start + p.Type.Registers() - 1

				if end > 0xFFFF {
					return fmt.Errorf(
						"unit %q: point %q lands at %d-%d on endpoint=%s, past 65535",
						u.ID, p.Name, start, end, t.Endpoint,
					)
				}

				area := DestinationArea(p.FC)
				key := fmt.Sprintf("%s|%d|%s", t.Endpoint, t.UnitID, area)

				for _, s := range spans[key] {
					// overlap check (inclusive)
					if !(end < s.start || start > s.end) {
						return fmt.Errorf(
							"destination overlap: endpoint=%s unit_id=%d %s range=%d-%d (unit=%s point=%q) overlaps range=%d-%d (unit=%s point=%q)",
							t.Endpoint,
							t.UnitID,
							area,
							start,
							end,
							u.ID,
							p.Name,
							s.start,
							s.end,
							s.unit,
							s.point,
						)
					}
				}

				spans[key] = append(spans[key], span{
					start: start,
					end:   end,
					unit:  u.ID,
					point: p.Name,
				})
			}
		}
	}

	return nil
}

// Spec is the batch read request for p.
func (p PointConfig) Spec() batch.AddressSpec {
	return batch.AddressSpec{
		Address:  p.Address,
		Type:     p.Type,
		Station:  p.Station,
		Function: frame.FunctionCode(p.FC),
	}
}

// DestinationArea names the target table a point is mirrored into.
// Bit points land in coils, register points in holding registers.
func DestinationArea(fc uint8) string {
	if frame.FunctionCode(fc).IsBitRead() {
		return "coils"
	}
	return "holding"
}
