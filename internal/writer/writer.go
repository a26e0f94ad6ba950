// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tamzrod/modbus-tcpclient/internal/frame"
	"github.com/tamzrod/modbus-tcpclient/internal/poller"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

// Per-request limits on the target side.
const (
	maxRegistersPerWrite = frame.MaxWriteRegisters
	maxCoilsPerWrite     = 1968
)

type modbusWriter struct {
	plan    Plan
	clients map[string]EndpointClient
}

func New(plan Plan, clients map[string]EndpointClient) Writer {
	return &modbusWriter{
		plan:    plan,
		clients: clients,
	}
}

// block is one contiguous write on a target.
type block struct {
	coils bool
	addr  uint16
	regs  []uint16
	bits  []bool
}

func (b block) size() int {
	if b.coils {
		return len(b.bits)
	}
	return len(b.regs)
}

// Write mirrors the values of a successful cycle to every target.
// A failed cycle writes nothing; stale data stays in place.
func (w *modbusWriter) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	var errs []string

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf(
				"writer: missing client for endpoint %s",
				tgt.Endpoint,
			))
			continue
		}

		blocks, err := w.blocks(tgt, res.Values)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		for _, b := range blocks {
			var err error
			if b.coils {
				err = cli.WriteCoils(tgt.UnitID, b.addr, b.bits)
			} else {
				err = cli.WriteRegisters(tgt.UnitID, b.addr, b.regs)
			}
			if err != nil {
				errs = append(errs, fmt.Sprintf(
					"writer: ep=%s unit=%d coils=%t addr=%d qty=%d err=%v",
					tgt.Endpoint, tgt.UnitID, b.coils, b.addr, b.size(), err,
				))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}

	return nil
}

// blocks places every value at its destination address and merges
// neighbours into as few writes as the per-request limits allow.
func (w *modbusWriter) blocks(tgt TargetEndpoint, values []poller.Value) ([]block, error) {
	items := make([]block, 0, len(values))

	for _, v := range values {
		dst := offsetForFC(tgt.Offsets, uint8(v.Function)) + v.Address

		if v.Type == value.Bit {
			on, ok := v.Value.(bool)
			if !ok {
				return nil, fmt.Errorf("writer: point %q: bit value is %T", v.Name, v.Value)
			}
			items = append(items, block{coils: true, addr: dst, bits: []bool{on}})
			continue
		}

		raw, err := value.Encode(v.Type, v.Value, w.plan.Order)
		if err != nil {
			return nil, fmt.Errorf("writer: point %q: %w", v.Name, err)
		}
		regs, err := value.ToRegisters(raw)
		if err != nil {
			return nil, fmt.Errorf("writer: point %q: %w", v.Name, err)
		}
		items = append(items, block{addr: dst, regs: regs})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].coils != items[j].coils {
			return !items[i].coils
		}
		return items[i].addr < items[j].addr
	})

	var out []block
	for _, it := range items {
		if n := len(out); n > 0 {
			last := &out[n-1]
			limit := maxRegistersPerWrite
			if last.coils {
				limit = maxCoilsPerWrite
			}
			if last.coils == it.coils &&
				int(last.addr)+last.size() == int(it.addr) &&
				last.size()+it.size() <= limit {
				last.regs = append(last.regs, it.regs...)
				last.bits = append(last.bits, it.bits...)
				continue
			}
		}
		out = append(out, it)
	}

	return out, nil
}

func offsetForFC(offsets map[int]uint16, fc uint8) uint16 {
	if offsets == nil {
		return 0
	}
	if v, ok := offsets[int(fc)]; ok {
		return v
	}
	return 0
}
