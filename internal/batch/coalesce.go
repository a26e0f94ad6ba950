// internal/batch/coalesce.go
package batch

import (
	"fmt"
	"sort"

	"github.com/tamzrod/modbus-tcpclient/internal/frame"
	"github.com/tamzrod/modbus-tcpclient/internal/outcome"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

// ReadFunc performs one contiguous read and returns the data bytes
// (register bytes for FC 3/4, the packed bitmap for FC 1/2).
type ReadFunc func(addr uint16, station uint8, fc frame.FunctionCode, count uint16) outcome.Outcome[[]byte]

// Window is one planned read and the values sliced out of it.
type Window struct {
	Start uint16
	Count uint16
	Specs []AddressSpec
}

type groupKey struct {
	fc      frame.FunctionCode
	station uint8
}

// Partition groups specs by (function code, station), in first-seen order.
func Partition(specs []AddressSpec) [][]AddressSpec {
	var order []groupKey
	groups := make(map[groupKey][]AddressSpec)

	for _, s := range specs {
		k := groupKey{fc: s.Function, station: s.Station}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], s)
	}

	out := make([][]AddressSpec, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}

// Plan computes the reads for one partition.
//
// Starting at the lowest pending address, every value starting inside a
// window of frame.BatchWindow registers is served by one read whose length
// is stretched to cover the widest value; values that start past the window
// but still fit inside that read ride along. The next read starts at the
// first value not yet served. No read exceeds frame.MaxReadRegisters.
func Plan(specs []AddressSpec) ([]Window, error) {
	pending := uniqueSorted(specs)
	for _, s := range pending {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	served := make([]bool, len(pending))
	var windows []Window

	for i := 0; i < len(pending); {
		start := int(pending[i].Address)
		limit := start + frame.BatchWindow

		end := start
		for j := i; j < len(pending) && int(pending[j].Address) <= limit; j++ {
			if !served[j] && pending[j].end() > end {
				end = pending[j].end()
			}
		}

		w := Window{Start: uint16(start), Count: uint16(end - start)}
		for j := i; j < len(pending) && int(pending[j].Address) < end; j++ {
			if !served[j] && pending[j].end() <= end {
				w.Specs = append(w.Specs, pending[j])
				served[j] = true
			}
		}
		windows = append(windows, w)

		for i < len(pending) && served[i] {
			i++
		}
	}

	return windows, nil
}

// uniqueSorted orders specs by address, then width, dropping duplicates.
func uniqueSorted(specs []AddressSpec) []AddressSpec {
	seen := make(map[AddressSpec]bool, len(specs))
	out := make([]AddressSpec, 0, len(specs))
	for _, s := range specs {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Address != out[j].Address {
			return out[i].Address < out[j].Address
		}
		return out[i].Type.Registers() < out[j].Type.Registers()
	})
	return out
}

// Read resolves every spec with as few reads as the window allows.
//
// The returned error is non-nil only for invalid specs; nothing is read in
// that case. A failed read discards its whole (function code, station)
// partition and is reported in the outcome; other partitions still return
// their values.
func Read(read ReadFunc, order value.ByteOrder, specs []AddressSpec) (outcome.Outcome[[]Result], error) {
	parts := Partition(specs)

	plans := make([][]Window, len(parts))
	for i, p := range parts {
		w, err := Plan(p)
		if err != nil {
			return outcome.Outcome[[]Result]{}, err
		}
		plans[i] = w
	}

	res := outcome.Ok([]Result{})
	for i, windows := range plans {
		fc, station := parts[i][0].Function, parts[i][0].Station

		var got []Result
		failed := false
		for _, w := range windows {
			o := read(w.Start, station, fc, w.Count)
			if !o.Success {
				for _, msg := range o.Errors {
					res = res.Append(o.Kind, fmt.Sprintf("fc=%d station=%d addr=%d count=%d: %s",
						fc, station, w.Start, w.Count, msg))
				}
				failed = true
				break
			}

			rs, err := decode(w, o.Value, fc, station, order)
			if err != nil {
				res = res.Append(outcome.KindProtocol, fmt.Sprintf("fc=%d station=%d addr=%d: %v",
					fc, station, w.Start, err))
				failed = true
				break
			}
			got = append(got, rs...)
		}

		if !failed {
			res.Value = append(res.Value, got...)
		}
	}

	return res, nil
}

// decode slices each value of w out of the merged read buffer.
func decode(w Window, data []byte, fc frame.FunctionCode, station uint8, order value.ByteOrder) ([]Result, error) {
	out := make([]Result, 0, len(w.Specs))

	for _, s := range w.Specs {
		offset := int(s.Address - w.Start)

		var v any
		var err error
		if fc.IsBitRead() {
			v, err = value.BitAt(data, offset)
		} else {
			var raw []byte
			raw, err = value.Extract(data, 2*offset, s.Type.Bytes())
			if err == nil {
				v, err = value.Decode(s.Type, raw, order)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("address %d (%v): %w", s.Address, s.Type, err)
		}

		out = append(out, Result{
			Address:  s.Address,
			Station:  station,
			Function: fc,
			Type:     s.Type,
			Value:    v,
		})
	}

	return out, nil
}
