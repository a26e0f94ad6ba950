// internal/client/ops.go
package client

import (
	"fmt"

	"github.com/tamzrod/modbus-tcpclient/internal/batch"
	"github.com/tamzrod/modbus-tcpclient/internal/frame"
	"github.com/tamzrod/modbus-tcpclient/internal/outcome"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

// MaxReadBits is the largest quantity one FC 1/2 read may request.
const MaxReadBits = 2000

// Read reads count registers (or bits, for FC 1/2) starting at addr.
// With applyOrder the register bytes are converted from the client's byte
// order to canonical big-endian before they are returned.
func (c *Client) Read(addr uint16, station uint8, fc frame.FunctionCode, count uint16, applyOrder bool) (res outcome.Outcome[[]byte], err error) {
	if err := checkRead(addr, fc, count); err != nil {
		return res, err
	}
	defer func() { c.finish("read", res.Success) }()

	res = c.read(addr, station, fc, count)
	if res.Success && applyOrder && !fc.IsBitRead() {
		res.Value = value.Reorder(res.Value, c.order)
	}
	return res, nil
}

// Write writes raw register bytes, already in wire order, starting at addr.
func (c *Client) Write(addr uint16, data []byte, station uint8, fc frame.FunctionCode) (res outcome.Outcome[struct{}], err error) {
	cmd, err := frame.BuildWriteRegisters(c.heads.Next(), station, fc, addr, data)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if int(addr)+len(data)/2 > 0x10000 {
		return res, fmt.Errorf("%w: %d registers at %d run past 65535", ErrInvalidArgument, len(data)/2, addr)
	}
	defer func() { c.finish("write", res.Success) }()

	return c.execWrite(cmd), nil
}

// WriteCoil sets one coil.
func (c *Client) WriteCoil(addr uint16, on bool, station uint8, fc frame.FunctionCode) (outcome.Outcome[struct{}], error) {
	cmd := frame.BuildWriteCoil(c.heads.Next(), station, fc, addr, on)
	res := c.execWrite(cmd)
	c.finish("write_coil", res.Success)
	return res, nil
}

// BatchRead reads every spec with the fewest reads the batch window allows.
// The error is non-nil only for invalid specs, in which case nothing is read.
func (c *Client) BatchRead(specs []batch.AddressSpec) (outcome.Outcome[[]batch.Result], error) {
	res, err := batch.Read(c.read, c.order, specs)
	if err != nil {
		return res, err
	}
	c.finish("batch_read", res.Success)
	return res, nil
}

// read is the unhooked read path shared by Read and BatchRead.
func (c *Client) read(addr uint16, station uint8, fc frame.FunctionCode, count uint16) outcome.Outcome[[]byte] {
	cmd := frame.BuildRead(c.heads.Next(), station, fc, addr, count)

	resp, err := c.exchange(cmd)
	if err != nil {
		return failed[[]byte](err, cmd, resp)
	}
	if _, err := frame.Check(cmd, resp); err != nil {
		c.logger.Debug().Err(err).Uint8("station", station).Uint16("addr", addr).Msg("read rejected")
		return failed[[]byte](err, cmd, resp)
	}
	data, err := frame.ReadPayload(resp, fc, count)
	if err != nil {
		return failed[[]byte](err, cmd, resp)
	}
	return outcome.Ok(data).WithFrames(cmd, resp)
}

func (c *Client) execWrite(cmd []byte) outcome.Outcome[struct{}] {
	resp, err := c.exchange(cmd)
	if err != nil {
		return failed[struct{}](err, cmd, resp)
	}
	if _, err := frame.Check(cmd, resp); err != nil {
		c.logger.Debug().Err(err).Msg("write rejected")
		return failed[struct{}](err, cmd, resp)
	}
	return outcome.Ok(struct{}{}).WithFrames(cmd, resp)
}

func checkRead(addr uint16, fc frame.FunctionCode, count uint16) error {
	limit := uint16(frame.MaxReadRegisters)
	if fc.IsBitRead() {
		limit = MaxReadBits
	}
	if count == 0 || count > limit {
		return fmt.Errorf("%w: count %d (1..%d)", ErrInvalidArgument, count, limit)
	}
	if int(addr)+int(count) > 0x10000 {
		return fmt.Errorf("%w: %d items at %d run past 65535", ErrInvalidArgument, count, addr)
	}
	return nil
}
