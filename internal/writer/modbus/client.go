// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

const coilOn uint16 = 0xFF00

// EndpointClient is a single TCP connection to one replication target.
// It serializes requests because it mutates SlaveId per write.
type EndpointClient struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
	logger  zerolog.Logger
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient prepares a client. The connection is opened by the
// first write and reopened after a transport failure.
func NewEndpointClient(cfg Config, logger zerolog.Logger) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}

	return &EndpointClient{
		handler: h,
		client:  modbus.NewClient(h),
		logger:  logger.With().Str("target", cfg.Endpoint).Logger(),
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteCoils writes a run of coils; a single coil uses FC 5.
func (c *EndpointClient) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	var err error
	if len(bits) == 1 {
		var v uint16
		if bits[0] {
			v = coilOn
		}
		_, err = c.client.WriteSingleCoil(addr, v)
	} else {
		_, err = c.client.WriteMultipleCoils(addr, uint16(len(bits)), packBits(bits))
	}
	return c.done("write coils", err)
}

func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), value.FromRegisters(regs))
	return c.done("write registers", err)
}

// done drops the connection after anything but a device exception, so the
// next write starts on a fresh socket.
func (c *EndpointClient) done(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *modbus.ModbusError
	if !errors.As(err, &me) {
		_ = c.handler.Close()
	}
	c.logger.Warn().Err(err).Str("op", op).Uint8("unit_id", c.handler.SlaveId).Msg("target write failed")
	return fmt.Errorf("writer modbus: %s: %w", op, err)
}

func packBits(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
