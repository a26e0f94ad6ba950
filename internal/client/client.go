// internal/client/client.go
package client

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-tcpclient/internal/frame"
	"github.com/tamzrod/modbus-tcpclient/internal/transport"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

// DefaultTimeout is the socket timeout when Config.Timeout is zero.
const DefaultTimeout = 1500 * time.Millisecond

// ErrInvalidArgument marks caller mistakes. Operations return it as a plain
// error, never inside an Outcome.
var ErrInvalidArgument = errors.New("client: invalid argument")

// Config is the immutable client configuration.
type Config struct {
	Host      string
	Port      int
	Timeout   time.Duration
	ByteOrder value.ByteOrder

	// AutoClose opens a connection per public operation and closes it
	// when the operation ends, whatever its result.
	AutoClose bool

	// OnComplete runs at the end of every public operation.
	OnComplete func(op string, ok bool)

	Logger     *zerolog.Logger
	Dialer     transport.Dialer
	CheckHeads frame.CheckHeadSource
}

// Client talks Modbus/TCP to one endpoint over one owned connection.
// Concurrent callers are serialized into back-to-back exchanges.
type Client struct {
	mu    sync.Mutex
	conn  *transport.Conn
	heads frame.CheckHeadSource
	order value.ByteOrder

	autoClose  bool
	onComplete func(op string, ok bool)
	logger     zerolog.Logger
}

// New builds a client. No connection is opened until the first operation.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	conn, err := transport.New(transport.Endpoint{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Timeout: cfg.Timeout,
	}, cfg.Dialer, logger)
	if err != nil {
		return nil, err
	}

	heads := cfg.CheckHeads
	if heads == nil {
		heads = frame.NewRandomSource(0)
	}

	return &Client{
		conn:       conn,
		heads:      heads,
		order:      cfg.ByteOrder,
		autoClose:  cfg.AutoClose,
		onComplete: cfg.OnComplete,
		logger:     logger.With().Str("endpoint", conn.Endpoint().Address()).Logger(),
	}, nil
}

// ByteOrder is the order applied to multi-register values.
func (c *Client) ByteOrder() value.ByteOrder { return c.order }

// Connect opens (or reopens) the connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Connect()
}

// Connected reports whether a socket is currently held.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.State() == transport.Connected
}

// Close releases the connection; the next operation reconnects.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// finish is the end-of-operation hook.
func (c *Client) finish(op string, ok bool) {
	if c.autoClose {
		c.mu.Lock()
		_ = c.conn.Close()
		c.mu.Unlock()
	}
	if c.onComplete != nil {
		c.onComplete(op, ok)
	}
}
