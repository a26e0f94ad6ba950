// internal/transport/conn.go
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout applies when an Endpoint carries no timeout.
const DefaultTimeout = 1500 * time.Millisecond

var (
	ErrTimeout      = errors.New("transport: timed out")
	ErrNotConnected = errors.New("transport: not connected")
	ErrNoEndpoint   = errors.New("transport: endpoint host required")
)

// State is the connection state of a Conn.
type State uint8

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Endpoint is where a Conn dials. Immutable once handed to a Conn.
type Endpoint struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// Address joins host and port; a host that already carries a port is used
// as-is.
func (e Endpoint) Address() string {
	if e.Port == 0 {
		if _, _, err := net.SplitHostPort(e.Host); err == nil {
			return e.Host
		}
		return net.JoinHostPort(e.Host, "502")
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Dialer opens the TCP stream. Tests replace it to inject failures.
type Dialer func(network, address string, timeout time.Duration) (net.Conn, error)

// Conn owns one TCP socket to one endpoint. It is not safe for concurrent
// use; the client serializes access.
type Conn struct {
	ep     Endpoint
	dial   Dialer
	logger zerolog.Logger

	sock  net.Conn
	state State
}

// New returns a disconnected Conn. A nil dialer uses net.DialTimeout.
func New(ep Endpoint, dial Dialer, logger zerolog.Logger) (*Conn, error) {
	if ep.Host == "" {
		return nil, ErrNoEndpoint
	}
	if ep.Timeout <= 0 {
		ep.Timeout = DefaultTimeout
	}
	if dial == nil {
		dial = net.DialTimeout
	}
	return &Conn{
		ep:     ep,
		dial:   dial,
		logger: logger.With().Str("endpoint", ep.Address()).Logger(),
	}, nil
}

// Endpoint returns the configured endpoint.
func (c *Conn) Endpoint() Endpoint { return c.ep }

// State reports whether a socket is currently held.
func (c *Conn) State() State { return c.state }

// Connect drops any existing socket and dials a fresh one.
// On failure no socket is retained.
func (c *Conn) Connect() error {
	c.drop()

	sock, err := c.dial("tcp", c.ep.Address(), c.ep.Timeout)
	if err != nil {
		if sock != nil {
			_ = sock.Close()
		}
		c.logger.Debug().Err(err).Msg("connect failed")
		if isTimeout(err) {
			return fmt.Errorf("%w: connect: %v", ErrTimeout, err)
		}
		return fmt.Errorf("transport: connect %s: %w", c.ep.Address(), err)
	}

	c.sock = sock
	c.state = Connected
	c.logger.Debug().Msg("connected")
	return nil
}

// EnsureConnected connects only when no socket is held.
func (c *Conn) EnsureConnected() error {
	if c.state == Connected {
		return nil
	}
	return c.Connect()
}

// Close releases the socket. Closing a closed Conn is a no-op.
func (c *Conn) Close() error {
	if c.sock == nil {
		c.state = Disconnected
		return nil
	}
	err := c.sock.Close()
	c.sock = nil
	c.state = Disconnected
	c.logger.Debug().Msg("disconnected")
	return err
}

// Send writes all of b before the configured timeout.
func (c *Conn) Send(b []byte) error {
	if c.state != Connected {
		return ErrNotConnected
	}
	if err := c.sock.SetWriteDeadline(time.Now().Add(c.ep.Timeout)); err != nil {
		return c.fail("send", err)
	}
	for len(b) > 0 {
		n, err := c.sock.Write(b)
		if err != nil {
			return c.fail("send", err)
		}
		b = b[n:]
	}
	return nil
}

// ReadFull reads exactly n bytes before the configured timeout.
func (c *Conn) ReadFull(n int) ([]byte, error) {
	if c.state != Connected {
		return nil, ErrNotConnected
	}
	if err := c.sock.SetReadDeadline(time.Now().Add(c.ep.Timeout)); err != nil {
		return nil, c.fail("receive", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.sock, buf); err != nil {
		return nil, c.fail("receive", err)
	}
	return buf, nil
}

// fail classifies an i/o error. Timeouts and broken streams close the
// socket so the next operation reconnects instead of reusing it.
func (c *Conn) fail(op string, err error) error {
	c.drop()
	if isTimeout(err) {
		c.logger.Warn().Str("op", op).Dur("timeout", c.ep.Timeout).Msg("timed out, socket closed")
		return fmt.Errorf("%w: %s after %s", ErrTimeout, op, c.ep.Timeout)
	}
	c.logger.Debug().Str("op", op).Err(err).Msg("i/o error, socket closed")
	return fmt.Errorf("transport: %s: %w", op, err)
}

func (c *Conn) drop() {
	if c.sock != nil {
		_ = c.sock.Close()
	}
	c.sock = nil
	c.state = Disconnected
}

// IsTimeout reports whether err is (or wraps) a transport timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || isTimeout(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
