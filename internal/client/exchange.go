// internal/client/exchange.go
package client

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-tcpclient/internal/frame"
	"github.com/tamzrod/modbus-tcpclient/internal/outcome"
	"github.com/tamzrod/modbus-tcpclient/internal/transport"
)

// errConnect wraps a failed (re)connect so callers can tell it apart from
// a failure on an open socket.
var errConnect = errors.New("client: connect failed")

// exchange performs one request/response cycle and returns the full
// response frame (header and body).
//
// The client lock is held for the whole cycle so concurrent callers never
// interleave frames on the socket. A failed send is retried once on a fresh
// connection; a failed header read is recovered once by reconnecting,
// resending and reading again. Timeouts are not retried: the socket is
// closed and the next operation reconnects.
func (c *Client) exchange(cmd []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.EnsureConnected(); err != nil {
		return nil, fmt.Errorf("%w: %w", errConnect, err)
	}

	if err := c.conn.Send(cmd); err != nil {
		if transport.IsTimeout(err) {
			return nil, err
		}
		c.logger.Debug().Err(err).Msg("send failed, reconnecting")
		if err := c.resend(cmd); err != nil {
			return nil, err
		}
	}

	header, err := c.conn.ReadFull(frame.HeaderSize)
	if err != nil {
		if transport.IsTimeout(err) {
			return nil, err
		}
		c.logger.Debug().Err(err).Msg("header read failed, reconnecting")
		if err := c.resend(cmd); err != nil {
			return nil, err
		}
		if header, err = c.conn.ReadFull(frame.HeaderSize); err != nil {
			return nil, err
		}
	}

	h, err := frame.ParseHeader(header)
	if err != nil {
		// The stream can no longer be trusted.
		_ = c.conn.Close()
		return header, err
	}

	body, err := c.conn.ReadFull(h.BodyLength())
	if err != nil {
		return header, err
	}
	return append(header, body...), nil
}

func (c *Client) resend(cmd []byte) error {
	if err := c.conn.Connect(); err != nil {
		return fmt.Errorf("%w: %w", errConnect, err)
	}
	return c.conn.Send(cmd)
}

// kindOf maps an exchange or validation error onto an outcome kind.
func kindOf(err error) outcome.Kind {
	var exc *frame.ExceptionError
	switch {
	case errors.Is(err, errConnect):
		return outcome.KindConnect
	case transport.IsTimeout(err):
		return outcome.KindTimeout
	case errors.Is(err, frame.ErrCheckHeadMismatch):
		return outcome.KindValidation
	case errors.As(err, &exc):
		return outcome.KindException
	case errors.Is(err, frame.ErrBadLength),
		errors.Is(err, frame.ErrShortFrame),
		errors.Is(err, frame.ErrFunctionMismatch),
		errors.Is(err, frame.ErrByteCount):
		return outcome.KindProtocol
	default:
		return outcome.KindTransport
	}
}

// failed builds the soft-failure outcome for err, keeping the frames seen.
func failed[T any](err error, req, resp []byte) outcome.Outcome[T] {
	return outcome.FromError[T](kindOf(err), err).WithFrames(req, resp)
}
