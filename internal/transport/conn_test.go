// internal/transport/conn_test.go
package transport

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// echoListener accepts connections and echoes what it reads, unless mute.
func echoListener(t *testing.T, mute bool) (net.Listener, func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				if mute {
					<-done
					return
				}
				_, _ = io.Copy(c, c)
			}(c)
		}
	}()

	return ln, func() {
		close(done)
		_ = ln.Close()
	}
}

func countingDialer(n *int32) Dialer {
	return func(network, address string, timeout time.Duration) (net.Conn, error) {
		atomic.AddInt32(n, 1)
		return net.DialTimeout(network, address, timeout)
	}
}

func TestEndpointAddress(t *testing.T) {
	cases := []struct {
		ep   Endpoint
		want string
	}{
		{Endpoint{Host: "10.0.0.1", Port: 502}, "10.0.0.1:502"},
		{Endpoint{Host: "10.0.0.1:1502"}, "10.0.0.1:1502"},
		{Endpoint{Host: "plc.local"}, "plc.local:502"},
		{Endpoint{Host: "::1", Port: 5020}, "[::1]:5020"},
	}
	for _, tc := range cases {
		if got := tc.ep.Address(); got != tc.want {
			t.Fatalf("Address(%+v): got=%q want=%q", tc.ep, got, tc.want)
		}
	}
}

func TestNew_RequiresHost(t *testing.T) {
	if _, err := New(Endpoint{}, nil, zerolog.Nop()); !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("expected ErrNoEndpoint, got %v", err)
	}
}

func TestConnect_FailureLeavesNoSocket(t *testing.T) {
	dial := func(network, address string, timeout time.Duration) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}
	c, err := New(Endpoint{Host: "127.0.0.1", Port: 1}, dial, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.Connect(); err == nil {
		t.Fatalf("expected connect error")
	}
	if c.State() != Disconnected || c.sock != nil {
		t.Fatalf("dangling socket after failed connect: state=%v", c.State())
	}
	if err := c.Send([]byte{1}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSendReadFull_Echo(t *testing.T) {
	ln, stop := echoListener(t, false)
	defer stop()

	c, _ := New(Endpoint{Host: ln.Addr().String(), Timeout: time.Second}, nil, zerolog.Nop())
	if err := c.EnsureConnected(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	msg := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := c.Send(msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := c.ReadFull(len(msg))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("echo mismatch: got=% x", got)
	}
}

func TestEnsureConnected_ReusesSocket(t *testing.T) {
	ln, stop := echoListener(t, false)
	defer stop()

	var dials int32
	c, _ := New(Endpoint{Host: ln.Addr().String()}, countingDialer(&dials), zerolog.Nop())
	defer c.Close()

	for i := 0; i < 3; i++ {
		if err := c.EnsureConnected(); err != nil {
			t.Fatalf("connect: %v", err)
		}
	}
	if dials != 1 {
		t.Fatalf("expected 1 dial, got %d", dials)
	}
}

func TestReadFull_TimeoutClosesSocket(t *testing.T) {
	ln, stop := echoListener(t, true)
	defer stop()

	var dials int32
	c, _ := New(Endpoint{Host: ln.Addr().String(), Timeout: 50 * time.Millisecond}, countingDialer(&dials), zerolog.Nop())
	defer c.Close()

	if err := c.EnsureConnected(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := c.ReadFull(8); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !IsTimeout(errors.Join(errors.New("ctx"), ErrTimeout)) {
		t.Fatalf("IsTimeout must see wrapped timeouts")
	}
	if c.State() != Disconnected {
		t.Fatalf("timeout must close the socket")
	}

	if err := c.EnsureConnected(); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if dials != 2 {
		t.Fatalf("expected a fresh dial after timeout, got %d dials", dials)
	}
}

func TestClose_Idempotent(t *testing.T) {
	ln, stop := echoListener(t, false)
	defer stop()

	c, _ := New(Endpoint{Host: ln.Addr().String()}, nil, zerolog.Nop())
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
