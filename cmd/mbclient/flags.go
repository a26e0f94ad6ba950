// cmd/mbclient/flags.go
package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-tcpclient/internal/client"
	"github.com/tamzrod/modbus-tcpclient/internal/logging"
	"github.com/tamzrod/modbus-tcpclient/internal/outcome"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	host      string
	port      int
	timeoutMs int
	byteOrder string
	logLevel  string
	pretty    bool
}

func (g *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&g.host, "host", "", "Device host or host:port")
	pf.IntVar(&g.port, "port", 0, "Device port (default 502 unless --host carries one)")
	pf.IntVar(&g.timeoutMs, "timeout", 1500, "Socket timeout in milliseconds")
	pf.StringVar(&g.byteOrder, "byte-order", "ABCD", "Multi-register byte order: ABCD, BADC, CDAB or DCBA")
	pf.StringVar(&g.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.BoolVar(&g.pretty, "pretty", false, "Human-readable log output")
}

func (g *globalFlags) logger(cmd *cobra.Command) (zerolog.Logger, error) {
	return logging.New(g.logLevel, g.pretty, cmd.ErrOrStderr())
}

func (g *globalFlags) order() (value.ByteOrder, error) {
	return value.ParseByteOrder(g.byteOrder)
}

// client builds a client for the one-shot subcommands.
func (g *globalFlags) client(cmd *cobra.Command) (*client.Client, error) {
	if g.host == "" {
		return nil, missingFlagError(cmd, "--host")
	}
	order, err := g.order()
	if err != nil {
		return nil, err
	}
	log, err := g.logger(cmd)
	if err != nil {
		return nil, err
	}
	return client.New(client.Config{
		Host:      g.host,
		Port:      g.port,
		Timeout:   time.Duration(g.timeoutMs) * time.Millisecond,
		ByteOrder: order,
		Logger:    &log,
	})
}

// failure turns a failed outcome into the command's error.
func failure[T any](op string, o outcome.Outcome[T]) error {
	if o.Success {
		return nil
	}
	return fmt.Errorf("%s failed (%s): %v", op, o.Kind, o.Err())
}
