// cmd/mbclient/main.go

// Command mbclient is a Modbus/TCP command-line client and the launcher for
// the register replicator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "mbclient",
		Short: "Modbus/TCP client and register replicator",
		Long: `mbclient reads and writes registers and coils on a Modbus/TCP device,
coalesces batches of typed values into as few reads as possible, and can run
the replicator that mirrors polled values into other Modbus/TCP targets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.register(rootCmd)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newReadCmd(g))
	rootCmd.AddCommand(newWriteCmd(g))
	rootCmd.AddCommand(newCoilCmd(g))
	rootCmd.AddCommand(newBatchCmd(g))
	rootCmd.AddCommand(newReplicateCmd(g))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
