// Package main provides the entry point for the portsleuth CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for portsleuth.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portsleuth",
		Short: "TCP port scanner with service classification",
		Long: `Portsleuth probes a TCP port range on a single target and classifies
what answers on each open port: web servers, REST/GraphQL APIs,
Ethereum JSON-RPC nodes, SSH/FTP/SMTP daemons, and exposed debug ports.

Hostname targets are resolved over DNS with a public-resolver fallback.
Completed scans are stored in a local history database for later review.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
