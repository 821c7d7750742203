package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/portsleuth/portsleuth/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/portsleuth.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new portsleuth settings file",
		Long: `Initialize creates a new .portsleuth settings file in the current directory.

The generated file includes commented examples for all tunable options:
classifier port sets, API relabeling, and DNS resolver servers.

Examples:
  # Create .portsleuth in current directory
  portsleuth init

  # Create settings file at a specific path
  portsleuth init -o mysettings.yaml

  # Force overwrite existing file
  portsleuth init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the settings file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing settings file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("settings file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/portsleuth.yaml")
	if err != nil {
		return fmt.Errorf("failed to read settings template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created settings file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to tune:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Ethereum RPC and debug port sets")
	fmt.Fprintln(cmd.OutOrStdout(), "  - API endpoint relabeling")
	fmt.Fprintln(cmd.OutOrStdout(), "  - DNS resolver servers and timeout")

	return nil
}
