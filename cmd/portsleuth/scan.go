package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/portsleuth/portsleuth/internal/classify"
	"github.com/portsleuth/portsleuth/internal/config"
	"github.com/portsleuth/portsleuth/internal/history"
	"github.com/portsleuth/portsleuth/internal/log"
	"github.com/portsleuth/portsleuth/internal/model"
	"github.com/portsleuth/portsleuth/internal/probe"
	"github.com/portsleuth/portsleuth/internal/report"
	"github.com/portsleuth/portsleuth/internal/resolver"
	"github.com/portsleuth/portsleuth/internal/scan"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a TCP port range on a target host",
		Long: `Scan probes every TCP port in the given range on one target and
classifies what answers on each open port:
- Ethereum JSON-RPC nodes (web3_clientVersion exchange)
- HTTP web servers and REST/GraphQL API endpoints
- SSH, FTP, and SMTP daemons (greeting banners)
- Conventional debug/remote-protocol ports

Hostname targets are resolved over DNS (8.8.8.8 with 1.1.1.1 fallback).

Examples:
  # Scan the well-known ports on a host
  portsleuth scan --target example.com

  # Scan a custom range with more parallelism
  portsleuth scan --target 192.0.2.1 --start-port 8000 --end-port 9000 --concurrent-limit 200

  # Route probes through a SOCKS5 proxy
  portsleuth scan --target example.com --proxy 127.0.0.1:1080

  # Output JSON report to a file
  portsleuth scan --target example.com --json -o report.json

Settings file (.portsleuth) example:
  classifier:
    rpc_ports: [8545, 8546]
    prefer_api: false
  resolver:
    primary: 9.9.9.9:53`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Target and range flags
	cmd.Flags().String("target", "",
		"Host to scan: IP address or hostname (required)")
	cmd.Flags().IntP("start-port", "s", config.DefaultStartPort,
		"First port of the scan range")
	cmd.Flags().IntP("end-port", "e", config.DefaultEndPort,
		"Last port of the scan range")

	// Scan behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each probe")
	cmd.Flags().IntP("concurrent-limit", "l", config.DefaultConcurrency,
		"Maximum number of simultaneous probes")
	cmd.Flags().Duration("probe-timeout", config.DefaultProbeTimeout,
		"Read/write timeout for each classification exchange")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address for all probes (e.g., 127.0.0.1:1080)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Settings file path (default: .portsleuth in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("show-closed", false,
		"Include closed and errored ports in the console report")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not save the report to the scan history database")

	_ = cmd.MarkFlagRequired("target") //nolint:errcheck // Flag is registered above

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	showClosed, err := cmd.Flags().GetBool("show-closed")
	if err != nil {
		return err
	}

	return runScan(ctx, cfg, showClosed, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Target, err = cmd.Flags().GetString("target")
	if err != nil {
		return nil, err
	}

	cfg.StartPort, err = cmd.Flags().GetInt("start-port")
	if err != nil {
		return nil, err
	}

	cfg.EndPort, err = cmd.Flags().GetInt("end-port")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrent-limit")
	if err != nil {
		return nil, err
	}

	cfg.ProbeTimeout, err = cmd.Flags().GetDuration("probe-timeout")
	if err != nil {
		return nil, err
	}

	cfg.ProxyAddress, err = cmd.Flags().GetString("proxy")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load classifier/resolver tuning from the settings file.
	// An explicitly specified file must exist; an absent default file is
	// not an error.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("settings file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runScan resolves the target, runs the scan, and emits the report.
func runScan(ctx context.Context, cfg *config.Config, showClosed bool, logger *slog.Logger) error {
	res := resolver.New(cfg.PrimaryResolver, cfg.FallbackResolver,
		resolver.WithTimeout(cfg.ResolveTimeout),
		resolver.WithLogger(logger),
	)

	ip, err := res.Resolve(ctx, cfg.Target)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", cfg.Target, err)
	}
	addr := ip.String()

	var dialer probe.Dialer = &net.Dialer{}
	if cfg.ProxyAddress != "" {
		dialer, err = probe.NewSOCKS5Dialer(cfg.ProxyAddress)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		logger.Info("probing through proxy", "proxy", cfg.ProxyAddress)
	}

	prober := probe.New(addr, cfg.Timeout,
		probe.WithDialer(dialer),
		probe.WithLogger(logger),
	)
	classifier := classify.New(addr, dialer,
		classify.Settings{
			RPCPorts:   cfg.RPCPorts,
			DebugPorts: cfg.DebugPorts,
			PreferAPI:  cfg.PreferAPI,
			Timeout:    cfg.ProbeTimeout,
		},
		classify.WithLogger(logger),
	)
	scanner := scan.New(prober, classifier, cfg.Concurrency,
		scan.WithLogger(logger),
	)

	job := scan.Job{
		Target:    cfg.Target,
		Addr:      addr,
		StartPort: cfg.StartPort,
		EndPort:   cfg.EndPort,
	}

	fmt.Fprintf(os.Stderr, "Scanning %s (%s) ports %d-%d...\n",
		cfg.Target, addr, cfg.StartPort, cfg.EndPort)
	started := time.Now()

	scanReport, err := scanner.Run(ctx, job, newProgressPrinter(os.Stderr))
	if err != nil && scanReport == nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	cancelled := err != nil

	fmt.Fprintf(os.Stderr, "\nScan completed in %s\n\n", time.Since(started).Round(time.Millisecond))

	if outErr := outputReport(cfg, showClosed, scanReport); outErr != nil {
		logger.Error("report failed", "target", cfg.Target, "error", outErr)
		return outErr
	}

	if saveErr := saveScanReport(cfg, scanReport, logger); saveErr != nil {
		logger.Error("failed to save scan report", "target", cfg.Target, "error", saveErr)
	}

	if cancelled {
		return fmt.Errorf("scan interrupted: %w", err)
	}
	return nil
}

// newProgressPrinter returns a progress callback that announces open
// ports as they are found and keeps a running counter on one line.
func newProgressPrinter(w *os.File) scan.ProgressFunc {
	green := color.New(color.FgGreen)
	return func(completed, total int, outcome model.PortOutcome) {
		if outcome.IsOpen() {
			label := "unknown"
			if outcome.Service != nil {
				label = outcome.Service.Service.String()
			}
			fmt.Fprintf(w, "\r\033[K%s %d/tcp open  %s\n", green.Sprint("[+]"), outcome.Port, label)
		}
		fmt.Fprintf(w, "\rProgress: %d/%d ports", completed, total)
	}
}

// outputReport outputs the scan report in the requested format.
func outputReport(cfg *config.Config, showClosed bool, scanReport *model.ScanReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// 0600: scan results reveal a host's attack surface.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(scanReport)
		return err
	}

	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(scanReport)
		return err
	}

	// Human-readable report (default)
	opts := []report.ConsoleWriterOption{report.WithShowClosed(showClosed)}
	if cfg.ReportFile != "" {
		opts = append(opts, report.WithNoColor(true))
	}
	writer := report.NewConsoleWriter(output, opts...)
	_, err := writer.Write(scanReport)
	return err
}

// saveScanReport saves the scan report to the history database if enabled.
func saveScanReport(cfg *config.Config, scanReport *model.ScanReport, logger *slog.Logger) error {
	if !cfg.SaveToDB {
		return nil
	}

	db, err := history.Open(cfg.DBDir, history.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	// Persistence outruns a cancelled scan context.
	if err := db.SaveReport(context.Background(), scanReport); err != nil {
		return err
	}

	logger.Info("scan report saved", "scanID", scanReport.ScanID, "dir", cfg.DBDir)
	return nil
}
