package config

import (
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Connect and probe timeouts are tuned for
// clearnet hosts; they are deliberately short because every port in the
// range pays them on the unhappy path.
const (
	// DefaultStartPort is the first port of the default scan range.
	DefaultStartPort = 1

	// DefaultEndPort is the last port of the default scan range.
	// 1-1024 covers the well-known ports, which is the usual audit scope.
	DefaultEndPort = 1024

	// DefaultTimeout is the per-connection timeout. One second is enough
	// for a TCP handshake on any responsive host; a longer value mostly
	// slows down scans of filtered ranges.
	DefaultTimeout = 1 * time.Second

	// DefaultConcurrency is the maximum number of in-flight probes.
	// 100 keeps a 1024-port scan fast without exhausting file descriptors
	// on default ulimits.
	DefaultConcurrency = 100

	// DefaultProbeTimeout is the read/write timeout for each classification
	// exchange. It is independent of the connect timeout so slow
	// classification cannot stall the scan.
	DefaultProbeTimeout = 500 * time.Millisecond

	// DefaultPrimaryResolver is the DNS server tried first for hostname
	// targets. Google public DNS, matching common scanner practice.
	DefaultPrimaryResolver = "8.8.8.8:53"

	// DefaultFallbackResolver is tried once when the primary fails or
	// times out. Cloudflare public DNS.
	DefaultFallbackResolver = "1.1.1.1:53"

	// DefaultResolveTimeout bounds each DNS query.
	DefaultResolveTimeout = 3 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "portsleuth"
)

// DefaultRPCPorts is the port range where the Ethereum JSON-RPC probe is
// attempted first. 8545 is the conventional RPC port; nodes behind
// proxies commonly use the adjacent ports.
func DefaultRPCPorts() []int {
	return []int{8545, 8546, 8547, 8548, 8549}
}

// DefaultDebugPorts is the set of ports flagged as debug/remote-protocol
// endpoints when no other strategy matches. These are conventional ports
// for remote debuggers and ad-hoc remote shells.
func DefaultDebugPorts() []int {
	return []int{1234, 4444, 5555, 6666, 7777, 9229}
}

// Config holds all configuration options for a scan run.
// It is populated from CLI flags (and optionally a .portsleuth file) and
// passed through the application via dependency injection rather than
// global state. It is immutable once validated.
type Config struct {
	// Target is the host to scan: a literal IPv4/IPv6 address or a
	// hostname to be resolved.
	Target string

	// StartPort and EndPort define the inclusive port range to scan.
	// Both must be in 1..65535 with StartPort <= EndPort.
	StartPort int
	EndPort   int

	// Timeout is the per-connection timeout for each probe.
	// It bounds the TCP handshake, not the whole scan.
	Timeout time.Duration

	// Concurrency is the maximum number of simultaneously in-flight
	// probe+classify units. Must be at least 1.
	Concurrency int

	// ProbeTimeout is the read/write timeout for each classification
	// exchange, independent of the connect timeout.
	ProbeTimeout time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// When set, all probes are dialed through the proxy.
	ProxyAddress string

	// PrimaryResolver and FallbackResolver are the DNS servers used for
	// hostname targets, in "host:port" format. The fallback is queried
	// once when the primary fails or times out.
	PrimaryResolver  string
	FallbackResolver string

	// ResolveTimeout bounds each DNS query.
	ResolveTimeout time.Duration

	// RPCPorts is the port set where the Ethereum JSON-RPC probe runs
	// before the HTTP probe.
	RPCPorts []int

	// DebugPorts is the port set labeled debug/remote when no active
	// strategy matches.
	DebugPorts []int

	// PreferAPI relabels HTTP services as API endpoints when the response
	// carries REST/GraphQL signatures. When false, such services keep the
	// plain HTTP label.
	PreferAPI bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the console format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// ConfigFilePath is the path to the .portsleuth settings file.
	// If empty, the tool searches the current directory and then the
	// user's home directory.
	ConfigFilePath string

	// SaveToDB indicates whether to persist the final report to the
	// scan history database.
	SaveToDB bool

	// DBDir is the directory holding the SQLite history database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig creates a new Config with default values.
// Callers override specific fields from CLI flags after creation.
func NewConfig() *Config {
	return &Config{
		StartPort:        DefaultStartPort,
		EndPort:          DefaultEndPort,
		Timeout:          DefaultTimeout,
		Concurrency:      DefaultConcurrency,
		ProbeTimeout:     DefaultProbeTimeout,
		PrimaryResolver:  DefaultPrimaryResolver,
		FallbackResolver: DefaultFallbackResolver,
		ResolveTimeout:   DefaultResolveTimeout,
		RPCPorts:         DefaultRPCPorts(),
		DebugPorts:       DefaultDebugPorts(),
		PreferAPI:        true,
		SaveToDB:         true,
		DBDir:            XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for portsleuth.
// On Linux: ~/.local/share/portsleuth
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for portsleuth.
// On Linux: ~/.config/portsleuth
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It is called once after CLI parsing, before any network activity, and
// returns the first problem found as a sentinel error (optionally wrapped
// with detail).
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return ErrNoTarget
	}

	// Port range must be within 1..65535 with start <= end
	if c.StartPort < 1 || c.StartPort > 65535 ||
		c.EndPort < 1 || c.EndPort > 65535 ||
		c.StartPort > c.EndPort {
		return ErrInvalidPortRange
	}

	// Timeout must be positive; zero would fail every handshake
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.ProbeTimeout <= 0 {
		return ErrInvalidProbeTimeout
	}

	// Concurrency must be at least one slot
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.ProxyAddress != "" {
		if _, _, err := net.SplitHostPort(c.ProxyAddress); err != nil {
			return ErrInvalidProxyAddress
		}
	}

	return nil
}
