package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration. They are
// package-level sentinels so callers can use errors.Is() while still
// getting a human-readable message.
var (
	// ErrNoTarget is returned when no target host is specified.
	ErrNoTarget = errors.New("no target specified: provide a hostname or IP address with --target")

	// ErrInvalidPortRange is returned when the port range is outside
	// 1..65535 or the start port exceeds the end port.
	ErrInvalidPortRange = errors.New("invalid port range: ports must be in 1..65535 with start <= end")

	// ErrInvalidTimeout is returned when the connect timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidProbeTimeout is returned when the classification
	// read/write timeout is not positive.
	ErrInvalidProbeTimeout = errors.New("invalid probe timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency limit is
	// less than one. Zero slots would mean no scanning at all.
	ErrInvalidConcurrency = errors.New("invalid concurrent limit: must be at least 1")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address
	// is not in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: must be in host:port format")
)
