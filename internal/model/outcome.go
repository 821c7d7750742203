package model

import (
	"fmt"
	"time"
)

// PortStatus represents the terminal state of a single port probe.
type PortStatus int

const (
	// StatusOpen indicates the TCP handshake succeeded.
	StatusOpen PortStatus = iota

	// StatusClosed indicates the remote actively refused the connection.
	// This is distinct from a timeout: it proves a live host with the
	// port shut, and is never retried.
	StatusClosed

	// StatusTimedOut indicates no response arrived within the connect
	// timeout. Ambiguous between a filtered port and a slow host.
	StatusTimedOut

	// StatusError indicates a transport-level failure other than refusal
	// or timeout (e.g., network unreachable). Treated as closed for
	// reporting purposes, but the reason is preserved for diagnostics.
	StatusError
)

// String returns a human-readable representation of the port status.
func (s PortStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusTimedOut:
		return "timeout"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so the status serializes
// as its name in JSON reports rather than a bare integer.
func (s PortStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Reports stored in
// the history database round-trip through JSON, so the textual names
// must parse back.
func (s *PortStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "open":
		*s = StatusOpen
	case "closed":
		*s = StatusClosed
	case "timeout":
		*s = StatusTimedOut
	case "error":
		*s = StatusError
	default:
		return fmt.Errorf("unknown port status %q", string(text))
	}
	return nil
}

// PortOutcome is the terminal, immutable result for one port.
// Exactly one PortOutcome is produced for every port in the configured
// range; timeouts and connection errors are outcomes, not run failures.
type PortOutcome struct {
	// Port is the TCP port number in 1..65535.
	Port int `json:"port"`

	// Status is the probe's terminal state.
	Status PortStatus `json:"status"`

	// RTT is the time the connect attempt took, successful or not.
	RTT time.Duration `json:"rtt"`

	// Reason holds diagnostic detail for StatusError outcomes.
	Reason string `json:"reason,omitempty"`

	// Service describes the classified service for StatusOpen outcomes.
	// Nil when classification was skipped or the port is not open.
	Service *ServiceInfo `json:"service,omitempty"`
}

// IsOpen reports whether the port accepted a connection.
func (o PortOutcome) IsOpen() bool {
	return o.Status == StatusOpen
}
