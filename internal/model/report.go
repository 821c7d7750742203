package model

import (
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// ScanReport is the aggregated result of a complete scan run.
// It is built incrementally by the aggregator and finalized once every
// port in the configured range has reported a terminal outcome.
type ScanReport struct {
	// ScanID uniquely identifies this run. It is derived from the target,
	// the port range, and the scan start time, and is used as the primary
	// key when persisting reports to the history database.
	ScanID string `json:"scan_id"`

	// Target is the host string as given by the user.
	Target string `json:"target"`

	// ResolvedAddr is the network address the scan actually probed.
	ResolvedAddr string `json:"resolved_addr"`

	// StartPort and EndPort define the inclusive scanned range.
	StartPort int `json:"start_port"`
	EndPort   int `json:"end_port"`

	// DateScanned is when the scan started.
	DateScanned time.Time `json:"date_scanned"`

	// Elapsed is the total wall-clock duration of the scan.
	Elapsed time.Duration `json:"elapsed"`

	// Outcomes holds one entry per scanned port, sorted by port ascending.
	Outcomes []PortOutcome `json:"outcomes"`

	// Summary counts. Errored counts both StatusError and StatusTimedOut
	// outcomes; Closed counts only active refusals.
	OpenCount    int `json:"open_count"`
	ClosedCount  int `json:"closed_count"`
	ErroredCount int `json:"errored_count"`
}

// NewScanID computes a scan identifier from the target, port range, and
// start time. SHA3-256 keeps IDs collision-free without coordination;
// the first 12 bytes are enough to be unique in practice and keep IDs
// short in terminal output.
func NewScanID(target string, startPort, endPort int, started time.Time) string {
	data := fmt.Sprintf("%s:%d-%d:%d", target, startPort, endPort, started.UnixNano())
	sum := sha3.Sum256([]byte(data))
	return hex.EncodeToString(sum[:12])
}

// TotalPorts returns the number of ports in the scanned range.
func (r *ScanReport) TotalPorts() int {
	return r.EndPort - r.StartPort + 1
}

// OpenPorts returns the outcomes whose port accepted a connection,
// in ascending port order.
func (r *ScanReport) OpenPorts() []PortOutcome {
	open := make([]PortOutcome, 0, r.OpenCount)
	for _, o := range r.Outcomes {
		if o.IsOpen() {
			open = append(open, o)
		}
	}
	return open
}
