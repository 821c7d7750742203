// Package model defines the core data structures used throughout portsleuth.
//
// This package contains the following main types:
//   - Service: The classification label for a detected network service
//   - ServiceInfo: Detailed identity of a service behind an open port
//   - PortOutcome: The terminal result of probing a single port
//   - ScanReport: The aggregated result of a complete scan run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (probe, classify, scan, report, history) need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
