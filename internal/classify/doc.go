// Package classify identifies the service behind an open TCP port.
//
// # Architecture
//
// Classification runs an ordered list of detection strategies; the first
// strategy to produce a confident match wins, and partial matches are
// never merged. The default order is:
//
//  1. Ethereum JSON-RPC probe (only for ports in the configured RPC set)
//  2. HTTP probe, with optional REST/GraphQL API refinement
//  3. Passive banner read (SSH, FTP, SMTP)
//  4. Debug/remote port set lookup
//  5. GenericTCP fallback (always matches)
//
// Each active strategy dials its own short-lived connection and applies
// its own read/write timeout, independent of the connect timeout used by
// the prober. Any I/O failure inside a strategy means "no match" and the
// pipeline moves on; classification never fails a port outcome.
package classify
