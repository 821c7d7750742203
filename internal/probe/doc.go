// Package probe performs single bounded-time TCP connect attempts.
//
// A probe is one full TCP handshake against one (address, port) pair,
// raced against a configurable timeout. The outcome distinguishes an
// active refusal (a live host with the port shut) from a timeout
// (filtered or slow) and from other transport failures, because the
// three mean different things in a scan report.
//
// Probes can be dialed directly or through a SOCKS5 proxy; the dialer
// is injected so tests can fake connection outcomes.
package probe
