// Package main provides the entry point for the portsleuth CLI.
//
// Portsleuth is a TCP port scanner with service classification. It probes
// a port range on a single target and identifies what answers: web
// servers, APIs, Ethereum JSON-RPC nodes, SSH/FTP/SMTP daemons, and
// exposed debug ports.
//
// Usage:
//
//	portsleuth scan --target example.com
//	portsleuth scan --target 192.0.2.1 --start-port 1 --end-port 65535
//
// See --help for all available options.
package main

// main is the entry point for portsleuth.
func main() {
	Execute()
}
