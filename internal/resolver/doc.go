// Package resolver turns a target host string into a single connectable
// network address.
//
// Literal IPv4/IPv6 addresses are returned directly without any lookup.
// Hostnames are resolved by querying a configured primary DNS server
// directly, with one retry against a fallback server when the primary
// fails or times out. Resolution is all-or-nothing: the scan needs exactly
// one target address, so partial results are treated as failure.
package resolver
