package model

// Service is the classification label assigned to a detected network service.
//
// Design decision: We use string constants rather than iota-based integers
// because the labels are serialized into JSON reports and the history
// database; a stable textual representation keeps stored reports readable
// and comparable across versions.
type Service string

const (
	// ServiceEthereumRPC indicates an Ethereum JSON-RPC node.
	// Detected by a successful web3_clientVersion exchange.
	ServiceEthereumRPC Service = "ethereum-rpc"

	// ServiceHTTPWeb indicates a plain HTTP web server.
	ServiceHTTPWeb Service = "http-web"

	// ServiceAPIEndpoint indicates an HTTP server that looks like a
	// REST or GraphQL API rather than a browser-facing site.
	ServiceAPIEndpoint Service = "api-endpoint"

	// ServiceDebugRemote indicates a port from the configured
	// debug/remote-protocol set (debuggers, remote shells).
	ServiceDebugRemote Service = "debug-remote"

	// ServiceSSH indicates an SSH server, identified by its version banner.
	ServiceSSH Service = "ssh"

	// ServiceFTP indicates an FTP server, identified by its 220 greeting.
	ServiceFTP Service = "ftp"

	// ServiceSMTP indicates an SMTP server, identified by its 220 greeting.
	ServiceSMTP Service = "smtp"

	// ServiceGenericTCP indicates a port that accepted a connection but
	// matched no detection strategy.
	ServiceGenericTCP Service = "generic-tcp"

	// ServiceUnknown indicates that classification was not attempted.
	ServiceUnknown Service = "unknown"
)

// String returns the label's textual representation.
func (s Service) String() string {
	return string(s)
}

// HeaderField is a single response header captured during classification.
// Headers are stored as an ordered slice rather than a map so the summary
// preserves the order in which the server sent them.
type HeaderField struct {
	// Name is the canonical header name (e.g., "Server").
	Name string `json:"name"`

	// Value is the header value as received.
	Value string `json:"value"`
}

// ServiceInfo describes the identity of a service behind an open port.
// It is created by the classifier and is immutable once attached to a
// PortOutcome.
type ServiceInfo struct {
	// Service is the classification label.
	Service Service `json:"service"`

	// Version is the reported software version or fingerprint, if any.
	// For HTTP this is the Server header; for Ethereum RPC it is the
	// client version string; for SSH it is the version banner.
	Version string `json:"version,omitempty"`

	// Headers is an ordered summary of informative response headers.
	// Only populated for HTTP-like services.
	Headers []HeaderField `json:"headers,omitempty"`
}

// Header returns the value of the named header from the summary,
// or the empty string if absent. Lookup is case-sensitive on the
// canonical name under which the header was recorded.
func (si *ServiceInfo) Header(name string) string {
	for _, h := range si.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// AddHeader appends a header to the summary, preserving insertion order.
func (si *ServiceInfo) AddHeader(name, value string) {
	si.Headers = append(si.Headers, HeaderField{Name: name, Value: value})
}
