package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/portsleuth/portsleuth/internal/model"
)

// httpResponseLimit bounds how much of an HTTP response is read.
// Headers plus enough body to spot API signatures; full pages are not
// needed for classification.
const httpResponseLimit = 64 * 1024

// informativeHeaders is the allowlist of headers worth carrying into the
// service summary. Everything else (dates, cache control, cookies) adds
// noise without identifying the service.
var informativeHeaders = map[string]bool{
	"Server":           true,
	"Content-Type":     true,
	"X-Powered-By":     true,
	"Via":              true,
	"Location":         true,
	"Www-Authenticate": true,
	"X-Frame-Options":  true,
	"Access-Control-Allow-Origin": true,
}

// HTTPStrategy detects web servers by speaking a minimal HTTP/1.1
// exchange and parsing the status line. When preferAPI is set, responses
// carrying REST/GraphQL signatures are relabeled as API endpoints
// instead of generic web servers.
type HTTPStrategy struct {
	x         *exchanger
	preferAPI bool
}

// NewHTTPStrategy creates the HTTP detection strategy.
func NewHTTPStrategy(x *exchanger, preferAPI bool) *HTTPStrategy {
	return &HTTPStrategy{
		x:         x,
		preferAPI: preferAPI,
	}
}

// Name returns the strategy name.
func (s *HTTPStrategy) Name() string {
	return "http"
}

// Detect sends a minimal GET request and parses the response.
// A valid HTTP status line labels the port HTTPWeb with the Server
// header as the fingerprint; informative headers are captured in the
// order the server sent them.
func (s *HTTPStrategy) Detect(ctx context.Context, port int) *model.ServiceInfo {
	request := fmt.Sprintf(
		"GET / HTTP/1.1\r\n"+
			"Host: %s\r\n"+
			"User-Agent: portsleuth/1.0\r\n"+
			"Accept: */*\r\n"+
			"Connection: close\r\n"+
			"\r\n",
		s.x.addr(port),
	)

	raw, err := s.x.roundTrip(ctx, port, []byte(request), httpResponseLimit)
	if err != nil {
		return nil
	}

	headers, body, ok := splitHTTPResponse(string(raw))
	if !ok {
		return nil
	}

	info := &model.ServiceInfo{Service: model.ServiceHTTPWeb}
	for _, h := range headers {
		if informativeHeaders[h.Name] {
			info.AddHeader(h.Name, h.Value)
		}
		if h.Name == "Server" {
			info.Version = h.Value
		}
	}

	if s.preferAPI && looksLikeAPI(headers, body) {
		info.Service = model.ServiceAPIEndpoint
	}

	return info
}

// splitHTTPResponse parses a raw HTTP response into its ordered headers
// and body, validating the status line. We parse by hand instead of
// using http.ReadResponse because http.Header is a map and loses the
// order in which the server sent its headers, which the summary
// preserves.
func splitHTTPResponse(raw string) (headers []model.HeaderField, body string, ok bool) {
	head, body, _ := strings.Cut(raw, "\r\n\r\n")

	lines := strings.Split(head, "\r\n")
	if !validStatusLine(lines[0]) {
		return nil, "", false
	}

	for _, line := range lines[1:] {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		headers = append(headers, model.HeaderField{
			Name:  canonicalHeaderName(strings.TrimSpace(name)),
			Value: strings.TrimSpace(value),
		})
	}

	return headers, body, true
}

// validStatusLine reports whether the line is an HTTP/1.x status line
// with a three-digit status code.
func validStatusLine(line string) bool {
	if !strings.HasPrefix(line, "HTTP/") {
		return false
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || len(parts[1]) != 3 {
		return false
	}
	for _, c := range parts[1] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// canonicalHeaderName normalizes a header name to Canonical-Case so the
// allowlist lookup and summary are stable regardless of server casing.
func canonicalHeaderName(name string) string {
	parts := strings.Split(strings.ToLower(name), "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}

// looksLikeAPI reports whether the response carries REST/GraphQL
// signatures: a JSON content type, GraphQL markers, or OpenAPI/Swagger
// references in the body.
func looksLikeAPI(headers []model.HeaderField, body string) bool {
	for _, h := range headers {
		if h.Name == "Content-Type" && strings.Contains(h.Value, "application/json") {
			return true
		}
	}

	lower := strings.ToLower(body)
	return strings.Contains(lower, "graphql") ||
		strings.Contains(lower, "swagger") ||
		strings.Contains(lower, "openapi") ||
		strings.Contains(lower, `"/api`)
}
