package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Resolution errors. ErrNoAddresses and ErrAllServersFailed are sentinels
// so callers can distinguish "the name has no addresses" from "we could
// not ask anyone"; both are fatal to a scan run.
var (
	// ErrNoAddresses is returned when the host resolves to zero addresses.
	ErrNoAddresses = errors.New("host resolved to no addresses")

	// ErrAllServersFailed is returned when both the primary and fallback
	// DNS servers failed or timed out.
	ErrAllServersFailed = errors.New("all DNS servers failed")
)

// ExchangeFunc sends a DNS query to the given server and returns the
// response. It exists as an injection point so tests can supply canned
// responses without network access.
type ExchangeFunc func(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error)

// Resolver resolves a hostname to a single IP address by querying
// configured DNS servers directly rather than relying on the system
// resolver. This makes the primary/fallback behavior explicit and
// deterministic regardless of the host's /etc/resolv.conf.
type Resolver struct {
	// primary is the DNS server queried first, in "host:port" format.
	primary string

	// fallback is queried once when the primary fails or times out.
	fallback string

	// timeout bounds each individual DNS query.
	timeout time.Duration

	// exchange performs the actual query. Replaced in tests.
	exchange ExchangeFunc

	// logger is used for structured logging of resolution attempts.
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout sets the per-query timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = timeout
	}
}

// WithExchange replaces the query function. Intended for tests.
func WithExchange(exchange ExchangeFunc) Option {
	return func(r *Resolver) {
		r.exchange = exchange
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver that queries primary first and fallback on failure.
// Server addresses must be in "host:port" format (e.g., "8.8.8.8:53").
func New(primary, fallback string, opts ...Option) *Resolver {
	r := &Resolver{
		primary:  primary,
		fallback: fallback,
		timeout:  3 * time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.exchange == nil {
		r.exchange = r.defaultExchange
	}

	return r
}

// defaultExchange sends the query over UDP with the configured timeout.
func (r *Resolver) defaultExchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	client := &dns.Client{Timeout: r.timeout}
	resp, _, err := client.ExchangeContext(ctx, msg, server)
	return resp, err
}

// Resolve turns host into a single IP address.
//
// A literal IPv4/IPv6 address is returned directly and never touches the
// network, so literal targets work even when no resolver is reachable.
// For hostnames, A records are preferred; AAAA is tried only when the
// name has no A records. The first address wins.
func (r *Resolver) Resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	servers := []string{r.primary, r.fallback}
	var errs []error

	for _, server := range servers {
		ip, err := r.lookup(ctx, host, server)
		if err == nil {
			r.logger.Debug("resolved target",
				"host", host,
				"address", ip.String(),
				"server", server,
			)
			return ip, nil
		}
		if errors.Is(err, ErrNoAddresses) {
			// The server answered authoritatively with nothing; asking
			// the fallback will not change that.
			return nil, fmt.Errorf("%w: %s", ErrNoAddresses, host)
		}

		r.logger.Warn("DNS server failed, trying next",
			"host", host,
			"server", server,
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", server, err))
	}

	return nil, fmt.Errorf("%w: %w", ErrAllServersFailed, errors.Join(errs...))
}

// lookup queries one server for the host's A records, then AAAA records
// when no A records exist. A successful response with zero answers yields
// ErrNoAddresses.
func (r *Resolver) lookup(ctx context.Context, host, server string) (net.IP, error) {
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)
		msg.RecursionDesired = true

		resp, err := r.exchange(ctx, msg, server)
		if err != nil {
			return nil, err
		}
		if resp.Rcode != dns.RcodeSuccess {
			return nil, fmt.Errorf("query returned %s", dns.RcodeToString[resp.Rcode])
		}

		for _, rr := range resp.Answer {
			switch record := rr.(type) {
			case *dns.A:
				return record.A, nil
			case *dns.AAAA:
				return record.AAAA, nil
			}
		}
	}

	return nil, ErrNoAddresses
}
