package probe

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/net/proxy"

	"github.com/portsleuth/portsleuth/internal/model"
)

// Dialer establishes TCP connections respecting context cancellation.
// *net.Dialer satisfies this directly; SOCKS5 dialers are adapted via
// NewSOCKS5Dialer. Tests inject fakes.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Result is the outcome of a single probe.
type Result struct {
	// Status is the terminal state of the connect attempt.
	Status model.PortStatus

	// Conn is the live connection handle. Non-nil only for StatusOpen;
	// ownership passes to the caller, who must close it.
	Conn net.Conn

	// Reason holds diagnostic detail for StatusError results.
	Reason string

	// RTT is how long the connect attempt took.
	RTT time.Duration
}

// Prober attempts bounded-time TCP connections to one target address.
// Each probe is independent; the prober holds no per-port state and is
// safe for concurrent use.
type Prober struct {
	// target is the resolved host address, without a port.
	target string

	// dialer establishes connections, directly or through a proxy.
	dialer Dialer

	// timeout bounds each connect attempt.
	timeout time.Duration

	// logger is used for structured logging of probe attempts.
	logger *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithDialer replaces the connection dialer.
func WithDialer(dialer Dialer) Option {
	return func(p *Prober) {
		p.dialer = dialer
	}
}

// WithLogger sets a custom logger for the prober.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		p.logger = logger
	}
}

// New creates a Prober for the given resolved target address.
func New(target string, timeout time.Duration, opts ...Option) *Prober {
	p := &Prober{
		target:  target,
		timeout: timeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.dialer == nil {
		p.dialer = &net.Dialer{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Addr returns the "host:port" address for the given port on the target.
func (p *Prober) Addr(port int) string {
	return net.JoinHostPort(p.target, strconv.Itoa(port))
}

// Probe attempts one TCP connect to the given port.
//
// The attempt is bounded by the prober's timeout and by ctx. On success
// the returned Result carries the open connection; the caller owns it and
// must close it. Refusals, timeouts, and other transport failures are
// classified into terminal statuses, never returned as errors: a failed
// port is data, not an exceptional condition.
func (p *Prober) Probe(ctx context.Context, port int) Result {
	addr := p.Addr(port)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(ctx, "tcp", addr)
	rtt := time.Since(start)

	if err != nil {
		status, reason := classifyDialError(err)
		p.logger.Debug("probe failed",
			"addr", addr,
			"status", status,
			"error", err,
		)
		return Result{Status: status, Reason: reason, RTT: rtt}
	}

	// Disable Nagle buffering so classification exchanges see responses
	// without coalescing delay.
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true) //nolint:errcheck // Best effort optimization
	}

	p.logger.Debug("port open", "addr", addr, "rtt", rtt)
	return Result{Status: model.StatusOpen, Conn: conn, RTT: rtt}
}

// classifyDialError maps a dial failure onto a terminal port status.
//
// ECONNREFUSED means the host is alive and the port is shut: Closed.
// A deadline or net.Error timeout means nothing answered in time:
// TimedOut. Everything else (unreachable network, no route) is Error
// with the reason preserved for diagnostics.
func classifyDialError(err error) (model.PortStatus, string) {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return model.StatusClosed, ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return model.StatusTimedOut, ""
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.StatusTimedOut, ""
	}

	return model.StatusError, err.Error()
}

// NewSOCKS5Dialer creates a Dialer that routes connections through the
// SOCKS5 proxy at the given "host:port" address. No authentication is
// used; standard proxies (e.g., a local Tor daemon) accept that.
func NewSOCKS5Dialer(proxyAddr string) (Dialer, error) {
	d, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	if cd, ok := d.(proxy.ContextDialer); ok {
		return contextDialerFunc(cd.DialContext), nil
	}

	// Older dialers lack DialContext; race Dial against the context and
	// close the late connection to avoid a leak.
	return contextDialerFunc(func(ctx context.Context, network, address string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		ch := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, address)
			ch <- dialResult{conn, err}
		}()

		select {
		case <-ctx.Done():
			go func() {
				if res := <-ch; res.conn != nil {
					_ = res.conn.Close() //nolint:errcheck // Best effort cleanup
				}
			}()
			return nil, ctx.Err()
		case res := <-ch:
			return res.conn, res.err
		}
	}), nil
}

// contextDialerFunc adapts a function to the Dialer interface.
type contextDialerFunc func(ctx context.Context, network, address string) (net.Conn, error)

func (f contextDialerFunc) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f(ctx, network, address)
}
