package classify

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/portsleuth/portsleuth/internal/model"
	"github.com/portsleuth/portsleuth/internal/probe"
)

// Strategy is one detection heuristic in the classification pipeline.
// Detect returns nil when the strategy cannot confidently identify the
// service; the classifier then moves to the next strategy in order.
type Strategy interface {
	// Name returns the strategy's name for logging purposes.
	Name() string

	// Detect attempts to identify the service on the given port.
	// It must respect ctx and its own I/O timeout, and must return nil
	// rather than an error when identification fails for any reason.
	Detect(ctx context.Context, port int) *model.ServiceInfo
}

// Settings tunes the classification pipeline.
type Settings struct {
	// RPCPorts is the port set where the Ethereum JSON-RPC probe runs
	// before anything else.
	RPCPorts []int

	// DebugPorts is the port set labeled debug/remote when no active
	// strategy matches.
	DebugPorts []int

	// PreferAPI relabels HTTP services carrying REST/GraphQL signatures
	// as API endpoints. When false, they keep the plain HTTP label.
	PreferAPI bool

	// Timeout is the per-exchange read/write budget for each strategy.
	Timeout time.Duration
}

// Classifier runs the strategy pipeline against open ports on one target.
// It is safe for concurrent use: strategies hold no per-port state and
// every exchange uses its own connection.
type Classifier struct {
	// strategies in precedence order. The last entry always matches.
	strategies []Strategy

	// logger is used for structured logging of classification attempts.
	logger *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets a custom logger for the classifier.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// WithStrategies replaces the default strategy pipeline.
// The caller is responsible for terminating the list with a strategy
// that always matches.
func WithStrategies(strategies ...Strategy) Option {
	return func(c *Classifier) {
		c.strategies = strategies
	}
}

// New creates a Classifier for the given resolved target address.
// The dialer is shared with the prober so proxy configuration applies to
// classification exchanges too.
func New(target string, dialer probe.Dialer, settings Settings, opts ...Option) *Classifier {
	c := &Classifier{}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.strategies == nil {
		x := &exchanger{
			target:  target,
			dialer:  dialer,
			timeout: settings.Timeout,
		}
		c.strategies = []Strategy{
			NewEthRPCStrategy(x, settings.RPCPorts),
			NewHTTPStrategy(x, settings.PreferAPI),
			NewBannerStrategy(x),
			NewDebugStrategy(settings.DebugPorts),
			NewFallbackStrategy(),
		}
	}

	return c
}

// Classify identifies the service behind an open port.
//
// The handle is the connection that proved the port open; Classify takes
// ownership and closes it. Strategies perform their exchanges on fresh
// connections so a consumed stream from one probe never corrupts the
// next. The returned ServiceInfo is never nil: when nothing matches, the
// fallback labels the port GenericTCP.
func (c *Classifier) Classify(ctx context.Context, handle net.Conn, port int) *model.ServiceInfo {
	if handle != nil {
		_ = handle.Close() //nolint:errcheck // Handshake-only connection
	}

	for _, s := range c.strategies {
		select {
		case <-ctx.Done():
			return &model.ServiceInfo{Service: model.ServiceGenericTCP}
		default:
		}

		if info := s.Detect(ctx, port); info != nil {
			c.logger.Debug("service classified",
				"port", port,
				"strategy", s.Name(),
				"service", info.Service,
			)
			return info
		}
	}

	return &model.ServiceInfo{Service: model.ServiceGenericTCP}
}

// exchanger performs short one-shot exchanges against the target.
// It is the shared I/O layer under the active strategies.
type exchanger struct {
	target  string
	dialer  probe.Dialer
	timeout time.Duration
}

// addr returns the "host:port" address for the given port.
func (x *exchanger) addr(port int) string {
	return net.JoinHostPort(x.target, strconv.Itoa(port))
}

// roundTrip dials the port, writes the payload, and reads the response
// until the peer closes, the limit is reached, or the exchange timeout
// expires. Partial data read before a timeout is still returned: a slow
// server's first bytes are often enough to classify it.
func (x *exchanger) roundTrip(ctx context.Context, port int, payload []byte, limit int64) ([]byte, error) {
	conn, err := x.dial(ctx, port)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if len(payload) > 0 {
		if _, err := conn.Write(payload); err != nil {
			return nil, err
		}
	}

	data, err := io.ReadAll(io.LimitReader(conn, limit))
	if len(data) == 0 && err != nil {
		return nil, err
	}
	return data, nil
}

// readBanner dials the port and waits for an unsolicited banner.
// It returns after the first read so protocols that greet immediately
// (SSH, FTP, SMTP) respond well under the timeout; silent servers cost
// the full exchange timeout and yield an error.
func (x *exchanger) readBanner(ctx context.Context, port int, limit int) ([]byte, error) {
	conn, err := x.dial(ctx, port)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	buf := make([]byte, limit)
	n, err := conn.Read(buf)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	return buf[:n], nil
}

// dial opens a fresh connection with the exchange timeout applied both
// to the handshake and, via deadline, to all subsequent I/O.
func (x *exchanger) dial(ctx context.Context, port int) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	conn, err := x.dialer.DialContext(ctx, "tcp", x.addr(port))
	if err != nil {
		return nil, err
	}
	if err := conn.SetDeadline(time.Now().Add(x.timeout)); err != nil {
		_ = conn.Close() //nolint:errcheck // Best effort cleanup
		return nil, err
	}
	return conn, nil
}

// portSet builds a membership set from a port list.
func portSet(ports []int) map[int]bool {
	set := make(map[int]bool, len(ports))
	for _, p := range ports {
		set[p] = true
	}
	return set
}
