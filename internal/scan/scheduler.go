package scan

import (
	"context"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/portsleuth/portsleuth/internal/model"
	"github.com/portsleuth/portsleuth/internal/probe"
)

// Prober is the scheduler's view of the connection prober.
type Prober interface {
	Probe(ctx context.Context, port int) probe.Result
}

// Classifier is the scheduler's view of the service classifier.
// Classify takes ownership of the handle and must never return nil.
type Classifier interface {
	Classify(ctx context.Context, handle net.Conn, port int) *model.ServiceInfo
}

// ProgressFunc is invoked once per completed port, from the collector
// goroutine, with the running completion count, the total port count,
// and the outcome that just landed. Implementations need not be
// thread-safe; calls are already serialized.
type ProgressFunc func(completed, total int, outcome model.PortOutcome)

// Job describes one scan run.
type Job struct {
	// Target is the host string as given by the user.
	Target string

	// Addr is the resolved address the probes connect to.
	Addr string

	// StartPort and EndPort define the inclusive port range.
	StartPort int
	EndPort   int
}

// Scanner schedules probe+classify units over a port range.
// A Scanner is single-use: Run consumes the job and a repeat scan needs
// a fresh Run call.
type Scanner struct {
	// prober performs the bounded TCP connect attempts.
	prober Prober

	// classifier identifies services behind open ports.
	classifier Classifier

	// concurrency is the maximum number of in-flight units.
	concurrency int

	// logger is used for structured logging of run progress.
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets a custom logger for the scanner.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner with the given collaborators.
// Concurrency values below one are clamped to one slot.
func New(prober Prober, classifier Classifier, concurrency int, opts ...Option) *Scanner {
	if concurrency < 1 {
		concurrency = 1
	}

	s := &Scanner{
		prober:      prober,
		classifier:  classifier,
		concurrency: concurrency,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Run scans every port in the job's range and returns the final report.
//
// At most the configured number of units run simultaneously; slot
// admission is handled by errgroup's limiter rather than any shared
// counter. Outcomes flow through a channel into a single collector
// goroutine that owns the aggregator, so emission is serialized even
// though units finish in arbitrary order.
//
// When ctx is cancelled, no new units start; units already running
// finish under their own timeouts and their outcomes are still
// collected. In that case Run returns the partial report together with
// the context's error.
func (s *Scanner) Run(ctx context.Context, job Job, onProgress ProgressFunc) (*model.ScanReport, error) {
	started := time.Now()
	agg := NewAggregator(job, started, onProgress)

	s.logger.Info("starting scan",
		"target", job.Target,
		"addr", job.Addr,
		"startPort", job.StartPort,
		"endPort", job.EndPort,
		"concurrency", s.concurrency,
	)

	outcomes := make(chan model.PortOutcome)

	// Collector goroutine: the single owner of the aggregator.
	collectErr := make(chan error, 1)
	go func() {
		var firstErr error
		for outcome := range outcomes {
			if err := agg.Record(outcome); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		collectErr <- firstErr
	}()

	// Units are detached from the run context so cancellation stops
	// launches without tearing down handshakes already in progress;
	// the probe and exchange timeouts bound the stragglers.
	unitCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for port := job.StartPort; port <= job.EndPort; port++ {
		// Stop issuing new probes once the run is cancelled.
		if ctx.Err() != nil {
			s.logger.Warn("scan cancelled, draining in-flight probes",
				"port", port,
				"reason", ctx.Err(),
			)
			break
		}

		g.Go(func() error {
			outcomes <- s.scanPort(unitCtx, port)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // Units never return errors; outcomes carry failures
	close(outcomes)

	if err := <-collectErr; err != nil {
		return nil, err
	}

	report := agg.Finalize(time.Since(started))

	s.logger.Info("scan finished",
		"target", job.Target,
		"open", report.OpenCount,
		"closed", report.ClosedCount,
		"errored", report.ErroredCount,
		"elapsed", report.Elapsed,
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// scanPort is one probe+classify unit. It always produces a terminal
// outcome: per-port failures are data, never errors.
func (s *Scanner) scanPort(ctx context.Context, port int) model.PortOutcome {
	result := s.prober.Probe(ctx, port)

	outcome := model.PortOutcome{
		Port:   port,
		Status: result.Status,
		RTT:    result.RTT,
		Reason: result.Reason,
	}

	if result.Status == model.StatusOpen {
		// Classify never fails; at worst the port is GenericTCP.
		// The classifier also takes over closing the handle.
		outcome.Service = s.classifier.Classify(ctx, result.Conn, port)
	} else if result.Conn != nil {
		_ = result.Conn.Close() //nolint:errcheck // Best effort cleanup
	}

	return outcome
}
