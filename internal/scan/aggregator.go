package scan

import (
	"fmt"
	"sort"
	"time"

	"github.com/portsleuth/portsleuth/internal/model"
)

// Aggregator accumulates port outcomes into the final scan report.
//
// It is deliberately not safe for concurrent use: the scheduler funnels
// all outcomes through one collector goroutine, which is the sole owner
// of the aggregator. Serializing at the stream instead of locking every
// insert keeps the hot path free of contention.
type Aggregator struct {
	// job identifies the run being aggregated.
	job Job

	// started is when the scan began.
	started time.Time

	// outcomes maps port number to its terminal outcome.
	outcomes map[int]model.PortOutcome

	// total is the number of ports in the configured range.
	total int

	// onProgress, when set, is invoked after each recorded outcome.
	onProgress ProgressFunc
}

// NewAggregator creates an Aggregator for the given job.
func NewAggregator(job Job, started time.Time, onProgress ProgressFunc) *Aggregator {
	return &Aggregator{
		job:        job,
		started:    started,
		outcomes:   make(map[int]model.PortOutcome),
		total:      job.EndPort - job.StartPort + 1,
		onProgress: onProgress,
	}
}

// Record stores a port's terminal outcome and emits a progress event.
//
// A second outcome for the same port is an internal-consistency error:
// the scheduler guarantees exactly one unit per port, so a duplicate
// means the run's bookkeeping is broken and the report can no longer be
// trusted.
func (a *Aggregator) Record(outcome model.PortOutcome) error {
	if _, exists := a.outcomes[outcome.Port]; exists {
		return fmt.Errorf("duplicate outcome for port %d", outcome.Port)
	}
	a.outcomes[outcome.Port] = outcome

	if a.onProgress != nil {
		a.onProgress(len(a.outcomes), a.total, outcome)
	}
	return nil
}

// Completed returns how many ports have reported so far.
func (a *Aggregator) Completed() int {
	return len(a.outcomes)
}

// Finalize assembles the report: outcomes sorted by port ascending plus
// summary counts. Errored counts timeouts and transport errors together;
// closed counts only active refusals.
func (a *Aggregator) Finalize(elapsed time.Duration) *model.ScanReport {
	report := &model.ScanReport{
		ScanID:       model.NewScanID(a.job.Target, a.job.StartPort, a.job.EndPort, a.started),
		Target:       a.job.Target,
		ResolvedAddr: a.job.Addr,
		StartPort:    a.job.StartPort,
		EndPort:      a.job.EndPort,
		DateScanned:  a.started,
		Elapsed:      elapsed,
		Outcomes:     make([]model.PortOutcome, 0, len(a.outcomes)),
	}

	for _, outcome := range a.outcomes {
		report.Outcomes = append(report.Outcomes, outcome)
	}
	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].Port < report.Outcomes[j].Port
	})

	for _, outcome := range report.Outcomes {
		switch outcome.Status {
		case model.StatusOpen:
			report.OpenCount++
		case model.StatusClosed:
			report.ClosedCount++
		case model.StatusTimedOut, model.StatusError:
			report.ErroredCount++
		}
	}

	return report
}
