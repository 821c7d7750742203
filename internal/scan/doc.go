// Package scan orchestrates a port scan run.
//
// The scheduler fans probe+classify units out over the configured port
// range while keeping at most the configured number of units in flight.
// Completed units emit terminal PortOutcomes onto a single stream; a
// collector goroutine is the only writer into the aggregator, so report
// state never sees concurrent updates. Ports complete in no particular
// order; ordering is imposed once, when the final report is assembled.
//
// Cancellation stops new units from launching. Units already in flight
// are not torn down mid-handshake; their own connect and exchange
// timeouts bound how long they can outlive the cancellation.
package scan
