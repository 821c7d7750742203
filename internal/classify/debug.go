package classify

import (
	"context"

	"github.com/portsleuth/portsleuth/internal/model"
)

// DebugStrategy labels ports from the configured debug/remote set.
// It performs no I/O: membership alone is the signal, which is why it
// runs only after every active strategy has failed to match.
type DebugStrategy struct {
	ports map[int]bool
}

// NewDebugStrategy creates the debug-port lookup strategy.
func NewDebugStrategy(debugPorts []int) *DebugStrategy {
	return &DebugStrategy{ports: portSet(debugPorts)}
}

// Name returns the strategy name.
func (s *DebugStrategy) Name() string {
	return "debug"
}

// Detect labels ports in the debug set as DebugRemote.
func (s *DebugStrategy) Detect(_ context.Context, port int) *model.ServiceInfo {
	if !s.ports[port] {
		return nil
	}
	return &model.ServiceInfo{Service: model.ServiceDebugRemote}
}

// FallbackStrategy terminates the pipeline: a port that accepted a
// connection but matched nothing is a generic TCP service. It always
// matches, so it must be the last strategy in the list.
type FallbackStrategy struct{}

// NewFallbackStrategy creates the terminal fallback strategy.
func NewFallbackStrategy() *FallbackStrategy {
	return &FallbackStrategy{}
}

// Name returns the strategy name.
func (s *FallbackStrategy) Name() string {
	return "fallback"
}

// Detect always labels the port GenericTCP with no version or headers.
func (s *FallbackStrategy) Detect(_ context.Context, _ int) *model.ServiceInfo {
	return &model.ServiceInfo{Service: model.ServiceGenericTCP}
}
