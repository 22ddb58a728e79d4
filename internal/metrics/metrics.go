// Package metrics defines the recorder interface for transform telemetry.
package metrics

import "time"

// Result labels for transform outcomes.
const (
	ResultApplied = "applied"
	ResultNoop    = "noop"
	ResultError   = "error"
)

// Recorder receives transform telemetry from the daemon and CLI paths.
type Recorder interface {
	ObserveTransform(op, result string, d time.Duration)
	SetIndexSize(files int)
	ObserveSweep(blocksMerged int, d time.Duration)
}

// Noop discards all telemetry; the CLI default when no daemon is running.
type Noop struct{}

func (Noop) ObserveTransform(string, string, time.Duration) {}
func (Noop) SetIndexSize(int)                               {}
func (Noop) ObserveSweep(int, time.Duration)                {}
