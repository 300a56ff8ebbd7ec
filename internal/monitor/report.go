package monitor

import (
	"github.com/rileyhilliard/mcwatch/internal/logger"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	"github.com/rileyhilliard/mcwatch/internal/stop"
)

// LogReporter writes events to a logger.
type LogReporter struct {
	log logger.Logger
}

// NewLogReporter creates a reporter backed by log.
func NewLogReporter(log logger.Logger) *LogReporter {
	if log == nil {
		log = logger.Noop()
	}
	return &LogReporter{log: log}
}

// Report logs e at a level that matches its severity.
func (r *LogReporter) Report(e Event) {
	switch e.Kind {
	case EventSample:
		if e.Sample == nil {
			return
		}
		r.log.Info("Players %d/%d, latency %.0f ms, idle %s",
			e.Sample.Online, e.Sample.MaxOnline, e.Sample.LatencyMillis(), e.Idle)
	case EventProbeFailed:
		r.log.Warn("Server is offline: %v", e.Err)
	case EventIdleReset:
		r.log.Info("Players are back, idle timer reset")
	case EventThresholdReached:
		r.log.Warn("No players for %s, initiating shutdown...", e.Idle)
	case EventStopping:
		if e.Reason == stop.ReasonManual {
			r.log.Info("Manual shutdown requested.")
		} else {
			r.log.Info("Stopping (%s)", e.Reason)
		}
	case EventStepStarted:
		r.log.Debug("Step %q started", e.Step)
	case EventStepWaiting:
		r.log.Debug("Step %q waiting on %d container(s)", e.Step, e.Running)
	case EventStepFinished:
		r.log.Debug("Step %q finished", e.Step)
	case EventStepFailed:
		r.log.Error("Step %q failed: %v", e.Step, e.Err)
	case EventTerminated:
		r.logOutcome(e.Outcome)
	}
}

func (r *LogReporter) logOutcome(o *shutdown.Outcome) {
	if o == nil {
		return
	}
	if o.Err != nil {
		r.log.Error("Shutdown finished with errors (stopped=%t, exited=%t, power-off=%t)",
			o.ProcessStopped, o.ExitConfirmed, o.HostShutdownRequested)
		return
	}
	r.log.Info("Shutdown complete (power-off requested: %t)", o.HostShutdownRequested)
}
