package monitor

import (
	"sync"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/probe"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	"github.com/rileyhilliard/mcwatch/internal/stop"
)

// EventKind identifies a lifecycle event.
type EventKind int

const (
	EventSample EventKind = iota
	EventProbeFailed
	EventIdleReset
	EventThresholdReached
	EventStopping
	EventStepStarted
	EventStepWaiting
	EventStepFinished
	EventStepFailed
	EventTerminated
)

// String returns a human-readable label for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSample:
		return "sample"
	case EventProbeFailed:
		return "probe-failed"
	case EventIdleReset:
		return "idle-reset"
	case EventThresholdReached:
		return "threshold-reached"
	case EventStopping:
		return "stopping"
	case EventStepStarted:
		return "step-started"
	case EventStepWaiting:
		return "step-waiting"
	case EventStepFinished:
		return "step-finished"
	case EventStepFailed:
		return "step-failed"
	case EventTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification from the loop.
type Event struct {
	Kind      EventKind
	Time      time.Time
	Sample    *probe.Sample     // EventSample
	Idle      time.Duration     // idle time after the update
	Threshold time.Duration     // configured idle limit, 0 when disabled
	Err       error             // EventProbeFailed, EventStepFailed
	Reason    stop.Reason       // EventStopping
	Step      shutdown.Step     // EventStep*
	Running   int               // EventStepWaiting
	Outcome   *shutdown.Outcome // EventTerminated
}

// Reporter receives events. Report is called from the loop goroutine and
// should not block for long.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) {
	f(e)
}

// Reporters fans an event out to several reporters in order.
type Reporters []Reporter

// Report forwards e to every non-nil reporter.
func (rs Reporters) Report(e Event) {
	for _, r := range rs {
		if r != nil {
			r.Report(e)
		}
	}
}

// Recorder keeps every event it receives. Useful in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report records e.
func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// Count returns how many events of kind k were recorded.
func (r *Recorder) Count(k EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
