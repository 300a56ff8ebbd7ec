package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/idle"
	"github.com/rileyhilliard/mcwatch/internal/logger"
	"github.com/rileyhilliard/mcwatch/internal/probe"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	"github.com/rileyhilliard/mcwatch/internal/stop"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 5 * time.Second

// State is the loop's lifecycle state.
type State int32

const (
	StateIdle State = iota // not started
	StateRunning
	StateStopping
	StateTerminated
)

// String returns a human-readable label for the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return "idle"
	}
}

// Shutdowner runs the shutdown procedure.
type Shutdowner interface {
	Shutdown(ctx context.Context) shutdown.Outcome
}

// observable is implemented by shutdown.Coordinator so the loop can relay
// step progress as events.
type observable interface {
	SetObserver(shutdown.Observer)
}

// Options configures a Loop.
type Options struct {
	Prober    probe.Prober
	Threshold time.Duration // <= 0 disables the idle trigger
	Interval  time.Duration
	Signal    *stop.Signal
	Shutdown  Shutdowner
	Reporter  Reporter
	Logger    logger.Logger
	Now       func() time.Time
}

// Loop samples the server until the stop signal is set, then runs the
// shutdown procedure exactly once.
type Loop struct {
	prober   probe.Prober
	tracker  *idle.Tracker
	interval time.Duration
	signal   *stop.Signal
	shutdown Shutdowner
	report   Reporter
	log      logger.Logger
	now      func() time.Time

	state   atomic.Int32
	once    sync.Once
	outcome shutdown.Outcome
}

// NewLoop creates a loop. A nil Signal gets a fresh one; read it back with
// Signal() to hand it to other stop sources.
func NewLoop(opts Options) *Loop {
	l := &Loop{
		prober:   opts.Prober,
		tracker:  idle.NewTracker(opts.Threshold),
		interval: opts.Interval,
		signal:   opts.Signal,
		shutdown: opts.Shutdown,
		report:   opts.Reporter,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	if l.signal == nil {
		l.signal = stop.New()
	}
	if l.report == nil {
		l.report = Reporters(nil)
	}
	if l.log == nil {
		l.log = logger.Noop()
	}
	if l.now == nil {
		l.now = time.Now
	}

	if o, ok := l.shutdown.(observable); ok {
		o.SetObserver(l.relayStep)
	}
	return l
}

// Signal returns the stop signal shared with other stop sources.
func (l *Loop) Signal() *stop.Signal {
	return l.signal
}

// State returns the current lifecycle state. Safe for concurrent use.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Run samples until the stop signal is set, then shuts down and returns the
// outcome. Cancelling ctx sets the signal with stop.ReasonHostSignal and is
// also passed to the shutdown procedure, so its unbounded wait for exit can
// still be aborted. Calling Run again returns the first outcome.
func (l *Loop) Run(ctx context.Context) shutdown.Outcome {
	l.once.Do(func() {
		l.outcome = l.run(ctx)
	})
	return l.outcome
}

func (l *Loop) run(ctx context.Context) shutdown.Outcome {
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			l.signal.Set(stop.ReasonHostSignal)
		case <-l.signal.Done():
		case <-watchDone:
		}
	}()

	l.state.Store(int32(StateRunning))
	l.log.Debug("Monitoring every %s (idle threshold %s)", l.interval, l.tracker.Threshold())

	for !l.signal.IsSet() {
		l.cycle(ctx)
		if l.signal.WaitOrTimeout(l.interval) {
			break
		}
	}

	l.state.Store(int32(StateStopping))
	reason := l.signal.Reason()
	l.log.Debug("Stop signal observed (%s)", reason)
	l.emit(Event{Kind: EventStopping, Reason: reason})

	var outcome shutdown.Outcome
	if l.shutdown != nil {
		outcome = l.shutdown.Shutdown(ctx)
	}

	l.state.Store(int32(StateTerminated))
	l.emit(Event{Kind: EventTerminated, Outcome: &outcome})
	return outcome
}

// cycle runs one probe and folds it into the tracker.
func (l *Loop) cycle(ctx context.Context) {
	sample, err := l.prober.Probe(ctx)
	if err != nil {
		l.log.Debug("Probe failed: %v", err)
		l.tracker.Update(nil, l.interval)
		l.emit(Event{Kind: EventProbeFailed, Err: err})
		return
	}

	before := l.tracker.Accumulated()
	decision := l.tracker.Update(sample, l.interval)

	l.emit(Event{Kind: EventSample, Sample: sample})

	if sample.Online > 0 && before > 0 {
		l.emit(Event{Kind: EventIdleReset})
	}

	if decision == idle.ThresholdReached {
		l.emit(Event{Kind: EventThresholdReached})
		l.signal.Set(stop.ReasonIdleTimeout)
	}
}

// relayStep turns shutdown progress into events.
func (l *Loop) relayStep(se shutdown.StepEvent) {
	e := Event{Step: se.Step, Err: se.Err, Running: se.Running}
	switch se.Status {
	case shutdown.StepStarted:
		e.Kind = EventStepStarted
	case shutdown.StepWaiting:
		e.Kind = EventStepWaiting
	case shutdown.StepFinished:
		e.Kind = EventStepFinished
	case shutdown.StepFailed:
		e.Kind = EventStepFailed
	}
	l.emit(e)
}

func (l *Loop) emit(e Event) {
	e.Time = l.now()
	e.Idle = l.tracker.Accumulated()
	e.Threshold = l.tracker.Threshold()
	l.report.Report(e)
}
