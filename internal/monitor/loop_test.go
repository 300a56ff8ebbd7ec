package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/logger"
	ptesting "github.com/rileyhilliard/mcwatch/internal/probe/testing"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	shtesting "github.com/rileyhilliard/mcwatch/internal/shutdown/testing"
	"github.com/rileyhilliard/mcwatch/internal/stop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingShutdown records how many times Shutdown runs.
type countingShutdown struct {
	mu    sync.Mutex
	calls int
	state func() State
	seen  []State
}

func (c *countingShutdown) Shutdown(ctx context.Context) shutdown.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.state != nil {
		c.seen = append(c.seen, c.state())
	}
	return shutdown.Outcome{ProcessStopped: true, ExitConfirmed: true}
}

func (c *countingShutdown) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func runWithTimeout(t *testing.T, l *Loop) shutdown.Outcome {
	t.Helper()
	done := make(chan shutdown.Outcome, 1)
	go func() { done <- l.Run(context.Background()) }()
	select {
	case out := <-done:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not terminate")
		return shutdown.Outcome{}
	}
}

func TestLoop_IdleThresholdTriggersShutdown(t *testing.T) {
	prober := ptesting.NewFakeProber(
		ptesting.Online(0, 10),
		ptesting.Online(2, 10),
		ptesting.Online(0, 10),
	).Forever(ptesting.Online(0, 10))
	sd := &countingShutdown{}
	rec := &Recorder{}

	l := NewLoop(Options{
		Prober:    prober,
		Threshold: 3 * time.Millisecond,
		Interval:  time.Millisecond,
		Shutdown:  sd,
		Reporter:  rec,
	})
	sd.state = l.State

	out := runWithTimeout(t, l)

	assert.True(t, out.ExitConfirmed)
	assert.Equal(t, 1, sd.Calls())
	assert.Equal(t, []State{StateStopping}, sd.seen)
	assert.Equal(t, StateTerminated, l.State())
	assert.Equal(t, stop.ReasonIdleTimeout, l.Signal().Reason())

	// 0 (1ms), 2 (reset), 0, 0, 0 (3ms) -> five probes.
	assert.Equal(t, 5, prober.ProbeCalls())
	assert.Equal(t, 1, rec.Count(EventIdleReset))
	assert.Equal(t, 1, rec.Count(EventThresholdReached))
	assert.Equal(t, 1, rec.Count(EventStopping))

	kinds := rec.Kinds()
	require.GreaterOrEqual(t, len(kinds), 2)
	assert.Equal(t, EventStopping, kinds[len(kinds)-2])
	assert.Equal(t, EventTerminated, kinds[len(kinds)-1])
}

func TestLoop_ProbeFailuresDoNotCountAsIdle(t *testing.T) {
	prober := ptesting.NewFakeProber().Forever(ptesting.Failure())
	sd := &countingShutdown{}
	rec := &Recorder{}
	sig := stop.New()

	l := NewLoop(Options{
		Prober:    prober,
		Threshold: time.Millisecond,
		Interval:  time.Millisecond,
		Signal:    sig,
		Shutdown:  sd,
		Reporter:  rec,
	})

	done := make(chan shutdown.Outcome, 1)
	go func() { done <- l.Run(context.Background()) }()

	require.Eventually(t, func() bool { return prober.ProbeCalls() >= 20 }, 5*time.Second, time.Millisecond)
	assert.False(t, sig.IsSet(), "failed probes must never reach the idle threshold")
	assert.Equal(t, 0, sd.Calls())

	sig.Set(stop.ReasonManual)
	<-done

	assert.Equal(t, 1, sd.Calls())
	assert.Zero(t, rec.Count(EventThresholdReached))
	assert.GreaterOrEqual(t, rec.Count(EventProbeFailed), 20)
	for _, e := range rec.Events() {
		assert.Zero(t, e.Idle)
	}
}

func TestLoop_ManualStopInterruptsWait(t *testing.T) {
	prober := ptesting.NewFakeProber().Forever(ptesting.Online(1, 10))
	sd := &countingShutdown{}
	sig := stop.New()

	l := NewLoop(Options{
		Prober:   prober,
		Interval: time.Hour,
		Signal:   sig,
		Shutdown: sd,
	})

	done := make(chan shutdown.Outcome, 1)
	go func() { done <- l.Run(context.Background()) }()

	require.Eventually(t, func() bool { return prober.ProbeCalls() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StateRunning, l.State())

	sig.Set(stop.ReasonManual)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("manual stop was not noticed before the poll interval elapsed")
	}
	assert.Equal(t, 1, sd.Calls())
	assert.Equal(t, stop.ReasonManual, sig.Reason())
}

func TestLoop_ConcurrentStopsShutDownOnce(t *testing.T) {
	prober := ptesting.NewFakeProber().Forever(ptesting.Online(0, 10))
	sd := &countingShutdown{}
	sig := stop.New()

	l := NewLoop(Options{
		Prober:    prober,
		Threshold: 2 * time.Millisecond,
		Interval:  time.Millisecond,
		Signal:    sig,
		Shutdown:  sd,
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig.Set(stop.ReasonManual)
		}()
	}

	out := runWithTimeout(t, l)
	wg.Wait()

	assert.True(t, out.ProcessStopped)
	assert.True(t, sig.IsSet())
	assert.Equal(t, 1, sd.Calls())

	// A second Run returns the same outcome without shutting down again.
	assert.Equal(t, out, l.Run(context.Background()))
	assert.Equal(t, 1, sd.Calls())
}

func TestLoop_AlreadySetSkipsProbing(t *testing.T) {
	prober := ptesting.NewFakeProber().Forever(ptesting.Online(0, 10))
	sd := &countingShutdown{}
	sig := stop.New()
	sig.Set(stop.ReasonManual)

	l := NewLoop(Options{Prober: prober, Signal: sig, Shutdown: sd})
	runWithTimeout(t, l)

	assert.Equal(t, 0, prober.ProbeCalls())
	assert.Equal(t, 1, sd.Calls())
}

func TestLoop_ContextCancelSetsHostSignal(t *testing.T) {
	prober := ptesting.NewFakeProber().Forever(ptesting.Online(1, 10))
	sd := &countingShutdown{}

	l := NewLoop(Options{Prober: prober, Interval: time.Hour, Shutdown: sd})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return prober.ProbeCalls() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop ignored context cancellation")
	}
	assert.Equal(t, stop.ReasonHostSignal, l.Signal().Reason())
	assert.Equal(t, 1, sd.Calls())
}

func TestLoop_DisabledThresholdRunsUntilStopped(t *testing.T) {
	prober := ptesting.NewFakeProber().Forever(ptesting.Online(0, 10))
	sd := &countingShutdown{}
	sig := stop.New()

	l := NewLoop(Options{Prober: prober, Threshold: 0, Interval: time.Millisecond, Signal: sig, Shutdown: sd})

	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return prober.ProbeCalls() >= 50 }, 5*time.Second, time.Millisecond)
	assert.False(t, sig.IsSet())

	sig.Set(stop.ReasonManual)
	<-done
	assert.Equal(t, 1, sd.Calls())
}

func TestLoop_RelaysShutdownSteps(t *testing.T) {
	prober := ptesting.NewFakeProber().Forever(ptesting.Online(0, 10))
	rt := shtesting.NewFakeRuntime([]string{"bds"})
	coord := shutdown.NewCoordinator(shutdown.Options{
		Runtime:         rt,
		ConfirmInterval: time.Millisecond,
	})
	rec := &Recorder{}

	l := NewLoop(Options{
		Prober:    prober,
		Threshold: time.Millisecond,
		Interval:  time.Millisecond,
		Shutdown:  coord,
		Reporter:  rec,
	})

	out := runWithTimeout(t, l)
	require.NoError(t, out.Err)

	assert.Equal(t, 2, rec.Count(EventStepStarted))
	assert.Equal(t, 1, rec.Count(EventStepWaiting))
	assert.Equal(t, 2, rec.Count(EventStepFinished))

	events := rec.Events()
	last := events[len(events)-1]
	require.Equal(t, EventTerminated, last.Kind)
	require.NotNil(t, last.Outcome)
	assert.True(t, last.Outcome.ExitConfirmed)
}

func TestLoop_Defaults(t *testing.T) {
	l := NewLoop(Options{Prober: ptesting.NewFakeProber()})
	assert.Equal(t, DefaultInterval, l.interval)
	assert.NotNil(t, l.Signal())
	assert.Equal(t, StateIdle, l.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "stopping", StateStopping.String())
	assert.Equal(t, "terminated", StateTerminated.String())
}

func TestLogReporter(t *testing.T) {
	buf := logger.NewBufferLogger()
	r := NewLogReporter(buf)
	sample := ptesting.Online(3, 10).Sample

	r.Report(Event{Kind: EventSample, Sample: sample, Idle: 0})
	r.Report(Event{Kind: EventProbeFailed, Err: assert.AnError})
	r.Report(Event{Kind: EventThresholdReached, Idle: 10 * time.Minute})
	r.Report(Event{Kind: EventStopping, Reason: stop.ReasonManual})
	r.Report(Event{Kind: EventStepFailed, Step: shutdown.StepStopServer, Err: assert.AnError})
	r.Report(Event{Kind: EventTerminated, Outcome: &shutdown.Outcome{ExitConfirmed: true}})

	msgs := buf.Snapshot()
	require.Len(t, msgs, 6)
	assert.Equal(t, "info", msgs[0].Level)
	assert.Contains(t, msgs[0].Message, "Players 3/10")
	assert.Equal(t, "warn", msgs[1].Level)
	assert.Contains(t, msgs[1].Message, "Server is offline")
	assert.Contains(t, msgs[2].Message, "No players for 10m0s")
	assert.Equal(t, "Manual shutdown requested.", msgs[3].Message)
	assert.Equal(t, "error", msgs[4].Level)
	assert.Contains(t, msgs[4].Message, `"stop server"`)
	assert.Contains(t, msgs[5].Message, "Shutdown complete")
}

func TestReporters_FanOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	rs := Reporters{a, nil, b}

	rs.Report(Event{Kind: EventIdleReset})

	assert.Equal(t, []EventKind{EventIdleReset}, a.Kinds())
	assert.Equal(t, []EventKind{EventIdleReset}, b.Kinds())
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "threshold-reached", EventThresholdReached.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
