// Package stop provides the set-once signal that ends a monitoring session.
package stop

import (
	"context"
	"sync/atomic"
	"time"
)

// Reason records which source set the signal.
type Reason int32

const (
	ReasonNone Reason = iota
	ReasonIdleTimeout
	ReasonManual
	ReasonHostSignal
)

// String returns a human-readable label for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonIdleTimeout:
		return "idle timeout"
	case ReasonManual:
		return "manual stop"
	case ReasonHostSignal:
		return "host signal"
	default:
		return "none"
	}
}

// Signal is a flag that can be set exactly once from any goroutine and
// waited on without polling. The zero value is not usable; use New.
type Signal struct {
	state atomic.Int32 // 0 = unset, otherwise the winning Reason
	done  chan struct{}
}

// New creates an unset signal.
func New() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Set marks the signal. Only the first call wins and returns true; later
// calls are no-ops.
func (s *Signal) Set(reason Reason) bool {
	if reason == ReasonNone {
		reason = ReasonManual
	}
	if !s.state.CompareAndSwap(int32(ReasonNone), int32(reason)) {
		return false
	}
	close(s.done)
	return true
}

// IsSet reports whether the signal has been set.
func (s *Signal) IsSet() bool {
	return Reason(s.state.Load()) != ReasonNone
}

// Reason returns the reason passed to the winning Set, or ReasonNone.
func (s *Signal) Reason() Reason {
	return Reason(s.state.Load())
}

// Done returns a channel that is closed once the signal is set.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// WaitOrTimeout blocks for up to d and reports whether the signal is set.
// A non-positive d only polls.
func (s *Signal) WaitOrTimeout(d time.Duration) bool {
	if s.IsSet() {
		return true
	}
	if d <= 0 {
		return false
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.done:
		return true
	case <-timer.C:
		return s.IsSet()
	}
}

// Wait blocks until the signal is set or ctx is done.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
