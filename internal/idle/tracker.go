// Package idle tracks how long a server has been empty across probe cycles.
package idle

import (
	"time"

	"github.com/rileyhilliard/mcwatch/internal/probe"
)

// Decision is the result of folding one sample into the tracker.
type Decision int

const (
	Continue Decision = iota
	ThresholdReached
)

// String returns a human-readable label for the decision.
func (d Decision) String() string {
	switch d {
	case ThresholdReached:
		return "threshold-reached"
	default:
		return "continue"
	}
}

// Tracker accumulates idle time. It is owned by a single goroutine and does
// no locking.
type Tracker struct {
	accumulated time.Duration
	threshold   time.Duration
	lastOnline  uint
}

// NewTracker creates a tracker. A threshold <= 0 disables the idle trigger.
func NewTracker(threshold time.Duration) *Tracker {
	return &Tracker{threshold: threshold}
}

// Update folds one probe cycle into the tracker.
//
// A nil sample means the probe failed; that cycle counts as unknown rather
// than empty, so accumulated idle time is left untouched.
func (t *Tracker) Update(sample *probe.Sample, elapsed time.Duration) Decision {
	if sample == nil {
		return Continue
	}

	t.lastOnline = sample.Online
	if sample.Online > 0 {
		t.accumulated = 0
		return Continue
	}

	if elapsed > 0 {
		t.accumulated += elapsed
	}

	if t.Enabled() && t.accumulated >= t.threshold {
		return ThresholdReached
	}
	return Continue
}

// Enabled reports whether the idle trigger can fire.
func (t *Tracker) Enabled() bool {
	return t.threshold > 0
}

// Accumulated returns the current idle duration.
func (t *Tracker) Accumulated() time.Duration {
	return t.accumulated
}

// Threshold returns the configured idle limit.
func (t *Tracker) Threshold() time.Duration {
	return t.threshold
}

// Remaining returns the idle time left before the threshold is reached,
// or zero when disabled or already reached.
func (t *Tracker) Remaining() time.Duration {
	if !t.Enabled() || t.accumulated >= t.threshold {
		return 0
	}
	return t.threshold - t.accumulated
}

// LastOnline returns the player count from the most recent successful sample.
func (t *Tracker) LastOnline() uint {
	return t.lastOnline
}
