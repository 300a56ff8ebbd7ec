// Package testing provides test doubles for the probe package.
package testing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/probe"
)

// ErrScriptExhausted is returned once every scripted response has been used
// and no fallback was configured.
var ErrScriptExhausted = errors.New("fake prober: no more scripted responses")

// Response is one scripted probe result.
type Response struct {
	Sample *probe.Sample
	Err    error
}

// FakeProber replays scripted responses in order.
type FakeProber struct {
	mu        sync.Mutex
	responses []Response
	fallback  *Response

	// Calls counts Probe invocations.
	Calls int
}

// NewFakeProber creates a prober that replays the given responses.
func NewFakeProber(responses ...Response) *FakeProber {
	return &FakeProber{responses: responses}
}

// Online returns a response reporting n players out of max.
func Online(n, max uint) Response {
	return Response{Sample: &probe.Sample{
		Online:     n,
		MaxOnline:  max,
		Latency:    5 * time.Millisecond,
		ObservedAt: time.Now(),
	}}
}

// Failure returns a response that fails with a timeout ProbeError.
func Failure() Response {
	return Response{Err: &probe.ProbeError{
		Address: "127.0.0.1:19132",
		Reason:  probe.FailTimeout,
	}}
}

// Then appends responses to the script.
func (f *FakeProber) Then(responses ...Response) *FakeProber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, responses...)
	return f
}

// Forever sets the response used after the script runs out.
func (f *FakeProber) Forever(r Response) *FakeProber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = &r
	return f
}

// Probe returns the next scripted response.
func (f *FakeProber) Probe(ctx context.Context) (*probe.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r Response
	switch {
	case len(f.responses) > 0:
		r = f.responses[0]
		f.responses = f.responses[1:]
	case f.fallback != nil:
		r = *f.fallback
	default:
		return nil, ErrScriptExhausted
	}

	if r.Err != nil {
		return nil, r.Err
	}
	sample := *r.Sample
	return &sample, nil
}

// ProbeCalls returns the number of Probe calls so far.
func (f *FakeProber) ProbeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}
