// Package testing provides test doubles for the shutdown package.
package testing

import (
	"context"
	"sync"
)

// FakeRuntime is a scripted ContainerRuntime.
type FakeRuntime struct {
	mu sync.Mutex

	// StopErr is returned from Stop.
	StopErr error
	// Running is consumed one entry per ListRunning call; once exhausted,
	// ListRunning reports nothing running.
	Running [][]string
	// ListErrs is consumed alongside Running; a non-nil entry is returned
	// instead of that poll's container list.
	ListErrs []error

	StopCalls int
	ListCalls int
	// Calls records the order of every call ("stop", "list").
	Calls []string
}

// NewFakeRuntime creates a runtime that reports the given container lists
// on successive polls.
func NewFakeRuntime(running ...[]string) *FakeRuntime {
	return &FakeRuntime{Running: running}
}

// Stop records the call and returns StopErr.
func (f *FakeRuntime) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StopCalls++
	f.Calls = append(f.Calls, "stop")
	return f.StopErr
}

// ListRunning returns the next scripted container list.
func (f *FakeRuntime) ListRunning(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	f.Calls = append(f.Calls, "list")

	var err error
	if len(f.ListErrs) > 0 {
		err = f.ListErrs[0]
		f.ListErrs = f.ListErrs[1:]
	}

	var ids []string
	if len(f.Running) > 0 {
		ids = f.Running[0]
		f.Running = f.Running[1:]
	}

	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CallLog returns a copy of the recorded call order.
func (f *FakeRuntime) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	copy(out, f.Calls)
	return out
}

// FakePower is a PowerController that records calls.
type FakePower struct {
	mu sync.Mutex

	Err   error
	Calls int

	// OnPowerOff runs before PowerOff returns, to let tests inspect state.
	OnPowerOff func()
}

// PowerOff records the call and returns Err.
func (f *FakePower) PowerOff(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.OnPowerOff != nil {
		f.OnPowerOff()
	}
	return f.Err
}
