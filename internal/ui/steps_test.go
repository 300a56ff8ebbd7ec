package ui

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
)

// syncBuffer guards a bytes.Buffer written from the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStepPrinter_Procedure(t *testing.T) {
	out := &syncBuffer{}
	p := NewStepPrinter(out)

	p.Observe(shutdown.StepEvent{Step: shutdown.StepStopServer, Status: shutdown.StepStarted})
	p.Observe(shutdown.StepEvent{Step: shutdown.StepStopServer, Status: shutdown.StepFinished})
	p.Observe(shutdown.StepEvent{Step: shutdown.StepConfirmExit, Status: shutdown.StepStarted})
	p.Observe(shutdown.StepEvent{Step: shutdown.StepConfirmExit, Status: shutdown.StepWaiting, Running: 1})
	p.Observe(shutdown.StepEvent{Step: shutdown.StepConfirmExit, Status: shutdown.StepFinished})
	p.Observe(shutdown.StepEvent{
		Step:   shutdown.StepPowerOff,
		Status: shutdown.StepStarted,
	})
	p.Observe(shutdown.StepEvent{
		Step:   shutdown.StepPowerOff,
		Status: shutdown.StepFailed,
		Err:    errors.WrapWithCode(context.Canceled, errors.ErrPlatform, "Couldn't power off", "Run as root."),
	})
	p.Close()

	got := out.String()
	assert.Contains(t, got, "Stopping server")
	assert.Contains(t, got, "Waiting for containers to exit (1 container still running)")
	assert.Contains(t, got, SymbolComplete+" Waiting for containers to exit ")
	assert.Contains(t, got, "Powering off")
	assert.Contains(t, got, "(Couldn't power off)")
	assert.Contains(t, got, SymbolFail)
	assert.NotContains(t, got, "Run as root.")
}

func TestStepPrinter_CloseSkipsRunningStep(t *testing.T) {
	out := &syncBuffer{}
	p := NewStepPrinter(out)

	p.Observe(shutdown.StepEvent{Step: shutdown.StepConfirmExit, Status: shutdown.StepStarted})
	p.Close()
	p.Close()

	assert.Contains(t, out.String(), SymbolSkipped)
}

func TestStepPrinter_IgnoresStrayEvents(t *testing.T) {
	out := &syncBuffer{}
	p := NewStepPrinter(out)

	assert.NotPanics(t, func() {
		p.Observe(shutdown.StepEvent{Step: shutdown.StepPowerOff, Status: shutdown.StepFinished})
		p.Observe(shutdown.StepEvent{Step: shutdown.StepPowerOff, Status: shutdown.StepWaiting, Running: 2})
	})
	assert.Empty(t, out.String())
}
