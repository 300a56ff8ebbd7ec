package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	"github.com/rileyhilliard/mcwatch/internal/util"
)

// stepLabels are the spinner labels for each shutdown step.
var stepLabels = map[shutdown.Step]string{
	shutdown.StepStopServer:  "Stopping server",
	shutdown.StepConfirmExit: "Waiting for containers to exit",
	shutdown.StepPowerOff:    "Powering off",
}

// StepPrinter prints one spinner line per shutdown step. Its Observe method
// is a shutdown.Observer.
type StepPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	current *Spinner
	step    shutdown.Step
}

// NewStepPrinter creates a printer writing to out.
func NewStepPrinter(out io.Writer) *StepPrinter {
	return &StepPrinter{out: out}
}

// Observe handles one step event.
func (p *StepPrinter) Observe(e shutdown.StepEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Status {
	case shutdown.StepStarted:
		p.finishLocked()
		p.step = e.Step
		p.current = NewSpinner(stepLabel(e.Step))
		p.current.SetOutput(func(s string) { fmt.Fprint(p.out, s) })
		p.current.Start()
	case shutdown.StepWaiting:
		if p.current != nil && p.step == e.Step {
			p.current.SetLabel(fmt.Sprintf("%s (%d %s still running)",
				stepLabel(e.Step), e.Running, util.Pluralize(e.Running, "container", "containers")))
		}
	case shutdown.StepFinished:
		if p.current != nil && p.step == e.Step {
			p.current.SetLabel(stepLabel(e.Step))
			p.current.Success()
			p.current = nil
		}
	case shutdown.StepFailed:
		if p.current != nil && p.step == e.Step {
			p.current.SetLabel(stepLabel(e.Step))
			p.current.Fail(errorDetail(e.Err))
			p.current = nil
		}
	}
}

// Close stops a spinner left running by an interrupted procedure.
func (p *StepPrinter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
}

func (p *StepPrinter) finishLocked() {
	if p.current != nil {
		p.current.Skip()
		p.current = nil
	}
}

func stepLabel(step shutdown.Step) string {
	if l, ok := stepLabels[step]; ok {
		return l
	}
	return step.String()
}

// errorDetail returns a one-line description of err. Coded errors render
// over several lines, so only their message is used.
func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}
