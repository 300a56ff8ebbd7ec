// Package shutdown runs the ordered procedure that takes the server down:
// stop the compose project, wait until no container is left running, then
// optionally power off the host.
package shutdown

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/rileyhilliard/mcwatch/internal/logger"
	"github.com/rileyhilliard/mcwatch/internal/power"
)

// DefaultConfirmInterval is how often the container list is polled while
// waiting for the server to exit.
const DefaultConfirmInterval = time.Second

var (
	// ErrStopCommand marks a failed stop command.
	ErrStopCommand = stderrors.New("stop command failed")
	// ErrExitConfirmation marks a wait for exit that was cancelled.
	ErrExitConfirmation = stderrors.New("exit confirmation cancelled")
	// ErrPowerOff marks a power-off command that ran and failed.
	ErrPowerOff = stderrors.New("power-off failed")
	// ErrUnsupportedPlatform marks a host with no known power-off command.
	ErrUnsupportedPlatform = power.ErrUnsupportedPlatform
)

// ContainerRuntime stops the server and reports what is still running.
type ContainerRuntime interface {
	Stop(ctx context.Context) error
	ListRunning(ctx context.Context) ([]string, error)
}

// PowerController powers off the host.
type PowerController interface {
	PowerOff(ctx context.Context) error
}

// Step identifies one stage of the procedure.
type Step int

const (
	StepStopServer Step = iota
	StepConfirmExit
	StepPowerOff
)

// String returns a human-readable label for the step.
func (s Step) String() string {
	switch s {
	case StepStopServer:
		return "stop server"
	case StepConfirmExit:
		return "confirm exit"
	case StepPowerOff:
		return "power off"
	default:
		return "unknown"
	}
}

// StepStatus is the state a step event reports.
type StepStatus int

const (
	StepStarted StepStatus = iota
	StepFinished
	StepFailed
	StepWaiting
)

// StepEvent describes progress through the procedure.
type StepEvent struct {
	Step    Step
	Status  StepStatus
	Err     error
	Running int // containers still running, for StepWaiting
}

// Observer receives step events. It is called from the goroutine running
// Shutdown.
type Observer func(StepEvent)

// Outcome is the result of the procedure.
type Outcome struct {
	ProcessStopped        bool
	ExitConfirmed         bool
	HostShutdownRequested bool
	Err                   error
}

// Kind returns the error code of the first failure, or "" on success.
func (o Outcome) Kind() string {
	return errors.CodeOf(o.Err)
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	if o.Err != nil {
		return 1
	}
	return 0
}

// Options configures a Coordinator.
type Options struct {
	Runtime         ContainerRuntime
	Power           PowerController
	PowerOff        bool
	ConfirmInterval time.Duration
	Observer        Observer
	Logger          logger.Logger
}

// Coordinator runs the shutdown procedure at most once.
type Coordinator struct {
	runtime  ContainerRuntime
	power    PowerController
	powerOff bool
	interval time.Duration
	observe  Observer
	log      logger.Logger

	once    sync.Once
	outcome Outcome
}

// NewCoordinator creates a coordinator.
func NewCoordinator(opts Options) *Coordinator {
	c := &Coordinator{
		runtime:  opts.Runtime,
		power:    opts.Power,
		powerOff: opts.PowerOff,
		interval: opts.ConfirmInterval,
		observe:  opts.Observer,
		log:      opts.Logger,
	}
	if c.interval <= 0 {
		c.interval = DefaultConfirmInterval
	}
	if c.observe == nil {
		c.observe = func(StepEvent) {}
	}
	if c.log == nil {
		c.log = logger.Noop()
	}
	return c
}

// SetObserver replaces the step observer. It must be called before Shutdown.
func (c *Coordinator) SetObserver(o Observer) {
	if o == nil {
		o = func(StepEvent) {}
	}
	c.observe = o
}

// Shutdown runs the procedure. Later calls return the first outcome without
// running anything.
func (c *Coordinator) Shutdown(ctx context.Context) Outcome {
	c.once.Do(func() {
		c.outcome = c.run(ctx)
	})
	return c.outcome
}

func (c *Coordinator) run(ctx context.Context) Outcome {
	var out Outcome

	c.log.Info("Stopping server...")
	c.observe(StepEvent{Step: StepStopServer, Status: StepStarted})
	if err := c.runtime.Stop(ctx); err != nil {
		c.log.Error("Stop command failed: %v", err)
		out.Err = errors.WrapWithCode(stderrors.Join(ErrStopCommand, err), errors.ErrStop,
			"Couldn't stop the server",
			"Stop the containers by hand with 'docker compose stop'.")
		c.observe(StepEvent{Step: StepStopServer, Status: StepFailed, Err: err})
	} else {
		out.ProcessStopped = true
		c.observe(StepEvent{Step: StepStopServer, Status: StepFinished})
	}

	c.log.Info("Waiting for server to stop...")
	c.observe(StepEvent{Step: StepConfirmExit, Status: StepStarted})
	if err := c.confirmExit(ctx); err != nil {
		c.log.Error("Gave up waiting for the server to exit: %v", err)
		out.Err = join(out.Err, errors.WrapWithCode(stderrors.Join(ErrExitConfirmation, err), errors.ErrStop,
			"Stopped waiting for the server to exit",
			"Check 'docker container ps' before powering off."))
		c.observe(StepEvent{Step: StepConfirmExit, Status: StepFailed, Err: err})
		return out
	}
	out.ExitConfirmed = true
	c.log.Info("Server stopped.")
	c.observe(StepEvent{Step: StepConfirmExit, Status: StepFinished})

	if !c.powerOff || c.power == nil {
		return out
	}

	c.log.Info("Shutting down the machine...")
	c.observe(StepEvent{Step: StepPowerOff, Status: StepStarted})
	if err := c.power.PowerOff(ctx); err != nil {
		var wrapped error
		if stderrors.Is(err, ErrUnsupportedPlatform) {
			c.log.Error("Unsupported OS: %v", err)
			wrapped = errors.WrapWithCode(err, errors.ErrPlatform,
				"Can't power off this host",
				"Power off the machine by hand, or run without --automatic-shutdown.")
		} else {
			c.log.Error("Power-off failed: %v", err)
			wrapped = errors.WrapWithCode(stderrors.Join(ErrPowerOff, err), errors.ErrExec,
				"Couldn't power off the host",
				"mcwatch may need to run as root (or an administrator) to shut the machine down.")
		}
		out.Err = join(out.Err, wrapped)
		c.observe(StepEvent{Step: StepPowerOff, Status: StepFailed, Err: err})
		return out
	}
	out.HostShutdownRequested = true
	c.observe(StepEvent{Step: StepPowerOff, Status: StepFinished})

	return out
}

// confirmExit polls until no container is running. It only gives up when
// ctx is done; list errors count as "still running".
func (c *Coordinator) confirmExit(ctx context.Context) error {
	for {
		ids, err := c.runtime.ListRunning(ctx)
		switch {
		case err != nil:
			c.log.Warn("Couldn't list containers: %v", err)
		case len(ids) == 0:
			return nil
		default:
			c.log.Debug("%d container(s) still running", len(ids))
			c.observe(StepEvent{Step: StepConfirmExit, Status: StepWaiting, Running: len(ids)})
		}

		if err := sleep(ctx, c.interval); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// join keeps the first error at the front so CodeOf reports it.
func join(first, next error) error {
	if first == nil {
		return next
	}
	return stderrors.Join(first, next)
}
