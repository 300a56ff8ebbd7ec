// Package power turns the host machine off.
package power

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupportedPlatform is returned when no power-off command is known for
// the host operating system.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// ExecCommandFunc creates an exec.Cmd. Tests replace it to avoid shutting down.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Command returns the power-off command line for goos.
func Command(goos string) ([]string, error) {
	switch goos {
	case "windows":
		return []string{"shutdown", "/s", "/t", "0"}, nil
	case "linux", "darwin":
		return []string{"shutdown", "now"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// Controller issues the platform power-off command.
type Controller struct {
	goos        string
	execCommand ExecCommandFunc
}

// NewController creates a controller for the running platform.
func NewController() *Controller {
	return &Controller{goos: runtime.GOOS, execCommand: exec.CommandContext}
}

// NewControllerFor creates a controller for a specific GOOS with a custom
// command factory.
func NewControllerFor(goos string, fn ExecCommandFunc) *Controller {
	if fn == nil {
		fn = exec.CommandContext
	}
	return &Controller{goos: goos, execCommand: fn}
}

// Platform returns the GOOS this controller targets.
func (c *Controller) Platform() string {
	return c.goos
}

// PowerOff runs the power-off command. On an unknown platform it returns
// ErrUnsupportedPlatform without running anything.
func (c *Controller) PowerOff(ctx context.Context) error {
	argv, err := Command(c.goos)
	if err != nil {
		return err
	}

	cmd := c.execCommand(ctx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", strings.Join(argv, " "), err, msg)
		}
		return fmt.Errorf("%s: %w", strings.Join(argv, " "), err)
	}
	return nil
}
