package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/mcwatch/internal/power"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	"github.com/rileyhilliard/mcwatch/internal/util"
)

// DockerCheck verifies the container runtime answers and reports how many
// containers of the project are up.
type DockerCheck struct {
	Runtime shutdown.ContainerRuntime
	Project string
}

func (c *DockerCheck) Name() string     { return "docker" }
func (c *DockerCheck) Category() string { return CategoryRuntime }

func (c *DockerCheck) Run(ctx context.Context) CheckResult {
	ids, err := c.Runtime.ListRunning(ctx)
	if err != nil {
		msg, suggestion := describe(err)
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	scope := "running"
	if c.Project != "" {
		scope = "running in " + c.Project
	}
	return CheckResult{
		Name:   c.Name(),
		Status: StatusPass,
		Message: fmt.Sprintf("Docker reachable, %d %s %s",
			len(ids), util.Pluralize(len(ids), "container", "containers"), scope),
	}
}

// PowerCheck verifies the host can be powered off when that is enabled.
type PowerCheck struct {
	GOOS    string
	Enabled bool
}

func (c *PowerCheck) Name() string     { return "power_off" }
func (c *PowerCheck) Category() string { return CategoryRuntime }

func (c *PowerCheck) Run(context.Context) CheckResult {
	argv, err := power.Command(c.GOOS)
	switch {
	case err != nil && c.Enabled:
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Power-off is enabled but not supported on %s", c.GOOS),
			Suggestion: "Set automatic_shutdown to false",
		}
	case err != nil:
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("Power-off disabled (not supported on %s)", c.GOOS),
		}
	case !c.Enabled:
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "Power-off disabled",
		}
	default:
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("Power-off enabled (%s)", strings.Join(argv, " ")),
		}
	}
}
