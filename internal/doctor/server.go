package doctor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/mcwatch/internal/lock"
	"github.com/rileyhilliard/mcwatch/internal/probe"
)

// ServerCheck pings the Bedrock server once.
type ServerCheck struct {
	Prober  probe.Prober
	Address string
}

func (c *ServerCheck) Name() string     { return "server_ping" }
func (c *ServerCheck) Category() string { return CategoryServer }

func (c *ServerCheck) Run(ctx context.Context) CheckResult {
	sample, err := c.Prober.Probe(ctx)
	if err != nil {
		result := CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s did not answer", c.Address),
			Suggestion: "Check the server is running and server_ip/server_port point at it",
		}
		var probeErr *probe.ProbeError
		if stderrors.As(err, &probeErr) {
			result.Message = fmt.Sprintf("%s did not answer: %s", c.Address, probeErr.Reason)
			if probeErr.Reason == probe.FailMalformed {
				result.Suggestion = "Something answered on that port, but it isn't a Bedrock server"
			}
		}
		return result
	}

	msg := fmt.Sprintf("%s online, %d/%d players (%.0f ms)",
		c.Address, sample.Online, sample.MaxOnline, sample.LatencyMillis())
	if sample.Version != "" {
		msg += ", version " + sample.Version
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: msg,
	}
}

// MonitorLockCheck reports whether another monitor already watches the
// server.
type MonitorLockCheck struct {
	Dir      string // lock directory; empty means the system temp dir
	LockName string
}

func (c *MonitorLockCheck) Name() string     { return "monitor_lock" }
func (c *MonitorLockCheck) Category() string { return CategoryServer }

func (c *MonitorLockCheck) Run(context.Context) CheckResult {
	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	lockDir := filepath.Join(dir, c.LockName)

	if _, err := os.Stat(lockDir); err != nil {
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: "No monitor running",
		}
	}

	return CheckResult{
		Name:       c.Name(),
		Status:     StatusWarn,
		Message:    fmt.Sprintf("A monitor is already running: %s", lock.Holder(lockDir)),
		Suggestion: "A second 'mcwatch monitor' for this server will refuse to start",
	}
}
