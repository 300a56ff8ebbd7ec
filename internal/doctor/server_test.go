package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/mcwatch/internal/lock"
	"github.com/rileyhilliard/mcwatch/internal/probe"
	probetest "github.com/rileyhilliard/mcwatch/internal/probe/testing"
	shutdowntest "github.com/rileyhilliard/mcwatch/internal/shutdown/testing"
)

func TestServerCheck(t *testing.T) {
	t.Run("online", func(t *testing.T) {
		check := &ServerCheck{Prober: probetest.NewFakeProber(probetest.Online(2, 10)), Address: "a:1"}
		result := check.Run(context.Background())
		assert.Equal(t, StatusPass, result.Status)
		assert.Contains(t, result.Message, "2/10 players")
	})

	t.Run("timeout", func(t *testing.T) {
		check := &ServerCheck{Prober: probetest.NewFakeProber(probetest.Failure()), Address: "a:1"}
		result := check.Run(context.Background())
		assert.Equal(t, StatusFail, result.Status)
		assert.Contains(t, result.Message, "timed out")
	})

	t.Run("not bedrock", func(t *testing.T) {
		prober := probetest.NewFakeProber(probetest.Response{Err: &probe.ProbeError{Reason: probe.FailMalformed}})
		result := (&ServerCheck{Prober: prober, Address: "a:1"}).Run(context.Background())
		assert.Equal(t, StatusFail, result.Status)
		assert.Contains(t, result.Suggestion, "isn't a Bedrock server")
	})
}

func TestDockerCheck(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		check := &DockerCheck{Runtime: shutdowntest.NewFakeRuntime([]string{"a", "b"}), Project: "mc"}
		result := check.Run(context.Background())
		assert.Equal(t, StatusPass, result.Status)
		assert.Equal(t, "Docker reachable, 2 containers running in mc", result.Message)
	})

	t.Run("unreachable", func(t *testing.T) {
		runtime := shutdowntest.NewFakeRuntime()
		runtime.ListErrs = []error{errors.New("cannot connect to the docker daemon")}
		result := (&DockerCheck{Runtime: runtime}).Run(context.Background())
		assert.Equal(t, StatusFail, result.Status)
	})
}

func TestPowerCheck(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		enabled bool
		status  CheckStatus
		message string
	}{
		{"enabled on linux", "linux", true, StatusPass, "shutdown now"},
		{"disabled", "linux", false, StatusPass, "Power-off disabled"},
		{"enabled on unsupported", "plan9", true, StatusFail, "not supported on plan9"},
		{"disabled on unsupported", "plan9", false, StatusPass, "not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := (&PowerCheck{GOOS: tt.goos, Enabled: tt.enabled}).Run(context.Background())
			assert.Equal(t, tt.status, result.Status)
			assert.Contains(t, result.Message, tt.message)
		})
	}
}

func TestMonitorLockCheck(t *testing.T) {
	dir := t.TempDir()
	name := lock.Name("127.0.0.1:19132", "")
	check := &MonitorLockCheck{Dir: dir, LockName: name}

	assert.Equal(t, StatusPass, check.Run(context.Background()).Status)

	held, err := lock.Acquire(name, "127.0.0.1:19132", lock.Options{Dir: dir})
	require.NoError(t, err)
	defer held.Release()

	result := check.Run(context.Background())
	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "pid")

	require.NoError(t, held.Release())
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, StatusPass, check.Run(context.Background()).Status)
}
