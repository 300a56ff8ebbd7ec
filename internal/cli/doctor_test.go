package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/mcwatch/internal/config"
	probetest "github.com/rileyhilliard/mcwatch/internal/probe/testing"
	shutdowntest "github.com/rileyhilliard/mcwatch/internal/shutdown/testing"
)

func doctorFixture(t *testing.T) (string, *config.Config, components) {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("server_ip: 127.0.0.1\n"), 0o644))

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	require.NoError(t, os.MkdirAll(cfg.WorldDir(), 0o755))

	deps := components{
		Prober:  probetest.NewFakeProber(probetest.Online(1, 10)),
		Runtime: shutdowntest.NewFakeRuntime([]string{"bds"}),
		Power:   &shutdowntest.FakePower{},
	}
	return path, cfg, deps
}

func TestRunDoctor_Text(t *testing.T) {
	path, cfg, deps := doctorFixture(t)
	out := &syncBuffer{}

	require.NoError(t, runDoctor(context.Background(), path, cfg, deps, t.TempDir(), out, false))

	text := out.String()
	assert.Contains(t, text, "mcwatch Diagnostic Report")
	for _, header := range []string{"CONFIG", "RUNTIME", "SERVER"} {
		assert.Contains(t, text, header)
	}
	assert.Contains(t, text, "1/10 players")
	assert.Contains(t, text, "Everything looks good")
}

func TestRunDoctor_ReportsFailures(t *testing.T) {
	path, cfg, deps := doctorFixture(t)
	deps.Prober = probetest.NewFakeProber(probetest.Failure())
	out := &syncBuffer{}

	require.NoError(t, runDoctor(context.Background(), path, cfg, deps, t.TempDir(), out, false))

	text := out.String()
	assert.Contains(t, text, "did not answer")
	assert.Contains(t, text, "1 issue found")
}

func TestRunDoctor_JSON(t *testing.T) {
	path, cfg, deps := doctorFixture(t)
	out := &syncBuffer{}

	require.NoError(t, runDoctor(context.Background(), path, cfg, deps, t.TempDir(), out, true))

	var report DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out.String()), &report))
	require.Len(t, report.Categories, 3)
	assert.Equal(t, "CONFIG", report.Categories[0].Name)
	assert.Equal(t, "SERVER", report.Categories[2].Name)
	assert.True(t, report.Summary.AllClear)
	assert.Equal(t, 7, report.Summary.Pass)
}
