package probe

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePong = "MCPE;Dedicated Server;390;1.14.60;3;10;13253860892328930865;Bedrock level;Survival;1;19132;19133;"

func TestParsePong(t *testing.T) {
	s, err := ParsePong([]byte(samplePong))
	require.NoError(t, err)

	assert.Equal(t, uint(3), s.Online)
	assert.Equal(t, uint(10), s.MaxOnline)
	assert.Equal(t, "Dedicated Server", s.MOTD)
	assert.Equal(t, "1.14.60", s.Version)
}

func TestParsePong_Education(t *testing.T) {
	s, err := ParsePong([]byte("MCEE;Classroom;390;1.14.60;0;30"))
	require.NoError(t, err)
	assert.Equal(t, uint(0), s.Online)
	assert.Equal(t, uint(30), s.MaxOnline)
}

func TestParsePong_Invalid(t *testing.T) {
	tests := []struct {
		name string
		pong string
	}{
		{"empty", ""},
		{"too few fields", "MCPE;motd;390;1.14.60"},
		{"wrong edition", "JAVA;motd;390;1.14.60;1;10"},
		{"bad online", "MCPE;motd;390;1.14.60;x;10"},
		{"bad max", "MCPE;motd;390;1.14.60;1;-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePong([]byte(tt.pong))
			assert.Error(t, err)
		})
	}
}

func TestBedrockProber_Probe(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{start, start.Add(42 * time.Millisecond)}
	clock := func() time.Time {
		now := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return now
	}

	var gotAddr string
	p := NewBedrockProber("10.0.0.5", 19132,
		WithClock(clock),
		WithPingFunc(func(ctx context.Context, address string) ([]byte, error) {
			gotAddr = address
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline, "ping should run under the probe timeout")
			return []byte(samplePong), nil
		}),
	)

	s, err := p.Probe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5:19132", gotAddr)
	assert.Equal(t, "10.0.0.5:19132", p.Address())
	assert.Equal(t, uint(3), s.Online)
	assert.Equal(t, 42*time.Millisecond, s.Latency)
	assert.InDelta(t, 42.0, s.LatencyMillis(), 0.001)
	assert.Equal(t, start, s.ObservedAt)
}

func TestBedrockProber_Malformed(t *testing.T) {
	p := NewBedrockProber("127.0.0.1", 19132, WithPingFunc(func(context.Context, string) ([]byte, error) {
		return []byte("garbage"), nil
	}))

	s, err := p.Probe(context.Background())
	assert.Nil(t, s)

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, FailMalformed, probeErr.Reason)
}

func TestBedrockProber_Timeout(t *testing.T) {
	p := NewBedrockProber("127.0.0.1", 19132,
		WithTimeout(10*time.Millisecond),
		WithPingFunc(func(ctx context.Context, _ string) ([]byte, error) {
			<-ctx.Done()
			return nil, errors.New("read udp: operation aborted")
		}),
	)

	_, err := p.Probe(context.Background())

	var probeErr *ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, FailTimeout, probeErr.Reason)
}

func TestWithTimeout_IgnoresNonPositive(t *testing.T) {
	p := NewBedrockProber("127.0.0.1", 19132, WithTimeout(0))
	assert.Equal(t, DefaultTimeout, p.timeout)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		err    error
		reason FailReason
	}{
		{context.DeadlineExceeded, FailTimeout},
		{errors.New("i/o timeout"), FailTimeout},
		{fmt.Errorf("read: %w", syscall.ECONNREFUSED), FailRefused},
		{errors.New("read udp 127.0.0.1:19132: connection refused"), FailRefused},
		{fmt.Errorf("dial: %w", syscall.ENETUNREACH), FailUnreachable},
		{errors.New("dial udp: lookup mc.example: no such host"), FailUnreachable},
		{errors.New("something odd"), FailUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			probeErr := categorize("127.0.0.1:19132", tt.err)
			require.NotNil(t, probeErr)
			assert.Equal(t, tt.reason, probeErr.Reason)
			assert.ErrorIs(t, probeErr, tt.err)
		})
	}
}

func TestProbeError_Error(t *testing.T) {
	err := &ProbeError{Address: "a:1", Reason: FailRefused, Cause: errors.New("boom")}
	assert.Equal(t, "probe a:1 failed: connection refused (boom)", err.Error())

	err = &ProbeError{Address: "a:1", Reason: FailTimeout}
	assert.Equal(t, "probe a:1 failed: timed out", err.Error())
}

func TestFailReason_String(t *testing.T) {
	assert.Equal(t, "unknown error", FailReason(99).String())
	assert.Equal(t, "malformed response", FailMalformed.String())
	assert.Equal(t, "host unreachable", FailUnreachable.String())
}
