// Package probe queries a Bedrock server for its occupancy.
//
// A probe is a single RakNet unconnected ping. The server answers with a
// semicolon-separated pong string that carries the MOTD, version, and the
// current and maximum player counts. Probes never retry; the caller decides
// when to ask again.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sandertv/go-raknet"
)

// DefaultTimeout bounds a single ping when no timeout is configured.
const DefaultTimeout = 3 * time.Second

// Sample is one observation of the server. It is never mutated after Probe
// returns it.
type Sample struct {
	Online     uint
	MaxOnline  uint
	Latency    time.Duration
	ObservedAt time.Time
	MOTD       string
	Version    string
}

// LatencyMillis returns the round-trip latency in milliseconds.
func (s Sample) LatencyMillis() float64 {
	return float64(s.Latency) / float64(time.Millisecond)
}

// Prober performs one status query per call.
type Prober interface {
	Probe(ctx context.Context) (*Sample, error)
}

// FailReason categorizes why a probe failed.
type FailReason int

const (
	FailUnknown FailReason = iota
	FailTimeout
	FailRefused
	FailUnreachable
	FailMalformed
)

// String returns a human-readable description of the failure reason.
func (r FailReason) String() string {
	switch r {
	case FailTimeout:
		return "timed out"
	case FailRefused:
		return "connection refused"
	case FailUnreachable:
		return "host unreachable"
	case FailMalformed:
		return "malformed response"
	default:
		return "unknown error"
	}
}

// ProbeError is returned for every failed probe.
type ProbeError struct {
	Address string
	Reason  FailReason
	Cause   error
}

func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("probe %s failed: %s (%v)", e.Address, e.Reason, e.Cause)
	}
	return fmt.Sprintf("probe %s failed: %s", e.Address, e.Reason)
}

func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// PingFunc sends one unconnected ping and returns the raw pong payload.
type PingFunc func(ctx context.Context, address string) ([]byte, error)

// BedrockProber pings a Bedrock server over RakNet.
type BedrockProber struct {
	address string
	timeout time.Duration
	ping    PingFunc
	now     func() time.Time
}

// Option configures a BedrockProber.
type Option func(*BedrockProber)

// WithTimeout overrides the per-probe network timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *BedrockProber) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithPingFunc replaces the RakNet ping, for tests.
func WithPingFunc(fn PingFunc) Option {
	return func(p *BedrockProber) {
		p.ping = fn
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *BedrockProber) {
		p.now = now
	}
}

// NewBedrockProber creates a prober for host:port.
func NewBedrockProber(host string, port int, opts ...Option) *BedrockProber {
	p := &BedrockProber{
		address: net.JoinHostPort(host, strconv.Itoa(port)),
		timeout: DefaultTimeout,
		ping:    raknet.PingContext,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Address returns the host:port being probed.
func (p *BedrockProber) Address() string {
	return p.address
}

// Probe sends one ping and parses the pong.
func (p *BedrockProber) Probe(ctx context.Context) (*Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	pong, err := p.ping(ctx, p.address)
	latency := p.now().Sub(start)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return nil, categorize(p.address, err)
	}

	sample, err := ParsePong(pong)
	if err != nil {
		return nil, &ProbeError{Address: p.address, Reason: FailMalformed, Cause: err}
	}
	sample.Latency = latency
	sample.ObservedAt = start
	return sample, nil
}

// ParsePong decodes a Bedrock pong payload:
//
//	MCPE;<motd>;<protocol>;<version>;<online>;<max>;<server id>;<level>;<mode>;...
func ParsePong(data []byte) (*Sample, error) {
	fields := strings.Split(string(data), ";")
	if len(fields) < 6 {
		return nil, fmt.Errorf("pong has %d fields, want at least 6", len(fields))
	}

	edition := fields[0]
	if edition != "MCPE" && edition != "MCEE" {
		return nil, fmt.Errorf("unexpected edition %q", edition)
	}

	online, err := strconv.ParseUint(strings.TrimSpace(fields[4]), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid online count %q: %w", fields[4], err)
	}
	maxOnline, err := strconv.ParseUint(strings.TrimSpace(fields[5]), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid max count %q: %w", fields[5], err)
	}

	return &Sample{
		Online:    uint(online),
		MaxOnline: uint(maxOnline),
		MOTD:      fields[1],
		Version:   fields[3],
	}, nil
}

// categorize converts a transport error into a ProbeError.
func categorize(address string, err error) *ProbeError {
	probeErr := &ProbeError{
		Address: address,
		Reason:  FailUnknown,
		Cause:   err,
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		probeErr.Reason = FailTimeout
		return probeErr
	case errors.Is(err, syscall.ECONNREFUSED):
		probeErr.Reason = FailRefused
		return probeErr
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		probeErr.Reason = FailUnreachable
		return probeErr
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline"):
		probeErr.Reason = FailTimeout
	case strings.Contains(errStr, "connection refused"):
		probeErr.Reason = FailRefused
	case strings.Contains(errStr, "no route to host"),
		strings.Contains(errStr, "network is unreachable"),
		strings.Contains(errStr, "host is down"),
		strings.Contains(errStr, "no such host"):
		probeErr.Reason = FailUnreachable
	}

	return probeErr
}
