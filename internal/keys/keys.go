// Package keys reads single key presses from the terminal while the monitor
// runs without its dashboard. Pressing q (or ctrl+c, which raw mode turns into
// a plain byte) sets the stop signal.
package keys

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"

	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/rileyhilliard/mcwatch/internal/logger"
	"github.com/rileyhilliard/mcwatch/internal/stop"
)

const ctrlC = 0x03

// Terminal abstracts the x/term calls so tests can run without a TTY.
type Terminal interface {
	IsTerminal(fd int) bool
	MakeRaw(fd int) (*term.State, error)
	Restore(fd int, state *term.State) error
}

type xterm struct{}

func (xterm) IsTerminal(fd int) bool                  { return term.IsTerminal(fd) }
func (xterm) MakeRaw(fd int) (*term.State, error)     { return term.MakeRaw(fd) }
func (xterm) Restore(fd int, state *term.State) error { return term.Restore(fd, state) }

// Listener turns key presses on stdin into a manual stop.
type Listener struct {
	in     io.Reader
	fd     int
	term   Terminal
	signal *stop.Signal
	log    logger.Logger

	mu      sync.Mutex
	state   *term.State
	reader  cancelreader.CancelReader
	enabled bool
}

// Option configures a Listener.
type Option func(*Listener)

// WithTerminal replaces the x/term implementation.
func WithTerminal(t Terminal) Option {
	return func(l *Listener) { l.term = t }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Listener) { l.log = log }
}

// NewListener creates a listener reading from in. When in is an *os.File its
// descriptor is used for TTY detection and raw mode.
func NewListener(in io.Reader, sig *stop.Signal, opts ...Option) *Listener {
	l := &Listener{
		in:     in,
		fd:     -1,
		term:   xterm{},
		signal: sig,
		log:    logger.Noop(),
	}
	if f, ok := in.(*os.File); ok {
		l.fd = int(f.Fd())
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start puts the terminal into raw mode. When stdin is not a terminal the
// listener stays disabled and Start returns nil; the caller still has OS
// signals as a stop source. Failing to enter raw mode on a terminal is a
// LISTENER error.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fd < 0 || !l.term.IsTerminal(l.fd) {
		l.log.Debug("stdin is not a terminal, key listener disabled")
		return nil
	}

	state, err := l.term.MakeRaw(l.fd)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrListener,
			"Couldn't read keys from the terminal",
			"Run mcwatch from an interactive terminal, or stop it with ctrl+c from another shell (kill -INT).")
	}

	reader, err := cancelreader.NewReader(l.in)
	if err != nil {
		_ = l.term.Restore(l.fd, state)
		return errors.WrapWithCode(err, errors.ErrListener,
			"Couldn't read keys from the terminal",
			"Run mcwatch from an interactive terminal.")
	}

	l.state = state
	l.reader = reader
	l.enabled = true
	return nil
}

// Enabled reports whether Start put the terminal into raw mode.
func (l *Listener) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Run reads keys until q is pressed, the signal is set elsewhere, ctx is
// done, or stdin closes. It returns immediately when the listener is
// disabled.
func (l *Listener) Run(ctx context.Context) {
	l.mu.Lock()
	reader := l.reader
	l.mu.Unlock()
	if reader == nil {
		return
	}

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
		case <-l.signal.Done():
		case <-finished:
			return
		}
		reader.Cancel()
	}()

	readKeys(reader, l.signal, l.log)
}

// Close restores the terminal. Safe to call more than once.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.reader != nil {
		l.reader.Cancel()
		_ = l.reader.Close()
		l.reader = nil
	}
	if l.state == nil {
		return nil
	}
	err := l.term.Restore(l.fd, l.state)
	l.state = nil
	l.enabled = false
	return err
}

// readKeys consumes r byte by byte until a stop key is seen or r fails.
func readKeys(r io.Reader, sig *stop.Signal, log logger.Logger) {
	buf := make([]byte, 1)
	for !sig.IsSet() {
		n, err := r.Read(buf)
		if n == 1 && IsStopKey(buf[0]) {
			if sig.Set(stop.ReasonManual) {
				log.Info("Manual shutdown requested.")
			}
			return
		}
		if err != nil {
			return
		}
	}
}

// IsStopKey reports whether b requests a manual stop.
func IsStopKey(b byte) bool {
	return b == 'q' || b == 'Q' || b == ctrlC
}

// CRLFWriter translates "\n" into "\r\n". Raw mode disables output
// post-processing, so log lines written while the listener runs need it.
func CRLFWriter(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	s := strings.ReplaceAll(string(p), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")
	if _, err := io.WriteString(c.w, s); err != nil {
		return 0, err
	}
	return len(p), nil
}
