package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerState represents the current state of a spinner.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
	SpinnerSkipped
)

// Spinner animation frames.
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const frameInterval = 80 * time.Millisecond

// finalStyles maps a finished state to its symbol and color.
var finalStyles = map[SpinnerState]struct {
	symbol string
	color  lipgloss.Color
}{
	SpinnerSuccess: {SymbolComplete, ColorSuccess},
	SpinnerFailed:  {SymbolFail, ColorError},
	SpinnerSkipped: {SymbolSkipped, ColorWarning},
	SpinnerPending: {SymbolPending, ColorMuted},
}

// Spinner draws one status line that animates while a step runs and is
// replaced by a symbol, the label, and the elapsed time when it ends.
type Spinner struct {
	mu        sync.Mutex
	label     string
	detail    string
	state     SpinnerState
	frame     int
	startTime time.Time
	output    func(string)

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}

	// drawn is the width of the line currently on screen.
	drawn int
}

// NewSpinner creates a spinner with the given label. Output goes to
// fmt.Print until SetOutput is called.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		label:  label,
		state:  SpinnerPending,
		output: func(s string) { fmt.Print(s) },
	}
}

// SetOutput redirects what the spinner prints.
func (s *Spinner) SetOutput(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = fn
}

// Start draws the first frame and begins animating.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.state = SpinnerInProgress
	s.startTime = time.Now()
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.drawFrameLocked()

	go s.animate(s.stopChan, s.doneChan)
}

// Stop halts the animation without changing state.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopChan, doneChan := s.stopChan, s.doneChan
	s.mu.Unlock()

	close(stopChan)
	<-doneChan
}

// Success stops the spinner and marks it as successful.
func (s *Spinner) Success() { s.finish(SpinnerSuccess, "") }

// Fail stops the spinner and marks it as failed. A non-empty detail is
// printed after the label.
func (s *Spinner) Fail(detail string) { s.finish(SpinnerFailed, detail) }

// Skip stops the spinner and marks it as skipped.
func (s *Spinner) Skip() { s.finish(SpinnerSkipped, "") }

func (s *Spinner) finish(state SpinnerState, detail string) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.detail = detail
	s.drawFinalLocked()
}

// State returns the current spinner state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed returns the time since the spinner started.
func (s *Spinner) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Label returns the spinner's label.
func (s *Spinner) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

// SetLabel changes the label. A running spinner redraws right away rather
// than on its next frame.
func (s *Spinner) SetLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.label == label {
		return
	}
	s.label = label
	if s.running {
		s.drawFrameLocked()
	}
}

func (s *Spinner) animate(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.running {
				s.frame = (s.frame + 1) % len(spinnerFrames)
				s.drawFrameLocked()
			}
			s.mu.Unlock()
		}
	}
}

// drawFrameLocked replaces the current line with the spinner frame.
func (s *Spinner) drawFrameLocked() {
	color := GradientColors[(s.frame/2)%len(GradientColors)]
	symbol := lipgloss.NewStyle().Foreground(color).Render(spinnerFrames[s.frame])
	line := symbol + " " + s.label + "..."

	s.clearLocked()
	s.output("\r" + line)
	s.drawn = lipgloss.Width(line)
}

// drawFinalLocked replaces the current line with the finished state and
// ends it with a newline.
func (s *Spinner) drawFinalLocked() {
	st, ok := finalStyles[s.state]
	if !ok {
		st = finalStyles[SpinnerPending]
	}
	muted := lipgloss.NewStyle().Foreground(ColorMuted)

	label := s.label
	if s.detail != "" {
		label += muted.Render(" (" + s.detail + ")")
	}

	s.clearLocked()
	s.output(fmt.Sprintf("%s %s %s\n",
		lipgloss.NewStyle().Foreground(st.color).Render(st.symbol),
		label,
		muted.Render(formatDuration(time.Since(s.startTime))),
	))
	s.drawn = 0
}

func (s *Spinner) clearLocked() {
	if s.drawn > 0 {
		s.output("\r" + strings.Repeat(" ", s.drawn) + "\r")
	}
}

// formatDuration formats a duration for display (e.g., "0.3s", "1.2s").
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
