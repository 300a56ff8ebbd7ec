package dashboard

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/mcwatch/internal/logtail"
	"github.com/rileyhilliard/mcwatch/internal/monitor"
	"github.com/rileyhilliard/mcwatch/internal/probe"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	"github.com/rileyhilliard/mcwatch/internal/stop"
)

// Phase is what the dashboard is currently showing.
type Phase int

const (
	PhaseMonitoring Phase = iota
	PhaseStopping
	PhaseDone
)

// String returns a human-readable label for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStopping:
		return "stopping"
	case PhaseDone:
		return "done"
	default:
		return "monitoring"
	}
}

// StepState is the dashboard's view of one shutdown step.
type StepState int

const (
	StepPending StepState = iota
	StepActive
	StepDone
	StepFailed
)

// Options configures a Model.
type Options struct {
	// Address is the probed host:port shown in the header.
	Address string
	// LocalIP is the LAN address players connect to, shown in the header.
	LocalIP   string
	Threshold time.Duration
	PowerOff  bool

	// Signal is set when the operator presses q or ctrl+c.
	Signal *stop.Signal

	// Logs is the rolling server log. Nil hides the log panel.
	Logs *logtail.Buffer

	// OnForceQuit runs when ctrl+c is pressed again during shutdown. The
	// caller uses it to cancel the shutdown context.
	OnForceQuit func()

	Now func() time.Time
}

// refreshInterval is how often the log panel checks for new lines.
const refreshInterval = 250 * time.Millisecond

// Model is the Bubble Tea model for the monitor dashboard.
type Model struct {
	opts Options

	sample    *probe.Sample
	probeErr  error
	idle      time.Duration
	checkedAt time.Time

	phase   Phase
	reason  stop.Reason
	steps   map[shutdown.Step]StepState
	waiting int
	outcome *shutdown.Outcome

	width  int
	height int

	logView    viewport.Model
	logsReady  bool
	follow     bool
	logVersion uint64

	spinner  spinner.Model
	showHelp bool
	quitting bool
}

// eventMsg carries a monitor event into the program.
type eventMsg monitor.Event

// tickMsg signals a periodic log refresh.
type tickMsg time.Time

// NewModel creates a dashboard model.
func NewModel(opts Options) Model {
	if opts.Signal == nil {
		opts.Signal = stop.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(ColorWarning)

	return Model{
		opts:    opts,
		steps:   make(map[shutdown.Step]StepState),
		follow:  true,
		spinner: sp,
	}
}

// Init starts the refresh tick and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.spinner.Tick)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLogs()

	case tickMsg:
		m.refreshLogs()
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		return m, m.applyEvent(monitor.Event(msg))
	}

	if m.logsReady {
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// applyEvent folds a monitor event into the model.
func (m *Model) applyEvent(e monitor.Event) tea.Cmd {
	m.idle = e.Idle
	if e.Threshold > 0 {
		m.opts.Threshold = e.Threshold
	}

	switch e.Kind {
	case monitor.EventSample:
		m.sample = e.Sample
		m.probeErr = nil
		m.checkedAt = e.Time
	case monitor.EventProbeFailed:
		m.sample = nil
		m.probeErr = e.Err
		m.checkedAt = e.Time
	case monitor.EventStopping:
		m.phase = PhaseStopping
		m.reason = e.Reason
		m.resizeLogs()
	case monitor.EventStepStarted:
		m.steps[e.Step] = StepActive
	case monitor.EventStepWaiting:
		m.steps[e.Step] = StepActive
		m.waiting = e.Running
	case monitor.EventStepFinished:
		m.steps[e.Step] = StepDone
		if e.Step == shutdown.StepConfirmExit {
			m.waiting = 0
		}
	case monitor.EventStepFailed:
		m.steps[e.Step] = StepFailed
	case monitor.EventTerminated:
		m.phase = PhaseDone
		m.outcome = e.Outcome
		m.quitting = true
		return tea.Quit
	}
	return nil
}

// requestStop sets the stop signal. The loop notices it within one poll
// interval and reports EventStopping back.
func (m *Model) requestStop() {
	m.opts.Signal.Set(stop.ReasonManual)
}

// resizeLogs sizes the log viewport to whatever the status panels leave.
func (m *Model) resizeLogs() {
	if m.opts.Logs == nil {
		return
	}
	w := m.panelWidth() - 4
	h := m.logPanelHeight()

	if !m.logsReady {
		m.logView = viewport.New(w, h)
		m.logsReady = true
	} else {
		m.logView.Width = w
		m.logView.Height = h
	}
	m.setLogContent()
}

// refreshLogs reloads the viewport when the buffer changed.
func (m *Model) refreshLogs() {
	if m.opts.Logs == nil || !m.logsReady {
		return
	}
	if v := m.opts.Logs.Version(); v != m.logVersion {
		m.logVersion = v
		m.setLogContent()
	}
}

func (m *Model) setLogContent() {
	m.logView.SetContent(strings.Join(m.opts.Logs.Lines(), "\n"))
	if m.follow {
		m.logView.GotoBottom()
	}
}

// Phase returns the current phase.
func (m Model) Phase() Phase {
	return m.phase
}

// Outcome returns the shutdown outcome once the loop has terminated.
func (m Model) Outcome() *shutdown.Outcome {
	return m.outcome
}

// IdleFraction returns idle time as a fraction of the threshold, or 0 when
// the idle trigger is off.
func (m Model) IdleFraction() float64 {
	if m.opts.Threshold <= 0 {
		return 0
	}
	return float64(m.idle) / float64(m.opts.Threshold)
}
