package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/mcwatch/internal/monitor"
)

// Sender delivers a message to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Reporter forwards monitor events to the dashboard program.
type Reporter struct {
	sender Sender
}

// NewReporter creates a reporter that sends events to s.
func NewReporter(s Sender) *Reporter {
	return &Reporter{sender: s}
}

// Report sends e to the program. It returns without blocking once the
// program has exited.
func (r *Reporter) Report(e monitor.Event) {
	r.sender.Send(eventMsg(e))
}

// NewProgram wraps m in a full-screen program.
func NewProgram(m Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}
