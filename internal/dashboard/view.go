package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	"github.com/rileyhilliard/mcwatch/internal/util"
)

// checkedFormat matches the timestamp the server scripts have always shown.
const checkedFormat = "01-02-2006 15:04:05"

// Fixed heights of the parts around the log panel.
const (
	headerHeight         = 2 // title + blank
	statusPanelHeight    = 7 // borders + 5 lines
	shutdownPanelHeight  = 5 // borders + 3 steps
	footerHeight         = 2 // blank + hints
	logPanelBorderHeight = 2
	defaultWidth         = 80
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	parts := []string{m.renderHeader(), "", m.renderStatusPanel()}
	if m.phase != PhaseMonitoring {
		parts = append(parts, m.renderShutdownPanel())
	}
	if m.opts.Logs != nil && m.logsReady {
		parts = append(parts, m.renderLogPanel())
	}
	parts = append(parts, "", m.renderFooter())
	return strings.Join(parts, "\n")
}

// renderHeader renders the title bar with the server address and settings.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("mcwatch")

	info := []string{m.opts.Address}
	if m.opts.LocalIP != "" {
		info = append(info, "LAN "+m.opts.LocalIP)
	}
	info = append(info, m.TimeoutText())
	if m.opts.PowerOff {
		info = append(info, "power-off on")
	}

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(" | " + strings.Join(info, " | "))

	return HeaderStyle.Render(title + stats)
}

// TimeoutText describes the idle shutdown setting.
func (m Model) TimeoutText() string {
	if m.opts.Threshold <= 0 {
		return "idle shutdown off"
	}
	return "idle shutdown after " + config.FormatDuration(m.opts.Threshold)
}

func (m Model) renderStatusPanel() string {
	width := m.panelWidth()

	var state string
	var lines []string
	switch {
	case m.phase != PhaseMonitoring:
		state = "stopping"
	case m.sample != nil:
		state = "online"
	case m.probeErr != nil:
		state = "offline"
	default:
		state = "waiting"
	}

	lines = append(lines, row("Status", m.statusText()))
	if m.sample != nil {
		lines = append(lines,
			row("Players", fmt.Sprintf("%d/%d", m.sample.Online, m.sample.MaxOnline)),
			row("Latency", fmt.Sprintf("%.0f ms", m.sample.LatencyMillis())),
		)
	} else {
		lines = append(lines, row("Players", "-"), row("Latency", "-"))
	}

	idle := config.FormatDuration(m.idle)
	if m.opts.Threshold > 0 {
		idle += " / " + config.FormatDuration(m.opts.Threshold)
		barWidth := width - 4 - 14 - lipgloss.Width(idle) - 2
		if barWidth > 30 {
			barWidth = 30
		}
		if barWidth > 0 {
			idle += "  " + IdleBar(barWidth, m.IdleFraction())
		}
	}
	lines = append(lines, row("Idle Time", idle))

	checked := "-"
	if !m.checkedAt.IsZero() {
		checked = m.checkedAt.Format(checkedFormat)
	}
	lines = append(lines, row("Time Checked", checked))

	return section("Server Status", state, lines, width)
}

func (m Model) statusText() string {
	switch {
	case m.sample != nil:
		return OnlineStyle.Render(GlyphOnline + " online")
	case m.probeErr != nil:
		return OfflineStyle.Render(GlyphOffline+" offline") + MutedStyle.Render(" ("+m.probeErr.Error()+")")
	default:
		return MutedStyle.Render(GlyphPending + " waiting for first check")
	}
}

func (m Model) renderShutdownPanel() string {
	width := m.panelWidth()
	steps := []shutdown.Step{shutdown.StepStopServer, shutdown.StepConfirmExit, shutdown.StepPowerOff}

	lines := make([]string, 0, len(steps))
	for _, step := range steps {
		lines = append(lines, m.stepLine(step))
	}

	value := m.reason.String()
	if m.phase == PhaseDone {
		value = "done"
	}
	return section("Shutdown", value, lines, width)
}

func (m Model) stepLine(step shutdown.Step) string {
	label := ValueStyle.Render(step.String())

	if step == shutdown.StepPowerOff && !m.opts.PowerOff {
		return MutedStyle.Render(GlyphSkipped+" ") + MutedStyle.Render(step.String()+" (disabled)")
	}

	switch m.steps[step] {
	case StepActive:
		extra := ""
		if step == shutdown.StepConfirmExit && m.waiting > 0 {
			extra = MutedStyle.Render(fmt.Sprintf(" (%d %s still running)",
				m.waiting, util.Pluralize(m.waiting, "container", "containers")))
		}
		return m.spinner.View() + " " + StoppingStyle.Render(step.String()) + extra
	case StepDone:
		return OnlineStyle.Render(GlyphDone+" ") + label
	case StepFailed:
		return OfflineStyle.Render(GlyphFailed+" ") + label
	default:
		return MutedStyle.Render(GlyphSkipped+" ") + MutedStyle.Render(step.String())
	}
}

func (m Model) renderLogPanel() string {
	width := m.panelWidth()
	value := "following"
	if !m.follow {
		value = fmt.Sprintf("%3.f%%", m.logView.ScrollPercent()*100)
	}

	lines := strings.Split(m.logView.View(), "\n")
	return section("Server Logs", value, lines, width)
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	var hints []string
	if m.opts.Signal.IsSet() {
		hints = append(hints, "ctrl+c exit now")
	} else {
		hints = append(hints, "q stop server")
	}
	if m.opts.Logs != nil {
		hints = append(hints, "↑↓ scroll logs", "f follow")
	}
	hints = append(hints, "? help")
	return FooterStyle.Render(strings.Join(hints, " | "))
}

func (m Model) panelWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

// logPanelHeight returns the viewport height left for the logs.
func (m Model) logPanelHeight() int {
	if m.height <= 0 {
		return 10
	}
	used := headerHeight + statusPanelHeight + footerHeight + logPanelBorderHeight
	if m.phase != PhaseMonitoring {
		used += shutdownPanelHeight
	}
	if h := m.height - used; h > 1 {
		return h
	}
	return 1
}

func row(label, value string) string {
	return LabelStyle.Render(fmt.Sprintf("%-12s: ", label)) + value
}

func section(title, value string, lines []string, width int) string {
	out := make([]string, 0, len(lines)+2)
	out = append(out, SectionHeader(title, value, width))
	for _, l := range lines {
		out = append(out, SectionContentLine(l, width))
	}
	out = append(out, SectionFooter(width))
	return strings.Join(out, "\n")
}
