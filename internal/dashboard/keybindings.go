package dashboard

import tea "github.com/charmbracelet/bubbletea"

// Key bindings as constants for consistency.
const (
	KeyStop       = "q"
	KeyStopAlt    = "ctrl+c"
	KeyScrollUp   = "up"
	KeyScrollUpK  = "k"
	KeyScrollDown = "down"
	KeyScrollDnJ  = "j"
	KeyPageUp     = "pgup"
	KeyPageDown   = "pgdown"
	KeyTop        = "home"
	KeyBottom     = "end"
	KeyFollow     = "f"
	KeyCollapse   = "esc"
	KeyToggleHelp = "?"
)

// HandleKeyMsg processes keyboard input. Returns true if the key was handled.
//
// q and ctrl+c never quit the program directly: they set the stop signal and
// the dashboard stays up to show the shutdown steps. A second ctrl+c while
// stopping forces the program to exit.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyStopAlt:
		if m.opts.Signal.IsSet() {
			if m.opts.OnForceQuit != nil {
				m.opts.OnForceQuit()
			}
			m.quitting = true
			return true, tea.Quit
		}
		m.requestStop()
		return true, nil

	case KeyStop:
		m.requestStop()
		return true, nil
	}

	if !m.logsReady {
		return false, nil
	}

	switch key {
	case KeyScrollUp, KeyScrollUpK:
		m.logView.LineUp(1)
		m.follow = false
	case KeyScrollDown, KeyScrollDnJ:
		m.logView.LineDown(1)
		m.follow = m.logView.AtBottom()
	case KeyPageUp:
		m.logView.HalfViewUp()
		m.follow = false
	case KeyPageDown:
		m.logView.HalfViewDown()
		m.follow = m.logView.AtBottom()
	case KeyTop:
		m.logView.GotoTop()
		m.follow = false
	case KeyBottom:
		m.logView.GotoBottom()
		m.follow = true
	case KeyFollow:
		m.follow = !m.follow
		if m.follow {
			m.logView.GotoBottom()
		}
	default:
		return false, nil
	}
	return true, nil
}
