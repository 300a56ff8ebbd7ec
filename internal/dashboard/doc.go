// Package dashboard renders the monitor as a full-screen terminal UI.
//
// The dashboard never drives the monitor. It receives monitor events through
// a Reporter (which forwards them to the running Bubble Tea program) and
// reads the rolling server log from a logtail buffer.
//
// # Layout
//
//	Header        - address, LAN IP, idle shutdown setting
//	Server Status - players, latency, idle time, time checked
//	Shutdown      - step progress, shown once a stop is requested
//	Server Logs   - scrollable viewport over the last LOG_LINES lines
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Stop the server (sets the stop signal; the UI stays up)
//	Ctrl+C x2   - Exit without waiting for the shutdown to finish
//	j/k, ↑/↓    - Scroll logs
//	f           - Toggle following new log lines
//	?           - Toggle help overlay
//
// The program quits on its own once the monitor reports it has terminated.
package dashboard
