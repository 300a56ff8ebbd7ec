// Package monitor runs the idle-monitoring loop.
//
// # Lifecycle
//
// A Loop moves through three states and never goes back:
//
//	Running     - probe, fold the sample into the idle tracker, wait one interval
//	Stopping    - the stop signal was observed; the shutdown procedure runs
//	Terminated  - the procedure returned an outcome
//
// # Stop sources
//
// Every stop source funnels through a single stop.Signal:
//
//   - the idle tracker reaching its threshold (set by the loop itself)
//   - a manual stop (the 'q' key in the dashboard or the headless key listener)
//   - a host signal (SIGINT/SIGTERM, or the Run context being cancelled)
//
// Whichever sets the signal first wins. The loop notices within one poll
// interval because its sleep is the signal's WaitOrTimeout.
//
// # Reporting
//
// The loop never writes to a terminal. It emits Events to a Reporter;
// LogReporter turns them into log lines and the dashboard package renders
// them in the TUI.
package monitor
