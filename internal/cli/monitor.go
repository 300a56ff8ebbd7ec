package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/mcwatch/internal/backup"
	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/dashboard"
	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/rileyhilliard/mcwatch/internal/keys"
	"github.com/rileyhilliard/mcwatch/internal/lock"
	"github.com/rileyhilliard/mcwatch/internal/logger"
	"github.com/rileyhilliard/mcwatch/internal/logtail"
	"github.com/rileyhilliard/mcwatch/internal/monitor"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	"github.com/rileyhilliard/mcwatch/internal/stop"
)

// MonitorFlags are the flags of the monitor command.
type MonitorFlags struct {
	OverrideFlags
	NoTUI   bool
	NoLogs  bool
	LogFile string
}

var monitorFlags MonitorFlags

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the server and stop it once nobody is online",
	Long: `Poll the Bedrock server and stop the compose project once it has had
no players for the idle timeout.

With a terminal attached a dashboard shows the player count, idle time,
shutdown progress, and the server log. --no-tui prints log lines instead.

Keyboard shortcuts:
  q / Ctrl+C   Stop the server now
  Ctrl+C x2    Exit without waiting for the shutdown
  ?            Show help

Examples:
  mcwatch monitor
  mcwatch monitor --timeout 30m --automatic-shutdown
  mcwatch monitor --no-tui --interval 10s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := ApplyOverrides(cfg, monitorFlags.OverrideFlags); err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		settings := monitorSettings{
			TUI:     !monitorFlags.NoTUI && term.IsTerminal(int(os.Stdout.Fd())),
			Logs:    !monitorFlags.NoLogs,
			LogFile: monitorFlags.LogFile,
		}

		outcome, err := runMonitor(cmd.Context(), cfg, settings, newComponents(cfg), os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
		if settings.TUI {
			printOutcome(os.Stderr, outcome)
		}
		return outcome.Err
	},
}

func init() {
	AddShutdownFlag(monitorCmd, &monitorFlags.OverrideFlags)
	AddTimingFlags(monitorCmd, &monitorFlags.OverrideFlags)
	monitorCmd.Flags().BoolVar(&monitorFlags.NoTUI, "no-tui", false, "print log lines instead of the dashboard")
	monitorCmd.Flags().BoolVar(&monitorFlags.NoLogs, "no-logs", false, "don't follow the server log")
	monitorCmd.Flags().StringVar(&monitorFlags.LogFile, "log-file", "", "append mcwatch's own log to this file")
	rootCmd.AddCommand(monitorCmd)
}

// monitorSettings are the resolved run-time choices for one monitor run.
type monitorSettings struct {
	TUI     bool
	Logs    bool
	LogFile string
	// ConfirmInterval overrides the exit-confirmation poll interval.
	ConfirmInterval time.Duration
	// LockDir holds the monitor lock. Empty means the system temp dir.
	LockDir string
}

// runMonitor wires the loop to its stop sources and runs it to completion.
// The error return is for setup failures only; shutdown failures are in the
// outcome.
func runMonitor(ctx context.Context, cfg *config.Config, set monitorSettings, deps components, stdin io.Reader, stderr io.Writer) (shutdown.Outcome, error) {
	held, err := lock.Acquire(lock.Name(cfg.Address(), cfg.ComposeProject), cfg.Address(), lock.Options{Dir: set.LockDir})
	if err != nil {
		return shutdown.Outcome{}, err
	}
	defer held.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sig := stop.New()
	stopWatching := watchSignals(sig, cancel)
	defer stopWatching()

	// Raw mode has to be in place before the logger is built, since raw
	// output needs explicit carriage returns.
	var listener *keys.Listener
	if !set.TUI {
		listener = keys.NewListener(stdin, sig, keys.WithLogger(logger.Default()))
		if err := listener.Start(); err != nil {
			return shutdown.Outcome{}, err
		}
		defer listener.Close()
	}

	log, closeLog, err := openMonitorLogger(set, stderr, listener != nil && listener.Enabled())
	if err != nil {
		return shutdown.Outcome{}, err
	}
	defer closeLog()

	coord := shutdown.NewCoordinator(shutdown.Options{
		Runtime:         deps.Runtime,
		Power:           deps.Power,
		PowerOff:        cfg.AutomaticShutdown,
		ConfirmInterval: set.ConfirmInterval,
		Logger:          log,
	})

	// Workers outlive the loop's sampling phase so the log panel shows the
	// server going down; they stop once the loop returns.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	defer func() {
		stopWorkers()
		workers.Wait()
	}()

	workers.Add(1)
	go func() {
		defer workers.Done()
		held.KeepAlive(workerCtx, lock.DefaultHeartbeat)
	}()

	var logs *logtail.Buffer
	if set.Logs && deps.Logs != nil {
		logs = logtail.NewBuffer(cfg.LogLines)
		tailer := logtail.NewTailer(deps.Logs, logs, logtail.Options{
			Logger: log,
			OnLine: func(line string) { log.Debug("[server] %s", line) },
		})
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := tailer.Run(workerCtx); err != nil {
				log.Debug("Log tail stopped: %v", err)
			}
		}()
	}

	if cfg.BackupInterval > 0 {
		runner := &backup.Runner{
			WorldDir:  cfg.WorldDir(),
			BackupDir: cfg.BackupDir(),
			Interval:  cfg.BackupInterval,
			Retention: backupRetention(cfg),
			Logger:    log,
		}
		workers.Add(1)
		go func() {
			defer workers.Done()
			runner.Run(workerCtx, sig)
		}()
	}

	loopOpts := monitor.Options{
		Prober:    deps.Prober,
		Threshold: cfg.ServerTimeout,
		Interval:  cfg.CheckInterval,
		Signal:    sig,
		Shutdown:  coord,
		Logger:    log,
	}

	if set.TUI {
		return runDashboard(ctx, cancel, cfg, loopOpts, logs, log)
	}

	loopOpts.Reporter = monitor.NewLogReporter(log)
	loop := monitor.NewLoop(loopOpts)

	log.Info("Watching %s (idle shutdown: %s, power-off: %t)",
		cfg.Address(), config.FormatTimeout(cfg.ServerTimeout), cfg.AutomaticShutdown)
	if listener.Enabled() {
		log.Info("Press q to stop the server.")
		go func() {
			listener.Run(ctx)
			// Restore the terminal right away so a second ctrl+c arrives
			// as SIGINT.
			_ = listener.Close()
		}()
	}

	return loop.Run(ctx), nil
}

// runDashboard runs the loop in the background and the dashboard in front.
func runDashboard(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, opts monitor.Options, logs *logtail.Buffer, log logger.Logger) (shutdown.Outcome, error) {
	model := dashboard.NewModel(dashboard.Options{
		Address:     cfg.Address(),
		LocalIP:     localIP(),
		Threshold:   cfg.ServerTimeout,
		PowerOff:    cfg.AutomaticShutdown,
		Signal:      opts.Signal,
		Logs:        logs,
		OnForceQuit: cancel,
	})
	program := dashboard.NewProgram(model)

	opts.Reporter = monitor.Reporters{dashboard.NewReporter(program), monitor.NewLogReporter(log)}
	loop := monitor.NewLoop(opts)

	outcomes := make(chan shutdown.Outcome, 1)
	go func() {
		outcomes <- loop.Run(ctx)
	}()

	if _, err := program.Run(); err != nil {
		// Without a screen there is nobody left to watch the idle timer.
		cancel()
		<-outcomes
		return shutdown.Outcome{}, errors.WrapWithCode(err, errors.ErrExec,
			"The dashboard stopped unexpectedly",
			"Run with --no-tui to monitor without the dashboard.")
	}
	return <-outcomes, nil
}

// openMonitorLogger builds the logger for a monitor run. The dashboard owns
// the screen, so without --log-file its log is discarded.
func openMonitorLogger(set monitorSettings, stderr io.Writer, raw bool) (logger.Logger, func(), error) {
	noop := func() {}

	if set.LogFile != "" {
		f, err := os.OpenFile(config.ExpandTilde(set.LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, noop, errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't open log file "+set.LogFile,
				"Check the path exists and is writable.")
		}
		return logger.New(logger.Options{Prefix: "mcwatch", Debug: verbose, Output: f}), func() { _ = f.Close() }, nil
	}

	if set.TUI {
		return logger.Noop(), noop, nil
	}

	out := stderr
	if raw {
		out = keys.CRLFWriter(out)
	}
	return logger.New(logger.Options{Debug: verbose, Output: out}), noop, nil
}

// printOutcome summarizes the shutdown once the dashboard has left the screen.
func printOutcome(w io.Writer, o shutdown.Outcome) {
	switch {
	case o.Err != nil:
		// The error itself is printed by Execute.
		fmt.Fprintln(w, "Shutdown finished with errors.")
	case o.HostShutdownRequested:
		fmt.Fprintln(w, "Server stopped. Powering off the host.")
	default:
		fmt.Fprintln(w, "Server stopped.")
	}
}
