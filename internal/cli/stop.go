package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/logger"
	"github.com/rileyhilliard/mcwatch/internal/shutdown"
	"github.com/rileyhilliard/mcwatch/internal/ui"
)

var stopFlags OverrideFlags

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the server now",
	Long: `Stop the compose project, wait for every container to exit and, with
--automatic-shutdown, power the host off.

This is the same procedure monitor runs when the idle timeout expires.
Ctrl+C while waiting abandons the wait and skips the power-off.

Examples:
  mcwatch stop
  mcwatch stop --automatic-shutdown`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := ApplyOverrides(cfg, stopFlags); err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), stopSignals...)
		defer cancel()

		outcome := runStop(ctx, cfg, newComponents(cfg), os.Stderr, 0)
		return outcome.Err
	},
}

func init() {
	AddShutdownFlag(stopCmd, &stopFlags)
	rootCmd.AddCommand(stopCmd)
}

// runStop runs the shutdown procedure once, printing a spinner per step.
func runStop(ctx context.Context, cfg *config.Config, deps components, out io.Writer, confirmInterval time.Duration) shutdown.Outcome {
	printer := ui.NewStepPrinter(out)
	defer printer.Close()

	coord := shutdown.NewCoordinator(shutdown.Options{
		Runtime:         deps.Runtime,
		Power:           deps.Power,
		PowerOff:        cfg.AutomaticShutdown,
		ConfirmInterval: confirmInterval,
		Observer:        printer.Observe,
		Logger:          logger.Default(),
	})
	return coord.Shutdown(ctx)
}
