package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/errors"
)

// OverrideFlags are the config values a command can override. Empty strings
// and unchanged flags keep the loaded value.
type OverrideFlags struct {
	AutomaticShutdown bool
	Interval          string
	Timeout           string
}

// AddShutdownFlag registers --automatic-shutdown.
func AddShutdownFlag(cmd *cobra.Command, flags *OverrideFlags) {
	cmd.Flags().BoolVar(&flags.AutomaticShutdown, "automatic-shutdown", false, "power off the host after the server stops")
}

// AddTimingFlags registers --interval and --timeout.
func AddTimingFlags(cmd *cobra.Command, flags *OverrideFlags) {
	cmd.Flags().StringVar(&flags.Interval, "interval", "", "time between status checks (e.g. 5s, 1m)")
	cmd.Flags().StringVar(&flags.Timeout, "timeout", "", "idle time before shutdown (e.g. 10m, 1h, off)")
}

// ApplyOverrides copies set flags onto cfg. --automatic-shutdown only ever
// turns power-off on, so AUTOMATIC_SHUTDOWN=true can't be undone by omitting
// the flag.
func ApplyOverrides(cfg *config.Config, flags OverrideFlags) error {
	if flags.AutomaticShutdown {
		cfg.AutomaticShutdown = true
	}

	if flags.Interval != "" {
		d, err := parseFlagDuration("interval", flags.Interval)
		if err != nil {
			return err
		}
		cfg.CheckInterval = d
	}

	if flags.Timeout != "" {
		d, err := parseFlagDuration("timeout", flags.Timeout)
		if err != nil {
			return err
		}
		cfg.ServerTimeout = d
	}

	return nil
}

func parseFlagDuration(name, value string) (time.Duration, error) {
	d, err := config.ParseDuration(value)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid --%s", value, name),
			"Try something like 30s, 10m, 1h 30m, or off.")
	}
	return d, nil
}
