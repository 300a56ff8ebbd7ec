package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/errors"
)

// MinCheckInterval is the shortest allowed time between probes.
const MinCheckInterval = 500 * time.Millisecond

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if strings.TrimSpace(cfg.ServerIP) == "" {
		return errors.New(errors.ErrConfig,
			KeyServerIP+" is empty",
			"Set it to the address of the Bedrock server, like 127.0.0.1.")
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s %d is out of range", KeyServerPort, cfg.ServerPort),
			"Use a port between 1 and 65535. Bedrock listens on 19132 by default.")
	}

	if cfg.CheckInterval < MinCheckInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s %s is too short", KeyCheckInterval, FormatDuration(cfg.CheckInterval)),
			fmt.Sprintf("Probe at most every %s. 5s is a good default.", MinCheckInterval))
	}

	for _, d := range []struct {
		key   string
		value time.Duration
	}{
		{KeyServerTimeout, cfg.ServerTimeout},
		{KeyProbeTimeout, cfg.ProbeTimeout},
		{KeyBackupInterval, cfg.BackupInterval},
		{KeyBackupMaxAge, cfg.BackupMaxAge},
	} {
		if d.value < 0 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("%s can't be negative", d.key),
				"Use a positive duration, or 'off' to disable it.")
		}
	}

	if cfg.LogLines < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s must be at least 1, got %d", KeyLogLines, cfg.LogLines),
			"70 lines fits most terminals.")
	}

	if cfg.BackupKeep < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s can't be negative, got %d", KeyBackupKeep, cfg.BackupKeep),
			"Use 0 to keep every backup.")
	}

	if strings.TrimSpace(cfg.ComposeService) == "" {
		return errors.New(errors.ErrConfig,
			KeyComposeService+" is empty",
			"Set it to the compose service that runs the server, usually 'bds'.")
	}

	if cfg.BackupInterval > 0 && strings.TrimSpace(cfg.WorldName) == "" {
		return errors.New(errors.ErrConfig,
			"Backups are enabled but "+KeyWorldName+" is empty",
			"Set "+KeyWorldName+" to the folder name under data/worlds, or set "+KeyBackupInterval+"=off.")
	}

	return nil
}
