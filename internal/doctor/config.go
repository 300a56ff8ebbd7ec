package doctor

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/errors"
)

// ConfigFileCheck reports which config file a monitor run would use.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Error finding config: %v", err),
			Suggestion: "Check file permissions or run 'mcwatch init' to create a config",
		}
	}

	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using defaults and environment",
			Suggestion: "Run 'mcwatch init' to create a " + config.ConfigFileName,
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", filepath.Base(path)),
	}
}

// ConfigValidCheck loads and validates the config.
type ConfigValidCheck struct {
	ConfigPath string
}

func (c *ConfigValidCheck) Name() string     { return "config_valid" }
func (c *ConfigValidCheck) Category() string { return CategoryConfig }

func (c *ConfigValidCheck) Run(context.Context) CheckResult {
	cfg, err := config.LoadOrDefault(c.ConfigPath)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		msg, suggestion := describe(err)
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	return CheckResult{
		Name:   c.Name(),
		Status: StatusPass,
		Message: fmt.Sprintf("Watching %s, idle shutdown %s",
			cfg.Address(), config.FormatTimeout(cfg.ServerTimeout)),
	}
}

// WorldCheck verifies the world directory exists when backups are enabled.
type WorldCheck struct {
	Config *config.Config
}

func (c *WorldCheck) Name() string     { return "world_dir" }
func (c *WorldCheck) Category() string { return CategoryConfig }

func (c *WorldCheck) Run(context.Context) CheckResult {
	dir := c.Config.WorldDir()
	st, err := os.Stat(dir)
	switch {
	case err == nil && st.IsDir():
		return CheckResult{
			Name:    c.Name(),
			Status:  StatusPass,
			Message: fmt.Sprintf("World: %s", dir),
		}
	case c.Config.BackupInterval == 0:
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    fmt.Sprintf("World not found at %s", dir),
			Suggestion: "Set data_dir and world_name before running 'mcwatch backup'",
		}
	default:
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Backups are enabled but the world is missing: %s", dir),
			Suggestion: "Set data_dir and world_name to the server's world, or set backup_interval to off",
		}
	}
}

// describe splits a structured error into its message and suggestion.
func describe(err error) (string, string) {
	var mcErr *errors.Error
	if stderrors.As(err, &mcErr) {
		return mcErr.Message, mcErr.Suggestion
	}
	return err.Error(), ""
}
