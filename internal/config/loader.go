package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default YAML config file name.
	ConfigFileName = ".mcwatch.yaml"
	// EnvFileName is the dotenv file the server scripts read.
	EnvFileName = ".env"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/mcwatch"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Load reads config from path. An empty path loads defaults and the
// environment only. Environment variables always win over the file.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if isDotenv(path) {
			v.SetConfigType("dotenv")
		}
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'mcwatch init' to create a config file, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML or KEY=value lines")
		}
	}

	cfg, err := parseConfig(v)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .mcwatch.yaml, then .env, in the current directory
// 3. .mcwatch.yaml in parent directories (stops at git root or home)
// 4. ~/.config/mcwatch/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	for _, name := range []string{ConfigFileName, EnvFileName} {
		local := filepath.Join(cwd, name)
		if fileExists(local) {
			return local, nil
		}
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		if p := filepath.Join(dir, ConfigFileName); fileExists(p) {
			return p, nil
		}
		if fileExists(filepath.Join(dir, ".git")) {
			break
		}
	}

	if home != "" {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if fileExists(global) {
			return global, nil
		}
	}

	return "", nil
}

// LoadOrDefault finds and loads the config, falling back to defaults plus
// the environment when no file exists.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault(KeyServerIP, def.ServerIP)
	v.SetDefault(KeyServerPort, def.ServerPort)
	v.SetDefault(KeyCheckInterval, FormatDuration(def.CheckInterval))
	v.SetDefault(KeyServerTimeout, FormatTimeout(def.ServerTimeout))
	v.SetDefault(KeyProbeTimeout, FormatDuration(def.ProbeTimeout))
	v.SetDefault(KeyAutomaticShutdown, def.AutomaticShutdown)
	v.SetDefault(KeyComposeFile, def.ComposeFile)
	v.SetDefault(KeyComposeProject, def.ComposeProject)
	v.SetDefault(KeyComposeService, def.ComposeService)
	v.SetDefault(KeyLogLines, def.LogLines)
	v.SetDefault(KeyDataDir, def.DataDir)
	v.SetDefault(KeyWorldName, def.WorldName)
	v.SetDefault(KeyBackupInterval, FormatTimeout(def.BackupInterval))
	v.SetDefault(KeyBackupKeep, def.BackupKeep)
	v.SetDefault(KeyBackupMaxAge, FormatTimeout(def.BackupMaxAge))

	// viper lower-cases keys; AutomaticEnv upper-cases them back, so
	// SERVER_IP in the environment matches server_ip in a YAML file.
	v.AutomaticEnv()
	return v
}

// parseConfig converts viper settings to a Config. Every value may arrive as
// a string (env, dotenv) so conversions go through cast and ParseDuration.
func parseConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerIP:       strings.TrimSpace(v.GetString(KeyServerIP)),
		ComposeFile:    ExpandPath(v.GetString(KeyComposeFile)),
		ComposeProject: v.GetString(KeyComposeProject),
		ComposeService: v.GetString(KeyComposeService),
		DataDir:        ExpandPath(v.GetString(KeyDataDir)),
		WorldName:      v.GetString(KeyWorldName),
	}

	var err error
	if cfg.ServerPort, err = cast.ToIntE(strings.TrimSpace(v.GetString(KeyServerPort))); err != nil {
		return nil, invalidValue(KeyServerPort, v.GetString(KeyServerPort), "Use a port number like 19132")
	}
	if cfg.LogLines, err = cast.ToIntE(strings.TrimSpace(v.GetString(KeyLogLines))); err != nil {
		return nil, invalidValue(KeyLogLines, v.GetString(KeyLogLines), "Use a whole number of lines, like 70")
	}
	if cfg.BackupKeep, err = cast.ToIntE(strings.TrimSpace(v.GetString(KeyBackupKeep))); err != nil {
		return nil, invalidValue(KeyBackupKeep, v.GetString(KeyBackupKeep), "Use a number of backups to keep, or 0 to keep them all")
	}
	if cfg.AutomaticShutdown, err = cast.ToBoolE(strings.TrimSpace(v.GetString(KeyAutomaticShutdown))); err != nil {
		return nil, invalidValue(KeyAutomaticShutdown, v.GetString(KeyAutomaticShutdown), "Use true or false")
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{KeyCheckInterval, &cfg.CheckInterval},
		{KeyServerTimeout, &cfg.ServerTimeout},
		{KeyProbeTimeout, &cfg.ProbeTimeout},
		{KeyBackupInterval, &cfg.BackupInterval},
		{KeyBackupMaxAge, &cfg.BackupMaxAge},
	}
	for _, d := range durations {
		raw := v.GetString(d.key)
		parsed, err := ParseDuration(raw)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Invalid "+d.key+": "+raw,
				"Use a duration like 5s, 10m, 2h, 1d or 'off'")
		}
		*d.dst = parsed
	}

	return cfg, nil
}

func invalidValue(key, raw, suggestion string) error {
	return errors.New(errors.ErrConfig, "Invalid "+key+": "+raw, suggestion)
}

func isDotenv(path string) bool {
	base := filepath.Base(path)
	return base == EnvFileName || strings.HasSuffix(base, ".env") || strings.HasPrefix(base, ".env.")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
