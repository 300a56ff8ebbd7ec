package config

import (
	"os"
	"path/filepath"

	"github.com/rileyhilliard/mcwatch/internal/errors"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk YAML shape. Durations are kept as strings so
// "off" and "2d" survive a round trip.
type fileConfig struct {
	ServerIP          string `yaml:"server_ip"`
	ServerPort        int    `yaml:"server_port"`
	CheckInterval     string `yaml:"check_interval"`
	ServerTimeout     string `yaml:"server_timeout"`
	ProbeTimeout      string `yaml:"probe_timeout"`
	AutomaticShutdown bool   `yaml:"automatic_shutdown"`
	ComposeFile       string `yaml:"compose_file,omitempty"`
	ComposeProject    string `yaml:"compose_project,omitempty"`
	ComposeService    string `yaml:"compose_service"`
	LogLines          int    `yaml:"log_lines"`
	DataDir           string `yaml:"data_dir"`
	WorldName         string `yaml:"world_name"`
	BackupInterval    string `yaml:"backup_interval"`
	BackupKeep        int    `yaml:"backup_keep,omitempty"`
	BackupMaxAge      string `yaml:"backup_max_age,omitempty"`
}

// Marshal renders cfg as YAML that Load reads back.
func Marshal(cfg *Config) ([]byte, error) {
	fc := fileConfig{
		ServerIP:          cfg.ServerIP,
		ServerPort:        cfg.ServerPort,
		CheckInterval:     FormatDuration(cfg.CheckInterval),
		ServerTimeout:     FormatTimeout(cfg.ServerTimeout),
		ProbeTimeout:      FormatDuration(cfg.ProbeTimeout),
		AutomaticShutdown: cfg.AutomaticShutdown,
		ComposeFile:       cfg.ComposeFile,
		ComposeProject:    cfg.ComposeProject,
		ComposeService:    cfg.ComposeService,
		LogLines:          cfg.LogLines,
		DataDir:           cfg.DataDir,
		WorldName:         cfg.WorldName,
		BackupInterval:    FormatTimeout(cfg.BackupInterval),
		BackupKeep:        cfg.BackupKeep,
	}
	if cfg.BackupMaxAge > 0 {
		fc.BackupMaxAge = FormatDuration(cfg.BackupMaxAge)
	}
	return yaml.Marshal(&fc)
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't encode the config",
			"This is unexpected - please report it.")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't create "+dir,
				"Check directory permissions")
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write "+path,
			"Check file permissions")
	}
	return nil
}
