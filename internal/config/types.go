package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"
)

// Keys as they appear in a .env file or the environment. YAML files use the
// lower-case form (server_ip, check_interval, ...).
const (
	KeyServerIP          = "SERVER_IP"
	KeyServerPort        = "SERVER_PORT"
	KeyCheckInterval     = "CHECK_INTERVAL"
	KeyServerTimeout     = "SERVER_TIMEOUT"
	KeyProbeTimeout      = "PROBE_TIMEOUT"
	KeyAutomaticShutdown = "AUTOMATIC_SHUTDOWN"
	KeyComposeFile       = "COMPOSE_FILE"
	KeyComposeProject    = "COMPOSE_PROJECT"
	KeyComposeService    = "COMPOSE_SERVICE"
	KeyLogLines          = "LOG_LINES"
	KeyDataDir           = "DATA_DIR"
	KeyWorldName         = "WORLD_NAME"
	KeyBackupInterval    = "BACKUP_INTERVAL"
	KeyBackupKeep        = "BACKUP_KEEP"
	KeyBackupMaxAge      = "BACKUP_MAX_AGE"
)

// Config is the resolved mcwatch configuration.
type Config struct {
	// ServerIP and ServerPort locate the Bedrock server to probe.
	ServerIP   string
	ServerPort int

	// CheckInterval is the time between probes.
	CheckInterval time.Duration

	// ServerTimeout is how long the server may stay empty before it is
	// stopped. Zero ("off") disables the idle trigger.
	ServerTimeout time.Duration

	// ProbeTimeout bounds a single status ping.
	ProbeTimeout time.Duration

	// AutomaticShutdown powers off the host once the server has exited.
	AutomaticShutdown bool

	ComposeFile    string
	ComposeProject string
	ComposeService string

	// LogLines is the size of the rolling server log window.
	LogLines int

	// DataDir holds worlds/ and backups/.
	DataDir   string
	WorldName string

	// BackupInterval is the time between world backups. Zero disables them.
	BackupInterval time.Duration

	// BackupKeep and BackupMaxAge prune old archives after each backup.
	// Zero keeps everything.
	BackupKeep   int
	BackupMaxAge time.Duration

	// Path is the file the config was loaded from, empty for defaults.
	Path string
}

// DefaultConfig returns a Config with the same defaults the server scripts
// have always used.
func DefaultConfig() *Config {
	return &Config{
		ServerIP:       "127.0.0.1",
		ServerPort:     19132,
		CheckInterval:  5 * time.Second,
		ServerTimeout:  0,
		ProbeTimeout:   3 * time.Second,
		ComposeService: "bds",
		LogLines:       70,
		DataDir:        "data",
		WorldName:      "Bedrock Level",
	}
}

// Address returns host:port for the status probe.
func (c *Config) Address() string {
	return net.JoinHostPort(c.ServerIP, strconv.Itoa(c.ServerPort))
}

// WorldDir returns the directory of the world that gets backed up.
func (c *Config) WorldDir() string {
	return filepath.Join(c.DataDir, "worlds", c.WorldName)
}

// BackupDir returns the directory backups are written to.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}
