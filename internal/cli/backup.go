package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/mcwatch/internal/backup"
	"github.com/rileyhilliard/mcwatch/internal/config"
	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/rileyhilliard/mcwatch/internal/ui"
	"github.com/rileyhilliard/mcwatch/internal/util"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive the world directory",
	Long: `Write a .mcworld archive of the world to DATA_DIR/backups.

The archive can be imported by double-clicking it on a machine with
Minecraft installed. Back up while the server is stopped (or idle) to avoid
catching the world mid-save. BACKUP_KEEP and BACKUP_MAX_AGE prune older
archives afterwards.

Examples:
  mcwatch backup
  WORLD_NAME="My World" mcwatch backup`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runBackup(cfg, os.Stderr, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cfg *config.Config, out io.Writer, now time.Time) error {
	if cfg.WorldName == "" {
		return errors.New(errors.ErrConfig,
			"WORLD_NAME is empty",
			"Set WORLD_NAME to the level-name from server.properties.")
	}

	s := ui.NewSpinner("Backing up " + cfg.WorldName)
	s.SetOutput(func(str string) { fmt.Fprint(out, str) })
	s.Start()

	path, err := backup.Create(cfg.WorldDir(), cfg.BackupDir(), now)
	if err != nil {
		s.Fail("")
		return err
	}
	s.Success()

	fmt.Fprintf(out, "Wrote %s\n", path)

	removed, err := backup.Prune(cfg.BackupDir(), backupRetention(cfg), now)
	if len(removed) > 0 {
		fmt.Fprintf(out, "Removed %d old %s\n", len(removed), util.Pluralize(len(removed), "backup", "backups"))
	}
	return err
}

func backupRetention(cfg *config.Config) backup.Retention {
	return backup.Retention{Keep: cfg.BackupKeep, MaxAge: cfg.BackupMaxAge}
}
