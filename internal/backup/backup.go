// Package backup archives the Bedrock world as a .mcworld file, which is a
// zip of the world directory that the game can import directly.
package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/rileyhilliard/mcwatch/internal/logger"
	"github.com/rileyhilliard/mcwatch/internal/stop"
)

// Extension is the file extension Minecraft uses for world exports.
const Extension = ".mcworld"

// FileName returns the archive name for a backup taken at t.
func FileName(t time.Time) string {
	return "world_backup_" + t.Format("20060102_150405") + Extension
}

// Create zips worldDir into backupDir and returns the archive path. Entry
// names are relative to worldDir. A partial archive is removed on failure.
func Create(worldDir, backupDir string, now time.Time) (archivePath string, err error) {
	info, err := os.Stat(worldDir)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrBackup,
			"World directory not found: "+worldDir,
			"Check DATA_DIR and WORLD_NAME point at the world the server loads.")
	}
	if !info.IsDir() {
		return "", errors.New(errors.ErrBackup,
			worldDir+" is not a directory",
			"Check DATA_DIR and WORLD_NAME point at the world the server loads.")
	}

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrBackup,
			"Couldn't create backup directory "+backupDir,
			"Check directory permissions")
	}

	archivePath = filepath.Join(backupDir, FileName(now))
	if err := writeArchive(worldDir, archivePath); err != nil {
		_ = os.Remove(archivePath)
		return "", errors.WrapWithCode(err, errors.ErrBackup,
			"Backup failed",
			"Check free disk space and that the world files are readable.")
	}
	return archivePath, nil
}

func writeArchive(worldDir, archivePath string) (err error) {
	f, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(f)
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return filepath.WalkDir(worldDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(worldDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}

		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %w", err)
		}
		header, err := zip.FileInfoHeader(fi)
		if err != nil {
			return fmt.Errorf("failed to create file header: %w", err)
		}
		header.Name = name
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create entry %s: %w", name, err)
		}

		return copyFile(w, path)
	})
}

// copyFile streams the file at path into w.
func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to copy %s: %w", path, err)
	}
	return nil
}

// Runner takes a backup immediately and then every interval until the stop
// signal fires or ctx is cancelled.
type Runner struct {
	WorldDir  string
	BackupDir string
	Interval  time.Duration
	Retention Retention
	Logger    logger.Logger
	Now       func() time.Time

	// OnBackup is called after every attempt with the archive path or error.
	OnBackup func(path string, err error)
}

// Run blocks until sig is set or ctx is done. Failed backups are logged and
// retried on the next tick. A non-positive interval makes Run return
// immediately.
func (r *Runner) Run(ctx context.Context, sig *stop.Signal) {
	if r.Interval <= 0 {
		return
	}
	log := r.Logger
	if log == nil {
		log = logger.Noop()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	for {
		if ctx.Err() != nil || sig.IsSet() {
			return
		}

		path, err := Create(r.WorldDir, r.BackupDir, now())
		if err != nil {
			log.Error("World backup failed: %v", err)
		} else {
			log.Info("Backup created at %s", path)
			if r.Retention.Enabled() {
				r.prune(log, now())
			}
		}
		if r.OnBackup != nil {
			r.OnBackup(path, err)
		}

		timer := time.NewTimer(r.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-sig.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (r *Runner) prune(log logger.Logger, now time.Time) {
	removed, err := Prune(r.BackupDir, r.Retention, now)
	if err != nil {
		log.Warn("Pruning old backups failed: %v", err)
	}
	for _, old := range removed {
		log.Debug("Removed old backup %s", old)
	}
}
