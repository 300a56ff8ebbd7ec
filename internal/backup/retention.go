package backup

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/errors"
)

// Retention limits how many archives pile up in the backup directory. Zero
// values disable the corresponding rule.
type Retention struct {
	// Keep is the number of most recent archives to keep.
	Keep int
	// MaxAge removes archives older than this.
	MaxAge time.Duration
}

// Enabled reports whether any rule is set.
func (r Retention) Enabled() bool {
	return r.Keep > 0 || r.MaxAge > 0
}

type archive struct {
	path    string
	modTime time.Time
}

// Prune deletes archives in backupDir that fall outside r and returns the
// removed paths. The newest archive is never removed. Files without the
// .mcworld extension are left alone.
func Prune(backupDir string, r Retention, now time.Time) ([]string, error) {
	if !r.Enabled() {
		return nil, nil
	}

	archives, err := listArchives(backupDir)
	if err != nil {
		return nil, err
	}
	if len(archives) <= 1 {
		return nil, nil
	}

	// Newest first.
	sort.Slice(archives, func(i, j int) bool {
		if archives[i].modTime.Equal(archives[j].modTime) {
			return archives[i].path > archives[j].path
		}
		return archives[i].modTime.After(archives[j].modTime)
	})

	var removed []string
	for i, a := range archives[1:] {
		pos := i + 1
		tooMany := r.Keep > 0 && pos >= r.Keep
		tooOld := r.MaxAge > 0 && now.Sub(a.modTime) > r.MaxAge
		if !tooMany && !tooOld {
			continue
		}
		if err := os.Remove(a.path); err != nil {
			return removed, errors.WrapWithCode(err, errors.ErrBackup,
				"Can't delete old backup "+a.path,
				"Check your permissions.")
		}
		removed = append(removed, a.path)
	}
	return removed, nil
}

func listArchives(backupDir string) ([]archive, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapWithCode(err, errors.ErrBackup,
			"Can't read backup directory "+backupDir,
			"Check your permissions.")
	}

	var archives []archive
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // Skip entries we can't stat
		}
		archives = append(archives, archive{
			path:    filepath.Join(backupDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	return archives, nil
}
