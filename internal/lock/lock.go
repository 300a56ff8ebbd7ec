// Package lock keeps two monitors from supervising the same server.
//
// A lock is a directory created with mkdir, which fails atomically when the
// directory exists. The holder writes info.json inside it and refreshes it
// on a heartbeat; a lock whose heartbeat is older than the stale threshold
// belongs to a monitor that died without cleaning up and is taken over.
package lock

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/errors"
)

// Defaults for Options.
const (
	DefaultStale     = time.Minute
	DefaultHeartbeat = 15 * time.Second
)

const infoFileName = "info.json"

// Options configures Acquire.
type Options struct {
	// Dir holds lock directories. Defaults to os.TempDir().
	Dir string
	// Stale is how old a heartbeat must be before the lock is taken over.
	Stale time.Duration
	Now   func() time.Time
}

// Lock represents an acquired lock.
type Lock struct {
	Dir  string    // The lock directory path
	Info *LockInfo // Info about the lock holder (us)

	mu       sync.Mutex
	now      func() time.Time
	released bool
}

// Name derives a lock name from the server address and compose project, so
// monitors of different servers on one host don't collide.
func Name(address, project string) string {
	h := sha256.Sum256([]byte(address + "|" + project))
	return fmt.Sprintf("mcwatch-%x.lock", h[:8])
}

// Acquire takes the lock called name. It does not wait: when a live holder
// exists it returns an error wrapping ErrLocked that names the holder.
func Acquire(name, server string, opts Options) (*Lock, error) {
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	if opts.Stale <= 0 {
		opts.Stale = DefaultStale
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	lockDir := filepath.Join(opts.Dir, name)
	info := NewLockInfo(server, opts.Now())

	// Two attempts: the second follows removing a stale lock.
	for attempt := 0; attempt < 2; attempt++ {
		err := os.Mkdir(lockDir, 0o755)
		if err == nil {
			l := &Lock{Dir: lockDir, Info: info, now: opts.Now}
			if err := l.write(); err != nil {
				_ = os.RemoveAll(lockDir)
				return nil, errors.WrapWithCode(err, errors.ErrLock,
					"Failed to write lock info file",
					"Check disk space and permissions on "+opts.Dir)
			}
			return l, nil
		}
		if !os.IsExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrLock,
				"Failed to create lock directory "+lockDir,
				"Check permissions on "+opts.Dir)
		}

		if !isStale(lockDir, opts.Stale, opts.Now()) {
			break
		}
		if err := os.RemoveAll(lockDir); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrLock,
				"Failed to remove stale lock "+lockDir,
				"Remove it by hand: rm -rf "+lockDir)
		}
	}

	return nil, errors.WrapWithCode(ErrLocked, errors.ErrLock,
		fmt.Sprintf("Another mcwatch is already watching this server: %s", Holder(lockDir)),
		"Stop the other monitor first. If it crashed, the lock frees itself within a minute.")
}

// Refresh updates the heartbeat.
func (l *Lock) Refresh() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}
	l.Info.Updated = l.now()
	return l.writeLocked()
}

// KeepAlive refreshes the heartbeat every interval until ctx is done.
func (l *Lock) KeepAlive(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = DefaultHeartbeat
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = l.Refresh()
		}
	}
}

// Release removes the lock, allowing others to acquire it.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}
	l.released = true

	if err := os.RemoveAll(l.Dir); err != nil {
		return errors.WrapWithCode(err, errors.ErrLock,
			fmt.Sprintf("Failed to remove lock directory: %s", l.Dir),
			"Remove it by hand: rm -rf "+l.Dir)
	}
	return nil
}

// Holder returns information about who holds the lock in lockDir.
func Holder(lockDir string) string {
	data, err := os.ReadFile(filepath.Join(lockDir, infoFileName))
	if err != nil {
		return "unknown"
	}

	info, err := ParseLockInfo(data)
	if err != nil {
		// Fall back to raw content
		return strings.TrimSpace(string(data))
	}
	return info.String()
}

func (l *Lock) write() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeLocked()
}

func (l *Lock) writeLocked() error {
	data, err := l.Info.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(l.Dir, infoFileName), data, 0o644)
}

// isStale reports whether the heartbeat in lockDir is older than threshold.
// A lock without a readable info file is judged by the directory's mtime so
// a holder that died between mkdir and writing info still expires.
func isStale(lockDir string, threshold time.Duration, now time.Time) bool {
	data, err := os.ReadFile(filepath.Join(lockDir, infoFileName))
	if err == nil {
		if info, err := ParseLockInfo(data); err == nil {
			return info.Age(now) > threshold
		}
	}

	st, err := os.Stat(lockDir)
	if err != nil {
		return false
	}
	return now.Sub(st.ModTime()) > threshold
}
