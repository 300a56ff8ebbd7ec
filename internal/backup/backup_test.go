package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/errors"
	"github.com/rileyhilliard/mcwatch/internal/stop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorld(t *testing.T) string {
	t.Helper()
	world := filepath.Join(t.TempDir(), "worlds", "Bedrock Level")
	files := map[string]string{
		"level.dat":         "level-data",
		"levelname.txt":     "Bedrock Level",
		"db/CURRENT":        "MANIFEST-000001",
		"db/000005.ldb":     "chunks",
		"db/lost/empty.log": "",
	}
	for name, content := range files {
		path := filepath.Join(world, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return world
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			out[f.Name] = "<dir>"
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(data)
	}
	return out
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 1, 0, time.Local)
	assert.Equal(t, "world_backup_20240309_070501.mcworld", FileName(ts))
}

func TestCreate(t *testing.T) {
	world := writeWorld(t)
	backups := filepath.Join(t.TempDir(), "backups")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)

	path, err := Create(world, backups, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(backups, "world_backup_20240102_030405.mcworld"), path)

	entries := readArchive(t, path)
	assert.Equal(t, map[string]string{
		"db/":               "<dir>",
		"db/lost/":          "<dir>",
		"db/000005.ldb":     "chunks",
		"db/CURRENT":        "MANIFEST-000001",
		"db/lost/empty.log": "",
		"level.dat":         "level-data",
		"levelname.txt":     "Bedrock Level",
	}, entries)
}

func TestCreate_LargeChunkFile(t *testing.T) {
	world := writeWorld(t)
	chunks := bytes.Repeat([]byte("leveldb-chunk-"), 256*1024)
	require.NoError(t, os.WriteFile(filepath.Join(world, "db", "000007.ldb"), chunks, 0o644))

	path, err := Create(world, t.TempDir(), time.Now())
	require.NoError(t, err)

	entries := readArchive(t, path)
	assert.Len(t, entries["db/000007.ldb"], len(chunks))
	assert.Equal(t, string(chunks), entries["db/000007.ldb"])
	assert.Equal(t, "chunks", entries["db/000005.ldb"])
}

func TestCreate_MissingWorld(t *testing.T) {
	backups := filepath.Join(t.TempDir(), "backups")

	_, err := Create(filepath.Join(t.TempDir(), "nope"), backups, time.Now())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrBackup))

	_, statErr := os.Stat(backups)
	assert.True(t, os.IsNotExist(statErr), "no backup directory should be created for a missing world")
}

func TestCreate_WorldIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "world")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := Create(file, t.TempDir(), time.Now())
	assert.True(t, errors.IsCode(err, errors.ErrBackup))
}

func TestRunner_BacksUpUntilStopped(t *testing.T) {
	world := writeWorld(t)
	backups := t.TempDir()
	sig := stop.New()

	var mu sync.Mutex
	var paths []string
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

	r := &Runner{
		WorldDir:  world,
		BackupDir: backups,
		Interval:  time.Millisecond,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			tick = tick.Add(time.Second)
			return tick
		},
		OnBackup: func(path string, err error) {
			assert.NoError(t, err)
			mu.Lock()
			paths = append(paths, path)
			mu.Unlock()
		},
	}

	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), sig)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(paths) >= 3
	}, 5*time.Second, time.Millisecond)

	sig.Set(stop.ReasonManual)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop with the signal")
	}

	files, err := os.ReadDir(backups)
	require.NoError(t, err)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	require.GreaterOrEqual(t, len(names), 3)
	assert.Equal(t, "world_backup_20240101_000001.mcworld", names[0])
	assert.Equal(t, "world_backup_20240101_000002.mcworld", names[1])
}

func TestRunner_FirstBackupIsImmediate(t *testing.T) {
	world := writeWorld(t)
	sig := stop.New()

	called := make(chan string, 1)
	r := &Runner{
		WorldDir:  world,
		BackupDir: t.TempDir(),
		Interval:  time.Hour,
		OnBackup:  func(path string, _ error) { called <- path },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, sig)
		close(done)
	}()

	select {
	case path := <-called:
		assert.FileExists(t, path)
	case <-time.After(5 * time.Second):
		t.Fatal("no backup taken at start")
	}

	cancel()
	<-done
}

func TestRunner_Disabled(t *testing.T) {
	r := &Runner{Interval: 0}
	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), stop.New())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled runner should return immediately")
	}
}

func TestRunner_FailuresAreRetried(t *testing.T) {
	sig := stop.New()
	var mu sync.Mutex
	failures := 0

	r := &Runner{
		WorldDir:  filepath.Join(t.TempDir(), "missing"),
		BackupDir: t.TempDir(),
		Interval:  time.Millisecond,
		OnBackup: func(_ string, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
			}
		},
	}

	go r.Run(context.Background(), sig)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failures >= 2
	}, 5*time.Second, time.Millisecond)
	sig.Set(stop.ReasonManual)
}
