package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intakehq/intake/internal/watcher"
)

func watch(t *testing.T, path string) <-chan struct{} {
	t.Helper()
	w, err := watcher.New(path, watcher.WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	changes, err := w.Watch(ctx)
	require.NoError(t, err)
	return changes
}

func expectChange(t *testing.T, changes <-chan struct{}, within time.Duration) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(within):
		t.Fatal("expected a change notification")
	}
}

func expectQuiet(t *testing.T, changes <-chan struct{}, d time.Duration) {
	t.Helper()
	select {
	case <-changes:
		t.Fatal("unexpected change notification")
	case <-time.After(d):
	}
}

func writeConfigFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestWatch_BurstOfWritesIsOneChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "ui: {}")

	changes := watch(t, path)

	for i := 1; i <= 10; i++ {
		writeConfigFile(t, path, fmt.Sprintf("ui:\n  page_size: %d\n", i))
		time.Sleep(10 * time.Millisecond)
	}

	expectChange(t, changes, 500*time.Millisecond)
	expectQuiet(t, changes, 150*time.Millisecond)
}

func TestWatch_SeparateEditsAreSeparateChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "ui: {}")

	changes := watch(t, path)

	writeConfigFile(t, path, "ui:\n  page_size: 5\n")
	expectChange(t, changes, 500*time.Millisecond)

	writeConfigFile(t, path, "ui:\n  page_size: 6\n")
	expectChange(t, changes, 500*time.Millisecond)
}

func TestWatch_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	sibling := filepath.Join(dir, "debug.log")
	writeConfigFile(t, path, "ui: {}")
	writeConfigFile(t, sibling, "initial")

	changes := watch(t, path)

	writeConfigFile(t, sibling, "log line")
	expectQuiet(t, changes, 150*time.Millisecond)
}

func TestWatch_SeesFileReplacedByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "ui: {}")

	changes := watch(t, path)

	tmp := filepath.Join(dir, "config.yaml.tmp")
	writeConfigFile(t, tmp, "ui:\n  page_size: 5\n")
	require.NoError(t, os.Rename(tmp, path))

	expectChange(t, changes, 500*time.Millisecond)
}

func TestWatch_RelativePath(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir(".intake", 0o755))
	path := filepath.Join(".intake", "config.yaml")
	writeConfigFile(t, path, "ui: {}")

	changes := watch(t, path)

	writeConfigFile(t, path, "ui:\n  page_size: 5\n")
	expectChange(t, changes, 500*time.Millisecond)
}

func TestWatch_StopsWithContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "ui: {}")

	w, err := watcher.New(path, watcher.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := w.Watch(ctx)
	require.NoError(t, err)

	cancel()
	time.Sleep(50 * time.Millisecond)

	writeConfigFile(t, path, "ui:\n  page_size: 5\n")
	expectQuiet(t, changes, 150*time.Millisecond)
}

func TestWatch_MissingDirectory(t *testing.T) {
	w, err := watcher.New(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.NoError(t, err)

	_, err = w.Watch(context.Background())
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	w, err := watcher.New(".intake/config.yaml")
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, ".intake", "config.yaml"), w.Path())
}
