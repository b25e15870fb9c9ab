package watch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// tsFilter accepts .ts files and prunes node_modules.
type tsFilter struct{}

func (tsFilter) Accepts(root, path string) bool { return strings.HasSuffix(path, ".ts") }
func (tsFilter) SkipDir(root, dir string) bool  { return filepath.Base(dir) == "node_modules" }

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fsnotify spawns goroutines on windows that goleak cannot track")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app", "api"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "zod"), 0755))

	w, err := New(root, tsFilter{}, func(context.Context, []string) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()), "second start is a no-op")

	dirs := w.WatchedDirs()
	assert.Contains(t, dirs, filepath.Join(root, "app", "api"))
	for _, d := range dirs {
		assert.NotContains(t, d, "node_modules")
	}

	w.Stop()
	w.Stop()
}

func TestWatcher_DebouncedBatch(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	api := filepath.Join(root, "app", "api")
	require.NoError(t, os.MkdirAll(api, 0755))

	batches := make(chan []string, 4)
	w, err := New(root, tsFilter{}, func(_ context.Context, files []string) {
		batches <- append([]string(nil), files...)
	}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	route := filepath.Join(api, "route.ts")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(route, []byte("export function POST() {}\n"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(api, "notes.md"), []byte("ignored"), 0644))

	select {
	case files := <-batches:
		assert.Equal(t, []string{route}, files)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
	}

	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.FilesCreated+stats.FilesModified, 1)
	assert.Equal(t, 1, stats.Batches)
	assert.Equal(t, route, stats.LastEventPath)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	batches := make(chan []string, 4)
	w, err := New(root, tsFilter{}, func(_ context.Context, files []string) {
		batches <- files
	}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	dir := filepath.Join(root, "app", "api", "photos")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.Eventually(t, func() bool {
		for _, d := range w.WatchedDirs() {
			if d == dir {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	file := filepath.Join(dir, "route.ts")
	require.NoError(t, os.WriteFile(file, []byte("export {}\n"), 0644))

	select {
	case files := <-batches:
		assert.Equal(t, []string{file}, files)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
	}
}
