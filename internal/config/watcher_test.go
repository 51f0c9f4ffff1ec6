package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/pathhint/internal/observability"
)

const watchedConfigYAML = `
apiVersion: pathhint.io/v1
kind: Server
spec:
  listener:
    address: "127.0.0.1:7878"
  routes:
    - path: /
      handler: {type: static, body: home}
    - path: /about
      handler: {type: static, body: about}
`

const editedConfigYAML = `
apiVersion: pathhint.io/v1
kind: Server
spec:
  listener:
    address: "127.0.0.1:7878"
  routes:
    - path: /
      handler: {type: static, body: home}
    - path: /contact
      handler: {type: static, body: contact}
`

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestNewWatcher(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, watchedConfigYAML)

	w, err := NewWatcher(path, nil,
		WithDebounceDelay(10*time.Millisecond),
		WithLogger(observability.NopLogger()),
		WithErrorCallback(func(error) {}),
	)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Equal(t, path, w.path)
	assert.Equal(t, 10*time.Millisecond, w.debounceDelay)
	assert.NotNil(t, w.errorCallback)
	assert.Nil(t, w.GetLastConfig())
}

func TestWatcher_StartInvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "apiVersion: pathhint.io/v1\nkind: Server\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Error(t, w.Start(context.Background()))
	assert.Nil(t, w.GetLastConfig())
}

func TestWatcher_ForceCheck(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, watchedConfigYAML)

	var calls int
	var diff RouteDiff
	w, err := NewWatcher(path, func(previous, current *ServerConfig) {
		calls++
		diff = DiffRoutes(previous, current)
	}, WithDebounceDelay(time.Hour))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	// Unchanged content does not invoke the callback.
	require.NoError(t, w.ForceCheck())
	assert.Equal(t, 0, calls)

	writeConfig(t, path, editedConfigYAML)
	require.NoError(t, w.ForceCheck())
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"/contact"}, diff.Added)
	assert.Equal(t, []string{"/about"}, diff.Removed)
	assert.Equal(t, []string{"/", "/contact"}, w.GetLastConfig().RoutePaths())
}

func TestWatcher_DetectsEdit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, watchedConfigYAML)

	changed := make(chan *ServerConfig, 1)
	w, err := NewWatcher(path, func(_, current *ServerConfig) {
		select {
		case changed <- current:
		default:
		}
	}, WithDebounceDelay(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	writeConfig(t, path, editedConfigYAML)

	select {
	case cfg := <-changed:
		assert.Equal(t, []string{"/", "/contact"}, cfg.RoutePaths())
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestWatcher_InvalidEditReportsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, watchedConfigYAML)

	var mu sync.Mutex
	var errs []error
	w, err := NewWatcher(path, func(_, _ *ServerConfig) {
		t.Error("callback must not run for invalid configuration")
	},
		WithDebounceDelay(10*time.Millisecond),
		WithErrorCallback(func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { _ = w.Stop() }()

	writeConfig(t, path, "apiVersion: pathhint.io/v1\nkind: Server\nspec: {}\n")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) > 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"/", "/about"}, w.GetLastConfig().RoutePaths())
}

func TestWatcher_Relevant(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pathhint.yaml")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{name: "write", event: fsnotify.Event{Name: path, Op: fsnotify.Write}, want: true},
		{name: "create", event: fsnotify.Event{Name: path, Op: fsnotify.Create}, want: true},
		{name: "rename", event: fsnotify.Event{Name: path, Op: fsnotify.Rename}, want: true},
		{name: "chmod", event: fsnotify.Event{Name: path, Op: fsnotify.Chmod}, want: false},
		{name: "remove", event: fsnotify.Event{Name: path, Op: fsnotify.Remove}, want: false},
		{name: "sibling", event: fsnotify.Event{Name: filepath.Join(dir, "other.yaml"), Op: fsnotify.Write}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, watchedConfigYAML)

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))

	assert.NoError(t, w.Stop())
}

func TestDiffRoutes(t *testing.T) {
	t.Parallel()

	a := DefaultConfig()
	assert.True(t, DiffRoutes(a, DefaultConfig()).Empty())

	diff := DiffRoutes(nil, a)
	assert.Len(t, diff.Added, len(a.Spec.Routes))
	assert.Empty(t, diff.Removed)

	diff = DiffRoutes(a, nil)
	assert.Empty(t, diff.Added)
	assert.Len(t, diff.Removed, len(a.Spec.Routes))
}
