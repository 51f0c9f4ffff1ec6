package config

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vyrodovalexey/pathhint/internal/observability"
)

// ChangeCallback is called when the configuration file changes to a new
// valid configuration. previous is the configuration seen before the edit.
type ChangeCallback func(previous, current *ServerConfig)

// ErrorCallback is called when a changed file fails to load or validate.
type ErrorCallback func(error)

// Watcher watches the configuration file and reports edits. It never
// applies them: the running route table is fixed for the process
// lifetime.
type Watcher struct {
	path          string
	watcher       *fsnotify.Watcher
	callback      ChangeCallback
	errorCallback ErrorCallback
	logger        observability.Logger
	debounceDelay time.Duration
	lastConfig    *ServerConfig
	mu            sync.RWMutex
	stopCh        chan struct{}
	stoppedCh     chan struct{}
	running       bool
}

// WatcherOption is a functional option for configuring the watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay for file changes.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = delay
	}
}

// WithLogger sets the logger for the watcher.
func WithLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithErrorCallback sets the error callback for the watcher.
func WithErrorCallback(callback ErrorCallback) WatcherOption {
	return func(w *Watcher) {
		w.errorCallback = callback
	}
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(path string, callback ChangeCallback, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:          absPath,
		watcher:       fsWatcher,
		callback:      callback,
		debounceDelay: 100 * time.Millisecond,
		logger:        observability.NopLogger(),
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Start loads the current file as the baseline and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	cfg, err := LoadConfig(w.path)
	if err != nil {
		return err
	}
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	w.lastConfig = cfg

	// Editors replace files by rename, so watch the directory.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.running = true
	w.logger.Info("started watching configuration file",
		observability.String("path", w.path),
	)

	go w.watch(ctx)

	return nil
}

// Stop stops watching the configuration file.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh

	return w.watcher.Close()
}

// GetLastConfig returns the last successfully loaded configuration.
func (w *Watcher) GetLastConfig() *ServerConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastConfig
}

// watch coalesces bursts of file events into one check per debounce
// window.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stoppedCh)

	debounce := time.NewTimer(w.debounceDelay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("config watcher context done", observability.String("path", w.path))
			return
		case <-w.stopCh:
			w.logger.Debug("config watcher stopped", observability.String("path", w.path))
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				debounce.Reset(w.debounceDelay)
			}
		case <-debounce.C:
			w.check()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError("config watcher error", err)
		}
	}
}

// relevant reports whether event may have changed the watched file's
// content. Other files in the same directory are ignored.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// check loads the file and reports it if it differs from the baseline.
func (w *Watcher) check() {
	if err := w.ForceCheck(); err != nil {
		w.reportError("changed configuration is invalid", err)
	}
}

// ForceCheck loads the file immediately and invokes the callback when the
// content differs from the last seen configuration.
func (w *Watcher) ForceCheck() error {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		return err
	}
	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	w.mu.Lock()
	previous := w.lastConfig
	changed := !reflect.DeepEqual(previous, cfg)
	w.lastConfig = cfg
	w.mu.Unlock()

	if !changed {
		w.logger.Debug("config file touched without changes",
			observability.String("path", w.path),
		)
		return nil
	}

	if w.callback != nil {
		w.callback(previous, cfg)
	}
	return nil
}

func (w *Watcher) reportError(msg string, err error) {
	w.logger.Error(msg,
		observability.String("path", w.path),
		observability.Error(err),
	)
	if w.errorCallback != nil {
		w.errorCallback(err)
	}
}

// RouteDiff lists route paths added and removed between two configurations.
type RouteDiff struct {
	Added   []string
	Removed []string
}

// Empty reports whether no paths were added or removed.
func (d RouteDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffRoutes compares the route paths of two configurations.
func DiffRoutes(previous, current *ServerConfig) RouteDiff {
	var diff RouteDiff

	before := make(map[string]struct{})
	if previous != nil {
		for _, p := range previous.RoutePaths() {
			before[p] = struct{}{}
		}
	}

	after := make(map[string]struct{})
	if current != nil {
		for _, p := range current.RoutePaths() {
			after[p] = struct{}{}
			if _, ok := before[p]; !ok {
				diff.Added = append(diff.Added, p)
			}
		}
	}

	if previous != nil {
		for _, p := range previous.RoutePaths() {
			if _, ok := after[p]; !ok {
				diff.Removed = append(diff.Removed, p)
			}
		}
	}

	return diff
}
