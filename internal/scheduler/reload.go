package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/plugin"
	"github.com/Guliveer/hostsnap/internal/plugin/luaplugin"
)

// DefaultReloadDebounce is the quiet period before changed plugin files are
// acted on.
const DefaultReloadDebounce = 500 * time.Millisecond

// Reloader watches plugin directories. A new script or shared object is
// loaded, a changed script is reloaded and a removed file is unloaded.
// Shared objects cannot be unloaded by Go, so a changed .so is only
// reported.
type Reloader struct {
	watcher  *fsnotify.Watcher
	plugins  *plugin.Manager
	settings func(name string) string
	debounce time.Duration
	logger   *zap.Logger

	stopCh    chan struct{}
	stoppedCh chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewReloader watches dirs. Directories that do not exist are skipped.
// settings returns the configuration text for a plugin and may be nil.
func NewReloader(plugins *plugin.Manager, dirs []string, settings func(string) string, logger *zap.Logger) (*Reloader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings == nil {
		settings = func(string) string { return "" }
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	watched := 0
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logger.Debug("Not watching plugin directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched++
	}
	logger.Info("Watching plugin directories", zap.Int("count", watched))

	return &Reloader{
		watcher:   watcher,
		plugins:   plugins,
		settings:  settings,
		debounce:  DefaultReloadDebounce,
		logger:    logger,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}, nil
}

// Start begins watching in a goroutine.
func (r *Reloader) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	go r.loop(ctx)
}

// Stop stops watching and waits for the loop to exit.
func (r *Reloader) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		r.watcher.Close()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	<-r.stoppedCh
}

func (r *Reloader) loop(ctx context.Context) {
	defer close(r.stoppedCh)
	defer r.watcher.Close()

	pending := make(map[string]struct{})
	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-r.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !isPluginFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending[event.Name] = struct{}{}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(r.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			for path := range pending {
				r.apply(ctx, path)
			}
			pending = make(map[string]struct{})
			debounceTimer = nil
			debounceCh = nil

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("Plugin directory watch error", zap.Error(err))
		}
	}
}

// apply brings the loaded set in line with the file at path.
func (r *Reloader) apply(ctx context.Context, path string) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	loaded, isLoaded := r.plugins.Get(name)
	if isLoaded && loaded.Info().Static {
		return
	}
	if isLoaded && loaded.Info().Path != path {
		return
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil

	switch {
	case !exists && isLoaded:
		if err := r.plugins.Unload(name); err != nil {
			r.logger.Warn("Failed to unload removed plugin", zap.String("plugin", name), zap.Error(err))
			return
		}
		r.logger.Info("Unloaded removed plugin", zap.String("plugin", name))
		return
	case !exists:
		return
	case isLoaded && filepath.Ext(path) != luaplugin.Ext:
		r.logger.Warn("Shared object changed; restart to pick it up", zap.String("plugin", name))
		return
	case isLoaded:
		if err := r.plugins.Unload(name); err != nil {
			r.logger.Warn("Failed to unload changed plugin", zap.String("plugin", name), zap.Error(err))
		}
	}

	p, err := r.plugins.LoadPath(ctx, path, r.settings(name))
	if err != nil {
		r.logger.Warn("Failed to load plugin", zap.String("path", path), zap.Error(err))
		return
	}
	r.logger.Info("Loaded plugin from watched directory",
		zap.String("plugin", p.Name()),
		zap.String("state", p.State().String()))
}

func isPluginFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case luaplugin.Ext, ".so", ".dylib":
		return true
	}
	return false
}
