package plugin

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/errs"
)

// Manager owns the plugins a host has loaded and drives their collection.
type Manager struct {
	loader *Loader
	logger *zap.Logger

	mu      sync.RWMutex
	plugins []*Plugin
}

// NewManager creates an empty manager that loads through loader.
func NewManager(loader *Loader, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		loader:  loader,
		logger:  logger,
		plugins: make([]*Plugin, 0),
	}
}

// Load loads, configures and initializes the named plugin. A plugin whose
// initialization fails is still kept so its state and last error can be
// inspected.
func (m *Manager) Load(ctx context.Context, name, config string) (*Plugin, error) {
	if p, ok := m.Get(name); ok {
		return p, errs.Errorf(errs.InvalidArgument, "plugin.manager", "plugin %q is already loaded", name)
	}
	p, err := m.loader.Load(name)
	if err != nil {
		return nil, err
	}
	return p, m.adopt(ctx, p, config)
}

// LoadPath is Load for a plugin file.
func (m *Manager) LoadPath(ctx context.Context, path, config string) (*Plugin, error) {
	if p, ok := m.Get(stem(path)); ok {
		return p, errs.Errorf(errs.InvalidArgument, "plugin.manager", "plugin %q is already loaded", p.Name())
	}
	p, err := m.loader.LoadPath(path)
	if err != nil {
		return nil, err
	}
	return p, m.adopt(ctx, p, config)
}

func (m *Manager) adopt(ctx context.Context, p *Plugin, config string) error {
	m.mu.Lock()
	m.plugins = append(m.plugins, p)
	m.mu.Unlock()

	if err := p.SetConfig(config); err != nil {
		return err
	}
	return p.Initialize(ctx)
}

// LoadAll loads every named plugin with its configuration from settings.
// Failures are logged and joined; the remaining plugins still load.
func (m *Manager) LoadAll(ctx context.Context, names []string, settings map[string]string) error {
	var failed []error
	for _, name := range names {
		p, err := m.Load(ctx, name, settings[name])
		if err != nil {
			m.logger.Warn("Failed to load plugin", zap.String("plugin", name), zap.Error(err))
			failed = append(failed, err)
			continue
		}
		m.logger.Info("Registered plugin",
			zap.String("plugin", p.Name()),
			zap.String("state", p.State().String()))
	}
	return errors.Join(failed...)
}

// CollectAll runs every enabled plugin in load order against the run's
// cache. One plugin failing does not stop the others; its error is
// returned by name and the data map holds only successful results.
func (m *Manager) CollectAll(ctx context.Context, c *cache.Manager) (map[string]map[string]any, map[string]error) {
	results := make(map[string]map[string]any)
	failures := make(map[string]error)

	for _, p := range m.Plugins() {
		if ctx.Err() != nil {
			failures[p.Name()] = errs.Wrap(errs.Timeout, "plugin.collect", ctx.Err())
			continue
		}
		if !p.IsEnabled() {
			continue
		}
		if err := p.CollectData(ctx, c); err != nil {
			m.logger.Error("Collection failed",
				zap.String("plugin", p.Name()),
				zap.Error(err))
			failures[p.Name()] = err
			continue
		}
		if data, ok := p.Data(); ok {
			results[p.Name()] = data
		}
	}
	return results, failures
}

// Get returns the loaded plugin with the given name.
func (m *Manager) Get(name string) (*Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.plugins {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Plugins returns a copy of the loaded plugins in load order.
func (m *Manager) Plugins() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*Plugin, len(m.plugins))
	copy(result, m.plugins)
	return result
}

// Unload unloads and forgets the named plugin.
func (m *Manager) Unload(name string) error {
	m.mu.Lock()
	var target *Plugin
	for i, p := range m.plugins {
		if p.Name() == name {
			target = p
			m.plugins = append(m.plugins[:i], m.plugins[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if target == nil {
		return errs.Errorf(errs.NotFound, "plugin.manager", "plugin %q is not loaded", name)
	}
	return target.Unload()
}

// UnloadAll unloads every plugin in reverse load order.
func (m *Manager) UnloadAll() {
	m.mu.Lock()
	plugins := m.plugins
	m.plugins = make([]*Plugin, 0)
	m.mu.Unlock()

	for i := len(plugins) - 1; i >= 0; i-- {
		if err := plugins[i].Unload(); err != nil {
			m.logger.Warn("Plugin unload failed", zap.String("plugin", plugins[i].Name()), zap.Error(err))
		}
	}
}
