package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// HostBinder turns the cache of the current run into the Host handed to
// a module's Collect.
type HostBinder func(m *cache.Manager) pluginapi.Host

// EnvProvider builds the environment for the named plugin.
type EnvProvider func(name string) (pluginapi.Env, error)

// Plugin is a loaded plugin and its lifecycle state. Operations after
// Unload return an InvalidArgument error.
type Plugin struct {
	id     uuid.UUID
	info   models.PluginInfo
	module pluginapi.Module
	bind   HostBinder
	env    EnvProvider
	logger *zap.Logger

	mu          sync.Mutex
	state       State
	config      pluginapi.Config
	initialized bool
	data        map[string]any
	lastErr     string
}

func newPlugin(info models.PluginInfo, module pluginapi.Module, bind HostBinder, env EnvProvider, logger *zap.Logger) *Plugin {
	id := uuid.New()
	return &Plugin{
		id:     id,
		info:   info,
		module: module,
		bind:   bind,
		env:    env,
		logger: logger.With(zap.String("plugin", info.Name), zap.String("plugin_id", id.String())),
		state:  StateUnconfigured,
	}
}

// ID identifies this handle. Loading the same plugin twice yields two IDs.
func (p *Plugin) ID() uuid.UUID { return p.id }

// Name is the plugin name.
func (p *Plugin) Name() string { return p.info.Name }

// Info returns the plugin descriptor.
func (p *Plugin) Info() models.PluginInfo { return p.info }

// State returns the current lifecycle state.
func (p *Plugin) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetConfig parses and stores the configuration blob. It has no effect once
// the plugin has been initialized.
func (p *Plugin) SetConfig(text string) error {
	const op = "plugin.set_config"
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUnloaded {
		return errUnloaded(op)
	}
	if p.initialized {
		p.logger.Debug("Ignoring configuration for initialized plugin")
		return nil
	}

	cfg, err := ParseConfig(text)
	if err != nil {
		p.lastErr = err.Error()
		return err
	}
	p.config = cfg
	p.state = StateConfigured
	return nil
}

// Initialize configures the module and lets it acquire its resources. A
// failed Initialize leaves the plugin in StateError; it may be retried.
func (p *Plugin) Initialize(ctx context.Context) error {
	const op = "plugin.initialize"
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.state == StateUnloaded:
		return errUnloaded(op)
	case p.initialized:
		return errs.New(errs.InvalidArgument, op, "plugin is already initialized")
	}

	cfg := p.config
	if cfg == nil {
		cfg = pluginapi.Config{}
	}

	before := p.moduleError()
	err := p.guard(op, func() error {
		if err := p.module.Configure(cfg); err != nil {
			return errs.Wrap(errs.ConfigurationError, op, err)
		}
		env, err := p.env(p.info.Name)
		if err != nil {
			return err
		}
		if env.Logger == nil {
			env.Logger = p.logger
		}
		return p.module.Initialize(ctx, env)
	})
	if err != nil {
		p.state = StateError
		p.recordError(err, before)
		p.logger.Warn("Plugin initialization failed", zap.Error(err))
		return typed(op, err)
	}

	p.initialized = true
	p.state = p.settledState()
	p.logger.Info("Plugin initialized",
		zap.String("state", p.state.String()),
		zap.String("version", p.info.Version))
	return nil
}

// IsEnabled reports the module's enabled decision. It is false until
// Initialize succeeds.
func (p *Plugin) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized || p.state == StateUnloaded {
		return false
	}
	return p.safeBool(p.module.IsEnabled)
}

// IsReady reports whether collection is expected to succeed.
func (p *Plugin) IsReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized || p.state == StateUnloaded {
		return false
	}
	return p.safeBool(p.module.IsReady)
}

// CollectData asks the module for fresh data. Built-in metrics the module
// reads come from m. On failure the previous data is kept.
func (p *Plugin) CollectData(ctx context.Context, m *cache.Manager) error {
	const op = "plugin.collect"
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUnloaded {
		return errUnloaded(op)
	}
	if !p.initialized {
		err := errs.New(errs.InvalidArgument, op, "plugin is not initialized")
		p.lastErr = err.Error()
		return err
	}
	if !p.safeBool(p.module.IsEnabled) {
		p.state = StateDisabled
		return errs.New(errs.UnavailableFeature, op, "plugin is disabled")
	}

	var host pluginapi.Host = noHost{}
	if p.bind != nil && m != nil {
		host = p.bind(m)
	}

	var data map[string]any
	before := p.moduleError()
	err := p.guard(op, func() error {
		var err error
		data, err = p.module.Collect(ctx, host)
		return err
	})
	if err != nil {
		p.state = StateError
		p.recordError(err, before)
		p.logger.Debug("Plugin collection failed", zap.Error(err))
		return typed(op, err)
	}

	if data == nil {
		data = map[string]any{}
	}
	p.data = data
	p.state = StateDataCollected
	return nil
}

// Data returns a shallow copy of the last collected data.
func (p *Plugin) Data() (map[string]any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil, false
	}
	return maps.Clone(p.data), true
}

// JSON renders the last collected data. It fails with NotFound until a
// collection has succeeded.
func (p *Plugin) JSON() (string, error) {
	const op = "plugin.json"
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUnloaded {
		return "", errUnloaded(op)
	}
	if p.data == nil {
		return "", errs.New(errs.NotFound, op, "no data collected yet")
	}
	out, err := json.Marshal(p.data)
	if err != nil {
		return "", errs.Wrap(errs.InternalError, op, err)
	}
	return string(out), nil
}

// Fields returns the last collected data as flat key/value text.
func (p *Plugin) Fields() (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUnloaded {
		return nil, errUnloaded("plugin.fields")
	}
	return flatten(p.data), nil
}

// LastError returns the diagnostic of the most recent failure. A later
// success does not clear it.
func (p *Plugin) LastError() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr, p.lastErr != ""
}

// Unload closes the module. Calling it again does nothing.
func (p *Plugin) Unload() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUnloaded {
		return nil
	}
	err := p.guard("plugin.unload", p.module.Close)
	p.state = StateUnloaded
	p.initialized = false
	p.data = nil
	p.logger.Debug("Plugin unloaded")
	return err
}

func (p *Plugin) settledState() State {
	switch {
	case !p.safeBool(p.module.IsEnabled):
		return StateDisabled
	case p.safeBool(p.module.IsReady):
		return StateReady
	default:
		return StateInitialized
	}
}

// recordError stores the module's message only when the failed call set a
// new one; before is the message seen ahead of that call.
func (p *Plugin) recordError(err error, before string) {
	if msg := p.moduleError(); msg != "" && msg != before {
		p.lastErr = msg
		return
	}
	p.lastErr = err.Error()
}

func (p *Plugin) moduleError() (msg string) {
	defer func() {
		if recover() != nil {
			msg = ""
		}
	}()
	return p.module.LastError()
}

// guard runs module code, turning a panic into an InternalError.
func (p *Plugin) guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered panic in plugin", zap.String("op", op), zap.Any("panic", r))
			err = errs.New(errs.InternalError, op, fmt.Sprintf("plugin panicked: %v", r))
		}
	}()
	return fn()
}

func (p *Plugin) safeBool(fn func() bool) (v bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered panic in plugin", zap.Any("panic", r))
			v = false
		}
	}()
	return fn()
}

// typed makes sure a module error carries a kind.
func typed(op string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Wrap(errs.KindOf(err), op, err)
}

func errUnloaded(op string) error {
	return errs.New(errs.InvalidArgument, op, "plugin has been unloaded")
}

// noHost answers every metric request when no cache is bound.
type noHost struct{}

func (noHost) Metric(context.Context, string) (any, error) {
	return nil, errs.New(errs.ApiUnavailable, "plugin.host", "no metric host bound")
}
