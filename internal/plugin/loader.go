package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/internal/plugin/luaplugin"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// Opener loads a module from a file. Each file extension has one Opener.
type Opener func(path string, logger *zap.Logger) (pluginapi.Module, error)

type opener struct {
	ext  string
	open Opener
}

// Loader resolves plugin names to modules, from the static registry first
// and then from files in the search paths.
type Loader struct {
	static  *StaticRegistry
	paths   *SearchPaths
	openers []opener
	bind    HostBinder
	env     EnvProvider
	logger  *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger handed to plugins and used by the loader.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithStaticRegistry replaces the process registry of compiled-in plugins.
func WithStaticRegistry(r *StaticRegistry) LoaderOption {
	return func(l *Loader) { l.static = r }
}

// WithSearchPaths replaces the process search path list.
func WithSearchPaths(s *SearchPaths) LoaderOption {
	return func(l *Loader) { l.paths = s }
}

// WithOpener registers an opener for files with extension ext. Extensions
// are tried in registration order.
func WithOpener(ext string, open Opener) LoaderOption {
	return func(l *Loader) { l.setOpener(ext, open) }
}

// WithHostBinder sets how a run's cache is exposed to plugins.
func WithHostBinder(bind HostBinder) LoaderOption {
	return func(l *Loader) { l.bind = bind }
}

// WithEnv sets how plugin environments are created.
func WithEnv(env EnvProvider) LoaderOption {
	return func(l *Loader) { l.env = env }
}

// NewLoader creates a loader over the process-wide registry and search
// paths unless options say otherwise. Shared objects and Lua scripts are
// opened by default.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		static: compiledIn,
		paths:  processPaths,
		logger: zap.NewNop(),
	}
	for _, ext := range sharedObjectExts() {
		l.setOpener(ext, OpenSharedObject)
	}
	l.setOpener(luaplugin.Ext, luaplugin.Open)
	for _, opt := range opts {
		opt(l)
	}
	if l.env == nil {
		l.env = DirEnv(DefaultDirs(), 0, l.logger)
	}
	l.static.SetLogger(l.logger)
	return l
}

func sharedObjectExts() []string {
	if runtime.GOOS == "darwin" {
		return []string{".so", ".dylib"}
	}
	return []string{".so"}
}

func (l *Loader) setOpener(ext string, open Opener) {
	ext = strings.ToLower(ext)
	for i, o := range l.openers {
		if o.ext == ext {
			l.openers[i].open = open
			return
		}
	}
	l.openers = append(l.openers, opener{ext: ext, open: open})
}

func (l *Loader) openerFor(ext string) (Opener, bool) {
	ext = strings.ToLower(ext)
	for _, o := range l.openers {
		if o.ext == ext {
			return o.open, true
		}
	}
	return nil, false
}

// InitStatic initializes the static registry and returns its size.
func (l *Loader) InitStatic() int { return l.static.Init() }

// AddSearchPath appends dir to the search paths.
func (l *Loader) AddSearchPath(dir string) bool { return l.paths.Add(dir) }

// SearchPaths returns the directories searched for plugin files.
func (l *Loader) SearchPaths() []string { return l.paths.List() }

// Load resolves name from the static registry, then from the search paths.
func (l *Loader) Load(name string) (*Plugin, error) {
	const op = "plugin.load"
	if err := checkName(op, name); err != nil {
		return nil, err
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, errs.Errorf(errs.InvalidArgument, op, "plugin name %q contains a path separator", name)
	}

	if entry, ok := l.static.lookup(name); ok {
		return l.fromFactory(op, entry.info, entry.factory)
	}

	for _, dir := range l.paths.List() {
		for _, o := range l.openers {
			path := filepath.Join(dir, name+o.ext)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return l.open(op, path, name, o.open)
			}
		}
	}
	return nil, errs.Errorf(errs.NotFound, op, "plugin %q not found", name)
}

// LoadPath loads the plugin file at path. The plugin is named after the
// file's stem.
func (l *Loader) LoadPath(path string) (*Plugin, error) {
	const op = "plugin.load_path"
	if err := checkName(op, path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.WrapIO(op, err)
	}
	if info.IsDir() {
		return nil, errs.Errorf(errs.InvalidArgument, op, "%s is a directory", path)
	}

	ext := filepath.Ext(path)
	open, ok := l.openerFor(ext)
	if !ok {
		return nil, errs.Errorf(errs.NotSupported, op, "unsupported plugin file type %q", ext)
	}
	return l.open(op, path, stem(path), open)
}

func (l *Loader) open(op, path, name string, open Opener) (p *Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, errs.Errorf(errs.InternalError, op, "opening %s panicked: %v", path, r)
		}
	}()

	module, err := open(path, l.logger)
	if err != nil {
		l.logger.Warn("Failed to open plugin", zap.String("path", path), zap.Error(err))
		return nil, typed(op, err)
	}

	info := module.Info()
	info.Name = name
	info.Path = path
	info.Static = false
	l.logger.Info("Loaded plugin", zap.String("plugin", name), zap.String("path", path))
	return newPlugin(info, module, l.bind, l.env, l.logger), nil
}

func (l *Loader) fromFactory(op string, info models.PluginInfo, factory pluginapi.Factory) (p *Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, errs.Errorf(errs.InternalError, op, "plugin factory panicked: %v", r)
		}
	}()

	module := factory()
	if module == nil {
		return nil, errs.Errorf(errs.InternalError, op, "factory for %q returned nil", info.Name)
	}
	l.logger.Debug("Loaded static plugin", zap.String("plugin", info.Name))
	return newPlugin(info, module, l.bind, l.env, l.logger), nil
}

func checkName(op, s string) error {
	if s == "" {
		return errs.New(errs.InvalidArgument, op, "empty plugin name")
	}
	if strings.ContainsRune(s, 0) {
		return errs.New(errs.InvalidArgument, op, "plugin name contains a NUL byte")
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var (
	defaultLoader *Loader
	defaultOnce   sync.Once
)

// Default returns the process-wide loader.
func Default() *Loader {
	defaultOnce.Do(func() {
		defaultLoader = NewLoader()
	})
	return defaultLoader
}

// InitStaticPlugins initializes the compiled-in plugins and returns how
// many are available.
func InitStaticPlugins() int { return Default().InitStatic() }

// AddSearchPath appends dir to the process search paths.
func AddSearchPath(dir string) bool { return Default().AddSearchPath(dir) }

// DiscoverPlugins lists the plugins visible to the process loader.
func DiscoverPlugins() []models.PluginInfo { return Default().Discover() }

// Load loads the named plugin with the process loader.
func Load(name string) (*Plugin, error) { return Default().Load(name) }

// LoadPath loads a plugin file with the process loader.
func LoadPath(path string) (*Plugin, error) { return Default().LoadPath(path) }
