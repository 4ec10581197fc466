package plugin

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

type staticEntry struct {
	info    models.PluginInfo
	factory pluginapi.Factory
}

// StaticRegistry holds plugins compiled into the binary. Registrations
// made from init functions stay pending until Init runs.
type StaticRegistry struct {
	mu      sync.RWMutex
	pending []staticEntry
	entries map[string]staticEntry
	once    sync.Once
	logger  *zap.Logger
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		entries: make(map[string]staticEntry),
		logger:  zap.NewNop(),
	}
}

var compiledIn = NewStaticRegistry()

// RegisterStatic adds a compiled-in plugin to the process registry. It is
// meant to be called from init functions.
func RegisterStatic(info models.PluginInfo, factory pluginapi.Factory) {
	compiledIn.Register(info, factory)
}

// Register queues a factory. Registrations after Init are ignored.
func (r *StaticRegistry) Register(info models.PluginInfo, factory pluginapi.Factory) {
	if info.Name == "" || factory == nil {
		return
	}
	info.Static = true

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, staticEntry{info: info, factory: factory})
}

// SetLogger replaces the registry logger.
func (r *StaticRegistry) SetLogger(logger *zap.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// Init moves pending registrations into the lookup table and returns the
// number of available factories. Only the first call does any work.
func (r *StaticRegistry) Init() int {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		for _, e := range r.pending {
			if _, dup := r.entries[e.info.Name]; dup {
				r.logger.Warn("Duplicate static plugin ignored", zap.String("plugin", e.info.Name))
				continue
			}
			r.entries[e.info.Name] = e
		}
		r.pending = nil
		r.logger.Debug("Static plugins initialized", zap.Int("count", len(r.entries)))
	})
	return r.Len()
}

// Len returns the number of initialized factories.
func (r *StaticRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *StaticRegistry) lookup(name string) (staticEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Infos lists the initialized descriptors sorted by name.
func (r *StaticRegistry) Infos() []models.PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.PluginInfo, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
