package plugin

import (
	"context"
	"errors"
	"sync"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// fakeModule is a scriptable Module.
type fakeModule struct {
	pluginapi.Base

	mu          sync.Mutex
	initErr     error
	collectErr  error
	failCollect bool
	disable     bool
	notReady    bool
	panicOn     string
	data        map[string]any
	config      pluginapi.Config
	inits       int
	collects    int
	closed      int
	metricKey   string
	metricValue any
}

func newFake(name string) *fakeModule {
	return &fakeModule{
		Base: pluginapi.Base{Meta: pluginapi.Info{Name: name, Version: "1.0.0", Type: pluginapi.TypeInfoProvider}},
		data: map[string]any{"value": 1},
	}
}

func (f *fakeModule) Configure(cfg pluginapi.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == "configure" {
		panic("configure exploded")
	}
	f.config = cfg
	return nil
}

func (f *fakeModule) Initialize(ctx context.Context, env pluginapi.Env) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	if f.initErr != nil {
		return f.Fail(f.initErr)
	}
	f.SetEnabled(!f.disable)
	f.SetReady(!f.notReady)
	return nil
}

func (f *fakeModule) Collect(ctx context.Context, host pluginapi.Host) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collects++
	if f.panicOn == "collect" {
		panic("collect exploded")
	}
	if f.collectErr != nil {
		if f.failCollect {
			return nil, f.Fail(f.collectErr)
		}
		return nil, f.collectErr
	}
	out := make(map[string]any, len(f.data)+1)
	for k, v := range f.data {
		out[k] = v
	}
	if f.metricKey != "" {
		v, err := host.Metric(ctx, f.metricKey)
		if err != nil {
			return nil, err
		}
		f.metricValue = v
		out[f.metricKey] = v
	}
	return out, nil
}

func (f *fakeModule) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// countingHost counts Metric calls per cache manager.
type countingHost struct {
	mu    sync.Mutex
	calls int
}

func (h *countingHost) bind(m *cache.Manager) pluginapi.Host {
	return hostFunc(func(ctx context.Context, key string) (any, error) {
		return cache.GetOrCompute(m, key, func() (string, error) {
			h.mu.Lock()
			h.calls++
			h.mu.Unlock()
			if key == "missing" {
				return "", errors.New("no such metric")
			}
			return "value-of-" + key, nil
		})
	})
}

type hostFunc func(ctx context.Context, key string) (any, error)

func (f hostFunc) Metric(ctx context.Context, key string) (any, error) { return f(ctx, key) }

func memEnv(name string) (pluginapi.Env, error) {
	return pluginapi.Env{Name: name}, nil
}
