// Package cache implements the run-scoped snapshot cache. A Manager
// memoizes each metric key at most once for its lifetime: there is no
// expiry, no invalidation and no refresh. Failed computations are never
// stored, so a retry re-invokes the collector.
package cache

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// Stats counts cache activity for one Manager.
type Stats struct {
	Hits     int `json:"hits"`
	Misses   int `json:"misses"`
	Failures int `json:"failures"`
}

// Manager owns the values computed during one run. It is created empty and
// populated lazily by the dispatch layer.
//
// Map access is synchronized, but computation is not: two goroutines that
// miss the same key concurrently may both compute it. Callers sharing a
// Manager across goroutines must serialize access to keep at-most-once.
type Manager struct {
	mu      sync.Mutex
	entries map[string]any
	stats   Stats
	closed  bool
	logger  *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for debug tracing of hits and misses.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		entries: make(map[string]any),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close destroys the Manager and drops every stored value. It is safe to
// call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.logger.Debug("Releasing snapshot cache",
		zap.Int("entries", len(m.entries)),
		zap.Int("hits", m.stats.Hits),
		zap.Int("misses", m.stats.Misses))
	m.entries = nil
	m.closed = true
}

// Len returns the number of stored keys.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Has reports whether key is stored.
func (m *Manager) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Stats returns a copy of the activity counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Err returns an InvalidArgument error when m is nil or closed.
func (m *Manager) Err() error {
	if m == nil {
		return errs.New(errs.InvalidArgument, "cache.get", "nil cache manager")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errs.New(errs.InvalidArgument, "cache.get", "cache manager is closed")
	}
	return nil
}

func (m *Manager) lookup(key string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, errs.New(errs.InvalidArgument, "cache.get", "cache manager is closed")
	}
	v, ok := m.entries[key]
	if ok {
		m.stats.Hits++
	} else {
		m.stats.Misses++
	}
	return v, ok, nil
}

func (m *Manager) store(key string, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.entries[key] = v
}

func (m *Manager) fail() {
	m.mu.Lock()
	m.stats.Failures++
	m.mu.Unlock()
}

// GetOrCompute returns the value stored under key, computing it with fn on
// the first request. Errors from fn are returned unchanged and not stored.
func GetOrCompute[T any](m *Manager, key string, fn func() (T, error)) (T, error) {
	var zero T
	if m == nil {
		return zero, m.Err()
	}

	v, ok, err := m.lookup(key)
	if err != nil {
		return zero, err
	}
	if ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
		return zero, errs.Errorf(errs.InternalError, "cache.get", "key %q holds %T", key, v)
	}

	computed, err := fn()
	if err != nil {
		m.fail()
		m.logger.Debug("Metric computation failed, not caching",
			zap.String("key", key),
			zap.Error(err))
		return zero, err
	}
	m.store(key, computed)
	m.logger.Debug("Cached metric", zap.String("key", key))
	return computed, nil
}
