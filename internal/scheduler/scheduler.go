// Package scheduler implements watch mode: a tick-based loop that takes a
// fresh snapshot on every tick and runs the loaded plugins against it.
// Each tick owns its own snapshot cache, so values never leak between runs.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/config"
	"github.com/Guliveer/hostsnap/internal/models"
)

// Snapshotter assembles the built-in metrics of one run.
type Snapshotter interface {
	Snapshot(ctx context.Context, m *cache.Manager) models.Snapshot
}

// PluginCollector runs every loaded plugin against one run's cache.
type PluginCollector interface {
	CollectAll(ctx context.Context, c *cache.Manager) (map[string]map[string]any, map[string]error)
}

// Scheduler manages periodic snapshot collection.
type Scheduler struct {
	snap    Snapshotter
	plugins PluginCollector
	cfg     config.WatchConfig
	logger  *zap.Logger

	mu     sync.RWMutex
	latest *models.Snapshot
	runs   uint64

	onSnapshot func(models.Snapshot)
}

// New creates a new Scheduler. plugins may be nil.
func New(snap Snapshotter, plugins PluginCollector, cfg config.WatchConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		snap:    snap,
		plugins: plugins,
		cfg:     cfg,
		logger:  logger,
	}
}

// OnSnapshot sets the callback invoked after every collection.
func (s *Scheduler) OnSnapshot(fn func(models.Snapshot)) {
	s.onSnapshot = fn
}

// Start collects immediately and then on every interval. It blocks until
// the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval.Duration)
	defer ticker.Stop()

	s.Collect(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Scheduler stopped", zap.Uint64("runs", s.Runs()))
			return
		case <-ticker.C:
			s.Collect(ctx)
		}
	}
}

// Collect performs one run with a fresh cache and the configured timeout.
func (s *Scheduler) Collect(ctx context.Context) models.Snapshot {
	timeout := s.cfg.Timeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m := cache.New(cache.WithLogger(s.logger))
	defer m.Close()

	started := time.Now()
	snapshot := s.snap.Snapshot(runCtx, m)
	if snapshot.Errors == nil {
		snapshot.Errors = make(map[string]string)
	}

	if s.plugins != nil {
		data, failures := s.plugins.CollectAll(runCtx, m)
		if len(data) > 0 {
			snapshot.Plugins = data
		}
		for name, err := range failures {
			snapshot.Errors["plugin:"+name] = err.Error()
		}
	}

	s.mu.Lock()
	s.latest = &snapshot
	s.runs++
	s.mu.Unlock()

	stats := m.Stats()
	s.logger.Debug("Collected snapshot",
		zap.Time("timestamp", snapshot.Timestamp),
		zap.Duration("took", time.Since(started)),
		zap.Int("errors", len(snapshot.Errors)),
		zap.Int("plugins", len(snapshot.Plugins)),
		zap.Int("cache_hits", stats.Hits),
		zap.Int("cache_misses", stats.Misses))

	if s.onSnapshot != nil {
		s.onSnapshot(snapshot)
	}
	return snapshot
}

// Latest returns the most recent snapshot.
func (s *Scheduler) Latest() (models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return models.Snapshot{}, false
	}
	return *s.latest, true
}

// Runs returns how many collections have completed.
func (s *Scheduler) Runs() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}
