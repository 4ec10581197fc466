// Package store provides the per-plugin persistent cache. Each entry is a
// JSON file holding the value and an optional expiry. Data persists across
// restarts. Auto-cleanup enforces a size limit by evicting the oldest entry.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
)

// entry is the on-disk envelope.
type entry struct {
	Key       string          `json:"key"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Value     json.RawMessage `json:"value"`
}

// Store is a file-backed key/value cache rooted at one directory.
type Store struct {
	dir       string
	maxSizeMB int
	logger    *zap.Logger
	now       func() time.Time
	mu        sync.Mutex
}

// New creates a store at dir, creating the directory if needed.
// maxSizeMB <= 0 disables the size limit.
func New(dir string, maxSizeMB int, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errs.WrapIO("store.open", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dir:       dir,
		maxSizeMB: maxSizeMB,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".json")
}

// Get decodes the value under key into v. Expired and corrupted entries
// are removed and reported as misses.
func (s *Store) Get(key string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errs.WrapIO("store.get", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		s.logger.Warn("Removing corrupted cache entry",
			zap.String("file", path),
			zap.Error(err))
		os.Remove(path)
		return false, nil
	}
	if e.ExpiresAt != nil && !s.now().Before(*e.ExpiresAt) {
		os.Remove(path)
		return false, nil
	}
	if err := json.Unmarshal(e.Value, v); err != nil {
		return false, errs.Wrap(errs.CorruptedData, "store.get", err)
	}
	return true, nil
}

// Set stores v under key. A zero ttl never expires.
func (s *Store) Set(key string, v any, ttl time.Duration) error {
	value, err := json.Marshal(v)
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, "store.set", err)
	}
	e := entry{Key: key, Value: value}
	if ttl > 0 {
		exp := s.now().Add(ttl).UTC()
		e.ExpiresAt = &exp
	}
	data, err := json.Marshal(e)
	if err != nil {
		return errs.Wrap(errs.InternalError, "store.set", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSizeMB > 0 && s.currentSizeMB() >= s.maxSizeMB {
		s.logger.Warn("Plugin cache full, dropping oldest entry", zap.String("dir", s.dir))
		s.dropOldest()
	}
	if err := os.WriteFile(s.path(key), data, 0640); err != nil {
		return errs.WrapIO("store.set", err)
	}
	return nil
}

// Invalidate removes key. Missing keys are not an error.
func (s *Store) Invalidate(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errs.WrapIO("store.invalidate", err)
	}
	return nil
}

// Purge removes expired and unreadable entries and returns how many were
// removed.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, path := range s.entryFiles() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil ||
			(e.ExpiresAt != nil && !s.now().Before(*e.ExpiresAt)) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed
}

// Count returns the number of stored entries, expired ones included.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entryFiles())
}

// entryFiles lists entry paths. Must be called with s.mu held.
func (s *Store) entryFiles() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			files = append(files, filepath.Join(s.dir, e.Name()))
		}
	}
	return files
}

// currentSizeMB returns the total size of all entries in megabytes.
// Must be called with s.mu held.
func (s *Store) currentSizeMB() int {
	var total int64
	for _, path := range s.entryFiles() {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return int(total / (1024 * 1024))
}

// dropOldest removes the least recently written entry.
// Must be called with s.mu held.
func (s *Store) dropOldest() {
	type aged struct {
		path string
		mod  time.Time
	}
	var files []aged
	for _, path := range s.entryFiles() {
		if info, err := os.Stat(path); err == nil {
			files = append(files, aged{path, info.ModTime()})
		}
	}
	if len(files) == 0 {
		return
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })
	if err := os.Remove(files[0].path); err != nil {
		s.logger.Warn("Failed to remove oldest cache entry",
			zap.String("file", files[0].path),
			zap.Error(err))
	}
}
