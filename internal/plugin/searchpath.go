package plugin

import (
	"os"
	"path/filepath"
	"sync"
)

// SearchPaths is an ordered, append-only list of plugin directories.
type SearchPaths struct {
	mu    sync.RWMutex
	paths []string
}

// NewSearchPaths creates a list holding the given directories.
func NewSearchPaths(dirs ...string) *SearchPaths {
	s := &SearchPaths{}
	for _, d := range dirs {
		s.Add(d)
	}
	return s
}

var processPaths = NewSearchPaths()

// Add appends dir unless an equivalent path is already present. It reports
// whether the list changed.
func (s *SearchPaths) Add(dir string) bool {
	if dir == "" {
		return false
	}
	dir = filepath.Clean(dir)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.paths {
		if p == dir {
			return false
		}
	}
	s.paths = append(s.paths, dir)
	return true
}

// List returns a copy of the directories in search order.
func (s *SearchPaths) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Len returns the number of directories.
func (s *SearchPaths) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paths)
}

// DefaultSearchPaths returns the conventional plugin directories. They are
// only searched when configuration asks for them.
func DefaultSearchPaths() []string {
	dirs := []string{
		"/usr/local/lib/hostsnap/plugins",
		"/usr/lib/hostsnap/plugins",
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "lib", "hostsnap", "plugins"))
	}
	return append(dirs, "./plugins")
}
