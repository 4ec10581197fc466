//go:build windows

package config

import (
	"os"
	"path/filepath"
)

// configSearchPaths lists per-user locations before machine-wide ones and
// finally the directory holding the executable.
func configSearchPaths() []string {
	var paths []string
	for _, env := range []string{"APPDATA", "LOCALAPPDATA", "ProgramData"} {
		if dir := os.Getenv(env); dir != "" {
			paths = append(paths, filepath.Join(dir, "hostsnap", "config.yaml"))
		}
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "hostsnap.yaml"))
	}
	return paths
}
