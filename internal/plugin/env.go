package plugin

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/store"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// Dirs are the roots under which each plugin gets its own directories.
type Dirs struct {
	Config string
	Cache  string
	Data   string
}

// DefaultDirs resolves the per-user roots for plugin directories.
func DefaultDirs() Dirs {
	var d Dirs
	if dir, err := os.UserConfigDir(); err == nil {
		d.Config = filepath.Join(dir, "hostsnap", "plugins")
	}
	if dir, err := os.UserCacheDir(); err == nil {
		d.Cache = filepath.Join(dir, "hostsnap", "plugins")
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		d.Data = filepath.Join(dir, "hostsnap", "plugins")
	} else if home, err := os.UserHomeDir(); err == nil {
		d.Data = filepath.Join(home, ".local", "share", "hostsnap", "plugins")
	}
	if d.Config == "" {
		d.Config = filepath.Join(os.TempDir(), "hostsnap", "config")
	}
	if d.Cache == "" {
		d.Cache = filepath.Join(os.TempDir(), "hostsnap", "cache")
	}
	if d.Data == "" {
		d.Data = filepath.Join(os.TempDir(), "hostsnap", "data")
	}
	return d
}

// DirEnv creates each plugin's directories under roots and opens its
// persistent store in the cache directory.
func DirEnv(roots Dirs, storeMaxSizeMB int, logger *zap.Logger) EnvProvider {
	return func(name string) (pluginapi.Env, error) {
		const op = "plugin.env"
		env := pluginapi.Env{
			Name:      name,
			ConfigDir: filepath.Join(roots.Config, name),
			CacheDir:  filepath.Join(roots.Cache, name),
			DataDir:   filepath.Join(roots.Data, name),
			Logger:    logger.With(zap.String("plugin", name)),
		}
		for _, dir := range []string{env.ConfigDir, env.CacheDir, env.DataDir} {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return pluginapi.Env{}, errs.WrapIO(op, err)
			}
		}
		st, err := store.New(filepath.Join(env.CacheDir, "store"), storeMaxSizeMB, env.Logger)
		if err != nil {
			return pluginapi.Env{}, err
		}
		if n := st.Purge(); n > 0 {
			env.Logger.Debug("Purged expired store entries",
				zap.Int("purged", n),
				zap.Int("remaining", st.Count()),
				zap.String("dir", st.Dir()))
		}
		env.Store = st
		return env, nil
	}
}
