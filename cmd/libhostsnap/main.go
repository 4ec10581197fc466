// Command libhostsnap builds hostsnap as a C library:
//
//	go build -buildmode=c-shared -o libhostsnap.so ./cmd/libhostsnap
//
// Values cross the boundary as the structs declared in hostsnap.h. Every
// string, struct with owned fields and list returned to C must be released
// exactly once with its matching hostsnap_free_* function. Cache managers
// and plugins are opaque handles, and each handle must be passed to its
// destroy or unload function when the caller is done with it.
//
// Handles are single-writer: a caller sharing one across threads must
// serialize access itself.
package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/collector"
	"github.com/Guliveer/hostsnap/internal/plugin"
	"github.com/Guliveer/hostsnap/internal/system"
)

var (
	logger     = newLogger()
	dispatcher = system.New(collector.NewSystem(collector.WithLogger(logger)), logger)
	loader     = plugin.NewLoader(
		plugin.WithLogger(logger),
		plugin.WithHostBinder(dispatcher.Host),
	)

	caches  = newRegistry[*cache.Manager]()
	plugins = newRegistry[*plugin.Plugin]()
)

func main() {}

// newLogger logs errors to stderr. HOSTSNAP_LOG_LEVEL raises or lowers the
// level.
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	if s := os.Getenv("HOSTSNAP_LOG_LEVEL"); s != "" {
		if level, err := zap.ParseAtomicLevel(s); err == nil {
			cfg.Level = level
		}
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("libhostsnap")
}
