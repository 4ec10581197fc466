// Package collector defines the collector contract consumed by the dispatch
// layer and the default implementation backed by gopsutil, sysfs and X11.
// Collectors are pure with respect to the snapshot cache: they never read
// or write it, the dispatch layer owns caching.
package collector

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/internal/platform"
)

// Source produces one raw metric per method. Implementations must bound
// every call; the dispatch layer adds no timeout of its own.
type Source interface {
	Memory(ctx context.Context) (models.ResourceUsage, error)
	CPUCores(ctx context.Context) (models.CPUCores, error)
	CPUModel(ctx context.Context) (string, error)
	GPUModel(ctx context.Context) (string, error)
	OSInfo(ctx context.Context) (models.OSInfo, error)
	KernelVersion(ctx context.Context) (string, error)
	Host(ctx context.Context) (string, error)
	DesktopEnvironment(ctx context.Context) (string, error)
	WindowManager(ctx context.Context) (string, error)
	Shell(ctx context.Context) (string, error)
	Disks(ctx context.Context) ([]models.DiskInfo, error)
	Displays(ctx context.Context) ([]models.DisplayInfo, error)
	NetworkInterfaces(ctx context.Context) ([]models.NetworkInterface, error)
	// DefaultRouteInterface names the interface carrying the default route.
	DefaultRouteInterface(ctx context.Context) (string, error)
	Battery(ctx context.Context) (models.Battery, error)
	Uptime(ctx context.Context) (time.Duration, error)
}

// System is the default Source for the running machine.
type System struct {
	logger   *zap.Logger
	platform platform.Platform

	// Filesystem roots, overridable in tests.
	sysfs     string
	procfs    string
	osRelease string

	getenv func(string) (string, bool)
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger used for debug output. Nil means no logging.
func WithLogger(logger *zap.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPlatform overrides the OS probe layer.
func WithPlatform(p platform.Platform) Option {
	return func(s *System) { s.platform = p }
}

// NewSystem creates the default collector for the running machine.
func NewSystem(opts ...Option) *System {
	s := &System{
		logger:    zap.NewNop(),
		platform:  platform.New(),
		sysfs:     "/sys",
		procfs:    "/proc",
		osRelease: "/etc/os-release",
		getenv:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// env returns a non-empty environment variable.
func (s *System) env(key string) (string, bool) {
	v, ok := s.getenv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
