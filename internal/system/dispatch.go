// Package system is the collector dispatch layer. Every method takes the
// run's cache.Manager and either returns the stored value or invokes the
// collector, storing only successful results. Uptime is never cached.
package system

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/collector"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// Dispatcher routes metric requests through a cache to a collector.Source.
type Dispatcher struct {
	src    collector.Source
	logger *zap.Logger
}

// New creates a Dispatcher. A nil logger disables logging.
func New(src collector.Source, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{src: src, logger: logger}
}

// Memory returns used and total RAM.
func (d *Dispatcher) Memory(ctx context.Context, m *cache.Manager) (models.ResourceUsage, error) {
	return cache.GetOrCompute(m, pluginapi.MetricMemory, func() (models.ResourceUsage, error) {
		return d.src.Memory(ctx)
	})
}

// CPUCores returns the processor topology.
func (d *Dispatcher) CPUCores(ctx context.Context, m *cache.Manager) (models.CPUCores, error) {
	return cache.GetOrCompute(m, pluginapi.MetricCPUCores, func() (models.CPUCores, error) {
		return d.src.CPUCores(ctx)
	})
}

// CPUModel returns the processor model name.
func (d *Dispatcher) CPUModel(ctx context.Context, m *cache.Manager) (string, error) {
	return cache.GetOrCompute(m, pluginapi.MetricCPUModel, func() (string, error) {
		return d.src.CPUModel(ctx)
	})
}

// GPUModel returns the primary GPU name.
func (d *Dispatcher) GPUModel(ctx context.Context, m *cache.Manager) (string, error) {
	return cache.GetOrCompute(m, pluginapi.MetricGPUModel, func() (string, error) {
		return d.src.GPUModel(ctx)
	})
}

// OSInfo returns the operating system identity.
func (d *Dispatcher) OSInfo(ctx context.Context, m *cache.Manager) (models.OSInfo, error) {
	return cache.GetOrCompute(m, pluginapi.MetricOS, func() (models.OSInfo, error) {
		return d.src.OSInfo(ctx)
	})
}

// KernelVersion returns the kernel release.
func (d *Dispatcher) KernelVersion(ctx context.Context, m *cache.Manager) (string, error) {
	return cache.GetOrCompute(m, pluginapi.MetricKernelVersion, func() (string, error) {
		return d.src.KernelVersion(ctx)
	})
}

// HostModel returns the hardware model.
func (d *Dispatcher) HostModel(ctx context.Context, m *cache.Manager) (string, error) {
	return cache.GetOrCompute(m, pluginapi.MetricHost, func() (string, error) {
		return d.src.Host(ctx)
	})
}

// DesktopEnvironment returns the desktop environment name.
func (d *Dispatcher) DesktopEnvironment(ctx context.Context, m *cache.Manager) (string, error) {
	return cache.GetOrCompute(m, pluginapi.MetricDesktopEnvironment, func() (string, error) {
		return d.src.DesktopEnvironment(ctx)
	})
}

// WindowManager returns the window manager or compositor name.
func (d *Dispatcher) WindowManager(ctx context.Context, m *cache.Manager) (string, error) {
	return cache.GetOrCompute(m, pluginapi.MetricWindowManager, func() (string, error) {
		return d.src.WindowManager(ctx)
	})
}

// Shell returns the login shell name.
func (d *Dispatcher) Shell(ctx context.Context, m *cache.Manager) (string, error) {
	return cache.GetOrCompute(m, pluginapi.MetricShell, func() (string, error) {
		return d.src.Shell(ctx)
	})
}

// Battery returns the state of the first battery.
func (d *Dispatcher) Battery(ctx context.Context, m *cache.Manager) (models.Battery, error) {
	return cache.GetOrCompute(m, pluginapi.MetricBattery, func() (models.Battery, error) {
		return d.src.Battery(ctx)
	})
}

// Uptime always queries the collector. m is only checked for validity.
func (d *Dispatcher) Uptime(ctx context.Context, m *cache.Manager) (time.Duration, error) {
	if err := m.Err(); err != nil {
		return 0, err
	}
	return d.src.Uptime(ctx)
}

// Disks returns all volumes. The list is cached as one unit; callers get
// their own copy.
func (d *Dispatcher) Disks(ctx context.Context, m *cache.Manager) ([]models.DiskInfo, error) {
	disks, err := cache.GetOrCompute(m, pluginapi.MetricDisks, func() ([]models.DiskInfo, error) {
		return d.src.Disks(ctx)
	})
	return slices.Clone(disks), err
}

// Displays returns all active outputs.
func (d *Dispatcher) Displays(ctx context.Context, m *cache.Manager) ([]models.DisplayInfo, error) {
	displays, err := cache.GetOrCompute(m, pluginapi.MetricDisplays, func() ([]models.DisplayInfo, error) {
		return d.src.Displays(ctx)
	})
	return slices.Clone(displays), err
}

// NetworkInterfaces returns all interfaces.
func (d *Dispatcher) NetworkInterfaces(ctx context.Context, m *cache.Manager) ([]models.NetworkInterface, error) {
	ifaces, err := cache.GetOrCompute(m, pluginapi.MetricNetworkInterfaces, func() ([]models.NetworkInterface, error) {
		return d.src.NetworkInterfaces(ctx)
	})
	return slices.Clone(ifaces), err
}
