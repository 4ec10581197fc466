package system

import (
	"context"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// boundHost serves pluginapi.Host from one cache manager.
type boundHost struct {
	d *Dispatcher
	m *cache.Manager
}

// Host binds m so plugins read the same run-scoped values as the host.
func (d *Dispatcher) Host(m *cache.Manager) pluginapi.Host {
	return boundHost{d: d, m: m}
}

// Metric returns the metric named by key.
func (h boundHost) Metric(ctx context.Context, key string) (any, error) {
	d, m := h.d, h.m
	switch key {
	case pluginapi.MetricMemory:
		return d.Memory(ctx, m)
	case pluginapi.MetricCPUCores:
		return d.CPUCores(ctx, m)
	case pluginapi.MetricCPUModel:
		return d.CPUModel(ctx, m)
	case pluginapi.MetricGPUModel:
		return d.GPUModel(ctx, m)
	case pluginapi.MetricOS:
		return d.OSInfo(ctx, m)
	case pluginapi.MetricKernelVersion:
		return d.KernelVersion(ctx, m)
	case pluginapi.MetricHost:
		return d.HostModel(ctx, m)
	case pluginapi.MetricDesktopEnvironment:
		return d.DesktopEnvironment(ctx, m)
	case pluginapi.MetricWindowManager:
		return d.WindowManager(ctx, m)
	case pluginapi.MetricShell:
		return d.Shell(ctx, m)
	case pluginapi.MetricDisks:
		return d.Disks(ctx, m)
	case pluginapi.MetricDiskUsage:
		return d.DiskUsage(ctx, m)
	case pluginapi.MetricSystemDisk:
		return d.SystemDisk(ctx, m)
	case pluginapi.MetricDisplays:
		return d.Displays(ctx, m)
	case pluginapi.MetricPrimaryDisplay:
		return d.PrimaryDisplay(ctx, m)
	case pluginapi.MetricNetworkInterfaces:
		return d.NetworkInterfaces(ctx, m)
	case pluginapi.MetricPrimaryInterface:
		return d.PrimaryInterface(ctx, m)
	case pluginapi.MetricBattery:
		return d.Battery(ctx, m)
	case pluginapi.MetricUptime:
		return d.Uptime(ctx, m)
	}
	return nil, errs.Errorf(errs.InvalidArgument, "host.metric", "unknown metric %q", key)
}
