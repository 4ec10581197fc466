package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// Snapshot gathers every built-in metric through the cache. A failing
// metric is left absent and its error recorded; it never aborts the rest.
func (d *Dispatcher) Snapshot(ctx context.Context, m *cache.Manager) models.Snapshot {
	snap := models.Snapshot{
		Timestamp: time.Now().UTC(),
		Errors:    make(map[string]string),
	}
	record := func(key string, err error) bool {
		if err != nil {
			snap.Errors[key] = err.Error()
			d.logger.Debug("Metric unavailable", zap.String("metric", key), zap.Error(err))
			return false
		}
		return true
	}

	if v, err := d.Memory(ctx, m); record(pluginapi.MetricMemory, err) {
		snap.Memory = models.Some(v)
	}
	if v, err := d.CPUCores(ctx, m); record(pluginapi.MetricCPUCores, err) {
		snap.CPUCores = models.Some(v)
	}
	if v, err := d.CPUModel(ctx, m); record(pluginapi.MetricCPUModel, err) {
		snap.CPUModel = models.Some(v)
	}
	if v, err := d.GPUModel(ctx, m); record(pluginapi.MetricGPUModel, err) {
		snap.GPUModel = models.Some(v)
	}
	if v, err := d.OSInfo(ctx, m); record(pluginapi.MetricOS, err) {
		snap.OS = models.Some(v)
	}
	if v, err := d.KernelVersion(ctx, m); record(pluginapi.MetricKernelVersion, err) {
		snap.KernelVersion = models.Some(v)
	}
	if v, err := d.HostModel(ctx, m); record(pluginapi.MetricHost, err) {
		snap.Host = models.Some(v)
	}
	if v, err := d.DesktopEnvironment(ctx, m); record(pluginapi.MetricDesktopEnvironment, err) {
		snap.DesktopEnvironment = models.Some(v)
	}
	if v, err := d.WindowManager(ctx, m); record(pluginapi.MetricWindowManager, err) {
		snap.WindowManager = models.Some(v)
	}
	if v, err := d.Shell(ctx, m); record(pluginapi.MetricShell, err) {
		snap.Shell = models.Some(v)
	}
	if v, err := d.Disks(ctx, m); record(pluginapi.MetricDisks, err) {
		snap.Disks = models.Some(v)
	}
	if v, err := d.DiskUsage(ctx, m); record(pluginapi.MetricDiskUsage, err) {
		snap.DiskUsage = models.Some(v)
	}
	if v, err := d.Displays(ctx, m); record(pluginapi.MetricDisplays, err) {
		snap.Displays = models.Some(v)
	}
	if v, err := d.NetworkInterfaces(ctx, m); record(pluginapi.MetricNetworkInterfaces, err) {
		snap.NetworkInterfaces = models.Some(v)
	}
	if v, err := d.PrimaryInterface(ctx, m); record(pluginapi.MetricPrimaryInterface, err) {
		snap.PrimaryInterface = models.Some(v)
	}
	if v, err := d.Battery(ctx, m); record(pluginapi.MetricBattery, err) {
		snap.Battery = models.Some(v)
	}
	if v, err := d.Uptime(ctx, m); record(pluginapi.MetricUptime, err) {
		snap.Uptime = models.Some(v)
	}
	return snap
}
