package system

import (
	"context"

	"go.uber.org/zap"

	"github.com/Guliveer/hostsnap/internal/cache"
	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
	"github.com/Guliveer/hostsnap/pkg/pluginapi"
)

// PrimaryDisplay returns the display marked primary.
func (d *Dispatcher) PrimaryDisplay(ctx context.Context, m *cache.Manager) (models.DisplayInfo, error) {
	return cache.GetOrCompute(m, pluginapi.MetricPrimaryDisplay, func() (models.DisplayInfo, error) {
		displays, err := d.Displays(ctx, m)
		if err != nil {
			return models.DisplayInfo{}, err
		}
		for _, disp := range displays {
			if disp.IsPrimary {
				return disp, nil
			}
		}
		if len(displays) > 0 {
			return displays[0], nil
		}
		return models.DisplayInfo{}, errs.New(errs.NotFound, "system.primary_display", "no displays")
	})
}

// PrimaryInterface returns the interface holding the default route, or
// the first interface that is up and not loopback.
func (d *Dispatcher) PrimaryInterface(ctx context.Context, m *cache.Manager) (models.NetworkInterface, error) {
	return cache.GetOrCompute(m, pluginapi.MetricPrimaryInterface, func() (models.NetworkInterface, error) {
		const op = "system.primary_interface"
		ifaces, err := d.NetworkInterfaces(ctx, m)
		if err != nil {
			return models.NetworkInterface{}, err
		}

		name, routeErr := d.src.DefaultRouteInterface(ctx)
		if routeErr != nil {
			d.logger.Debug("No default route, falling back to first active interface", zap.Error(routeErr))
			for _, iface := range ifaces {
				if iface.IsUp && !iface.IsLoopback {
					name = iface.Name
					break
				}
			}
		}
		if name == "" {
			return models.NetworkInterface{}, errs.New(errs.NotFound, op, "could not determine primary interface")
		}
		for _, iface := range ifaces {
			if iface.Name == name {
				return iface, nil
			}
		}
		return models.NetworkInterface{}, errs.Errorf(errs.NotFound, op, "interface %q has no details", name)
	})
}

// SystemDisk returns the volume holding the operating system.
func (d *Dispatcher) SystemDisk(ctx context.Context, m *cache.Manager) (models.DiskInfo, error) {
	return cache.GetOrCompute(m, pluginapi.MetricSystemDisk, func() (models.DiskInfo, error) {
		disks, err := d.Disks(ctx, m)
		if err != nil {
			return models.DiskInfo{}, err
		}
		for _, disk := range disks {
			if disk.IsSystemDrive {
				return disk, nil
			}
		}
		return models.DiskInfo{}, errs.New(errs.NotFound, "system.system_disk", "no system drive")
	})
}

// DiskUsage returns space usage of the system disk.
func (d *Dispatcher) DiskUsage(ctx context.Context, m *cache.Manager) (models.ResourceUsage, error) {
	return cache.GetOrCompute(m, pluginapi.MetricDiskUsage, func() (models.ResourceUsage, error) {
		disk, err := d.SystemDisk(ctx, m)
		if err != nil {
			return models.ResourceUsage{}, err
		}
		return models.ResourceUsage{UsedBytes: disk.UsedBytes, TotalBytes: disk.TotalBytes}, nil
	})
}
